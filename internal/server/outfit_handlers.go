package server

import (
	"sharefit/internal/models"
	"sharefit/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchOutfits handles GET /api/outfits?q=&tag=&poster=
// @Summary Search outfits
// @Description List outfits newest first, filtered by title terms, tag or poster
// @Tags outfits
// @Produce json
// @Param q query string false "Title search terms"
// @Param tag query string false "Tag"
// @Param poster query string false "Poster username"
// @Success 200 {array} outfitView
// @Failure 500 {object} object{error=string}
// @Router /outfits [get]
func (s *Server) SearchOutfits(c *fiber.Ctx) error {
	ctx := c.UserContext()
	outfits, err := s.outfitService.Search(ctx, models.OutfitFilter{
		Query:  c.Query("q"),
		Tag:    c.Query("tag"),
		Poster: c.Query("poster"),
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return s.respondOutfits(c, outfits)
}

// CreateOutfit handles POST /api/outfits
// @Summary Create outfit
// @Description Post a new outfit
// @Tags outfits
// @Accept json
// @Produce json
// @Param request body createOutfitRequest true "Outfit"
// @Success 201 {object} outfitDetailView
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 429 {object} object{error=string}
// @Security BearerAuth
// @Router /outfits [post]
func (s *Server) CreateOutfit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req createOutfitRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	outfit, err := s.outfitService.CreateOutfit(ctx, service.CreateOutfitInput{
		PosterID:    currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		Items:       req.items(),
		Pictures:    req.Pictures,
		Tags:        req.Tags,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	zero := 0
	return c.Status(fiber.StatusCreated).JSON(newOutfitDetailView(outfit, &zero))
}

// ListMyOutfits handles GET /api/outfits/mine
// @Summary List my outfits
// @Description List outfits posted by the signed-in user
// @Tags outfits
// @Produce json
// @Success 200 {array} outfitView
// @Failure 401 {object} object{error=string}
// @Security BearerAuth
// @Router /outfits/mine [get]
func (s *Server) ListMyOutfits(c *fiber.Ctx) error {
	ctx := c.UserContext()
	outfits, err := s.outfitService.ListMine(ctx, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return s.respondOutfits(c, outfits)
}

// ListSavedOutfits handles GET /api/outfits/saved
// @Summary List saved outfits
// @Description List outfits the signed-in user saved
// @Tags outfits
// @Produce json
// @Success 200 {array} outfitView
// @Failure 401 {object} object{error=string}
// @Security BearerAuth
// @Router /outfits/saved [get]
func (s *Server) ListSavedOutfits(c *fiber.Ctx) error {
	ctx := c.UserContext()
	outfits, err := s.outfitService.ListSaved(ctx, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return s.respondOutfits(c, outfits)
}

// VotesFor handles POST /api/outfits/votes
// @Summary Get my votes
// @Description Get the signed-in user vote on each requested outfit
// @Tags outfits
// @Accept json
// @Produce json
// @Param request body object{ids=[]int} false "Outfit IDs"
// @Success 200 {object} object{votes=map[string]int}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Security BearerAuth
// @Router /outfits/votes [post]
func (s *Server) VotesFor(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req votesRequest
	if len(c.Body()) > 0 {
		if err := bindJSON(c, &req); err != nil {
			return nil
		}
	}

	votes, err := s.outfitService.VotesFor(ctx, currentUserID(c), req.IDs)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"votes": votes})
}

// GetOutfit handles GET /api/outfits/:id. Authentication is optional; a
// signed-in caller also receives their own vote.
// @Summary Get outfit
// @Description Get an outfit with its comment threads
// @Tags outfits
// @Produce json
// @Param id path int true "Outfit ID"
// @Success 200 {object} outfitDetailView
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /outfits/{id} [get]
func (s *Server) GetOutfit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	outfit, err := s.outfitService.GetOutfit(ctx, id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	var myVote *int
	if userID, ok := s.optionalUserID(c); ok {
		v := outfit.VoteOf(userID)
		myVote = &v
	}
	return c.JSON(newOutfitDetailView(outfit, myVote))
}

// SaveOutfit handles POST /api/outfits/:id/save
// @Summary Save outfit
// @Description Add an outfit to the saved list
// @Tags outfits
// @Produce json
// @Param id path int true "Outfit ID"
// @Success 200 {object} object{saved_outfit_ids=[]int}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Security BearerAuth
// @Router /outfits/{id}/save [post]
func (s *Server) SaveOutfit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	saved, err := s.outfitService.Save(ctx, currentUserID(c), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"saved_outfit_ids": saved})
}

// UnsaveOutfit handles POST /api/outfits/:id/unsave
// @Summary Unsave outfit
// @Description Remove an outfit from the saved list
// @Tags outfits
// @Produce json
// @Param id path int true "Outfit ID"
// @Success 200 {object} object{saved_outfit_ids=[]int}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Security BearerAuth
// @Router /outfits/{id}/unsave [post]
func (s *Server) UnsaveOutfit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	saved, err := s.outfitService.Unsave(ctx, currentUserID(c), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"saved_outfit_ids": saved})
}

// RateOutfit handles POST /api/outfits/:id/rate
// @Summary Rate outfit
// @Description Vote -1, 0 or 1 on an outfit
// @Tags outfits
// @Accept json
// @Produce json
// @Param id path int true "Outfit ID"
// @Param request body object{value=int} true "Vote"
// @Success 200 {object} object{rating=int,my_vote=int}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Failure 429 {object} object{error=string}
// @Security BearerAuth
// @Router /outfits/{id}/rate [post]
func (s *Server) RateOutfit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req rateRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	rating, err := s.outfitService.Rate(ctx, service.RateInput{
		UserID:   currentUserID(c),
		OutfitID: id,
		Value:    *req.Value,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"rating": rating, "my_vote": *req.Value})
}

// respondOutfits renders a list. A signed-in caller also receives their own
// vote on each outfit, read from the loaded documents.
func (s *Server) respondOutfits(c *fiber.Ctx, outfits []models.Outfit) error {
	var votes map[uint]int
	if userID, ok := s.optionalUserID(c); ok {
		votes = make(map[uint]int, len(outfits))
		for i := range outfits {
			votes[outfits[i].ID] = outfits[i].VoteOf(userID)
		}
	}
	return c.JSON(newOutfitViews(outfits, votes))
}
