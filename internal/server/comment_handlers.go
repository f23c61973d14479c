package server

import (
	"strings"

	"sharefit/internal/models"
	"sharefit/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/outfits/:id/comments
// @Summary List comments
// @Description List comment threads on an outfit
// @Tags comments
// @Produce json
// @Param id path int true "Outfit ID"
// @Success 200 {array} threadView
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /outfits/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	threads, err := s.commentService.ListThreads(ctx, id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(newThreadViews(threads))
}

// CreateComment handles POST /api/outfits/:id/comments
// @Summary Create comment
// @Description Comment on an outfit or reply to a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Outfit ID"
// @Param request body object{text=string,parent_id=string} true "Comment"
// @Success 201 {object} commentView
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Failure 429 {object} object{error=string}
// @Security BearerAuth
// @Router /outfits/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req createCommentRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.CreateComment(ctx, service.CreateCommentInput{
		UserID:   currentUserID(c),
		OutfitID: id,
		Text:     req.Text,
		ParentID: req.ParentID,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(newCommentView(*comment))
}

// DeleteComment handles DELETE /api/outfits/:id/comments/:commentId
// @Summary Delete comment
// @Description Tombstone one of your own comments
// @Tags comments
// @Produce json
// @Param id path int true "Outfit ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} commentView
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Security BearerAuth
// @Router /outfits/{id}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID := strings.TrimSpace(c.Params("commentId"))
	if commentID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid comment ID"))
	}

	comment, err := s.commentService.DeleteComment(ctx, service.DeleteCommentInput{
		UserID:    currentUserID(c),
		OutfitID:  id,
		CommentID: commentID,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(newCommentView(*comment))
}
