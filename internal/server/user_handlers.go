package server

import (
	"sharefit/internal/models"
	"sharefit/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Get my profile
// @Description Get the signed-in user profile
// @Tags users
// @Produce json
// @Success 200 {object} userView
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Security BearerAuth
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := s.userService.GetProfile(ctx, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(newUserView(user))
}

// UpdateMyProfile handles PUT /api/users/me. The session is re-issued so the
// token carries the new username.
// @Summary Update my profile
// @Description Change username and/or profile picture; posted outfits and comments follow
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string,profile_picture_url=string} true "Profile fields"
// @Success 200 {object} sessionView
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Security BearerAuth
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req updateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(ctx, service.UpdateProfileInput{
		UserID:            currentUserID(c),
		Username:          req.Username,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	sess, err := s.authService.IssueSession(user)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	s.setSessionCookie(c, sess)
	return c.JSON(newSessionView(sess))
}
