package server

import (
	"log/slog"
	"time"

	"sharefit/internal/cache"
	"sharefit/internal/models"
	"sharefit/internal/observability"
	"sharefit/internal/service"

	"github.com/gofiber/fiber/v2"
)

const sessionCookie = "token"

func (s *Server) setSessionCookie(c *fiber.Ctx, sess *service.Session) {
	expires := time.Now().Add(s.tokens.TTL())
	if sess.Claims != nil && sess.Claims.ExpiresAt != nil {
		expires = sess.Claims.ExpiresAt.Time
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Register handles POST /api/auth/register
// @Summary User registration
// @Description Create an account and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string,profile_picture_url=string} true "Registration request"
// @Success 201 {object} sessionView
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Failure 429 {object} object{error=string}
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	sess, err := s.authService.Register(ctx, service.RegisterInput{
		Username:          req.Username,
		Password:          req.Password,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.setSessionCookie(c, sess)
	return c.Status(fiber.StatusCreated).JSON(newSessionView(sess))
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate with username, password and a TOTP code when enabled
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string,code=string} true "Login credentials"
// @Success 200 {object} sessionView
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 429 {object} object{error=string}
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	sess, err := s.authService.Login(ctx, service.LoginInput{
		Username: req.Username,
		Password: req.Password,
		Code:     req.Code,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.setSessionCookie(c, sess)
	return c.JSON(newSessionView(sess))
}

// Logout handles POST /api/auth/logout. A valid presented token is revoked
// for the rest of its lifetime; the cookie is always cleared.
// @Summary Logout
// @Description Revoke the presented token and clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if token := tokenFromRequest(c); token != "" && s.redis != nil {
		if claims, err := s.tokens.Parse(token); err == nil && claims.ID != "" {
			if ttl := s.tokens.Remaining(claims); ttl > 0 {
				if err := s.redis.Set(ctx, cache.RevokedKey(claims.ID), "1", ttl).Err(); err != nil {
					observability.GlobalLogger.WarnContext(ctx, "failed to revoke token", slog.String("error", err.Error()))
				}
			}
		}
	}

	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// BeginTOTPSetup handles POST /api/auth/totp/setup
// @Summary Begin TOTP setup
// @Description Generate a pending TOTP secret and provisioning QR code
// @Tags auth
// @Produce json
// @Success 200 {object} auth.TOTPSetup
// @Failure 401 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Security BearerAuth
// @Router /auth/totp/setup [post]
func (s *Server) BeginTOTPSetup(c *fiber.Ctx) error {
	ctx := c.UserContext()
	setup, err := s.authService.BeginTOTPSetup(ctx, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(setup)
}

// ConfirmTOTPSetup handles POST /api/auth/totp/verify
// @Summary Confirm TOTP setup
// @Description Enable TOTP after verifying a code from the pending secret
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{code=string} true "TOTP code"
// @Success 200 {object} object{user=userView}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Security BearerAuth
// @Router /auth/totp/verify [post]
func (s *Server) ConfirmTOTPSetup(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req totpVerifyRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	user, err := s.authService.ConfirmTOTPSetup(ctx, currentUserID(c), req.Code)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"user": newUserView(user)})
}

