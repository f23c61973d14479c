// Package server contains the HTTP handlers for the ShareFit API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sharefit/internal/auth"
	"sharefit/internal/cache"
	"sharefit/internal/config"
	"sharefit/internal/database"
	"sharefit/internal/middleware"
	"sharefit/internal/models"
	"sharefit/internal/observability"
	"sharefit/internal/repository"
	"sharefit/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *auth.TokenManager
	userRepo       repository.UserRepository
	outfitRepo     repository.OutfitRepository
	authService    *service.AuthService
	outfitService  *service.OutfitService
	commentService *service.CommentService
	userService    *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Initialize Redis
	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redisClient runs without caching, revocation or per-route limits.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	cache.SetClient(redisClient)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(observability.ServiceName),
		tokens:         auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL()),
		userRepo:       repository.NewUserRepository(db),
		outfitRepo:     repository.NewOutfitRepository(db),
	}
	server.wireServices()
	return server, nil
}

func (s *Server) wireServices() {
	s.authService = service.NewAuthService(s.userRepo, s.tokens, s.config.BcryptCost, s.config.TOTPIssuer)
	s.outfitService = service.NewOutfitService(s.outfitRepo, s.userRepo)
	s.commentService = service.NewCommentService(s.outfitRepo, s.userRepo)
	s.userService = service.NewUserService(s.userRepo, s.outfitRepo)
}

// NewApp builds a Fiber app with the full middleware chain and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "ShareFit API",
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
	}
	observability.GlobalLogger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (200 requests per 15 minutes per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        200,
		Expiration: 15 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	requireAuth := s.AuthRequired()

	// Auth routes
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", middleware.RateLimit(s.redis, 10, time.Hour, "register"), s.Register)
	authRoutes.Post("/login", middleware.RateLimit(s.redis, 10, 15*time.Minute, "login"), s.Login)
	authRoutes.Post("/logout", s.Logout)
	authRoutes.Post("/totp/setup", requireAuth, s.BeginTOTPSetup)
	authRoutes.Post("/totp/verify", requireAuth,
		middleware.RateLimit(s.redis, 10, 15*time.Minute, "totp_verify"), s.ConfirmTOTPSetup)

	// User routes
	users := api.Group("/users", requireAuth)
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)

	// Outfit routes. Static segments are registered before /:id.
	outfits := api.Group("/outfits")
	outfits.Get("/", s.SearchOutfits)
	outfits.Post("/", requireAuth, middleware.RateLimit(s.redis, 20, time.Hour, "create_outfit"), s.CreateOutfit)
	outfits.Get("/mine", requireAuth, s.ListMyOutfits)
	outfits.Get("/saved", requireAuth, s.ListSavedOutfits)
	outfits.Post("/votes", requireAuth, s.VotesFor)
	outfits.Get("/:id", s.GetOutfit)
	outfits.Post("/:id/save", requireAuth, s.SaveOutfit)
	outfits.Post("/:id/unsave", requireAuth, s.UnsaveOutfit)
	outfits.Post("/:id/rate", requireAuth, middleware.RateLimit(s.redis, 60, time.Minute, "rate"), s.RateOutfit)
	outfits.Get("/:id/comments", s.ListComments)
	outfits.Post("/:id/comments", requireAuth, middleware.RateLimit(s.redis, 30, time.Minute, "comment"), s.CreateComment)
	outfits.Delete("/:id/comments/:commentId", requireAuth, s.DeleteComment)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: a
// missing client reports "unavailable" without failing readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// tokenFromRequest reads the bearer token, falling back to the session cookie.
func tokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Cookies(sessionCookie)
}

// authenticate validates the request's session token and its revocation
// state.
func (s *Server) authenticate(c *fiber.Ctx) (*auth.SessionClaims, error) {
	tokenString := tokenFromRequest(c)
	if tokenString == "" {
		return nil, models.NewUnauthorizedError("Authorization required")
	}

	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	// Check JTI for revocation
	if s.redis != nil && claims.ID != "" {
		revoked, err := s.redis.Exists(c.UserContext(), cache.RevokedKey(claims.ID)).Result()
		if err == nil && revoked > 0 {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return claims, nil
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := s.authenticate(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		userID, _ := claims.UserID()

		// Store user ID in context
		c.Locals("userID", userID)
		c.Locals("claims", claims)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), observability.UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// optionalUserID returns the caller's id when a valid session is presented
// but does not enforce it.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	claims, err := s.authenticate(c)
	if err != nil {
		return 0, false
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0, false
	}
	return userID, true
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()

	observability.GlobalLogger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.GlobalLogger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.GlobalLogger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.GlobalLogger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	observability.GlobalLogger.Info("Server shutdown complete")
	return nil
}
