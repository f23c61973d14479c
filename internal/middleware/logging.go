// Package middleware holds the fiber middleware shared by all routes:
// request logging, rate limiting, tracing and metrics.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"sharefit/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// ContextMiddleware injects request ID, user ID and trace ID from Fiber locals
// into the request context so services can log them.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(enrichContext(c))
		return c.Next()
	}
}

func enrichContext(c *fiber.Ctx) context.Context {
	rid, _ := c.Locals("requestid").(string)
	tid, _ := c.Locals("traceID").(string)
	var uid *uint
	if id, ok := c.Locals("userID").(uint); ok {
		uid = &id
	}
	return observability.WithRequestScope(c.UserContext(), rid, uid, tid)
}

// StructuredLogger returns a Fiber middleware for logging requests using slog
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		fields := []any{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Get("User-Agent")),
		}

		// Auth runs after this middleware, so pick up the user id from locals here.
		ctx := enrichContext(c)
		switch {
		case err != nil:
			fields = append(fields, slog.String("error", err.Error()))
			observability.GlobalLogger.ErrorContext(ctx, "request failed", fields...)
		case status >= fiber.StatusInternalServerError:
			observability.GlobalLogger.ErrorContext(ctx, "request processed", fields...)
		default:
			observability.GlobalLogger.InfoContext(ctx, "request processed", fields...)
		}

		return err
	}
}
