package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// RequestLogger returns an echo middleware that logs requests using slog.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			slog.Info("request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"ip", c.RealIP(),
				"user_agent", req.UserAgent(),
				"bytes_out", res.Size,
			)

			return err
		}
	}
}

// CleanupAuth guards the batch-cleanup endpoints with a shared secret.
// The configured value is a bcrypt hash of the secret, so the plaintext
// never lives in the environment. An empty hash fails closed.
func CleanupAuth(secretHash string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secretHash == "" {
				slog.Warn("cleanup endpoint called but no secret hash configured")
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "cleanup endpoint is not configured",
				})
			}

			secret := c.Request().Header.Get("X-Cleanup-Secret")
			if secret == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "missing cleanup secret",
				})
			}
			if err := bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(secret)); err != nil {
				slog.Warn("rejected cleanup request", "ip", c.RealIP())
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "invalid cleanup secret",
				})
			}

			return next(c)
		}
	}
}
