package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/model"
)

// StatusLookup resolves an email to its account status. Satisfied by
// repository.UserRepo.StatusByEmail.
type StatusLookup interface {
	StatusByEmail(ctx context.Context, email string) (string, error)
}

// RequireActive returns a middleware that rejects blocked accounts.
// It must run after JWTAuth. Blocked users receive 403 with a
// user-facing message; this middleware is applied to mutating routes
// only, so read access stays available to blocked accounts. The status
// is resolved per request rather than from the token so an admin block
// takes effect immediately, not at token expiry.
func RequireActive(users StatusLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, ok := c.Get("email").(string)
			if !ok || email == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			status, err := users.StatusByEmail(ctx, email)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			if status == model.UserBlocked {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "your account is blocked and cannot perform this action"})
			}
			return next(c)
		}
	}
}
