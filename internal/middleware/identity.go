package middleware

// identity.go defines helper functions shared across middleware files.
// userID pulls the caller identity set by JWTAuth out of the Echo
// context for use in rate-limit keys. When no user is authenticated,
// "guest" is returned so anonymous traffic shares one bucket per IP.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// userID extracts a user identifier from the request context. It
// returns "guest" when no user is authenticated.
func userID(c echo.Context) string {
	if v := c.Get("email"); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if v := c.Get("user_id"); v != nil {
		return fmt.Sprintf("%v", v)
	}
	return "guest"
}
