package router

import (
	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/handler"
	"github.com/bloodbridge/api/internal/middleware"
)

// RegisterAuth registers all authentication-related routes.
// Unauthenticated session operations live under /v1/auth, while the
// identity endpoint lives under /v1 behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access issues a new
	// access token without rotation.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout takes the refresh token in the body, so it does not
	// require a JWT; an expired access token must not trap a session.
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}
