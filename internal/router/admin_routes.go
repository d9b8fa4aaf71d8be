package router

import (
	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/handler"
	"github.com/bloodbridge/api/internal/middleware"
	"github.com/bloodbridge/api/internal/model"
)

// RegisterStaff registers the moderation endpoints shared by admins and
// volunteers: the full request list and the content-management surface.
// Volunteers can write and edit posts but publication, deletion and
// account management stay admin-only.
func RegisterStaff(e *echo.Echo, r *handler.RequestHandler, b *handler.BlogHandler, users middleware.StatusLookup, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleVolunteer, model.RoleAdmin),
		middleware.RequireActive(users),
	)
	g.GET("/admin/blood-requests", r.ListAll)
	g.GET("/admin/blogs", b.ListAll)
	g.POST("/blogs", b.Create)
	g.PATCH("/blogs/:id", b.Update)
}

// RegisterAdmin registers the admin-only endpoints: account management,
// blog publication and deletion, and the platform overview.
func RegisterAdmin(e *echo.Echo, u *handler.UserHandler, b *handler.BlogHandler, o *handler.OverviewHandler, users middleware.StatusLookup, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		middleware.RequireActive(users),
	)
	g.GET("/admin/overview", o.Admin)
	g.GET("/admin/users", u.List)
	g.PATCH("/admin/users/:id/status", u.SetStatus)
	g.PATCH("/admin/users/:id/role", u.SetRole)
	g.PATCH("/blogs/:id/status", b.SetStatus)
	g.DELETE("/blogs/:id", b.Delete)
}
