package router

import (
	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/handler"
	"github.com/bloodbridge/api/internal/middleware"
	"github.com/bloodbridge/api/internal/model"
)

// RegisterMember registers the endpoints available to every signed-in
// account regardless of role: profile, personal overview, the
// donation-request lifecycle and the funding ledger. Read endpoints
// require only a valid JWT; every mutating endpoint additionally passes
// through RequireActive, so a blocked account keeps read access but
// cannot write.
func RegisterMember(e *echo.Echo, r *handler.RequestHandler, u *handler.UserHandler, f *handler.FundingHandler, o *handler.OverviewHandler, users middleware.StatusLookup, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleDonor, model.RoleVolunteer, model.RoleAdmin),
	)

	g.GET("/profile", u.Profile)
	g.GET("/overview", o.Donor)
	g.GET("/my-requests", r.ListMine)
	g.GET("/my-donations", r.ListMyDonations)
	g.GET("/funding", f.List)

	// Mutations: same group plus the blocked-account guard. The guard
	// re-reads account status per request so a block takes effect
	// immediately, not at next login.
	m := g.Group("", middleware.RequireActive(users))
	m.PUT("/profile", u.UpdateProfile)
	m.POST("/blood-requests", r.Create)
	m.PATCH("/blood-requests/:id", r.Update)
	m.DELETE("/blood-requests/:id", r.Delete)
	m.POST("/blood-requests/:id/claim", r.Claim)
	m.POST("/blood-requests/:id/done", r.Finish)
	m.POST("/blood-requests/:id/cancel", r.Cancel)
	m.POST("/funding/intent", f.CreateIntent)
	m.POST("/funding", f.Record)
}
