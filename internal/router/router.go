package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check
// used by load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated browse endpoints: the
// district/upazila directory, the public donation-request views, the
// published blog posts and the donor search. No JWT or role middleware
// applies here; the optional cache middleware (nil to disable) fronts
// the read-heavy static lookups.
func RegisterPublic(e *echo.Echo, d *handler.DirectoryHandler, r *handler.RequestHandler, b *handler.BlogHandler, u *handler.UserHandler, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cache != nil {
		mws = append(mws, cache)
	}

	// Directory lookups back the address pickers and change rarely, so
	// they sit behind the response cache.
	e.GET("/v1/districts", d.Districts, mws...)
	e.GET("/v1/districts/:id/upazilas", d.Upazilas, mws...)

	// Guests can browse requests still waiting for a donor and search
	// for registered donors before signing up.
	e.GET("/v1/blood-requests", r.ListPublic)
	e.GET("/v1/blood-requests/recent", r.Recent, mws...)
	e.GET("/v1/blood-requests/:id", r.Get)
	e.GET("/v1/donors", u.SearchDonors)

	// Published blog posts are public; drafts 404 here.
	e.GET("/v1/blogs", b.ListPublished, mws...)
	e.GET("/v1/blogs/:id", b.GetPublished)
}
