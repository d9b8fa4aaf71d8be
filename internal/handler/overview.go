package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/model"
	"github.com/bloodbridge/api/internal/repository"
)

// OverviewHandler serves the dashboard summary endpoints: platform-wide
// totals for admins and volunteers, and per-account request counts for
// donors.
type OverviewHandler struct {
	Users    UserStore
	Requests RequestStore
	Fundings FundingStore
}

func NewOverviewHandler(users UserStore, requests RequestStore, fundings FundingStore) *OverviewHandler {
	if users == nil || requests == nil || fundings == nil {
		panic("nil store passed to NewOverviewHandler")
	}
	return &OverviewHandler{Users: users, Requests: requests, Fundings: fundings}
}

// Admin handles GET /v1/admin/overview: total users broken down by
// role, total requests, and the funding grand total.
func (h *OverviewHandler) Admin(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	byRole, totalUsers, err := h.Users.CountByRole(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	totalRequests, err := h.Requests.CountAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	totalFunding, err := h.Fundings.Total(ctx, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"totalUsers":      totalUsers,
		"totalDonors":     byRole[model.RoleDonor],
		"totalVolunteers": byRole[model.RoleVolunteer],
		"totalAdmins":     byRole[model.RoleAdmin],
		"totalRequests":   totalRequests,
		"totalFunding":    totalFunding,
	})
}

// Donor handles GET /v1/overview: the caller's own request counts by
// status plus their three most recent requests, for the donor home
// screen.
func (h *OverviewHandler) Donor(c echo.Context) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	counts, err := h.Requests.CountByStatusForRequester(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	recent, _, err := h.Requests.List(ctx, repository.RequestFilter{RequesterEmail: email, Limit: 3})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"pending":    counts[model.StatusPending],
		"inprogress": counts[model.StatusInProgress],
		"done":       counts[model.StatusDone],
		"canceled":   counts[model.StatusCanceled],
		"recent":     recent,
	})
}
