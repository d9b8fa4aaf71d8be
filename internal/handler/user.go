package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/model"
)

// UserHandler covers the profile surface (read and edit own profile),
// the public donor search, and the admin account-management operations
// (list, block/unblock, role changes).
type UserHandler struct {
	Users     UserStore
	Directory DirectoryStore
}

func NewUserHandler(users UserStore, directory DirectoryStore) *UserHandler {
	if users == nil || directory == nil {
		panic("nil store passed to NewUserHandler")
	}
	return &UserHandler{Users: users, Directory: directory}
}

// Profile handles GET /v1/profile: the caller's own record.
func (h *UserHandler) Profile(c echo.Context) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}

type profileReq struct {
	Name       string `json:"name"`
	Image      string `json:"image"`
	BloodGroup string `json:"bloodGroup"`
	DistrictID uint64 `json:"districtId"`
	Upazila    string `json:"upazila"`
}

// UpdateProfile handles PUT /v1/profile. Email, role and status are
// not editable here; the email stays the account's immutable key and
// role/status changes go through the admin endpoints.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	var body profileReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Upazila = strings.TrimSpace(body.Upazila)
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if !model.ValidBloodGroup(body.BloodGroup) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid blood group"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	district, err := h.Directory.DistrictByID(ctx, body.DistrictID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown district"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	u.Name = body.Name
	u.Image = strings.TrimSpace(body.Image)
	u.BloodGroup = body.BloodGroup
	u.DistrictID = district.ID
	u.DistrictName = district.Name
	u.Upazila = body.Upazila
	if err := h.Users.UpdateProfile(ctx, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// SearchDonors handles GET /v1/donors: the public donor search by
// blood group, district and optional upazila. Blocked accounts never
// appear in results.
func (h *UserHandler) SearchDonors(c echo.Context) error {
	bloodGroup := c.QueryParam("bloodGroup")
	if !model.ValidBloodGroup(bloodGroup) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid blood group"})
	}
	districtID, err := parseUintParam(c.QueryParam("districtId"))
	if err != nil || districtID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid district"})
	}
	upazila := strings.TrimSpace(c.QueryParam("upazila"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	donors, err := h.Users.SearchDonors(ctx, bloodGroup, districtID, upazila)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": donors})
}

// ----- admin operations -----

// List handles GET /v1/admin/users: all accounts, paginated, with an
// optional ?status= filter.
func (h *UserHandler) List(c echo.Context) error {
	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" && !model.ValidUserStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	page, limit := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Users.List(ctx, page, limit, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, paged(items, total, limit))
}

type userStatusReq struct {
	Status string `json:"status"`
}

// SetStatus handles PATCH /v1/admin/users/:id/status: block or unblock
// an account. Admins cannot block themselves.
func (h *UserHandler) SetStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if self, ok := callerID(c); ok && self == id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot change own status"})
	}
	var body userStatusReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !model.ValidUserStatus(body.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetStatus(ctx, id, body.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}

type userRoleReq struct {
	Role string `json:"role"`
}

// SetRole handles PATCH /v1/admin/users/:id/role: promote or demote an
// account between donor, volunteer and admin. Admins cannot change
// their own role.
func (h *UserHandler) SetRole(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if self, ok := callerID(c); ok && self == id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot change own role"})
	}
	var body userRoleReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !model.ValidRole(body.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetRole(ctx, id, body.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}
