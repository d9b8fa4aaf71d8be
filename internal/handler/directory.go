package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// DirectoryHandler serves the read-only district and upazila lookups
// that back the address pickers. The data set is static, so both
// endpoints sit behind the response cache.
type DirectoryHandler struct {
	Directory DirectoryStore
}

func NewDirectoryHandler(directory DirectoryStore) *DirectoryHandler {
	if directory == nil {
		panic("nil store passed to NewDirectoryHandler")
	}
	return &DirectoryHandler{Directory: directory}
}

// Districts handles GET /v1/districts.
func (h *DirectoryHandler) Districts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Directory.Districts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Upazilas handles GET /v1/districts/:id/upazilas.
func (h *DirectoryHandler) Upazilas(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if _, err := h.Directory.DistrictByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "district not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items, err := h.Directory.UpazilasByDistrict(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
