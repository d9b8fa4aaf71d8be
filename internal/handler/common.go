package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/model"
)

// common.go holds helpers shared by every handler: caller-identity
// extraction from the JWT claims stored in context, query parameter
// parsing for pagination, and the paged response envelope.

// errUnauthorized is the body used for all 401 responses.
var errUnauthorized = echo.Map{"error": "unauthorized"}

// callerID returns the authenticated user id from context. JWT numeric
// claims decode as float64; tokens issued by other stacks may carry the
// id as a string, so both are accepted.
func callerID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v), true
	case uint64:
		return v, true
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// callerEmail returns the authenticated email from context.
func callerEmail(c echo.Context) (string, bool) {
	s, ok := c.Get("email").(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// callerRole returns the authenticated role, or "" when absent.
func callerRole(c echo.Context) string {
	s, _ := c.Get("role").(string)
	return s
}

// isAdmin reports whether the caller holds the admin role.
func isAdmin(c echo.Context) bool { return callerRole(c) == model.RoleAdmin }

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// parseUintParam parses a numeric query parameter.
func parseUintParam(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// pageParams reads the 0-based page and limit query parameters,
// clamping limit into [1, 100] with a default of 10.
func pageParams(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 0 {
		page = 0
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// pageCount returns ceil(total/limit) for the paged envelope.
func pageCount(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// pagedResponse is the envelope returned by every list endpoint.
type pagedResponse struct {
	Items      interface{} `json:"items"`
	TotalCount int         `json:"totalCount"`
	PageCount  int         `json:"pageCount"`
}

func paged(items interface{}, total, limit int) pagedResponse {
	return pagedResponse{Items: items, TotalCount: total, PageCount: pageCount(total, limit)}
}
