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

// BlogHandler implements the content-management surface. Admins and
// volunteers write and edit posts; only admins publish, unpublish or
// delete. The public reads published posts only.
type BlogHandler struct {
	Blogs BlogStore
}

func NewBlogHandler(blogs BlogStore) *BlogHandler {
	if blogs == nil {
		panic("nil store passed to NewBlogHandler")
	}
	return &BlogHandler{Blogs: blogs}
}

type blogBody struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Thumbnail string `json:"thumbnail"`
}

func (b *blogBody) validate() string {
	b.Title = strings.TrimSpace(b.Title)
	b.Content = strings.TrimSpace(b.Content)
	b.Thumbnail = strings.TrimSpace(b.Thumbnail)
	if b.Title == "" {
		return "title is required"
	}
	if b.Content == "" {
		return "content is required"
	}
	return ""
}

// Create handles POST /v1/blogs. New posts always start as drafts.
func (h *BlogHandler) Create(c echo.Context) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	var body blogBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	blog := &model.Blog{
		Title:       body.Title,
		Content:     body.Content,
		Thumbnail:   body.Thumbnail,
		Status:      model.BlogDraft,
		AuthorEmail: email,
	}
	if err := h.Blogs.Create(ctx, blog); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create blog failed"})
	}
	return c.JSON(http.StatusCreated, blog)
}

// Update handles PATCH /v1/blogs/:id. Editing never changes the
// publication status.
func (h *BlogHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body blogBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	blog, err := h.Blogs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "blog not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	blog.Title = body.Title
	blog.Content = body.Content
	blog.Thumbnail = body.Thumbnail
	if err := h.Blogs.Update(ctx, blog); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update blog failed"})
	}
	return c.JSON(http.StatusOK, blog)
}

type blogStatusReq struct {
	Status string `json:"status"`
}

// SetStatus handles PATCH /v1/blogs/:id/status, toggling a post
// between draft and published. Admin only.
func (h *BlogHandler) SetStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body blogStatusReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !model.ValidBlogStatus(body.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid blog status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Blogs.SetStatus(ctx, id, body.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "blog not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update blog failed"})
	}
	blog, err := h.Blogs.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, blog)
}

// Delete handles DELETE /v1/blogs/:id. Admin only.
func (h *BlogHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Blogs.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "blog not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete blog failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAll handles GET /v1/admin/blogs: every post regardless of status,
// with an optional ?status= filter. Admin and volunteer.
func (h *BlogHandler) ListAll(c echo.Context) error {
	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" && !model.ValidBlogStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Blogs.List(ctx, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListPublished handles GET /v1/blogs: the public view, published
// posts only.
func (h *BlogHandler) ListPublished(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Blogs.List(ctx, model.BlogPublished)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetPublished handles GET /v1/blogs/:id. Drafts are invisible to the
// public and return 404.
func (h *BlogHandler) GetPublished(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	blog, err := h.Blogs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "blog not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if blog.Status != model.BlogPublished {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "blog not found"})
	}
	return c.JSON(http.StatusOK, blog)
}
