package model

import "time"

// Blog statuses. New posts start as drafts and are published by an admin.
const (
	BlogDraft     = "draft"
	BlogPublished = "published"
)

// Blog is a content-management post written by an admin or volunteer.
// Content holds rich text as produced by the client-side editor; the
// thumbnail is a public URL on the external image host.
type Blog struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Thumbnail   string    `json:"thumbnail"`
	Status      string    `json:"status"`
	AuthorEmail string    `json:"authorEmail"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ValidBlogStatus reports whether s is a known blog status.
func ValidBlogStatus(s string) bool {
	return s == BlogDraft || s == BlogPublished
}
