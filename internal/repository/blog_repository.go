package repository

import (
	"context"
	"database/sql"

	"github.com/bloodbridge/api/internal/model"
)

// BlogRepo provides CRUD operations for blog posts.
type BlogRepo struct {
	db *sql.DB
}

// NewBlogRepo returns a BlogRepo bound to the given database.
func NewBlogRepo(db *sql.DB) *BlogRepo { return &BlogRepo{db: db} }

const blogColumns = `id, title, content, thumbnail, status, author_email, created_at, updated_at`

func scanBlog(row interface{ Scan(...interface{}) error }) (*model.Blog, error) {
	var b model.Blog
	err := row.Scan(&b.ID, &b.Title, &b.Content, &b.Thumbnail, &b.Status, &b.AuthorEmail, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a new post in draft status and populates the generated
// id and timestamps.
func (r *BlogRepo) Create(ctx context.Context, b *model.Blog) error {
	const q = `INSERT INTO blogs (title, content, thumbnail, status, author_email)
	           VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, b.Title, b.Content, b.Thumbnail, model.BlogDraft, b.AuthorEmail)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT ` + blogColumns + ` FROM blogs WHERE id = ?`
	created, err := scanBlog(r.db.QueryRowContext(ctx, sel, b.ID))
	if err != nil {
		return err
	}
	*b = *created
	return nil
}

// GetByID returns a single post or sql.ErrNoRows.
func (r *BlogRepo) GetByID(ctx context.Context, id uint64) (*model.Blog, error) {
	const q = `SELECT ` + blogColumns + ` FROM blogs WHERE id = ?`
	return scanBlog(r.db.QueryRowContext(ctx, q, id))
}

// Update rewrites title, content and thumbnail.
func (r *BlogRepo) Update(ctx context.Context, b *model.Blog) error {
	const q = `UPDATE blogs SET title = ?, content = ?, thumbnail = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, b.Title, b.Content, b.Thumbnail, b.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists uint64
		if err := r.db.QueryRowContext(ctx, `SELECT id FROM blogs WHERE id = ?`, b.ID).Scan(&exists); err != nil {
			return err
		}
	}
	return nil
}

// SetStatus toggles a post between draft and published.
func (r *BlogRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE blogs SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var current string
		if err := r.db.QueryRowContext(ctx, `SELECT status FROM blogs WHERE id = ?`, id).Scan(&current); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a post. sql.ErrNoRows is returned for unknown ids.
func (r *BlogRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns posts newest first. An empty status matches all posts;
// the public routes pass model.BlogPublished.
func (r *BlogRepo) List(ctx context.Context, status string) ([]model.Blog, error) {
	q := `SELECT ` + blogColumns + ` FROM blogs`
	args := make([]interface{}, 0, 1)
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	blogs := make([]model.Blog, 0)
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, *b)
	}
	return blogs, rows.Err()
}
