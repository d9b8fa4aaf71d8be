package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/bloodbridge/api/internal/model"
)

// UserRepo provides CRUD operations for user accounts. Emails are the
// natural key used by the API; role and status changes are admin-only
// operations enforced at the handler layer.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, name, image, blood_group, district_id, district_name,
       upazila, role, status, password_hash, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	var u model.User
	var image sql.NullString
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &image, &u.BloodGroup, &u.DistrictID, &u.DistrictName,
		&u.Upazila, &u.Role, &u.Status, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if image.Valid {
		u.Image = image.String
	}
	return &u, nil
}

// Create inserts a new user in active status with the donor role and
// returns the generated id. ErrEmailExists is returned when the unique
// email key is violated.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	const q = `INSERT INTO users
	           (email, name, image, blood_group, district_id, district_name, upazila,
	            role, status, password_hash)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		u.Email, u.Name, u.Image, u.BloodGroup, u.DistrictID, u.DistrictName, u.Upazila,
		model.RoleDonor, model.UserActive, u.PasswordHash,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail returns the user with the given email or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

// GetByID returns the user with the given id or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// StatusByEmail returns only the account status for the given email.
// Used by the blocked-account middleware on every mutating call.
func (r *UserRepo) StatusByEmail(ctx context.Context, email string) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM users WHERE email = ?`, email).Scan(&status)
	return status, err
}

// UpdateProfile rewrites the self-editable profile fields. Email, role
// and status are not touched here.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	const q = `UPDATE users
	           SET name = ?, image = ?, blood_group = ?, district_id = ?,
	               district_name = ?, upazila = ?
	           WHERE email = ?`
	result, err := r.db.ExecContext(ctx, q,
		u.Name, u.Image, u.BloodGroup, u.DistrictID, u.DistrictName, u.Upazila, u.Email)
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

// SetStatus updates the account status (active/blocked) by user id.
func (r *UserRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish "unknown id" from "already in that status".
		var current string
		if err := r.db.QueryRowContext(ctx, `SELECT status FROM users WHERE id = ?`, id).Scan(&current); err != nil {
			return err
		}
	}
	return nil
}

// SetRole updates the role (donor/volunteer/admin) by user id.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var current string
		if err := r.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, id).Scan(&current); err != nil {
			return err
		}
	}
	return nil
}

// List returns one page of users ordered by creation time descending
// plus the total count. An empty status matches all accounts.
func (r *UserRepo) List(ctx context.Context, page, limit int, status string) ([]model.User, int, error) {
	clause := ""
	args := make([]interface{}, 0, 3)
	if status != "" {
		clause = " WHERE status = ?"
		args = append(args, status)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 10
	}
	offset := page * limit
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + userColumns + ` FROM users` + clause + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	users := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SearchDonors finds active donors matching the given blood group and
// optional location. Blocked accounts never appear in search results.
func (r *UserRepo) SearchDonors(ctx context.Context, bloodGroup string, districtID uint64, upazila string) ([]model.User, error) {
	where := []string{"status = ?"}
	args := []interface{}{model.UserActive}
	if bloodGroup != "" {
		where = append(where, "blood_group = ?")
		args = append(args, bloodGroup)
	}
	if districtID != 0 {
		where = append(where, "district_id = ?")
		args = append(args, districtID)
	}
	if upazila != "" {
		where = append(where, "upazila = ?")
		args = append(args, upazila)
	}
	q := `SELECT ` + userColumns + ` FROM users WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	donors := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		donors = append(donors, *u)
	}
	return donors, rows.Err()
}

// CountByRole returns the per-role account counts and the grand total,
// used by the admin overview.
func (r *UserRepo) CountByRole(ctx context.Context) (map[string]int, int, error) {
	const q = `SELECT role, COUNT(*) FROM users GROUP BY role`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	total := 0
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, 0, err
		}
		counts[role] = n
		total += n
	}
	return counts, total, rows.Err()
}
