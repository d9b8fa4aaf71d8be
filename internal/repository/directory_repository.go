package repository

import (
	"context"
	"database/sql"

	"github.com/bloodbridge/api/internal/model"
)

// DirectoryRepo reads the district/upazila reference directory. The
// directory is seeded by migration and never written at runtime, so all
// methods are read-only.
type DirectoryRepo struct {
	db *sql.DB
}

// NewDirectoryRepo returns a DirectoryRepo bound to the given database.
func NewDirectoryRepo(db *sql.DB) *DirectoryRepo { return &DirectoryRepo{db: db} }

// Districts returns all districts sorted by name.
func (r *DirectoryRepo) Districts(ctx context.Context) ([]model.District, error) {
	const q = `SELECT id, name FROM districts ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	districts := make([]model.District, 0, 64)
	for rows.Next() {
		var d model.District
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		districts = append(districts, d)
	}
	return districts, rows.Err()
}

// DistrictByID returns one district or sql.ErrNoRows.
func (r *DirectoryRepo) DistrictByID(ctx context.Context, id uint64) (*model.District, error) {
	const q = `SELECT id, name FROM districts WHERE id = ?`
	var d model.District
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.Name); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpazilasByDistrict returns the upazilas of one district sorted by
// name.
func (r *DirectoryRepo) UpazilasByDistrict(ctx context.Context, districtID uint64) ([]model.Upazila, error) {
	const q = `SELECT id, district_id, name FROM upazilas WHERE district_id = ? ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q, districtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	upazilas := make([]model.Upazila, 0)
	for rows.Next() {
		var u model.Upazila
		if err := rows.Scan(&u.ID, &u.DistrictID, &u.Name); err != nil {
			return nil, err
		}
		upazilas = append(upazilas, u)
	}
	return upazilas, rows.Err()
}
