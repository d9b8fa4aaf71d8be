package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bloodbridge/api/internal/model"
)

// DonationRequestRepo provides persistence for blood donation requests.
// All lifecycle transitions are guarded updates: the UPDATE carries the
// expected current status in its WHERE clause and the repo inspects
// RowsAffected, so two concurrent transitions on the same request can
// never both succeed. Timestamps are stored in UTC.
type DonationRequestRepo struct {
	db *sql.DB
}

// NewDonationRequestRepo returns a repo bound to the given database.
func NewDonationRequestRepo(db *sql.DB) *DonationRequestRepo {
	return &DonationRequestRepo{db: db}
}

// requestColumns is the column list shared by every SELECT in this repo.
const requestColumns = `id, requester_name, requester_email, recipient_name, blood_group,
       district_id, district_name, upazila, hospital_name, address,
       donation_date, donation_time, request_message, status,
       donor_name, donor_email, confirmed_at, added_at, updated_at`

// scanRequest reads one row into a DonationRequest. The row must have
// been selected with requestColumns.
func scanRequest(row interface{ Scan(...interface{}) error }) (*model.DonationRequest, error) {
	var r model.DonationRequest
	var msg, donorName, donorEmail sql.NullString
	var confirmedAt sql.NullTime
	err := row.Scan(
		&r.ID, &r.RequesterName, &r.RequesterEmail, &r.RecipientName, &r.BloodGroup,
		&r.DistrictID, &r.DistrictName, &r.Upazila, &r.HospitalName, &r.Address,
		&r.DonationDate, &r.DonationTime, &msg, &r.Status,
		&donorName, &donorEmail, &confirmedAt, &r.AddedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if msg.Valid {
		m := msg.String
		r.RequestMessage = &m
	}
	if donorName.Valid {
		n := donorName.String
		r.DonorName = &n
	}
	if donorEmail.Valid {
		e := donorEmail.String
		r.DonorEmail = &e
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time.UTC()
		r.ConfirmedAt = &t
	}
	return &r, nil
}

// Create inserts a new request in pending status and populates the
// generated ID and timestamps on the provided record.
func (r *DonationRequestRepo) Create(ctx context.Context, req *model.DonationRequest) error {
	const q = `INSERT INTO blood_requests
	           (requester_name, requester_email, recipient_name, blood_group,
	            district_id, district_name, upazila, hospital_name, address,
	            donation_date, donation_time, request_message, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		req.RequesterName, req.RequesterEmail, req.RecipientName, req.BloodGroup,
		req.DistrictID, req.DistrictName, req.Upazila, req.HospitalName, req.Address,
		req.DonationDate.UTC(), req.DonationTime, req.RequestMessage, model.StatusPending,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	const sel = `SELECT ` + requestColumns + ` FROM blood_requests WHERE id = ?`
	created, err := scanRequest(r.db.QueryRowContext(ctx, sel, req.ID))
	if err != nil {
		return err
	}
	*req = *created
	return nil
}

// GetByID returns a single request. sql.ErrNoRows is returned when the
// id is unknown.
func (r *DonationRequestRepo) GetByID(ctx context.Context, id uint64) (*model.DonationRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM blood_requests WHERE id = ?`
	return scanRequest(r.db.QueryRowContext(ctx, q, id))
}

// Claim performs the pending -> inprogress transition, recording the
// donor on the row. The UPDATE only matches while the request is still
// pending; when zero rows are affected the repo distinguishes an
// unknown id (sql.ErrNoRows) from a lost race (ErrConflict) by
// re-reading the row. Self-donation is checked by the caller, which
// holds both emails.
func (r *DonationRequestRepo) Claim(ctx context.Context, id uint64, donorName, donorEmail string, confirmedAt time.Time) error {
	const q = `UPDATE blood_requests
	           SET status = ?, donor_name = ?, donor_email = ?, confirmed_at = ?
	           WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q,
		model.StatusInProgress, donorName, donorEmail, confirmedAt.UTC(), id, model.StatusPending)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.explainMiss(ctx, id)
	}
	return nil
}

// SetStatus performs a guarded transition from one status to another,
// e.g. inprogress -> done. Permission checks belong to the caller; the
// repo only enforces atomicity of the state change. Zero affected rows
// resolve to sql.ErrNoRows or ErrConflict like Claim.
func (r *DonationRequestRepo) SetStatus(ctx context.Context, id uint64, from, to string) error {
	const q = `UPDATE blood_requests SET status = ? WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.explainMiss(ctx, id)
	}
	return nil
}

// UpdateDetails rewrites the editable fields of a pending request. The
// requester identity and lifecycle fields are untouched. The update is
// guarded on pending so an edit racing a claim loses cleanly.
func (r *DonationRequestRepo) UpdateDetails(ctx context.Context, req *model.DonationRequest) error {
	const q = `UPDATE blood_requests
	           SET recipient_name = ?, blood_group = ?, district_id = ?, district_name = ?,
	               upazila = ?, hospital_name = ?, address = ?, donation_date = ?,
	               donation_time = ?, request_message = ?
	           WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q,
		req.RecipientName, req.BloodGroup, req.DistrictID, req.DistrictName,
		req.Upazila, req.HospitalName, req.Address, req.DonationDate.UTC(),
		req.DonationTime, req.RequestMessage,
		req.ID, model.StatusPending,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.explainMiss(ctx, req.ID)
	}
	return nil
}

// Delete removes a request. Only pending requests can be deleted; a
// request that already has a confirmed donor must be canceled instead.
func (r *DonationRequestRepo) Delete(ctx context.Context, id uint64) error {
	const q = `DELETE FROM blood_requests WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q, id, model.StatusPending)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.explainMiss(ctx, id)
	}
	return nil
}

// explainMiss resolves a zero-rows-affected guarded write into either
// sql.ErrNoRows (id unknown) or ErrConflict (row exists in another
// status).
func (r *DonationRequestRepo) explainMiss(ctx context.Context, id uint64) error {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM blood_requests WHERE id = ?`, id).Scan(&status)
	if err != nil {
		return err // sql.ErrNoRows when the id does not exist
	}
	return ErrConflict
}

// RequestFilter narrows List queries. Page is 0-based. An empty Status
// matches all statuses. RequesterEmail and DonorEmail are two distinct
// ownership shapes (requests I created vs. requests I fulfilled) and
// are never combined.
type RequestFilter struct {
	Page           int
	Limit          int
	Status         string
	RequesterEmail string
	DonorEmail     string
}

// List returns one page of requests ordered by added_at descending,
// along with the total count matching the filter. Pagination is
// best-effort under concurrent writes: no snapshot isolation is used.
func (r *DonationRequestRepo) List(ctx context.Context, f RequestFilter) ([]model.DonationRequest, int, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.RequesterEmail != "" {
		where = append(where, "requester_email = ?")
		args = append(args, f.RequesterEmail)
	}
	if f.DonorEmail != "" {
		where = append(where, "donor_email = ?")
		args = append(args, f.DonorEmail)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blood_requests`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := f.Page * limit
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + requestColumns + ` FROM blood_requests` + clause +
		` ORDER BY added_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]model.DonationRequest, 0, limit)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Recent returns the newest pending requests for the public home view.
func (r *DonationRequestRepo) Recent(ctx context.Context, limit int) ([]model.DonationRequest, error) {
	if limit <= 0 {
		limit = 3
	}
	const q = `SELECT ` + requestColumns + ` FROM blood_requests
	           WHERE status = ? ORDER BY added_at DESC, id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, model.StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.DonationRequest, 0, limit)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountByStatusForRequester returns the caller's request counts grouped
// by status, used by the donor overview.
func (r *DonationRequestRepo) CountByStatusForRequester(ctx context.Context, email string) (map[string]int, error) {
	const q = `SELECT status, COUNT(*) FROM blood_requests WHERE requester_email = ? GROUP BY status`
	rows, err := r.db.QueryContext(ctx, q, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountAll returns the total number of requests, used by the admin
// overview.
func (r *DonationRequestRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blood_requests`).Scan(&n)
	return n, err
}
