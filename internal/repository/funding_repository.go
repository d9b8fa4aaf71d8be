package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/bloodbridge/api/internal/model"
)

// FundingRepo persists the append-only funding ledger. The unique key
// on transaction_id is what makes recording idempotent: a retried
// submission of the same processor transaction hits a duplicate-key
// error and the existing row is returned instead of a second insert.
type FundingRepo struct {
	db *sql.DB
}

// NewFundingRepo returns a FundingRepo bound to the given database.
func NewFundingRepo(db *sql.DB) *FundingRepo { return &FundingRepo{db: db} }

const fundingColumns = `id, donor_name, donor_email, amount, transaction_id, status, created_at`

func scanFunding(row interface{ Scan(...interface{}) error }) (*model.FundingRecord, error) {
	var f model.FundingRecord
	err := row.Scan(&f.ID, &f.DonorName, &f.DonorEmail, &f.Amount, &f.TransactionID, &f.Status, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Record appends one ledger row. It returns created=false when the
// transaction id was already recorded, in which case rec is replaced by
// the stored row so the caller can respond with it.
func (r *FundingRepo) Record(ctx context.Context, rec *model.FundingRecord) (bool, error) {
	const q = `INSERT INTO fundings (donor_name, donor_email, amount, transaction_id, status)
	           VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		rec.DonorName, rec.DonorEmail, rec.Amount, rec.TransactionID, rec.Status)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			existing, err := r.GetByTransactionID(ctx, rec.TransactionID)
			if err != nil {
				return false, err
			}
			*rec = *existing
			return false, nil
		}
		return false, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return false, err
	}
	rec.ID = uint64(id)
	const sel = `SELECT ` + fundingColumns + ` FROM fundings WHERE id = ?`
	created, err := scanFunding(r.db.QueryRowContext(ctx, sel, rec.ID))
	if err != nil {
		return false, err
	}
	*rec = *created
	return true, nil
}

// GetByTransactionID returns the row recorded for an external
// transaction id, or sql.ErrNoRows.
func (r *FundingRepo) GetByTransactionID(ctx context.Context, txID string) (*model.FundingRecord, error) {
	const q = `SELECT ` + fundingColumns + ` FROM fundings WHERE transaction_id = ?`
	return scanFunding(r.db.QueryRowContext(ctx, q, txID))
}

// List returns one page of ledger rows, newest first, plus the total
// count. A non-empty email scopes the page to that donor's rows.
func (r *FundingRepo) List(ctx context.Context, page, limit int, email string) ([]model.FundingRecord, int, error) {
	clause := ""
	args := make([]interface{}, 0, 3)
	if email != "" {
		clause = " WHERE donor_email = ?"
		args = append(args, email)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fundings`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 10
	}
	offset := page * limit
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + fundingColumns + ` FROM fundings` + clause + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]model.FundingRecord, 0, limit)
	for rows.Next() {
		f, err := scanFunding(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Total sums the ledger. A non-empty email scopes the sum to that
// donor's rows; otherwise the full ledger total is returned.
func (r *FundingRepo) Total(ctx context.Context, email string) (uint64, error) {
	q := `SELECT COALESCE(SUM(amount), 0) FROM fundings`
	args := make([]interface{}, 0, 1)
	if email != "" {
		q += ` WHERE donor_email = ?`
		args = append(args, email)
	}
	var total uint64
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&total)
	return total, err
}
