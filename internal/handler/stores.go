package handler

import (
	"context"
	"time"

	"github.com/bloodbridge/api/internal/model"
	"github.com/bloodbridge/api/internal/payment"
	"github.com/bloodbridge/api/internal/repository"
)

// stores.go declares the narrow store interfaces the handlers depend
// on. The repository types satisfy them directly; tests substitute
// in-memory fakes. Handlers never see *sql.DB.

// UserStore is the account storage needed by auth, profile and admin
// handlers.
type UserStore interface {
	Create(ctx context.Context, u *model.User) (uint64, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error
	SetStatus(ctx context.Context, id uint64, status string) error
	SetRole(ctx context.Context, id uint64, role string) error
	List(ctx context.Context, page, limit int, status string) ([]model.User, int, error)
	SearchDonors(ctx context.Context, bloodGroup string, districtID uint64, upazila string) ([]model.User, error)
	CountByRole(ctx context.Context) (map[string]int, int, error)
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// RequestStore is the donation-request storage used by the lifecycle
// and query handlers. Claim, SetStatus, UpdateDetails and Delete are
// guarded writes: they fail with repository.ErrConflict when the row
// has left the expected status.
type RequestStore interface {
	Create(ctx context.Context, req *model.DonationRequest) error
	GetByID(ctx context.Context, id uint64) (*model.DonationRequest, error)
	Claim(ctx context.Context, id uint64, donorName, donorEmail string, confirmedAt time.Time) error
	SetStatus(ctx context.Context, id uint64, from, to string) error
	UpdateDetails(ctx context.Context, req *model.DonationRequest) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, f repository.RequestFilter) ([]model.DonationRequest, int, error)
	Recent(ctx context.Context, limit int) ([]model.DonationRequest, error)
	CountByStatusForRequester(ctx context.Context, email string) (map[string]int, error)
	CountAll(ctx context.Context) (int, error)
}

// FundingStore is the append-only funding ledger.
type FundingStore interface {
	Record(ctx context.Context, rec *model.FundingRecord) (bool, error)
	List(ctx context.Context, page, limit int, email string) ([]model.FundingRecord, int, error)
	Total(ctx context.Context, email string) (uint64, error)
}

// BlogStore is the content-management storage.
type BlogStore interface {
	Create(ctx context.Context, b *model.Blog) error
	GetByID(ctx context.Context, id uint64) (*model.Blog, error)
	Update(ctx context.Context, b *model.Blog) error
	SetStatus(ctx context.Context, id uint64, status string) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, status string) ([]model.Blog, error)
}

// DirectoryStore is the read-only district/upazila directory.
type DirectoryStore interface {
	Districts(ctx context.Context) ([]model.District, error)
	DistrictByID(ctx context.Context, id uint64) (*model.District, error)
	UpazilasByDistrict(ctx context.Context, districtID uint64) ([]model.Upazila, error)
}

// PaymentProvider is the external card-payment processor.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount uint32) (*payment.Intent, error)
	VerifySucceeded(ctx context.Context, intentID string) (bool, error)
}
