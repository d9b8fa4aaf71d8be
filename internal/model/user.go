package model

import "time"

// User represents an application user record as stored in the `users`
// table. Each field corresponds to a column in the database. Passwords
// are stored as bcrypt hashes and never serialized. Role and Status are
// mutated only by admins; accounts are never hard-deleted.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, the natural key used by the API.
//  Name         – display name.
//  Image        – public avatar URL returned by the external image host.
//  BloodGroup   – the user's own blood group, one of BloodGroups.
//  DistrictID   – home district identifier.
//  DistrictName – denormalized district name for display.
//  Upazila      – home upazila.
//  Role         – donor, volunteer or admin.
//  Status       – active or blocked.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of sign-up.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Image        string    `json:"image,omitempty"`
	BloodGroup   string    `json:"bloodGroup"`
	DistrictID   uint64    `json:"districtId"`
	DistrictName string    `json:"district"`
	Upazila      string    `json:"upazila"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user; only the SHA-256 hash of the raw
// token value is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (nil if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
