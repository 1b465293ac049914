package store

import (
	"context"
	"errors"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by the drivers. It
// exposes sub-repositories as methods so a Tx can hand out the same repos
// bound to the transaction.
type Store interface {
	Users() Users
	Revocations() Revocations
	PhoneVerifications() PhoneVerifications

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByPhoneNumber is the credential lookup used at login.
	GetUserByPhoneNumber(ctx context.Context, phone string) (domain.User, error)

	// CreateUser inserts a new user. A taken phone number is ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error)

	GetUserByKakaoID(ctx context.Context, kakaoID int64) (domain.User, error)

	// UpdateUser rewrites the profile fields and the Kakao link of u. A
	// Kakao id linked to another account is ErrAlreadyExists.
	UpdateUser(ctx context.Context, u domain.User) error
}

type Revocations interface {
	// InsertRevocation records e unless its jti is already present. It
	// reports whether this call created the row.
	InsertRevocation(ctx context.Context, e domain.RevocationEntry) (bool, error)

	IsRevoked(ctx context.Context, jti string) (bool, error)

	GetRevocation(ctx context.Context, jti string) (domain.RevocationEntry, error)

	// DeleteExpiredRevocations removes entries whose token expired at or
	// before now and returns how many were removed.
	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}

type PhoneVerifications interface {
	// UpsertPhoneVerification replaces any previous verification for the
	// phone number.
	UpsertPhoneVerification(ctx context.Context, v domain.PhoneVerification) error

	GetPhoneVerification(ctx context.Context, phone string) (domain.PhoneVerification, error)

	// IncrementAttempts bumps the failed attempt counter and returns the new value.
	IncrementAttempts(ctx context.Context, phone string) (int, error)

	// MarkVerified sets verified_at and moves expires_at to the end of the
	// window in which join may consume the verification.
	MarkVerified(ctx context.Context, phone string, at, validUntil time.Time) error

	DeletePhoneVerification(ctx context.Context, phone string) error

	DeleteExpiredPhoneVerifications(ctx context.Context, now time.Time) (int64, error)
}
