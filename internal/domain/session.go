package domain

import (
	"context"
	"time"
)

type TokenKind string

const (
	TokenRefresh TokenKind = "refresh"
	TokenReset   TokenKind = "reset"
)

// StoredToken is the server-side record of an issued refresh or reset
// token. Only the fingerprint is kept, never the token itself.
type StoredToken struct {
	ID          string
	UserID      string
	Kind        TokenKind
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

type TokenRepository interface {
	Create(ctx context.Context, t *StoredToken) error
	// Consume deletes an unexpired token and returns it; nil when it was
	// never stored, already consumed or expired.
	Consume(ctx context.Context, kind TokenKind, fingerprint string, now time.Time) (*StoredToken, error)
	DeleteByUser(ctx context.Context, userID string, kind TokenKind) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PasswordHistory keeps the hashes a user has set, for reuse checks.
type PasswordHistory interface {
	Add(ctx context.Context, userID, hash string, at time.Time) error
	Since(ctx context.Context, userID string, since time.Time) ([]string, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
