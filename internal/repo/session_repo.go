package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"auto-ria-clone/internal/domain"
	"auto-ria-clone/internal/feature/user"
)

type TokenRepo struct{ db *gorm.DB }

func NewTokenRepo(db *gorm.DB) *TokenRepo { return &TokenRepo{db: db} }

var _ domain.TokenRepository = (*TokenRepo)(nil)

func (r *TokenRepo) Create(ctx context.Context, t *domain.StoredToken) error {
	m := user.TokenFromDomain(t)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	t.CreatedAt = m.CreatedAt
	return nil
}

// Consume looks the token up and deletes it by id; of two concurrent callers
// only the one whose delete hits a row gets the token.
func (r *TokenRepo) Consume(ctx context.Context, kind domain.TokenKind, fingerprint string, now time.Time) (*domain.StoredToken, error) {
	var m user.TokenModel
	err := r.db.WithContext(ctx).
		Where("kind = ? AND fingerprint = ?", string(kind), fingerprint).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res := r.db.WithContext(ctx).Where("id = ?", m.ID).Delete(&user.TokenModel{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 || !m.ExpiresAt.After(now) {
		return nil, nil
	}
	return m.ToDomain(), nil
}

func (r *TokenRepo) DeleteByUser(ctx context.Context, userID string, kind domain.TokenKind) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, string(kind)).
		Delete(&user.TokenModel{}).Error
}

func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&user.TokenModel{})
	return res.RowsAffected, res.Error
}

type PasswordRepo struct{ db *gorm.DB }

func NewPasswordRepo(db *gorm.DB) *PasswordRepo { return &PasswordRepo{db: db} }

var _ domain.PasswordHistory = (*PasswordRepo)(nil)

func (r *PasswordRepo) Add(ctx context.Context, userID, hash string, at time.Time) error {
	return r.db.WithContext(ctx).Create(&user.PasswordModel{UserID: userID, Hash: hash, CreatedAt: at}).Error
}

func (r *PasswordRepo) Since(ctx context.Context, userID string, since time.Time) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&user.PasswordModel{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Pluck("hash", &out).Error
	return out, err
}

func (r *PasswordRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", before).Delete(&user.PasswordModel{})
	return res.RowsAffected, res.Error
}
