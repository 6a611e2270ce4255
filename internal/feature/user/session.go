package user

import (
	"time"

	"auto-ria-clone/internal/domain"
)

type TokenModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	UserID      string    `gorm:"type:varchar(36);not null;index"`
	Kind        string    `gorm:"size:16;not null;uniqueIndex:idx_token_kind_fp"`
	Fingerprint string    `gorm:"size:64;not null;uniqueIndex:idx_token_kind_fp"`
	ExpiresAt   time.Time `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (TokenModel) TableName() string { return "user_tokens" }

func (m *TokenModel) ToDomain() *domain.StoredToken {
	return &domain.StoredToken{
		ID:          m.ID,
		UserID:      m.UserID,
		Kind:        domain.TokenKind(m.Kind),
		Fingerprint: m.Fingerprint,
		ExpiresAt:   m.ExpiresAt,
		CreatedAt:   m.CreatedAt,
	}
}

func TokenFromDomain(t *domain.StoredToken) *TokenModel {
	return &TokenModel{
		ID:          t.ID,
		UserID:      t.UserID,
		Kind:        string(t.Kind),
		Fingerprint: t.Fingerprint,
		ExpiresAt:   t.ExpiresAt,
		CreatedAt:   t.CreatedAt,
	}
}

// PasswordModel is one entry of a user's password history.
type PasswordModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"type:varchar(36);not null;index:idx_password_user_at"`
	Hash      string    `gorm:"size:100;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_password_user_at;index"`
}

func (PasswordModel) TableName() string { return "user_passwords" }
