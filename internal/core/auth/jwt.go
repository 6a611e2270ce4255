package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes. Access tokens authenticate requests, refresh tokens mint
// new pairs; verify and reset are single-use links sent by email.
const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
	PurposeVerify  = "verify"
	PurposeReset   = "reset"
)

var ErrWrongPurpose = errors.New("token purpose mismatch")

type Claims struct {
	UID         string `json:"uid"`
	Role        string `json:"role"`
	AccountType string `json:"accountType,omitempty"`
	Purpose     string `json:"purpose"`
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret     []byte
	Issuer     string
	TTL        time.Duration
	RefreshTTL time.Duration
	ActionTTL  time.Duration
}

// Pair is what a sign-in or a refresh hands out.
type Pair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

func (j *JWTer) sign(c Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    j.Issuer,
		Subject:   c.UID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(j.Secret)
}

// Issue signs an access token.
func (j *JWTer) Issue(uid, role, accountType string) (string, error) {
	return j.sign(Claims{UID: uid, Role: role, AccountType: accountType, Purpose: PurposeAccess}, j.TTL)
}

// IssuePair signs an access token and a refresh token for the same subject.
func (j *JWTer) IssuePair(uid, role, accountType string) (Pair, error) {
	access, err := j.Issue(uid, role, accountType)
	if err != nil {
		return Pair{}, err
	}
	ttl := j.RefreshTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	refresh, err := j.sign(Claims{UID: uid, Purpose: PurposeRefresh}, ttl)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: time.Now().Add(ttl)}, nil
}

// ActionLifetime is how long emailed links stay valid.
func (j *JWTer) ActionLifetime() time.Duration {
	if j.ActionTTL <= 0 {
		return 24 * time.Hour
	}
	return j.ActionTTL
}

// IssueAction signs a token usable only for purpose.
func (j *JWTer) IssueAction(uid, purpose string) (string, error) {
	return j.sign(Claims{UID: uid, Purpose: purpose}, j.ActionLifetime())
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(60*time.Second))

	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// ParseFor parses tokenStr and checks that it was issued for purpose.
func (j *JWTer) ParseFor(tokenStr, purpose string) (*Claims, error) {
	c, err := j.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if c.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return c, nil
}

// Fingerprint is the stored form of a token: tokens are kept server side
// only as their SHA-256.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
