package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/core/auth"
	"auto-ria-clone/internal/core/mailer"
	"auto-ria-clone/internal/domain"
	"auto-ria-clone/pkg/utils"
)

type AuthDeps struct {
	Users     domain.UserRepository
	Tokens    domain.TokenRepository
	Passwords domain.PasswordHistory
	JWT       *auth.JWTer
	Mail      Notifier
	Logger    *zap.Logger
	Now       func() time.Time
}

type AuthOptions struct {
	BootstrapKey string
	// PasswordHistory is the window in which an old password cannot be set again.
	PasswordHistory time.Duration
}

type AuthService struct {
	users        domain.UserRepository
	tokens       domain.TokenRepository
	passwords    domain.PasswordHistory
	jwt          *auth.JWTer
	mail         Notifier
	bootstrapKey string
	history      time.Duration
	log          *zap.Logger
	now          func() time.Time
}

func NewAuthService(d AuthDeps, o AuthOptions) *AuthService {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if o.PasswordHistory <= 0 {
		o.PasswordHistory = 90 * 24 * time.Hour
	}
	return &AuthService{
		users:        d.Users,
		tokens:       d.Tokens,
		passwords:    d.Passwords,
		jwt:          d.JWT,
		mail:         d.Mail,
		bootstrapKey: o.BootstrapKey,
		history:      o.PasswordHistory,
		log:          d.Logger,
		now:          d.Now,
	}
}

type SignUpInput struct {
	Email    string      `json:"email" binding:"required,email,max=255"`
	Password string      `json:"password" binding:"required,min=8,max=72"`
	Name     string      `json:"name" binding:"required,max=64"`
	Surname  string      `json:"surname" binding:"max=64"`
	Phone    string      `json:"phone" binding:"max=32"`
	Age      int         `json:"age" binding:"omitempty,min=18,max=120"`
	Region   string      `json:"region" binding:"max=64"`
	City     string      `json:"city" binding:"max=64"`
	Role     domain.Role `json:"role" binding:"omitempty,oneof=buyer seller"`
}

type SignInInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshInput struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordInput struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72"`
}

type Session struct {
	auth.Pair
	User *domain.User `json:"user"`
}

func hashPassword(pw string) (string, error) {
	hash, err := utils.HashPassword(pw)
	if errors.Is(err, utils.ErrWeakPassword) {
		return "", domain.BadRequest("password must be at least %d characters", utils.MinPasswordLen)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// newUser validates the password and builds an active BASIS account.
func newUser(in SignUpInput, role domain.Role, verified bool) (*domain.User, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:           utils.NewID(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		Phone:        strings.TrimSpace(in.Phone),
		Age:          in.Age,
		Region:       strings.TrimSpace(in.Region),
		City:         strings.TrimSpace(in.City),
		PasswordHash: hash,
		Role:         role,
		AccountType:  domain.AccountBasis,
		IsActive:     true,
		IsVerified:   verified,
	}, nil
}

// register creates the account in one write and starts its password history.
func (s *AuthService) register(ctx context.Context, in SignUpInput, role domain.Role, verified bool) (*domain.User, error) {
	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if existing != nil {
		return nil, domain.Conflict("user with email %s already exists", in.Email)
	}
	u, err := newUser(in, role, verified)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.remember(ctx, u)
	return u, nil
}

// remember appends the current hash to the history; a failure only weakens
// the reuse check, so it is logged.
func (s *AuthService) remember(ctx context.Context, u *domain.User) {
	if s.passwords == nil {
		return
	}
	if err := s.passwords.Add(ctx, u.ID, u.PasswordHash, s.now()); err != nil {
		s.log.Warn("password history: add", zap.String("uid", u.ID), zap.Error(err))
	}
}

// SignUp registers a BUYER or SELLER and mails a verification link.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleBuyer
	}
	if role != domain.RoleBuyer && role != domain.RoleSeller {
		return nil, domain.BadRequest("role %q cannot be chosen at sign up", role)
	}
	u, err := s.register(ctx, in, role, false)
	if err != nil {
		return nil, err
	}

	tok, err := s.jwt.IssueAction(u.ID, auth.PurposeVerify)
	if err != nil {
		s.log.Error("issue verify token", zap.String("uid", u.ID), zap.Error(err))
	} else if s.mail != nil {
		s.mail.Send(ctx, mailer.Welcome, []mailer.Recipient{{Email: u.Email, Name: u.Name}}, map[string]any{"Token": tok})
	}
	s.log.Info("user signed up", zap.String("uid", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// openSession issues a token pair and stores the refresh token's fingerprint.
func (s *AuthService) openSession(ctx context.Context, u *domain.User) (*Session, error) {
	pair, err := s.jwt.IssuePair(u.ID, string(u.Role), string(u.AccountType))
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	err = s.tokens.Create(ctx, &domain.StoredToken{
		ID:          utils.NewID(),
		UserID:      u.ID,
		Kind:        domain.TokenRefresh,
		Fingerprint: auth.Fingerprint(pair.RefreshToken),
		ExpiresAt:   pair.RefreshExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &Session{Pair: pair, User: u}, nil
}

func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
		return nil, domain.Unauthorized("invalid credentials")
	}
	if !u.CanSignIn() {
		return nil, domain.Forbidden("account is banned or deleted")
	}
	return s.openSession(ctx, u)
}

// Refresh rotates a refresh token: the presented one is consumed and a new
// pair is issued. A token that was already used is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	c, err := s.jwt.ParseFor(refreshToken, auth.PurposeRefresh)
	if err != nil {
		return nil, domain.Unauthorized("invalid or expired refresh token")
	}
	st, err := s.tokens.Consume(ctx, domain.TokenRefresh, auth.Fingerprint(refreshToken), s.now())
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if st == nil || st.UserID != c.UID {
		return nil, domain.Forbidden("refresh token was revoked")
	}
	u, err := s.users.FindByID(ctx, c.UID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, domain.Unauthorized("user no longer exists")
	}
	if !u.CanSignIn() {
		return nil, domain.Forbidden("account is banned or deleted")
	}
	return s.openSession(ctx, u)
}

// Logout revokes one refresh token. Revoking an unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.jwt.ParseFor(refreshToken, auth.PurposeRefresh); err != nil {
		return domain.Unauthorized("invalid or expired refresh token")
	}
	if _, err := s.tokens.Consume(ctx, domain.TokenRefresh, auth.Fingerprint(refreshToken), s.now()); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// LogoutAll revokes every refresh token of the caller.
func (s *AuthService) LogoutAll(ctx context.Context, actor access.Principal) error {
	if actor.Anonymous() {
		return domain.Unauthorized("unauthorized")
	}
	return s.tokens.DeleteByUser(ctx, actor.UserID, domain.TokenRefresh)
}

// Verify consumes an emailed verification token.
func (s *AuthService) Verify(ctx context.Context, token string) error {
	c, err := s.jwt.ParseFor(token, auth.PurposeVerify)
	if err != nil {
		return domain.Unauthorized("invalid or expired verification token")
	}
	u, err := s.users.FindByID(ctx, c.UID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if u == nil || u.IsDeleted {
		return domain.NotFound("user not found")
	}
	if u.IsVerified {
		return domain.Conflict("account is already verified")
	}
	u.IsVerified = true
	return s.users.Update(ctx, u)
}

// ForgotPassword mails a single-use reset link. Unknown or blocked accounts
// get the same silent success so the endpoint does not reveal who is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if u == nil || !u.CanSignIn() {
		s.log.Info("password reset for unknown account", zap.String("email", in.Email))
		return nil
	}

	tok, err := s.jwt.IssueAction(u.ID, auth.PurposeReset)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	// only the latest link works
	if err := s.tokens.DeleteByUser(ctx, u.ID, domain.TokenReset); err != nil {
		return fmt.Errorf("drop reset tokens: %w", err)
	}
	err = s.tokens.Create(ctx, &domain.StoredToken{
		ID:          utils.NewID(),
		UserID:      u.ID,
		Kind:        domain.TokenReset,
		Fingerprint: auth.Fingerprint(tok),
		ExpiresAt:   s.now().Add(s.jwt.ActionLifetime()),
	})
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	if s.mail != nil {
		s.mail.Send(ctx, mailer.ForgotPassword, []mailer.Recipient{{Email: u.Email, Name: u.Name}}, map[string]any{"Token": tok})
	}
	return nil
}

// ResetPassword sets a new password from an emailed reset link and signs
// the account out everywhere. The link is consumed only once the new
// password is accepted.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	c, err := s.jwt.ParseFor(in.Token, auth.PurposeReset)
	if err != nil {
		return domain.Unauthorized("invalid or expired reset link")
	}
	u, err := s.users.FindByID(ctx, c.UID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if u == nil || !u.CanSignIn() {
		return domain.Unauthorized("invalid or expired reset link")
	}
	hash, err := s.newHash(ctx, u, in.Password)
	if err != nil {
		return err
	}
	st, err := s.tokens.Consume(ctx, domain.TokenReset, auth.Fingerprint(in.Token), s.now())
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if st == nil || st.UserID != u.ID {
		return domain.Unauthorized("reset link was already used")
	}
	return s.setPassword(ctx, u, hash)
}

// ChangePassword replaces the caller's password after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, actor access.Principal, in ChangePasswordInput) error {
	if actor.Anonymous() {
		return domain.Unauthorized("unauthorized")
	}
	u, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return domain.NotFound("user %s not found", actor.UserID)
	}
	if !utils.CheckPassword(in.OldPassword, u.PasswordHash) {
		return domain.Unauthorized("old password does not match")
	}
	hash, err := s.newHash(ctx, u, in.NewPassword)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, u, hash)
}

// newHash rejects the current password and any set within the history
// window, then hashes pw.
func (s *AuthService) newHash(ctx context.Context, u *domain.User, pw string) (string, error) {
	used := []string{u.PasswordHash}
	if s.passwords != nil {
		old, err := s.passwords.Since(ctx, u.ID, s.now().Add(-s.history))
		if err != nil {
			return "", fmt.Errorf("password history: %w", err)
		}
		used = append(used, old...)
	}
	for _, h := range used {
		if utils.CheckPassword(pw, h) {
			return "", domain.BadRequest("this password was used recently, choose another one")
		}
	}
	return hashPassword(pw)
}

func (s *AuthService) setPassword(ctx context.Context, u *domain.User, hash string) error {
	u.PasswordHash = hash
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	s.remember(ctx, u)
	if err := s.tokens.DeleteByUser(ctx, u.ID, domain.TokenRefresh); err != nil {
		s.log.Warn("revoke sessions after password change", zap.String("uid", u.ID), zap.Error(err))
	}
	s.log.Info("password changed", zap.String("uid", u.ID))
	return nil
}

// PurgeStale drops expired refresh/reset tokens and password history
// older than the reuse window.
func (s *AuthService) PurgeStale(ctx context.Context) (tokens, passwords int64, err error) {
	now := s.now()
	if tokens, err = s.tokens.DeleteExpired(ctx, now); err != nil {
		return 0, 0, fmt.Errorf("purge tokens: %w", err)
	}
	if s.passwords != nil {
		if passwords, err = s.passwords.DeleteBefore(ctx, now.Add(-s.history)); err != nil {
			return tokens, 0, fmt.Errorf("purge password history: %w", err)
		}
	}
	return tokens, passwords, nil
}

// LoadPrincipal resolves the current record behind a token, so role and tier
// changes apply without re-issuing tokens.
func (s *AuthService) LoadPrincipal(ctx context.Context, uid string) (access.Principal, error) {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return access.Principal{}, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return access.Principal{}, domain.Unauthorized("user no longer exists")
	}
	if !u.CanSignIn() {
		return access.Principal{}, domain.Forbidden("account is banned or deleted")
	}
	return access.NewPrincipal(u), nil
}

// BootstrapAdmin creates the first ADMIN. It needs the configured key and
// refuses once an admin exists.
func (s *AuthService) BootstrapAdmin(ctx context.Context, key string, in SignUpInput) (*domain.User, error) {
	if s.bootstrapKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.bootstrapKey)) != 1 {
		return nil, domain.Forbidden("invalid bootstrap key")
	}
	admins, err := s.users.FindByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("find admins: %w", err)
	}
	if len(admins) > 0 {
		return nil, domain.Conflict("an administrator already exists")
	}
	u, err := s.register(ctx, in, domain.RoleAdmin, true)
	if err != nil {
		return nil, err
	}
	s.log.Warn("administrator bootstrapped", zap.String("uid", u.ID))
	return u, nil
}
