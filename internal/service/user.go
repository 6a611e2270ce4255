package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/core/mailer"
	"auto-ria-clone/internal/core/storage"
	"auto-ria-clone/internal/domain"
)

type UserService struct {
	users   domain.UserRepository
	auth    *AuthService
	files   FileStore
	mail    Notifier
	log     *zap.Logger
	defSize int
	maxSize int
}

func NewUserService(users domain.UserRepository, a *AuthService, files FileStore, mail Notifier, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{users: users, auth: a, files: files, mail: mail, log: l, defSize: 10, maxSize: 100}
}

func (s *UserService) find(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, domain.NotFound("user %s not found", id)
	}
	return u, nil
}

func (s *UserService) Me(ctx context.Context, actor access.Principal) (*domain.User, error) {
	if actor.Anonymous() {
		return nil, domain.Unauthorized("unauthorized")
	}
	return s.find(ctx, actor.UserID)
}

type UpdateMeInput struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=64"`
	Surname *string `json:"surname" binding:"omitempty,max=64"`
	Phone   *string `json:"phone" binding:"omitempty,max=32"`
	Age     *int    `json:"age" binding:"omitempty,min=18,max=120"`
	Region  *string `json:"region" binding:"omitempty,max=64"`
	City    *string `json:"city" binding:"omitempty,max=64"`
}

func (s *UserService) UpdateMe(ctx context.Context, actor access.Principal, in UpdateMeInput) (*domain.User, error) {
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&u.Name, in.Name)
	set(&u.Surname, in.Surname)
	set(&u.Phone, in.Phone)
	set(&u.Region, in.Region)
	set(&u.City, in.City)
	if in.Age != nil {
		u.Age = *in.Age
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// BuyPremium flips the account tier; there is no payment step.
func (s *UserService) BuyPremium(ctx context.Context, actor access.Principal) (*domain.User, error) {
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	if u.IsPremium() {
		return nil, domain.Conflict("account is already premium")
	}
	u.AccountType = domain.AccountPremium
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	if s.mail != nil {
		s.mail.Send(ctx, mailer.Premium, []mailer.Recipient{{Email: u.Email, Name: u.Name}}, nil)
	}
	return u, nil
}

// BecomeSeller upgrades a BUYER. Staff accounts keep their role.
func (s *UserService) BecomeSeller(ctx context.Context, actor access.Principal) (*domain.User, error) {
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	switch u.Role {
	case domain.RoleSeller:
		return nil, domain.Conflict("account is already a seller")
	case domain.RoleManager, domain.RoleAdmin:
		return nil, domain.Forbidden("staff accounts cannot change their own role")
	}
	u.Role = domain.RoleSeller
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, actor access.Principal, q domain.UserQuery) (Page[domain.User], error) {
	if err := access.Require(actor, access.UsersGetAll); err != nil {
		return Page[domain.User]{}, err
	}
	if q.Role != "" && !q.Role.Valid() {
		return Page[domain.User]{}, domain.BadRequest("unknown role %q", q.Role)
	}
	q.Page, q.PageSize = clampPage(q.Page, q.PageSize, s.defSize, s.maxSize)
	items, total, err := s.users.List(ctx, q)
	if err != nil {
		return Page[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return NewPage(items, total, q.Page, q.PageSize), nil
}

// GetByID returns any account for detail viewers; everyone else only sees their own.
func (s *UserService) GetByID(ctx context.Context, actor access.Principal, id string) (*domain.User, error) {
	if actor.UserID != id {
		if err := access.Require(actor, access.UsersGetDetails); err != nil {
			return nil, err
		}
	}
	return s.find(ctx, id)
}

func (s *UserService) CreateManager(ctx context.Context, actor access.Principal, in SignUpInput) (*domain.User, error) {
	if err := access.Require(actor, access.UsersCreateManager); err != nil {
		return nil, err
	}
	u, err := s.auth.register(ctx, in, domain.RoleManager, true)
	if err != nil {
		return nil, err
	}
	s.log.Info("manager created", zap.String("uid", u.ID), zap.String("by", actor.UserID))
	return u, nil
}

// target loads a user for an administrative action and runs the policy.
func (s *UserService) target(ctx context.Context, actor access.Principal, id string, perm access.Permission) (*domain.User, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanActOnUser(actor, access.Target{ID: u.ID, Role: u.Role}, perm); err != nil {
		return nil, err
	}
	return u, nil
}

type ChangeRoleInput struct {
	Role domain.Role `json:"role" binding:"required,oneof=buyer seller manager admin"`
}

func (s *UserService) ChangeRole(ctx context.Context, actor access.Principal, id string, in ChangeRoleInput) (*domain.User, error) {
	if !in.Role.Valid() {
		return nil, domain.BadRequest("unknown role %q", in.Role)
	}
	u, err := s.target(ctx, actor, id, access.UsersUpdateRole)
	if err != nil {
		return nil, err
	}
	if u.Role == in.Role {
		return nil, domain.Conflict("user already has role %s", in.Role)
	}
	u.Role = in.Role
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("role changed", zap.String("uid", u.ID), zap.String("role", string(u.Role)), zap.String("by", actor.UserID))
	return u, nil
}

func (s *UserService) Ban(ctx context.Context, actor access.Principal, id string) (*domain.User, error) {
	return s.setBanned(ctx, actor, id, true)
}

func (s *UserService) Unban(ctx context.Context, actor access.Principal, id string) (*domain.User, error) {
	return s.setBanned(ctx, actor, id, false)
}

func (s *UserService) setBanned(ctx context.Context, actor access.Principal, id string, banned bool) (*domain.User, error) {
	u, err := s.target(ctx, actor, id, access.UsersBan)
	if err != nil {
		return nil, err
	}
	if u.IsBanned == banned {
		if banned {
			return nil, domain.Conflict("user is already banned")
		}
		return nil, domain.Conflict("user is not banned")
	}
	u.IsBanned = banned
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("ban state changed", zap.String("uid", u.ID), zap.Bool("banned", banned), zap.String("by", actor.UserID))
	return u, nil
}

// Delete is a soft delete; the record stays readable by staff.
func (s *UserService) Delete(ctx context.Context, actor access.Principal, id string) error {
	u, err := s.target(ctx, actor, id, access.UsersDelete)
	if err != nil {
		return err
	}
	if u.IsDeleted {
		return domain.NotFound("user %s not found", id)
	}
	u.IsDeleted, u.IsActive = true, false
	return s.users.Update(ctx, u)
}

func (s *UserService) UploadAvatar(ctx context.Context, actor access.Principal, up Upload) (*domain.User, error) {
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	key, err := s.files.Replace(ctx, storage.KindAvatar, u.ID, up.Filename, up.ContentType, up.Body, up.Size, u.Avatar)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return nil, domain.BadRequest("only jpeg, png and webp images are accepted")
		}
		return nil, fmt.Errorf("store avatar: %w", err)
	}
	u.Avatar = key
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) DeleteAvatar(ctx context.Context, actor access.Principal) (*domain.User, error) {
	u, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	if u.Avatar == "" {
		return nil, domain.NotFound("no avatar to delete")
	}
	if err := s.files.Delete(ctx, u.Avatar); err != nil {
		return nil, fmt.Errorf("delete avatar: %w", err)
	}
	u.Avatar = ""
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
