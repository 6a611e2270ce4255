package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/core/cache"
	"auto-ria-clone/internal/core/mailer"
	"auto-ria-clone/internal/domain"
)

const brandsCacheKey = "brands:all"

type BrandService struct {
	brands domain.BrandRepository
	users  domain.UserRepository
	cache  *cache.Cache
	ttl    time.Duration
	mail   Notifier
	log    *zap.Logger
}

// NewBrandService works without a cache; c may be nil.
func NewBrandService(brands domain.BrandRepository, users domain.UserRepository, c *cache.Cache, ttl time.Duration, mail Notifier, l *zap.Logger) *BrandService {
	if l == nil {
		l = zap.NewNop()
	}
	return &BrandService{brands: brands, users: users, cache: c, ttl: ttl, mail: mail, log: l}
}

func (s *BrandService) List(ctx context.Context) ([]domain.Brand, error) {
	if s.cache == nil {
		return s.brands.List(ctx)
	}
	out, err := cache.GetOrLoadJSON(s.cache, ctx, brandsCacheKey, s.ttl, func(ctx context.Context) (*[]domain.Brand, error) {
		bs, err := s.brands.List(ctx)
		if err != nil {
			return nil, err
		}
		return &bs, nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return []domain.Brand{}, nil
	}
	return *out, nil
}

type AddBrandInput struct {
	Brand  string   `json:"brand" binding:"required,max=64"`
	Models []string `json:"models" binding:"required,min=1,dive,required,max=64"`
}

// AddModels upper-cases the names and unions them into the catalog.
func (s *BrandService) AddModels(ctx context.Context, actor access.Principal, in AddBrandInput) (*domain.Brand, error) {
	if err := access.Require(actor, access.BrandsManage); err != nil {
		return nil, err
	}
	brand := normalizeName(in.Brand)
	if brand == "" {
		return nil, domain.BadRequest("brand name is required")
	}
	models := make([]string, 0, len(in.Models))
	for _, m := range in.Models {
		if m = normalizeName(m); m != "" && !slices.Contains(models, m) {
			models = append(models, m)
		}
	}
	b, err := s.brands.AddModels(ctx, brand, models)
	if err != nil {
		return nil, fmt.Errorf("add models: %w", err)
	}
	s.invalidate(ctx)
	s.log.Info("catalog updated", zap.String("brand", brand), zap.Strings("models", models), zap.String("by", actor.UserID))
	return b, nil
}

// Seed loads a startup catalog; existing entries are kept.
func (s *BrandService) Seed(ctx context.Context, catalog map[string][]string) error {
	for brand, models := range catalog {
		norm := make([]string, 0, len(models))
		for _, m := range models {
			norm = append(norm, normalizeName(m))
		}
		if _, err := s.brands.AddModels(ctx, normalizeName(brand), norm); err != nil {
			return fmt.Errorf("seed %s: %w", brand, err)
		}
	}
	s.invalidate(ctx)
	return nil
}

type MissingBrandInput struct {
	Brand string `json:"brand" binding:"required,max=64"`
	Model string `json:"model" binding:"max=64"`
}

// ReportMissing asks the managers to extend the catalog.
func (s *BrandService) ReportMissing(ctx context.Context, actor access.Principal, in MissingBrandInput) error {
	if actor.Anonymous() {
		return domain.Unauthorized("sign in to report a missing brand")
	}
	requester, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return fmt.Errorf("load requester: %w", err)
	}
	if requester == nil {
		return domain.NotFound("user %s not found", actor.UserID)
	}
	managers, err := s.users.FindByRole(ctx, domain.RoleManager)
	if err != nil {
		return fmt.Errorf("load managers: %w", err)
	}
	if s.mail == nil {
		return nil
	}
	to := make([]mailer.Recipient, 0, len(managers))
	for _, m := range managers {
		to = append(to, mailer.Recipient{Email: m.Email, Name: m.Name})
	}
	s.mail.Send(ctx, mailer.MissingBrand, to, map[string]any{
		"Brand":          normalizeName(in.Brand),
		"Model":          normalizeName(in.Model),
		"RequesterEmail": requester.Email,
	})
	return nil
}

func (s *BrandService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, brandsCacheKey); err != nil {
		s.log.Warn("brand cache invalidate", zap.Error(err))
	}
}
