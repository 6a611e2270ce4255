package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/core/events"
	"auto-ria-clone/internal/core/mailer"
	"auto-ria-clone/internal/core/storage"
	"auto-ria-clone/internal/domain"
	"auto-ria-clone/internal/moderation"
	"auto-ria-clone/internal/pricing"
	"auto-ria-clone/pkg/utils"
)

type ListingOptions struct {
	MaxStrikes      int
	BasicQuota      int
	DefaultPageSize int
	MaxPageSize     int
}

func (o *ListingOptions) withDefaults() {
	if o.MaxStrikes <= 0 {
		o.MaxStrikes = 3
	}
	if o.BasicQuota <= 0 {
		o.BasicQuota = 1
	}
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 10
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 100
	}
}

type ListingDeps struct {
	Listings  domain.ListingRepository
	Users     domain.UserRepository
	Brands    domain.BrandRepository
	Prices    *pricing.Normalizer
	Moderator *moderation.Moderator
	Mail      Notifier
	Files     FileStore
	Events    events.Publisher
	Presenter *Presenter
	Logger    *zap.Logger
	Now       func() time.Time
}

// ListingService runs the listing lifecycle: pricing, moderation with
// strike escalation, ownership checks and tiered presentation.
type ListingService struct {
	listings  domain.ListingRepository
	users     domain.UserRepository
	brands    domain.BrandRepository
	prices    *pricing.Normalizer
	moderator *moderation.Moderator
	mail      Notifier
	files     FileStore
	events    events.Publisher
	presenter *Presenter
	stats     *StatsAggregator
	opts      ListingOptions
	log       *zap.Logger
	now       func() time.Time
}

func NewListingService(d ListingDeps, o ListingOptions) *ListingService {
	o.withDefaults()
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Presenter == nil {
		d.Presenter = NewPresenter("")
	}
	return &ListingService{
		listings:  d.Listings,
		users:     d.Users,
		brands:    d.Brands,
		prices:    d.Prices,
		moderator: d.Moderator,
		mail:      d.Mail,
		files:     d.Files,
		events:    d.Events,
		presenter: d.Presenter,
		stats:     NewStatsAggregator(d.Listings, d.Now),
		opts:      o,
		log:       d.Logger,
		now:       d.Now,
	}
}

type CreateListingInput struct {
	Brand       string          `json:"brand" binding:"required,max=64"`
	Model       string          `json:"model" binding:"required,max=64"`
	Year        int             `json:"year" binding:"required,min=1900,max=2100"`
	Description string          `json:"description" binding:"max=5000"`
	Region      string          `json:"region" binding:"required,max=64"`
	City        string          `json:"city" binding:"max=64"`
	Price       float64         `json:"price" binding:"required,gt=0"`
	Currency    domain.Currency `json:"currency" binding:"required,oneof=UAH USD EUR"`
}

// UpdateListingInput carries only the fields being changed.
type UpdateListingInput struct {
	Description *string          `json:"description" binding:"omitempty,max=5000"`
	Region      *string          `json:"region" binding:"omitempty,max=64"`
	City        *string          `json:"city" binding:"omitempty,max=64"`
	Year        *int             `json:"year" binding:"omitempty,min=1900,max=2100"`
	Price       *float64         `json:"price" binding:"omitempty,gt=0"`
	Currency    *domain.Currency `json:"currency" binding:"omitempty,oneof=UAH USD EUR"`
}

// isStaff: moderators bypass the denylist and may edit blocked listings.
func isStaff(p access.Principal) bool { return p.Has(access.AdsValidate) }

func normalizeName(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func (s *ListingService) Create(ctx context.Context, actor access.Principal, in CreateListingInput) (*ListingView, error) {
	if err := access.Require(actor, access.CarsCreate); err != nil {
		return nil, err
	}
	brand, model := normalizeName(in.Brand), normalizeName(in.Model)
	ok, err := s.brands.Exists(ctx, brand, model)
	if err != nil {
		return nil, fmt.Errorf("check catalog: %w", err)
	}
	if !ok {
		return nil, domain.BadRequest("%s %s is not in the brand catalog", brand, model)
	}

	if !actor.IsPremium() && !isStaff(actor) {
		n, err := s.listings.CountByOwner(ctx, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("count listings: %w", err)
		}
		if n >= int64(s.opts.BasicQuota) {
			return nil, domain.Forbidden("basic accounts may keep %d listing(s), upgrade to premium to add more", s.opts.BasicQuota)
		}
	}

	converted, rates, err := s.prices.Convert(in.Price, in.Currency)
	if err != nil {
		return nil, err
	}

	desc := utils.SanitizeText(in.Description)
	status, outcome := domain.StatusActive, outcomeClean
	if s.moderator.Violates(desc) {
		status, outcome = domain.StatusPending, outcomeStrike
	}

	l := &domain.Listing{
		ID:              utils.NewID(),
		OwnerID:         actor.UserID,
		Brand:           brand,
		Model:           model,
		Year:            in.Year,
		Description:     desc,
		Region:          strings.TrimSpace(in.Region),
		City:            strings.TrimSpace(in.City),
		Price:           in.Price,
		Currency:        in.Currency,
		ConvertedPrices: converted,
		ExchangeRates:   rates,
		Status:          status,
	}
	if err := s.listings.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	moderationTotal.WithLabelValues(outcome).Inc()
	s.publish(ctx, events.ListingCreated, l)
	s.log.Info("listing created", zap.String("id", l.ID), zap.String("owner", l.OwnerID), zap.String("status", string(l.Status)))

	return s.presentByID(ctx, actor, l.ID)
}

// load returns a live listing or NOT_FOUND.
func (s *ListingService) load(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	if l == nil || l.IsDeleted {
		return nil, domain.NotFound("listing %s not found", id)
	}
	return l, nil
}

// Update applies a partial edit. A violating description is persisted as a
// strike before the call fails: BAD_REQUEST while attempts remain, FORBIDDEN
// once the listing is blocked.
func (s *ListingService) Update(ctx context.Context, actor access.Principal, id string, in UpdateListingInput) (*ListingView, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanActOnResource(actor, l.OwnerID, access.CarsUpdateAll, access.CarsUpdateOwn); err != nil {
		return nil, err
	}
	staff := isStaff(actor)
	if l.Status == domain.StatusInactive && !staff {
		return nil, domain.Forbidden("listing is blocked and awaits manager review")
	}

	if in.Region != nil {
		l.Region = strings.TrimSpace(*in.Region)
	}
	if in.City != nil {
		l.City = strings.TrimSpace(*in.City)
	}
	if in.Year != nil {
		l.Year = *in.Year
	}
	if in.Price != nil || in.Currency != nil {
		price, cur := l.Price, l.Currency
		if in.Price != nil {
			price = *in.Price
		}
		if in.Currency != nil {
			cur = *in.Currency
		}
		converted, rates, err := s.prices.Convert(price, cur)
		if err != nil {
			return nil, err
		}
		l.Price, l.Currency, l.ConvertedPrices, l.ExchangeRates = price, cur, converted, rates
	}

	outcome := ""
	if in.Description != nil {
		l.Description = utils.SanitizeText(*in.Description)
		switch {
		case staff:
			l.Status, l.EditCount, outcome = domain.StatusActive, 0, outcomeStaff
		case !s.moderator.Violates(l.Description):
			l.Status, outcome = domain.StatusActive, outcomeClean
		default:
			l.EditCount++
			if l.EditCount >= s.opts.MaxStrikes {
				l.Status, outcome = domain.StatusInactive, outcomeBlocked
			} else {
				l.Status, outcome = domain.StatusPending, outcomeStrike
			}
		}
	}

	if err := s.listings.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}
	if outcome != "" {
		moderationTotal.WithLabelValues(outcome).Inc()
	}

	switch outcome {
	case outcomeBlocked:
		s.notifyBlocked(ctx, l)
		s.publish(ctx, events.ListingBlocked, l)
		return nil, domain.Forbidden("listing was blocked after %d rejected edits and sent to managers for review", l.EditCount)
	case outcomeStrike:
		s.publish(ctx, events.ListingUpdated, l)
		return nil, domain.BadRequest("description contains forbidden words, attempts left: %d", s.opts.MaxStrikes-l.EditCount)
	}
	s.publish(ctx, events.ListingUpdated, l)
	return s.presentByID(ctx, actor, l.ID)
}

// Validate is the staff action that releases a listing from any state.
func (s *ListingService) Validate(ctx context.Context, actor access.Principal, id string) (*ListingView, error) {
	if err := access.Require(actor, access.AdsValidate); err != nil {
		return nil, err
	}
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Status, l.EditCount = domain.StatusActive, 0
	if err := s.listings.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("validate listing: %w", err)
	}
	s.publish(ctx, events.ListingValidated, l)
	s.log.Info("listing validated", zap.String("id", l.ID), zap.String("by", actor.UserID))
	return s.presentByID(ctx, actor, l.ID)
}

func (s *ListingService) Delete(ctx context.Context, actor access.Principal, id string) error {
	l, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := access.CanActOnResource(actor, l.OwnerID, access.CarsDeleteAll, access.CarsDeleteOwn); err != nil {
		return err
	}
	if err := s.listings.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.ListingDeleted, map[string]string{"id": id, "by": actor.UserID})
	return nil
}

// Get fetches a listing for viewer without side effects. Listings that are
// not ACTIVE are visible only to their owner and to detail viewers.
func (s *ListingService) Get(ctx context.Context, viewer access.Principal, id string) (*domain.HydratedListing, error) {
	h, err := s.listings.FindHydrated(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	if h == nil || h.IsDeleted {
		return nil, domain.NotFound("listing %s not found", id)
	}
	owner := !viewer.Anonymous() && viewer.UserID == h.OwnerID
	if h.Status != domain.StatusActive && !owner && !viewer.Has(access.CarsSeeDetailsAll) {
		return nil, domain.NotFound("listing %s not found", id)
	}
	return h, nil
}

// RecordView appends one entry to the view log.
func (s *ListingService) RecordView(ctx context.Context, id string) error {
	if err := s.listings.AddView(ctx, id, s.now().UTC()); err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

// View is the read path of the public API: Get, then RecordView, then
// present with statistics for eligible viewers.
func (s *ListingService) View(ctx context.Context, viewer access.Principal, id string) (*ListingView, error) {
	h, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if err := s.RecordView(ctx, id); err != nil {
		return nil, err
	}
	var stats *Statistics
	if StatsAllowed(viewer) {
		if stats, err = s.stats.Compute(ctx, &h.Listing); err != nil {
			return nil, err
		}
	}
	v := s.presenter.Present(viewer, h, stats)
	return &v, nil
}

func (s *ListingService) List(ctx context.Context, viewer access.Principal, q domain.ListingQuery) (Page[ListingView], error) {
	return s.list(ctx, viewer, domain.ListingFilter{
		ListingQuery: q,
		OnlyActive:   !viewer.Has(access.CarsSeeDetailsAll),
	})
}

// ListMine lists the actor's own listings in every status.
func (s *ListingService) ListMine(ctx context.Context, actor access.Principal, q domain.ListingQuery) (Page[ListingView], error) {
	if actor.Anonymous() {
		return Page[ListingView]{}, domain.Unauthorized("sign in to see your listings")
	}
	return s.list(ctx, actor, domain.ListingFilter{ListingQuery: q, OwnerID: actor.UserID})
}

func (s *ListingService) list(ctx context.Context, viewer access.Principal, f domain.ListingFilter) (Page[ListingView], error) {
	f.Page, f.PageSize = clampPage(f.Page, f.PageSize, s.opts.DefaultPageSize, s.opts.MaxPageSize)
	f.Brand, f.Model = normalizeName(f.Brand), normalizeName(f.Model)
	if f.PriceMin > 0 && f.PriceMax > 0 && f.PriceMin > f.PriceMax {
		return Page[ListingView]{}, domain.BadRequest("priceMin must not exceed priceMax")
	}
	items, total, err := s.listings.List(ctx, f)
	if err != nil {
		return Page[ListingView]{}, fmt.Errorf("list listings: %w", err)
	}
	return s.presenter.Page(viewer, items, total, f.Page, f.PageSize), nil
}

// UploadImage stores a new image and drops the previous one.
func (s *ListingService) UploadImage(ctx context.Context, actor access.Principal, id string, up Upload) (*ListingView, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanActOnResource(actor, l.OwnerID, access.CarsUpdateAll, access.CarsUpdateOwn); err != nil {
		return nil, err
	}
	key, err := s.files.Replace(ctx, storage.KindListing, l.ID, up.Filename, up.ContentType, up.Body, up.Size, l.Image)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return nil, domain.BadRequest("only jpeg, png and webp images are accepted")
		}
		return nil, fmt.Errorf("store image: %w", err)
	}
	l.Image = key
	if err := s.listings.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}
	return s.presentByID(ctx, actor, l.ID)
}

// ReconvertAll re-prices every listing with the current rate table.
func (s *ListingService) ReconvertAll(ctx context.Context) (int, error) {
	n := 0
	err := s.listings.EachBatch(ctx, 200, func(batch []domain.Listing) error {
		for i := range batch {
			l := &batch[i]
			converted, rates, err := s.prices.Convert(l.Price, l.Currency)
			if err != nil {
				s.log.Warn("reconvert: skip listing", zap.String("id", l.ID), zap.Error(err))
				continue
			}
			// only the price columns: the batch may be stale by now
			if err := s.listings.UpdatePrices(ctx, l.ID, converted, rates); err != nil {
				return fmt.Errorf("reconvert %s: %w", l.ID, err)
			}
			n++
		}
		return ctx.Err()
	})
	reconvertedTotal.Add(float64(n))
	return n, err
}

func (s *ListingService) presentByID(ctx context.Context, viewer access.Principal, id string) (*ListingView, error) {
	h, err := s.listings.FindHydrated(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	if h == nil {
		return nil, domain.NotFound("listing %s not found", id)
	}
	v := s.presenter.Present(viewer, h, nil)
	return &v, nil
}

func (s *ListingService) notifyBlocked(ctx context.Context, l *domain.Listing) {
	if s.mail == nil {
		return
	}
	managers, err := s.users.FindByRole(ctx, domain.RoleManager)
	if err != nil {
		s.log.Error("blocked listing: load managers", zap.String("listing", l.ID), zap.Error(err))
		return
	}
	to := make([]mailer.Recipient, 0, len(managers))
	for _, m := range managers {
		to = append(to, mailer.Recipient{Email: m.Email, Name: m.Name})
	}
	s.mail.Send(ctx, mailer.BlockedListing, to, map[string]any{"Listing": l})
}

func (s *ListingService) publish(ctx context.Context, subject string, payload any) {
	if err := s.events.Publish(ctx, subject, payload); err != nil {
		s.log.Warn("publish event", zap.String("subject", subject), zap.Error(err))
	}
}
