package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"auto-ria-clone/internal/domain"
	"auto-ria-clone/internal/feature/listing"
)

type ListingRepo struct{ db *gorm.DB }

func NewListingRepo(db *gorm.DB) *ListingRepo { return &ListingRepo{db: db} }

var _ domain.ListingRepository = (*ListingRepo)(nil)

var listingOrderColumns = map[string]string{
	"createdAt": "created_at",
	"price":     "price_uah",
	"year":      "year",
}

func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	m := listing.FromDomain(l)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return err
	}
	l.CreatedAt, l.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *ListingRepo) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	var m listing.ListingModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *ListingRepo) FindHydrated(ctx context.Context, id string) (*domain.HydratedListing, error) {
	var m listing.ListingModel
	err := r.db.WithContext(ctx).Preload("Owner").Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	h := m.ToHydrated()
	return &h, nil
}

func (r *ListingRepo) List(ctx context.Context, f domain.ListingFilter) ([]domain.HydratedListing, int64, error) {
	tx := r.db.WithContext(ctx).Model(&listing.ListingModel{}).Where("is_deleted = ?", false)
	if f.OwnerID != "" {
		tx = tx.Where("owner_id = ?", f.OwnerID)
	}
	if f.OnlyActive {
		tx = tx.Where("status = ?", string(domain.StatusActive))
	}
	if f.Brand != "" {
		tx = tx.Where("brand = ?", f.Brand)
	}
	if f.Model != "" {
		tx = tx.Where("model = ?", f.Model)
	}
	if f.Region != "" {
		tx = tx.Where("region = ?", f.Region)
	}
	if f.PriceMin > 0 {
		tx = tx.Where("price_uah >= ?", f.PriceMin)
	}
	if f.PriceMax > 0 {
		tx = tx.Where("price_uah <= ?", f.PriceMax)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []listing.ListingModel
	err := tx.Preload("Owner").
		Order(orderClause(listingOrderColumns, f.OrderBy, f.Order, "created_at")).
		Limit(f.PageSize).Offset((f.Page - 1) * f.PageSize).
		Find(&ms).Error
	if err != nil {
		return nil, 0, err
	}
	out := make([]domain.HydratedListing, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].ToHydrated())
	}
	return out, total, nil
}

func (r *ListingRepo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&listing.ListingModel{}).
		Where("owner_id = ? AND is_deleted = ?", ownerID, false).
		Count(&n).Error
	return n, err
}

// Update writes every mutable column. Owner and creation time never change.
func (r *ListingRepo) Update(ctx context.Context, l *domain.Listing) error {
	m := listing.FromDomain(l)
	res := r.db.WithContext(ctx).Model(m).
		Select("*").Omit(clause.Associations, "id", "owner_id", "created_at").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("listing %s not found", l.ID)
	}
	l.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *ListingRepo) UpdatePrices(ctx context.Context, id string, prices domain.Prices, rates domain.Rates) error {
	res := r.db.WithContext(ctx).Model(&listing.ListingModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"price_uah":        prices[domain.BaseCurrency],
			"converted_prices": datatypes.NewJSONType(prices),
			"exchange_rates":   datatypes.NewJSONType(rates),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("listing %s not found", id)
	}
	return nil
}

func (r *ListingRepo) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&listing.ListingModel{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("listing %s not found", id)
	}
	return nil
}

func (r *ListingRepo) AddView(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Create(&listing.ViewModel{ListingID: id, ViewedAt: at}).Error
}

func (r *ListingRepo) ViewTimes(ctx context.Context, id string) ([]time.Time, error) {
	var out []time.Time
	err := r.db.WithContext(ctx).Model(&listing.ViewModel{}).
		Where("listing_id = ?", id).
		Order("viewed_at").
		Pluck("viewed_at", &out).Error
	return out, err
}

func (r *ListingRepo) AveragePriceUAH(ctx context.Context, brand, model, region string) (float64, float64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&listing.ListingModel{}).
			Where("brand = ? AND model = ? AND status = ? AND is_deleted = ?",
				brand, model, string(domain.StatusActive), false)
	}
	var national, regional float64
	if err := base().Select("COALESCE(AVG(price_uah), 0)").Scan(&national).Error; err != nil {
		return 0, 0, err
	}
	if err := base().Where("region = ?", region).Select("COALESCE(AVG(price_uah), 0)").Scan(&regional).Error; err != nil {
		return 0, 0, err
	}
	return national, regional, nil
}

// EachBatch walks every listing, deleted ones included, in primary key order.
func (r *ListingRepo) EachBatch(ctx context.Context, size int, fn func([]domain.Listing) error) error {
	var batch []listing.ListingModel
	res := r.db.WithContext(ctx).Model(&listing.ListingModel{}).
		FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
			out := make([]domain.Listing, 0, len(batch))
			for i := range batch {
				out = append(out, *batch[i].ToDomain())
			}
			return fn(out)
		})
	return res.Error
}
