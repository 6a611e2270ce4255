package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"auto-ria-clone/internal/domain"
	"auto-ria-clone/internal/feature/brand"
)

type BrandRepo struct{ db *gorm.DB }

func NewBrandRepo(db *gorm.DB) *BrandRepo { return &BrandRepo{db: db} }

var _ domain.BrandRepository = (*BrandRepo)(nil)

func (r *BrandRepo) List(ctx context.Context) ([]domain.Brand, error) {
	var ms []brand.BrandModel
	err := r.db.WithContext(ctx).
		Preload("Models", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Order("name").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Brand, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].ToDomain())
	}
	return out, nil
}

func (r *BrandRepo) Exists(ctx context.Context, brandName, model string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&brand.ModelModel{}).
		Joins("JOIN brands ON brands.id = brand_models.brand_id").
		Where("brands.name = ? AND brand_models.name = ?", brandName, model).
		Count(&n).Error
	return n > 0, err
}

// AddModels upserts the brand and inserts the models it does not have yet.
func (r *BrandRepo) AddModels(ctx context.Context, brandName string, models []string) (*domain.Brand, error) {
	var out domain.Brand
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b := brand.BrandModel{Name: brandName}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&b).Error; err != nil {
			return err
		}
		if err := tx.Where("name = ?", brandName).First(&b).Error; err != nil {
			return err
		}
		if len(models) > 0 {
			rows := make([]brand.ModelModel, 0, len(models))
			for _, m := range models {
				rows = append(rows, brand.ModelModel{BrandID: b.ID, Name: m})
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
				return err
			}
		}
		var full brand.BrandModel
		err := tx.Preload("Models", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
			Where("id = ?", b.ID).First(&full).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFound("brand %s not found", brandName)
		}
		if err != nil {
			return err
		}
		out = full.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
