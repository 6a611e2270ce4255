package brand

import (
	"time"

	"auto-ria-clone/internal/domain"
)

type BrandModel struct {
	ID        uint         `gorm:"primaryKey;autoIncrement"`
	Name      string       `gorm:"size:64;not null;uniqueIndex"`
	Models    []ModelModel `gorm:"foreignKey:BrandID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time    `gorm:"autoCreateTime"`
}

func (BrandModel) TableName() string { return "brands" }

type ModelModel struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	BrandID uint   `gorm:"not null;uniqueIndex:idx_brand_model"`
	Name    string `gorm:"size:64;not null;uniqueIndex:idx_brand_model"`
}

func (ModelModel) TableName() string { return "brand_models" }

func (b *BrandModel) ToDomain() domain.Brand {
	out := domain.Brand{Name: b.Name, Models: make([]string, 0, len(b.Models))}
	for _, m := range b.Models {
		out.Models = append(out.Models, m.Name)
	}
	return out
}
