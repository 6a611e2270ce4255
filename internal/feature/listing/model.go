package listing

import (
	"time"

	"gorm.io/datatypes"

	"auto-ria-clone/internal/domain"
	"auto-ria-clone/internal/feature/user"
)

type ListingModel struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	OwnerID     string `gorm:"type:varchar(36);not null;index"`
	Brand       string `gorm:"size:64;not null;index:idx_listing_brand_model"`
	Model       string `gorm:"size:64;not null;index:idx_listing_brand_model"`
	Year        int    `gorm:"not null"`
	Description string `gorm:"type:text"`
	Region      string `gorm:"size:64;index"`
	City        string `gorm:"size:64"`
	Price       float64
	Currency    string `gorm:"size:3;not null"`
	// PriceUAH mirrors ConvertedPrices[UAH] so filters, sorting and averages stay in SQL.
	PriceUAH        int64                            `gorm:"not null;index"`
	ConvertedPrices datatypes.JSONType[domain.Prices] `gorm:"type:json"`
	ExchangeRates   datatypes.JSONType[domain.Rates]  `gorm:"type:json"`
	Status          string                           `gorm:"size:16;not null;index"`
	EditCount       int                              `gorm:"not null;default:0"`
	Image           string                           `gorm:"size:255"`
	IsDeleted       bool                             `gorm:"not null;default:false;index"`

	Owner user.UserModel `gorm:"foreignKey:OwnerID"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ListingModel) TableName() string { return "listings" }

func (m *ListingModel) ToDomain() *domain.Listing {
	return &domain.Listing{
		ID:              m.ID,
		OwnerID:         m.OwnerID,
		Brand:           m.Brand,
		Model:           m.Model,
		Year:            m.Year,
		Description:     m.Description,
		Region:          m.Region,
		City:            m.City,
		Price:           m.Price,
		Currency:        domain.Currency(m.Currency),
		ConvertedPrices: m.ConvertedPrices.Data(),
		ExchangeRates:   m.ExchangeRates.Data(),
		Status:          domain.ListingStatus(m.Status),
		EditCount:       m.EditCount,
		Image:           m.Image,
		IsDeleted:       m.IsDeleted,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ToHydrated requires Owner to be preloaded.
func (m *ListingModel) ToHydrated() domain.HydratedListing {
	return domain.HydratedListing{Listing: *m.ToDomain(), Owner: m.Owner.Card()}
}

func FromDomain(l *domain.Listing) *ListingModel {
	return &ListingModel{
		ID:              l.ID,
		OwnerID:         l.OwnerID,
		Brand:           l.Brand,
		Model:           l.Model,
		Year:            l.Year,
		Description:     l.Description,
		Region:          l.Region,
		City:            l.City,
		Price:           l.Price,
		Currency:        string(l.Currency),
		PriceUAH:        l.ConvertedPrices[domain.BaseCurrency],
		ConvertedPrices: datatypes.NewJSONType(l.ConvertedPrices),
		ExchangeRates:   datatypes.NewJSONType(l.ExchangeRates),
		Status:          string(l.Status),
		EditCount:       l.EditCount,
		Image:           l.Image,
		IsDeleted:       l.IsDeleted,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// ViewModel is one row of a listing's append-only view log.
type ViewModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	ListingID string    `gorm:"type:varchar(36);not null;index:idx_view_listing_at"`
	ViewedAt  time.Time `gorm:"not null;index:idx_view_listing_at"`
}

func (ViewModel) TableName() string { return "listing_views" }
