package domain

import (
	"context"
	"time"
)

type Currency string

const (
	CurrencyUAH Currency = "UAH"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// BaseCurrency is the currency every rate is expressed in.
const BaseCurrency = CurrencyUAH

// Currencies is the closed set of supported currencies, in display order.
var Currencies = []Currency{CurrencyUAH, CurrencyUSD, CurrencyEUR}

func (c Currency) Valid() bool {
	for _, s := range Currencies {
		if s == c {
			return true
		}
	}
	return false
}

// Prices holds a price expressed in every supported currency.
type Prices map[Currency]int64

// Rates maps a currency to its UAH multiplier.
type Rates map[Currency]float64

type ListingStatus string

const (
	StatusActive   ListingStatus = "active"
	StatusPending  ListingStatus = "pending"
	StatusInactive ListingStatus = "inactive"
)

type Listing struct {
	ID              string        `json:"id"`
	OwnerID         string        `json:"ownerId"`
	Brand           string        `json:"brand"`
	Model           string        `json:"model"`
	Year            int           `json:"year"`
	Description     string        `json:"description"`
	Region          string        `json:"region"`
	City            string        `json:"city"`
	Price           float64       `json:"price"`
	Currency        Currency      `json:"currency"`
	ConvertedPrices Prices        `json:"convertedPrices"`
	ExchangeRates   Rates         `json:"exchangeRates"`
	Status          ListingStatus `json:"status"`
	EditCount       int           `json:"editCount"`
	Image           string        `json:"image"`
	IsDeleted       bool          `json:"isDeleted"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// OwnerCard is the owner summary joined onto a listing for presentation.
type OwnerCard struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// HydratedListing is a stored listing with its owner record joined in.
type HydratedListing struct {
	Listing
	Owner OwnerCard
}

type ListingQuery struct {
	Page     int     `form:"page,default=1"`
	PageSize int     `form:"pageSize"`
	Brand    string  `form:"brand"`
	Model    string  `form:"model"`
	Region   string  `form:"region"`
	PriceMin float64 `form:"priceMin"`
	PriceMax float64 `form:"priceMax"`
	OrderBy  string  `form:"orderBy"`
	Order    string  `form:"order"`
}

// ListingFilter is what repositories query with. Deleted listings are always excluded.
type ListingFilter struct {
	ListingQuery
	OwnerID    string
	OnlyActive bool
}

// ListingRepository returns (nil, nil) from the Find* methods when nothing matches.
type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindHydrated(ctx context.Context, id string) (*HydratedListing, error)
	List(ctx context.Context, f ListingFilter) ([]HydratedListing, int64, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	Update(ctx context.Context, l *Listing) error
	// UpdatePrices rewrites only the converted prices and the rate snapshot.
	UpdatePrices(ctx context.Context, id string, prices Prices, rates Rates) error
	SoftDelete(ctx context.Context, id string) error
	AddView(ctx context.Context, id string, at time.Time) error
	ViewTimes(ctx context.Context, id string) ([]time.Time, error)
	// AveragePriceUAH averages the UAH price of active listings of brand+model,
	// nationally and within region. No comparables yields 0.
	AveragePriceUAH(ctx context.Context, brand, model, region string) (national, regional float64, err error)
	EachBatch(ctx context.Context, size int, fn func([]Listing) error) error
}
