package service

import (
	"context"
	"fmt"
	"time"

	"auto-ria-clone/internal/domain"
	"auto-ria-clone/internal/pricing"
)

const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
)

type ViewCounts struct {
	Day   int `json:"day"`
	Week  int `json:"week"`
	Month int `json:"month"`
	Total int `json:"total"`
}

type AveragePrices struct {
	Currency domain.Currency `json:"currency"`
	National int64           `json:"national"`
	Region   int64           `json:"region"`
}

type Statistics struct {
	Views        ViewCounts    `json:"views"`
	AveragePrice AveragePrices `json:"averagePrice"`
}

// CountViews buckets the view log into rolling windows ending at now.
// Window bounds are inclusive.
func CountViews(views []time.Time, now time.Time) ViewCounts {
	c := ViewCounts{Total: len(views)}
	for _, t := range views {
		if !t.Before(now.Add(-month)) {
			c.Month++
		}
		if !t.Before(now.Add(-week)) {
			c.Week++
		}
		if !t.Before(now.Add(-day)) {
			c.Day++
		}
	}
	return c
}

// StatsAggregator computes the premium statistics block of a listing.
type StatsAggregator struct {
	listings domain.ListingRepository
	now      func() time.Time
}

func NewStatsAggregator(listings domain.ListingRepository, now func() time.Time) *StatsAggregator {
	if now == nil {
		now = time.Now
	}
	return &StatsAggregator{listings: listings, now: now}
}

func (a *StatsAggregator) Compute(ctx context.Context, l *domain.Listing) (*Statistics, error) {
	views, err := a.listings.ViewTimes(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}
	national, regional, err := a.listings.AveragePriceUAH(ctx, l.Brand, l.Model, l.Region)
	if err != nil {
		return nil, fmt.Errorf("average price: %w", err)
	}
	return &Statistics{
		Views: CountViews(views, a.now()),
		AveragePrice: AveragePrices{
			Currency: l.Currency,
			National: pricing.FromBase(national, l.Currency, l.ExchangeRates),
			Region:   pricing.FromBase(regional, l.Currency, l.ExchangeRates),
		},
	}, nil
}
