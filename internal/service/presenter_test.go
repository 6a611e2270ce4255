package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/domain"
)

func sampleHydrated() *domain.HydratedListing {
	return &domain.HydratedListing{
		Listing: domain.Listing{
			ID:              "l1",
			OwnerID:         "owner",
			Brand:           "BMW",
			Model:           "X5",
			Year:            2018,
			Price:           30000,
			Currency:        domain.CurrencyUSD,
			ConvertedPrices: domain.Prices{domain.CurrencyUAH: 1233000, domain.CurrencyUSD: 30000, domain.CurrencyEUR: 24129},
			Status:          domain.StatusPending,
			EditCount:       2,
			Image:           "listings/l1/abc.png",
			CreatedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Owner: domain.OwnerCard{ID: "owner", Name: "Olena", Email: "olena@example.com"},
	}
}

func viewer(id string, role domain.Role, tier domain.AccountType) access.Principal {
	return access.NewPrincipal(&domain.User{ID: id, Role: role, AccountType: tier})
}

func jsonKeys(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestPresent_Tiers(t *testing.T) {
	p := NewPresenter("https://cdn.example.com")
	stats := &Statistics{Views: ViewCounts{Total: 4}}

	cases := []struct {
		name    string
		viewer  access.Principal
		present []string
		absent  []string
	}{
		{"anonymous", access.Principal{}, nil, []string{"status", "editCount", "isDeleted", "owner", "statistics"}},
		{"basic stranger", viewer("x", domain.RoleBuyer, domain.AccountBasis), nil, []string{"status", "owner", "statistics"}},
		{"basic owner", viewer("owner", domain.RoleSeller, domain.AccountBasis), []string{"status", "editCount"}, []string{"owner", "isDeleted", "statistics"}},
		{"premium stranger", viewer("x", domain.RoleBuyer, domain.AccountPremium), []string{"statistics"}, []string{"status", "owner"}},
		{"manager", viewer("m", domain.RoleManager, domain.AccountBasis), []string{"status", "editCount", "isDeleted", "owner", "statistics"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := jsonKeys(t, p.Present(tc.viewer, sampleHydrated(), stats))
			for _, k := range []string{"id", "brand", "model", "year", "image", "price", "currency", "convertedPrices", "region", "city", "description", "createdAt"} {
				assert.Contains(t, m, k)
			}
			for _, k := range tc.present {
				assert.Contains(t, m, k)
			}
			for _, k := range tc.absent {
				assert.NotContains(t, m, k)
			}
		})
	}
}

func TestPresent_ImageURL(t *testing.T) {
	p := NewPresenter("https://cdn.example.com/media/")
	v := p.Present(access.Principal{}, sampleHydrated(), nil)
	require.NotNil(t, v.Image)
	assert.Equal(t, "https://cdn.example.com/media/listings/l1/abc.png", *v.Image)

	h := sampleHydrated()
	h.Image = ""
	m := jsonKeys(t, p.Present(access.Principal{}, h, nil))
	assert.Nil(t, m["image"])
}

func TestPresent_NilStatsOmitted(t *testing.T) {
	p := NewPresenter("")
	v := p.Present(viewer("m", domain.RoleManager, domain.AccountBasis), sampleHydrated(), nil)
	assert.Nil(t, v.Statistics)
}

func TestNewPage(t *testing.T) {
	cases := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{5, 0, 0},
	}
	for _, tc := range cases {
		p := NewPage[int](nil, tc.total, 1, tc.size)
		assert.Equal(t, tc.want, p.TotalPages)
		assert.NotNil(t, p.Items)
	}
}

func TestClampPage(t *testing.T) {
	page, size := clampPage(0, 0, 10, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, size)

	_, size = clampPage(3, 1000, 10, 100)
	assert.Equal(t, 100, size)
}
