package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/core/cache"
	"auto-ria-clone/internal/core/mailer"
	"auto-ria-clone/internal/domain"
)

func TestBrandService_AddModels(t *testing.T) {
	ctx := context.Background()
	repo := newMemBrands(map[string][]string{"BMW": {"X5"}})
	svc := NewBrandService(repo, newMemUsers(), nil, 0, nil, nil)
	manager := viewer("m", domain.RoleManager, domain.AccountBasis)

	_, err := svc.AddModels(ctx, viewer("s", domain.RoleSeller, domain.AccountPremium), AddBrandInput{Brand: "bmw", Models: []string{"m3"}})
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	b, err := svc.AddModels(ctx, manager, AddBrandInput{Brand: " bmw ", Models: []string{"m3", "M3", " x5", ""}})
	require.NoError(t, err)
	assert.Equal(t, "BMW", b.Name)
	assert.Equal(t, []string{"M3", "X5"}, b.Models)

	_, err = svc.AddModels(ctx, manager, AddBrandInput{Brand: "  ", Models: []string{"A"}})
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestBrandService_SeedAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewBrandService(newMemBrands(nil), newMemUsers(), nil, 0, nil, nil)

	require.NoError(t, svc.Seed(ctx, map[string][]string{"toyota": {"camry", "rav4"}, "Audi": {"a6"}}))
	require.NoError(t, svc.Seed(ctx, map[string][]string{"TOYOTA": {"CAMRY"}}))

	got, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Brand{
		{Name: "AUDI", Models: []string{"A6"}},
		{Name: "TOYOTA", Models: []string{"CAMRY", "RAV4"}},
	}, got)
}

func TestBrandService_ListFallsBackWhenCacheIsDown(t *testing.T) {
	c := cache.New("127.0.0.1:1", "", 0)
	t.Cleanup(func() { _ = c.Close() })
	svc := NewBrandService(newMemBrands(map[string][]string{"BMW": {"X5"}}), newMemUsers(), c, time.Minute, nil, nil)

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BMW", got[0].Name)
}

func TestBrandService_ReportMissing(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	for _, u := range []domain.User{
		{ID: "m1", Email: "m1@example.com", Name: "Mykola", Role: domain.RoleManager, IsActive: true},
		{ID: "m2", Email: "m2@example.com", Name: "Oksana", Role: domain.RoleManager, IsActive: true},
		{ID: "s1", Email: "s1@example.com", Name: "Petro", Role: domain.RoleSeller, IsActive: true},
	} {
		require.NoError(t, users.Create(ctx, &u))
	}
	mail := &mockNotifier{}
	mail.On("Send", mailer.MissingBrand,
		[]mailer.Recipient{{Email: "m1@example.com", Name: "Mykola"}, {Email: "m2@example.com", Name: "Oksana"}},
		map[string]any{"Brand": "LADA", "Model": "NIVA", "RequesterEmail": "s1@example.com"},
	).Once()
	svc := NewBrandService(newMemBrands(nil), users, nil, 0, mail, nil)

	seller := access.NewPrincipal(&domain.User{ID: "s1", Role: domain.RoleSeller})
	require.NoError(t, svc.ReportMissing(ctx, seller, MissingBrandInput{Brand: "lada", Model: "niva"}))
	mail.AssertExpectations(t)

	err := svc.ReportMissing(ctx, access.Principal{}, MissingBrandInput{Brand: "lada"})
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	mail.AssertNumberOfCalls(t, "Send", 1)
}
