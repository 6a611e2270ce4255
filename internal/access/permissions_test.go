package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"auto-ria-clone/internal/domain"
)

func TestResolve_AdminHoldsEveryPermission(t *testing.T) {
	assert.Equal(t, All(), Resolve(domain.RoleAdmin))
}

func TestResolve_BuyerHoldsNothing(t *testing.T) {
	assert.Empty(t, Resolve(domain.RoleBuyer))
	assert.Empty(t, Resolve(domain.Role("ghost")))
}

func TestResolve_SellerOwnListingsOnly(t *testing.T) {
	s := Resolve(domain.RoleSeller)
	assert.ElementsMatch(t, Set{CarsCreate, CarsUpdateOwn, CarsDeleteOwn}, s)
	assert.False(t, s.HasAny(CarsUpdateAll, CarsDeleteAll, AdsValidate, UsersBan))
}

func TestResolve_ManagerModeratesButCannotDestroyStaff(t *testing.T) {
	s := Resolve(domain.RoleManager)
	for _, p := range []Permission{AdsValidate, CarsUpdateAll, CarsDeleteAll, CarsSeeDetailsAll, UsersBan, StatsSeePremium} {
		assert.True(t, s.Has(p), p)
	}
	for _, p := range []Permission{UsersDelete, UsersUpdateRole, UsersCreateManager} {
		assert.False(t, s.Has(p), p)
	}
}

func TestResolve_ReturnsIndependentCopies(t *testing.T) {
	a := Resolve(domain.RoleManager)
	a[0] = "mutated"
	assert.NotEqual(t, Permission("mutated"), Resolve(domain.RoleManager)[0])
}
