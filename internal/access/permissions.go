package access

import (
	"slices"

	"auto-ria-clone/internal/domain"
)

type Permission string

const (
	UsersGetAll        Permission = "users.get.all"
	UsersGetDetails    Permission = "users.get.details"
	UsersBan           Permission = "users.ban"
	UsersDelete        Permission = "users.delete"
	UsersUpdateRole    Permission = "users.update.role"
	UsersCreateManager Permission = "users.create.manager"

	CarsSeeDetailsAll Permission = "cars.see.details.all"
	CarsCreate        Permission = "cars.create"
	CarsUpdateOwn     Permission = "cars.update.own"
	CarsUpdateAll     Permission = "cars.update.all"
	CarsDeleteOwn     Permission = "cars.delete.own"
	CarsDeleteAll     Permission = "cars.delete.all"

	AdsValidate     Permission = "ads.validate"
	StatsSeePremium Permission = "stats.see.premium"
	BrandsManage    Permission = "brands.manage"
)

// all is every defined permission in declaration order.
var all = []Permission{
	UsersGetAll, UsersGetDetails, UsersBan, UsersDelete, UsersUpdateRole, UsersCreateManager,
	CarsSeeDetailsAll, CarsCreate, CarsUpdateOwn, CarsUpdateAll, CarsDeleteOwn, CarsDeleteAll,
	AdsValidate, StatsSeePremium, BrandsManage,
}

var rolePermissions = map[domain.Role][]Permission{
	domain.RoleBuyer: {},
	domain.RoleSeller: {
		CarsCreate, CarsUpdateOwn, CarsDeleteOwn,
	},
	domain.RoleManager: {
		UsersGetAll, UsersGetDetails, UsersBan,
		CarsSeeDetailsAll, CarsCreate, CarsUpdateAll, CarsDeleteAll,
		AdsValidate, StatsSeePremium, BrandsManage,
	},
	domain.RoleAdmin: all,
}

// Set is an ordered, duplicate-free list of permissions.
type Set []Permission

func (s Set) Has(p Permission) bool { return slices.Contains(s, p) }

// HasAny reports whether s holds at least one of ps.
func (s Set) HasAny(ps ...Permission) bool {
	for _, p := range ps {
		if s.Has(p) {
			return true
		}
	}
	return false
}

func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = string(p)
	}
	return out
}

// Resolve returns the permissions granted to role. Unknown roles get none.
func Resolve(role domain.Role) Set {
	return slices.Clone(Set(rolePermissions[role]))
}

// All returns every defined permission.
func All() Set { return slices.Clone(Set(all)) }
