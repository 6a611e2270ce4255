package access

import (
	"auto-ria-clone/internal/domain"
)

// Principal is the already-authenticated actor of a request.
// The zero value is the anonymous viewer.
type Principal struct {
	UserID      string
	Role        domain.Role
	AccountType domain.AccountType
	Permissions Set
}

func NewPrincipal(u *domain.User) Principal {
	return Principal{
		UserID:      u.ID,
		Role:        u.Role,
		AccountType: u.AccountType,
		Permissions: Resolve(u.Role),
	}
}

func (p Principal) Anonymous() bool          { return p.UserID == "" }
func (p Principal) Has(perm Permission) bool { return p.Permissions.Has(perm) }
func (p Principal) IsPremium() bool          { return p.AccountType == domain.AccountPremium }

// Require fails with FORBIDDEN unless p holds perm.
func Require(p Principal, perm Permission) error {
	if !p.Has(perm) {
		return domain.Forbidden("permission %q required", perm)
	}
	return nil
}

// CanActOnResource decides an action on an owned resource: the blanket
// permission wins regardless of ownership, the own variant needs p to be the owner.
func CanActOnResource(p Principal, ownerID string, anyPerm, ownPerm Permission) error {
	if p.Has(anyPerm) {
		return nil
	}
	if p.Has(ownPerm) && !p.Anonymous() && p.UserID == ownerID {
		return nil
	}
	return domain.Forbidden("you are not allowed to modify this resource")
}

// Target is the user an administrative action is aimed at.
type Target struct {
	ID   string
	Role domain.Role
}

// CanActOnUser guards ban, unban, delete and role changes. The hierarchy
// rules are deny-overrides checked before the permission itself.
func CanActOnUser(p Principal, t Target, perm Permission) error {
	if p.UserID == t.ID {
		return domain.Forbidden("you cannot perform this action on your own account")
	}
	if t.Role == domain.RoleAdmin && (perm == UsersBan || perm == UsersDelete) {
		return domain.Forbidden("administrators cannot be banned or deleted")
	}
	if p.Role == domain.RoleManager && (t.Role == domain.RoleManager || t.Role == domain.RoleAdmin) {
		return domain.Forbidden("managers cannot act on other staff accounts")
	}
	return Require(p, perm)
}
