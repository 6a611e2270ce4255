package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleBuyer   Role = "buyer"
	RoleSeller  Role = "seller"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleManager, RoleAdmin:
		return true
	}
	return false
}

type AccountType string

const (
	AccountBasis   AccountType = "basis"
	AccountPremium AccountType = "premium"
)

type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Surname      string      `json:"surname"`
	Phone        string      `json:"phone"`
	Age          int         `json:"age"`
	Region       string      `json:"region"`
	City         string      `json:"city"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	AccountType  AccountType `json:"accountType"`
	Avatar       string      `json:"avatar"`
	IsActive     bool        `json:"isActive"`
	IsBanned     bool        `json:"isBanned"`
	IsDeleted    bool        `json:"isDeleted"`
	IsVerified   bool        `json:"isVerified"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (u *User) IsPremium() bool { return u.AccountType == AccountPremium }

// CanSignIn reports whether the account is allowed to hold a session.
func (u *User) CanSignIn() bool { return u.IsActive && !u.IsBanned && !u.IsDeleted }

type UserQuery struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"pageSize,default=10"`
	Search   string `form:"search"`
	Role     Role   `form:"role"`
	OrderBy  string `form:"orderBy"`
	Order    string `form:"order"`
}

// UserRepository returns (nil, nil) from the Find* methods when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByRole(ctx context.Context, role Role) ([]User, error)
	List(ctx context.Context, q UserQuery) ([]User, int64, error)
	Update(ctx context.Context, u *User) error
}
