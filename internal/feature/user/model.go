package user

import (
	"time"

	"auto-ria-clone/internal/domain"
)

// IsDeleted is a plain flag rather than gorm.DeletedAt: staff still read
// deleted accounts, and ban/delete are independent states.
type UserModel struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	Name         string `gorm:"size:64;not null"`
	Surname      string `gorm:"size:64"`
	Phone        string `gorm:"size:32"`
	Age          int
	Region       string `gorm:"size:64"`
	City         string `gorm:"size:64"`
	PasswordHash string `gorm:"size:100;not null"`
	Role         string `gorm:"size:16;not null;default:buyer;index"`
	AccountType  string `gorm:"size:16;not null;default:basis"`
	Avatar       string `gorm:"size:255"`

	IsActive   bool `gorm:"not null;default:true"`
	IsBanned   bool `gorm:"not null;default:false"`
	IsDeleted  bool `gorm:"not null;default:false;index"`
	IsVerified bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		Surname:      m.Surname,
		Phone:        m.Phone,
		Age:          m.Age,
		Region:       m.Region,
		City:         m.City,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		AccountType:  domain.AccountType(m.AccountType),
		Avatar:       m.Avatar,
		IsActive:     m.IsActive,
		IsBanned:     m.IsBanned,
		IsDeleted:    m.IsDeleted,
		IsVerified:   m.IsVerified,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func FromDomain(u *domain.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Surname:      u.Surname,
		Phone:        u.Phone,
		Age:          u.Age,
		Region:       u.Region,
		City:         u.City,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		AccountType:  string(u.AccountType),
		Avatar:       u.Avatar,
		IsActive:     u.IsActive,
		IsBanned:     u.IsBanned,
		IsDeleted:    u.IsDeleted,
		IsVerified:   u.IsVerified,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// Card is the owner summary joined onto listings.
func (m *UserModel) Card() domain.OwnerCard {
	return domain.OwnerCard{ID: m.ID, Name: m.Name, Surname: m.Surname, Email: m.Email, Phone: m.Phone}
}
