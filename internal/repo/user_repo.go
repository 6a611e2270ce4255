package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"auto-ria-clone/internal/domain"
	"auto-ria-clone/internal/feature/user"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	m := user.FromDomain(u)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Conflict("user with email %s already exists", u.Email)
		}
		return err
	}
	u.CreatedAt, u.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *UserRepo) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) FindByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var ms []user.UserModel
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_deleted = ? AND is_banned = ?", string(role), false, false).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(ms))
	for i := range ms {
		out = append(out, *ms[i].ToDomain())
	}
	return out, nil
}

var userOrderColumns = map[string]string{
	"createdAt": "created_at",
	"email":     "email",
	"name":      "name",
	"role":      "role",
}

func (r *UserRepo) List(ctx context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&user.UserModel{})
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ? OR LOWER(surname) LIKE ?", like, like, like)
	}
	if q.Role != "" {
		tx = tx.Where("role = ?", string(q.Role))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []user.UserModel
	err := tx.Order(orderClause(userOrderColumns, q.OrderBy, q.Order, "created_at")).
		Limit(q.PageSize).Offset((q.Page - 1) * q.PageSize).
		Find(&ms).Error
	if err != nil {
		return nil, 0, err
	}
	out := make([]domain.User, 0, len(ms))
	for i := range ms {
		out = append(out, *ms[i].ToDomain())
	}
	return out, total, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	m := user.FromDomain(u)
	res := r.db.WithContext(ctx).Model(m).Select("*").Omit("id", "created_at").Updates(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.Conflict("user with email %s already exists", u.Email)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("user %s not found", u.ID)
	}
	u.UpdatedAt = m.UpdatedAt
	return nil
}
