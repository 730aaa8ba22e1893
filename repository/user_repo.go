package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anjiri1684/wellness_booking/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findBy(ctx, "id = ?", id)
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findBy(ctx, "email = ?", email)
}

func (r *UserRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findBy(ctx, "username = ?", username)
}

func (r *UserRepository) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("created_at asc").Find(&users).Error
	return users, translate(err)
}

func (r *UserRepository) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile overwrites the non-nil contact fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, fullName, phone *string) (*models.User, error) {
	updates := map[string]any{}
	if fullName != nil {
		updates["full_name"] = *fullName
	}
	if phone != nil {
		updates["phone"] = *phone
	}
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
	}
	return r.FindUser(ctx, id)
}

func (r *UserRepository) findBy(ctx context.Context, cond string, arg any) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
