package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anjiri1684/wellness_booking/models"
)

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) CreateService(ctx context.Context, s *models.Service) error {
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

// SaveService writes every column of s, including zero values such as IsActive=false.
func (r *ServiceRepository) SaveService(ctx context.Context, s *models.Service) error {
	res := r.db.WithContext(ctx).Model(&models.Service{}).Where("id = ?", s.ID).Select("*").Omit("id", "created_at").Updates(s)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ServiceRepository) FindService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var s models.Service
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *ServiceRepository) FindActiveService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var s models.Service
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *ServiceRepository) ListActiveServices(ctx context.Context, category string, skip, limit int) ([]models.Service, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var services []models.Service
	err := query.Order("created_at asc").Offset(skip).Limit(limit).Find(&services).Error
	return services, translate(err)
}

func (r *ServiceRepository) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&models.Service{}).Distinct().Order("category asc").Pluck("category", &categories).Error
	return categories, translate(err)
}

func (r *ServiceRepository) CountServices(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Service{}).Count(&count).Error
	return count, translate(err)
}
