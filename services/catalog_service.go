package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/anjiri1684/wellness_booking/models"
	"github.com/anjiri1684/wellness_booking/repository"
)

const defaultServiceListLimit = 100

type ServiceStore interface {
	CreateService(ctx context.Context, s *models.Service) error
	SaveService(ctx context.Context, s *models.Service) error
	FindService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	FindActiveService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	ListActiveServices(ctx context.Context, category string, skip, limit int) ([]models.Service, error)
	ListCategories(ctx context.Context) ([]string, error)
}

type ServiceCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Service, error)
	Set(ctx context.Context, s *models.Service) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

type CatalogService struct {
	store ServiceStore
	cache ServiceCache
	log   *zap.Logger
}

type CatalogOption func(*CatalogService)

func WithServiceCache(c ServiceCache) CatalogOption {
	return func(s *CatalogService) { s.cache = c }
}

func NewCatalogService(store ServiceStore, log *zap.Logger, opts ...CatalogOption) *CatalogService {
	s := &CatalogService{store: store, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetActiveService returns the service only while it is active. It always
// reads the store so a deactivation or price change takes effect immediately
// for new bookings.
func (c *CatalogService) GetActiveService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, err := c.store.FindActiveService(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	return svc, nil
}

// GetService returns the service whether or not it is active. The cache is
// consulted first and filled on a miss; cache failures fall through to the store.
func (c *CatalogService) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	if c.cache != nil {
		cached, err := c.cache.Get(ctx, id)
		if err != nil {
			c.log.Warn("catalog cache read failed", zap.String("service_id", id.String()), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	svc, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, svc); err != nil {
			c.log.Warn("catalog cache write failed", zap.String("service_id", id.String()), zap.Error(err))
		}
	}
	return svc, nil
}

func (c *CatalogService) load(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, err := c.store.FindService(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	return svc, nil
}

func (c *CatalogService) ListActiveServices(ctx context.Context, category string, skip, limit int) ([]models.Service, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > defaultServiceListLimit {
		limit = defaultServiceListLimit
	}
	return c.store.ListActiveServices(ctx, category, skip, limit)
}

func (c *CatalogService) ListCategories(ctx context.Context) ([]string, error) {
	return c.store.ListCategories(ctx)
}

type ServiceInput struct {
	Title           string
	Category        string
	Description     *string
	Price           decimal.Decimal
	DurationMinutes int
	ExpertName      *string
	ImageURL        *string
}

// ServiceUpdate carries a partial update; nil fields are left unchanged.
type ServiceUpdate struct {
	Title           *string
	Category        *string
	Description     *string
	Price           *decimal.Decimal
	DurationMinutes *int
	ExpertName      *string
	ImageURL        *string
	IsActive        *bool
}

func (c *CatalogService) CreateService(ctx context.Context, in ServiceInput) (*models.Service, error) {
	if in.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if in.DurationMinutes == 0 {
		in.DurationMinutes = 60
	}

	svc := &models.Service{
		Title:           in.Title,
		Category:        in.Category,
		Description:     in.Description,
		Price:           in.Price,
		DurationMinutes: in.DurationMinutes,
		ExpertName:      in.ExpertName,
		ImageURL:        in.ImageURL,
		IsActive:        true,
	}
	if err := c.store.CreateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return svc, nil
}

func (c *CatalogService) UpdateService(ctx context.Context, id uuid.UUID, in ServiceUpdate) (*models.Service, error) {
	svc, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Price != nil && in.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	if in.Title != nil {
		svc.Title = *in.Title
	}
	if in.Category != nil {
		svc.Category = *in.Category
	}
	if in.Description != nil {
		svc.Description = in.Description
	}
	if in.Price != nil {
		svc.Price = *in.Price
	}
	if in.DurationMinutes != nil {
		svc.DurationMinutes = *in.DurationMinutes
	}
	if in.ExpertName != nil {
		svc.ExpertName = in.ExpertName
	}
	if in.ImageURL != nil {
		svc.ImageURL = in.ImageURL
	}
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}

	if err := c.save(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// DeactivateService hides the service from the catalog. Existing bookings keep their reference.
func (c *CatalogService) DeactivateService(ctx context.Context, id uuid.UUID) error {
	svc, err := c.load(ctx, id)
	if err != nil {
		return err
	}
	svc.IsActive = false
	return c.save(ctx, svc)
}

func (c *CatalogService) save(ctx context.Context, svc *models.Service) error {
	if err := c.store.SaveService(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrServiceNotFound
		}
		return fmt.Errorf("save service: %w", err)
	}
	if c.cache != nil {
		if err := c.cache.Invalidate(ctx, svc.ID); err != nil {
			c.log.Warn("catalog cache invalidation failed", zap.String("service_id", svc.ID.String()), zap.Error(err))
		}
	}
	return nil
}
