package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is a catalog entry. Deletion is logical: IsActive flips to false.
type Service struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string          `gorm:"size:255;not null" json:"title"`
	Category        string          `gorm:"size:255;not null;index" json:"category"`
	Description     *string         `gorm:"type:text" json:"description"`
	Price           decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	DurationMinutes int             `gorm:"not null;default:60" json:"duration_minutes"`
	ExpertName      *string         `gorm:"size:255" json:"expert_name"`
	ImageURL        *string         `gorm:"size:500" json:"image_url"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (s *Service) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
