package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const BookingDateLayout = "2006-01-02"

// Booking is a user's reservation of a service at a date and time slot.
// At most one non-cancelled booking may exist per (user, service, date, slot);
// the partial unique index below enforces it at the store.
type Booking struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_bookings_active_slot,where:status <> 'CANCELLED'" json:"user_id"`
	ServiceID     uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_bookings_active_slot" json:"service_id"`
	BookingDate   time.Time       `gorm:"type:date;not null;uniqueIndex:idx_bookings_active_slot" json:"booking_date"`
	TimeSlot      string          `gorm:"size:50;not null;uniqueIndex:idx_bookings_active_slot" json:"time_slot"`
	Status        BookingStatus   `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	PaymentStatus PaymentStatus   `gorm:"size:20;not null;default:'PENDING'" json:"payment_status"`
	PaymentID     *string         `gorm:"size:50" json:"payment_id"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	Notes         *string         `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	CancelledAt   *time.Time      `json:"cancelled_at"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"user,omitempty"`
	Service *Service `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"service,omitempty"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *Booking) IsCancelled() bool {
	return b.Status == BookingCancelled
}

// DateLabel renders BookingDate in the boundary format.
func (b *Booking) DateLabel() string {
	return b.BookingDate.Format(BookingDateLayout)
}
