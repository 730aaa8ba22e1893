package models

import (
	"database/sql/driver"
	"fmt"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %q", string(r))
	}
	return string(r), nil
}

func (r *Role) Scan(src any) error {
	return scanEnum(src, func(s string) bool {
		*r = Role(s)
		return r.Valid()
	})
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid booking status %q", string(s))
	}
	return string(s), nil
}

func (s *BookingStatus) Scan(src any) error {
	return scanEnum(src, func(v string) bool {
		*s = BookingStatus(v)
		return s.Valid()
	})
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentSuccess, PaymentFailed:
		return true
	}
	return false
}

func (s PaymentStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid payment status %q", string(s))
	}
	return string(s), nil
}

func (s *PaymentStatus) Scan(src any) error {
	return scanEnum(src, func(v string) bool {
		*s = PaymentStatus(v)
		return s.Valid()
	})
}

func scanEnum(src any, set func(string) bool) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into enum", src)
	}
	if !set(raw) {
		return fmt.Errorf("unknown enum value %q", raw)
	}
	return nil
}
