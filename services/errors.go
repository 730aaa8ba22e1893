package services

import "errors"

var (
	ErrServiceNotFound    = errors.New("service not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateBooking   = errors.New("you already have a booking for this service at this time")
	ErrAlreadyCancelled   = errors.New("booking already cancelled")
	ErrAlreadyPaid        = errors.New("payment already successful")
	ErrCancellationWindow = errors.New("cannot cancel within 24 hours of booking")
	ErrInvalidBookingDate = errors.New("booking_date must be a valid date in YYYY-MM-DD format")
	ErrInvalidTimeSlot    = errors.New("time_slot must not be empty")
	ErrInvalidPrice       = errors.New("price must not be negative")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrInvalidFilter      = errors.New("invalid filter")
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindPolicyViolation
	KindInvalid
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPolicyViolation:
		return "policy_violation"
	case KindInvalid:
		return "invalid"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// KindOf classifies err for callers that translate failures into responses.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrServiceNotFound), errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateBooking), errors.Is(err, ErrAlreadyCancelled), errors.Is(err, ErrAlreadyPaid),
		errors.Is(err, ErrEmailTaken), errors.Is(err, ErrUsernameTaken):
		return KindConflict
	case errors.Is(err, ErrCancellationWindow):
		return KindPolicyViolation
	case errors.Is(err, ErrInvalidBookingDate), errors.Is(err, ErrInvalidTimeSlot), errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrInvalidFilter):
		return KindInvalid
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInactiveAccount):
		return KindUnauthorized
	default:
		return KindInternal
	}
}
