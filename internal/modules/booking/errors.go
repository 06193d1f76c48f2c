package booking

import (
	"errors"

	domain "studiomarket/internal/domain/booking"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = domain.ErrNotFound
	ErrForbidden         = errors.New("forbidden")
	ErrSlotNotFound      = errors.New("slot not found")
	ErrSlotUnavailable   = errors.New("slot unavailable")
	ErrSlotInPast        = errors.New("slot already started")
	ErrStudioSuspended   = errors.New("studio suspended")
	ErrNegativeBalance   = errors.New("client wallet has a negative balance")
	ErrInvalidInstructor = errors.New("instructor not found")
	ErrBookingExpired    = errors.New("booking payment window has expired")
	ErrInvalidState      = errors.New("invalid_status_transition")
)
