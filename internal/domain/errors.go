package domain

import "errors"

// Error kinds surfaced to callers. Modules wrap them with context; callers match with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrPastBooking       = errors.New("booking time must be in the future")
	ErrOutOfHours        = errors.New("booking time is outside opening hours")
	ErrInvalidSlotGrid   = errors.New("booking time is not an available slot")
	ErrSlotFull          = errors.New("slot is fully booked")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTokenState = errors.New("invalid or expired refresh token")

	// ErrUnavailable marks storage failures, as opposed to the domain errors above.
	ErrUnavailable = errors.New("dependency unavailable")
)
