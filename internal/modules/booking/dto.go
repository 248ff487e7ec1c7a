package booking

import (
	"time"

	"museumbooking/internal/domain"
	"museumbooking/internal/pkg/patch"
)

type CreateBookingRequest struct {
	DateTime       string                `json:"date_time" validate:"required"`
	ExperienceType domain.ExperienceType `json:"experience_type" validate:"required"`
	People         int                   `json:"people" validate:"gt=0"`
	InfoMessage    *string               `json:"info_message"`
	GuestContacts  []domain.GuestContact `json:"guest_contacts" validate:"dive"`
}

// UpdateBookingRequest is a partial update. Absent keys are left alone; null clears
// info_message and guest_contacts and is rejected for the other fields.
type UpdateBookingRequest struct {
	DateTime       patch.Field[string]                `json:"date_time"`
	ExperienceType patch.Field[domain.ExperienceType] `json:"experience_type"`
	People         patch.Field[int]                   `json:"people"`
	InfoMessage    patch.Field[string]                `json:"info_message"`
	GuestContacts  patch.Field[[]domain.GuestContact] `json:"guest_contacts"`
}

type AvailabilityQuery struct {
	DateTime       string                `form:"date_time" binding:"required"`
	ExperienceType domain.ExperienceType `form:"experience_type" binding:"required"`
}

// Changes is a validated set of booking mutations. Nil pointers and unset fields leave the
// booking untouched. Used by the update-request workflow as well.
type Changes struct {
	SlotAt         *time.Time
	ExperienceType *domain.ExperienceType
	People         *int
	Note           patch.Field[string]
	GuestContacts  patch.Field[[]domain.GuestContact]
}

func (c Changes) movesSlot() bool {
	return c.SlotAt != nil || c.ExperienceType != nil
}
