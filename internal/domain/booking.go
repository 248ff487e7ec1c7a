package domain

import "time"

type ExperienceType string

const (
	ExperienceGuidedTour  ExperienceType = "guided_tour"
	ExperienceTourTasting ExperienceType = "tour_tasting"
)

// Slot identifies a bookable time unit. At is a facility-local wall-clock minute.
type Slot struct {
	ExperienceType ExperienceType `json:"experience_type"`
	At             time.Time      `json:"date_time"`
}

func (s Slot) Equal(o Slot) bool {
	return s.ExperienceType == o.ExperienceType && s.At.Equal(o.At)
}

type GuestContact struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact" validate:"required"`
}

type Booking struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"user_id"`
	SlotAt         time.Time      `json:"date_time"`
	ExperienceType ExperienceType `json:"experience_type"`
	People         int            `json:"people"`
	Note           *string        `json:"info_message"`
	GuestContacts  []GuestContact `json:"guest_contacts"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (b *Booking) Slot() Slot {
	return Slot{ExperienceType: b.ExperienceType, At: b.SlotAt}
}

// DeletedBooking is the audit snapshot written when a booking is removed.
// Owner fields are copied at deletion time so the record outlives the user.
type DeletedBooking struct {
	ID             int64          `json:"id"`
	BookingID      int64          `json:"booking_id"`
	SlotAt         time.Time      `json:"date_time"`
	ExperienceType ExperienceType `json:"experience_type"`
	People         int            `json:"people"`
	Note           *string        `json:"info_message"`
	GuestContacts  []GuestContact `json:"guest_contacts"`
	BookedAt       time.Time      `json:"booked_at"`
	UserID         int64          `json:"user_id"`
	UserName       string         `json:"user_name"`
	UserSurname    string         `json:"user_surname"`
	UserEmail      string         `json:"user_email"`
	UserPhone      string         `json:"user_phone"`
	DeletedAt      time.Time      `json:"deleted_at"`
}
