package domain

import "time"

type UpdateRequestStatus string

const (
	UpdateRequestPending  UpdateRequestStatus = "pending"
	UpdateRequestApproved UpdateRequestStatus = "approved"
	UpdateRequestRejected UpdateRequestStatus = "rejected"
)

// BookingUpdateRequest is a proposed change to a booking awaiting an admin decision.
// Nil requested fields mean "no change requested".
type BookingUpdateRequest struct {
	ID              int64               `json:"id"`
	BookingID       int64               `json:"booking_id"`
	UserID          int64               `json:"user_id"`
	RequestedSlotAt *time.Time          `json:"requested_date_time"`
	RequestedPeople *int                `json:"requested_people"`
	RequestedNote   *string             `json:"requested_info_message"`
	Note            *string             `json:"note"`
	Status          UpdateRequestStatus `json:"status"`
	AdminNote       *string             `json:"admin_note"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	ProcessedAt     *time.Time          `json:"processed_at"`
}

func (r *BookingUpdateRequest) IsPending() bool {
	return r.Status == UpdateRequestPending
}

func (r *BookingUpdateRequest) HasChanges() bool {
	return r.RequestedSlotAt != nil || r.RequestedPeople != nil || r.RequestedNote != nil
}
