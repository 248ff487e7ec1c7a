package updaterequest

import "museumbooking/internal/domain"

// SubmitRequest proposes replacement values. Omitted fields are not changed.
type SubmitRequest struct {
	RequestedDateTime    *string `json:"requested_date_time"`
	RequestedPeople      *int    `json:"requested_people"`
	RequestedInfoMessage *string `json:"requested_info_message"`
	Note                 *string `json:"note"`
}

func (r SubmitRequest) empty() bool {
	return r.RequestedDateTime == nil && r.RequestedPeople == nil && r.RequestedInfoMessage == nil
}

type DecideRequest struct {
	Decision  domain.UpdateRequestStatus `json:"decision" validate:"required,oneof=approved rejected"`
	AdminNote *string                    `json:"admin_note"`
}
