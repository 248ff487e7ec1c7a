package repository

import (
	"encoding/json"
	"strings"

	"museumbooking/internal/domain"

	"github.com/sirupsen/logrus"
)

// storedGuestContact accepts the legacy {"name","email"} rows as well as {"name","contact"}.
type storedGuestContact struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Email   string `json:"email,omitempty"`
}

func encodeGuestContacts(contacts []domain.GuestContact) (*string, error) {
	if len(contacts) == 0 {
		return nil, nil
	}
	rows := make([]storedGuestContact, len(contacts))
	for i, c := range contacts {
		rows[i] = storedGuestContact{Name: c.Name, Contact: c.Contact}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// decodeGuestContacts never fails: rows written before the column existed, or with a
// malformed payload, read as "no contacts".
func decodeGuestContacts(raw *string) []domain.GuestContact {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return []domain.GuestContact{}
	}
	var rows []storedGuestContact
	if err := json.Unmarshal([]byte(*raw), &rows); err != nil {
		logrus.WithError(err).Debug("ignoring malformed guest_contacts payload")
		return []domain.GuestContact{}
	}
	out := make([]domain.GuestContact, 0, len(rows))
	for _, r := range rows {
		contact := r.Contact
		if contact == "" {
			contact = r.Email
		}
		out = append(out, domain.GuestContact{Name: r.Name, Contact: contact})
	}
	return out
}
