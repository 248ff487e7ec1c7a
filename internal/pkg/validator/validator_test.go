package validator

import (
	"testing"

	"museumbooking/internal/domain"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	People int                   `validate:"gt=0"`
	Guests []domain.GuestContact `validate:"dive"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(sample{People: 2, Guests: []domain.GuestContact{{Name: "Ada", Contact: "ada@example.com"}}})
	assert.NoError(t, err)
}

func TestStruct_InvalidWrapsInvalidInput(t *testing.T) {
	err := Struct(sample{People: 0, Guests: []domain.GuestContact{{Name: "", Contact: "x"}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "sample.People=gt")
	assert.Contains(t, err.Error(), "sample.Guests[0].Name=required")
}
