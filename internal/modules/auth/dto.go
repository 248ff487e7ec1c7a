package auth

import (
	"fmt"
	"strings"
	"time"

	"museumbooking/internal/domain"
	"museumbooking/internal/pkg/validator"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Surname  string `json:"surname" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// Session is returned by login and refresh. RefreshToken is the raw secret and is only ever
// handed out here.
type Session struct {
	User             *domain.User `json:"user,omitempty"`
	AccessToken      string       `json:"access_token"`
	TokenType        string       `json:"token_type"`
	ExpiresIn        int          `json:"expires_in"`
	RefreshToken     string       `json:"refresh_token"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
}

// UpdateProfileRequest changes only the fields that are present. Present fields must not be blank.
type UpdateProfileRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=100"`
	Surname *string `json:"surname" validate:"omitempty,max=100"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
}

// Apply validates req and copies its fields onto u.
func (r UpdateProfileRequest) Apply(u *domain.User) error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	fields := []struct {
		name string
		src  *string
		dst  *string
	}{
		{"name", r.Name, &u.Name},
		{"surname", r.Surname, &u.Surname},
		{"email", r.Email, &u.Email},
		{"phone", r.Phone, &u.Phone},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		if strings.TrimSpace(*f.src) == "" {
			return fmt.Errorf("%w: %s must not be blank", domain.ErrInvalidInput, f.name)
		}
		*f.dst = *f.src
	}
	return nil
}
