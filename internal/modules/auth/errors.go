package auth

import (
	"errors"
	"fmt"

	"museumbooking/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = fmt.Errorf("%w: email already registered", domain.ErrConflict)
)
