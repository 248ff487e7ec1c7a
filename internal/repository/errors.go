package repository

import (
	"errors"
	"fmt"

	"museumbooking/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL error codes the repositories translate.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

var domainKinds = []error{
	domain.ErrInvalidInput,
	domain.ErrPastBooking,
	domain.ErrOutOfHours,
	domain.ErrInvalidSlotGrid,
	domain.ErrSlotFull,
	domain.ErrNotFound,
	domain.ErrForbidden,
	domain.ErrConflict,
	domain.ErrInvalidTokenState,
	domain.ErrUnavailable,
}

// classify maps driver and gorm errors onto domain error kinds. Errors that already carry a
// domain kind pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range domainKinds {
		if errors.Is(err, kind) {
			return err
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: concurrent update (%s)", domain.ErrUnavailable, pgErr.Code)
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", domain.ErrConflict, err)
		}
	}

	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}
