package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories over one handle: either the connection pool or an open
// transaction. Repositories obtained from a transactional Store only use that transaction.
type Store struct {
	db *gorm.DB

	Users           *UserRepository
	Bookings        *BookingRepository
	DeletedBookings *DeletedBookingRepository
	DeletedUsers    *DeletedUserRepository
	UpdateRequests  *UpdateRequestRepository
	RefreshTokens   *RefreshTokenRepository
	SlotLocks       *SlotLockRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:              db,
		Users:           NewUserRepository(db),
		Bookings:        NewBookingRepository(db),
		DeletedBookings: NewDeletedBookingRepository(db),
		DeletedUsers:    NewDeletedUserRepository(db),
		UpdateRequests:  NewUpdateRequestRepository(db),
		RefreshTokens:   NewRefreshTokenRepository(db),
		SlotLocks:       NewSlotLockRepository(db),
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn inside one database transaction. Any error from fn, or a cancelled ctx,
// rolls back every write made through tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
	return classify(err)
}
