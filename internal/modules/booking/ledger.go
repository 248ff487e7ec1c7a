package booking

import (
	"context"
	"fmt"
	"time"

	"museumbooking/internal/domain"
	"museumbooking/internal/repository"
	"museumbooking/internal/schedule"
)

// Availability is the occupancy of one slot.
type Availability struct {
	Slot      domain.Slot `json:"slot"`
	Capacity  int         `json:"capacity"`
	Booked    int         `json:"booked"`
	Remaining int         `json:"remaining"`
	IsFull    bool        `json:"is_full"`
}

// Ledger decides admission into slots. Capacity counts bookings, not people.
type Ledger struct {
	store  *repository.Store
	policy *schedule.Policy
}

func NewLedger(store *repository.Store, policy *schedule.Policy) *Ledger {
	return &Ledger{store: store, policy: policy}
}

func (l *Ledger) capacity(t domain.ExperienceType) (int, error) {
	exp, ok := l.policy.Experience(t)
	if !ok {
		return 0, fmt.Errorf("%w: unknown experience type %q", domain.ErrInvalidInput, t)
	}
	return exp.Capacity, nil
}

// Availability reads the current occupancy without locking; the figures may be stale by the
// time a booking is attempted.
func (l *Ledger) Availability(ctx context.Context, slot domain.Slot) (Availability, error) {
	capacity, err := l.capacity(slot.ExperienceType)
	if err != nil {
		return Availability{}, err
	}
	booked, err := l.store.Bookings.CountAtSlot(ctx, slot, 0)
	if err != nil {
		return Availability{}, err
	}
	return newAvailability(slot, capacity, int(booked)), nil
}

// Admit must be called on a transactional store. It takes the slot lock, which is held until the
// transaction ends, so the count it returns stays valid for the insert or move that follows.
// excludeID is the booking being moved, if any.
func (l *Ledger) Admit(ctx context.Context, tx *repository.Store, slot domain.Slot, excludeID int64, now time.Time) (Availability, error) {
	capacity, err := l.capacity(slot.ExperienceType)
	if err != nil {
		return Availability{}, err
	}
	if err := tx.SlotLocks.Acquire(ctx, slot, now); err != nil {
		return Availability{}, err
	}
	booked, err := tx.Bookings.CountAtSlot(ctx, slot, excludeID)
	if err != nil {
		return Availability{}, err
	}
	if int(booked) >= capacity {
		return newAvailability(slot, capacity, int(booked)), fmt.Errorf("%w: %s at %s (%d/%d)",
			domain.ErrSlotFull, slot.ExperienceType, slot.At.Format("2006-01-02 15:04"), booked, capacity)
	}
	return newAvailability(slot, capacity, int(booked)+1), nil
}

func newAvailability(slot domain.Slot, capacity, booked int) Availability {
	remaining := capacity - booked
	if remaining < 0 {
		remaining = 0
	}
	return Availability{
		Slot:      slot,
		Capacity:  capacity,
		Booked:    booked,
		Remaining: remaining,
		IsFull:    remaining == 0,
	}
}
