package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"museumbooking/internal/domain"
	"museumbooking/internal/pkg/clock"
	"museumbooking/internal/pkg/logger"
	"museumbooking/internal/pkg/validator"
	"museumbooking/internal/repository"
	"museumbooking/internal/schedule"

	"github.com/sirupsen/logrus"
)

type Service struct {
	store  *repository.Store
	policy *schedule.Policy
	ledger *Ledger
	clock  clock.Clock
}

func NewService(store *repository.Store, policy *schedule.Policy, clk clock.Clock) *Service {
	return &Service{
		store:  store,
		policy: policy,
		ledger: NewLedger(store, policy),
		clock:  clk,
	}
}

func (s *Service) Ledger() *Ledger { return s.ledger }

// CheckAvailability normalises raw in query mode, so any minute within opening hours is accepted.
func (s *Service) CheckAvailability(ctx context.Context, raw string, experienceType domain.ExperienceType) (Availability, error) {
	slot, err := s.policy.NormalizeRaw(raw, experienceType, schedule.ModeQuery, s.clock.Now())
	if err != nil {
		return Availability{}, err
	}
	return s.ledger.Availability(ctx, slot)
}

func (s *Service) Create(ctx context.Context, p domain.Principal, req CreateBookingRequest) (*domain.Booking, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	slot, err := s.policy.NormalizeRaw(req.DateTime, req.ExperienceType, schedule.ModeBooking, now)
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		UserID:         p.ID,
		SlotAt:         slot.At,
		ExperienceType: slot.ExperienceType,
		People:         req.People,
		Note:           req.InfoMessage,
		GuestContacts:  req.GuestContacts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var avail Availability
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if avail, err = s.ledger.Admit(ctx, tx, slot, 0, now); err != nil {
			return err
		}
		return tx.Bookings.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"booking_id": b.ID,
		"slot":       slot.At.Format(time.RFC3339),
		"experience": slot.ExperienceType,
		"remaining":  avail.Remaining,
	}).Info("booking created")

	return s.localize(b), nil
}

func (s *Service) Get(ctx context.Context, id int64, p domain.Principal) (*domain.Booking, error) {
	b, err := s.store.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanAccess(b.UserID) {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrForbidden, id)
	}
	return s.localize(b), nil
}

func (s *Service) Update(ctx context.Context, id int64, p domain.Principal, req UpdateBookingRequest) (*domain.Booking, error) {
	changes, err := s.changesFromRequest(req)
	if err != nil {
		return nil, err
	}

	var b *domain.Booking
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if b, err = tx.Bookings.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if !p.CanAccess(b.UserID) {
			return fmt.Errorf("%w: booking %d", domain.ErrForbidden, id)
		}
		return s.Apply(ctx, tx, b, changes)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithField("booking_id", id).Info("booking updated")
	return s.localize(b), nil
}

// Apply mutates b within tx. A slot or experience change is renormalised and re-admitted with b
// itself excluded from the count, so moving a booking into a full slot fails with ErrSlotFull.
// Renormalising onto the slot it already holds skips admission.
func (s *Service) Apply(ctx context.Context, tx *repository.Store, b *domain.Booking, ch Changes) error {
	now := s.clock.Now()

	if ch.movesSlot() {
		at := s.policy.Local(b.SlotAt)
		if ch.SlotAt != nil {
			at = *ch.SlotAt
		}
		experience := b.ExperienceType
		if ch.ExperienceType != nil {
			experience = *ch.ExperienceType
		}
		slot, err := s.policy.Normalize(at, experience, schedule.ModeBooking, now)
		if err != nil {
			return err
		}
		if !slot.Equal(b.Slot()) {
			if _, err := s.ledger.Admit(ctx, tx, slot, b.ID, now); err != nil {
				return err
			}
		}
		b.SlotAt = slot.At
		b.ExperienceType = slot.ExperienceType
	}

	if ch.People != nil {
		if *ch.People <= 0 {
			return fmt.Errorf("%w: people must be positive", domain.ErrInvalidInput)
		}
		b.People = *ch.People
	}
	if ch.Note.Set {
		b.Note = ch.Note.Ptr()
	}
	if ch.GuestContacts.Set {
		b.GuestContacts = ch.GuestContacts.Value
		if ch.GuestContacts.Null {
			b.GuestContacts = nil
		}
	}
	b.UpdatedAt = now

	return tx.Bookings.Update(ctx, b)
}

func (s *Service) changesFromRequest(req UpdateBookingRequest) (Changes, error) {
	var ch Changes

	if req.DateTime.Set {
		if req.DateTime.Null {
			return Changes{}, fmt.Errorf("%w: date_time cannot be null", domain.ErrInvalidInput)
		}
		t, err := schedule.ParseTimestamp(req.DateTime.Value, s.policy.Location())
		if err != nil {
			return Changes{}, err
		}
		ch.SlotAt = &t
	}
	if req.ExperienceType.Set {
		if req.ExperienceType.Null {
			return Changes{}, fmt.Errorf("%w: experience_type cannot be null", domain.ErrInvalidInput)
		}
		ch.ExperienceType = req.ExperienceType.Ptr()
	}
	if req.People.Set {
		if req.People.Null || req.People.Value <= 0 {
			return Changes{}, fmt.Errorf("%w: people must be a positive integer", domain.ErrInvalidInput)
		}
		ch.People = req.People.Ptr()
	}
	if req.GuestContacts.HasValue() {
		for i := range req.GuestContacts.Value {
			if err := validator.Struct(req.GuestContacts.Value[i]); err != nil {
				return Changes{}, fmt.Errorf("guest_contacts[%d]: %w", i, err)
			}
		}
	}
	ch.Note = req.InfoMessage
	ch.GuestContacts = req.GuestContacts

	return ch, nil
}

const deletedBookingNote = "booking was deleted"

// Delete removes the booking and writes its DeletedBooking snapshot in one transaction.
func (s *Service) Delete(ctx context.Context, id int64, p domain.Principal) error {
	now := s.clock.Now()

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !p.CanAccess(b.UserID) {
			return fmt.Errorf("%w: booking %d", domain.ErrForbidden, id)
		}

		slot := b.Slot()
		snapshot := &domain.DeletedBooking{
			BookingID:      b.ID,
			SlotAt:         slot.At,
			ExperienceType: slot.ExperienceType,
			People:         b.People,
			Note:           b.Note,
			GuestContacts:  b.GuestContacts,
			BookedAt:       b.CreatedAt,
			UserID:         b.UserID,
			DeletedAt:      now,
		}

		owner, err := tx.Users.GetByID(ctx, b.UserID)
		switch {
		case err == nil:
			snapshot.UserName = owner.Name
			snapshot.UserSurname = owner.Surname
			snapshot.UserEmail = owner.Email
			snapshot.UserPhone = owner.Phone
		case errors.Is(err, domain.ErrNotFound):
			logger.FromContext(ctx).WithField("user_id", b.UserID).Warn("deleting booking of a missing user")
		default:
			return err
		}

		if err := tx.DeletedBookings.Create(ctx, snapshot); err != nil {
			return err
		}
		closed, err := tx.UpdateRequests.RejectPendingForBooking(ctx, b.ID, deletedBookingNote, now)
		if err != nil {
			return err
		}
		if closed > 0 {
			logger.FromContext(ctx).WithFields(logrus.Fields{"booking_id": b.ID, "update_requests": closed}).
				Info("pending update requests rejected with their booking")
		}
		return tx.Bookings.Delete(ctx, b.ID)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx).WithField("booking_id", id).Info("booking deleted")
	return nil
}

func (s *Service) ListMine(ctx context.Context, p domain.Principal) ([]domain.Booking, error) {
	list, err := s.store.Bookings.ListByUser(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return s.localizeAll(list), nil
}

func (s *Service) ListAll(ctx context.Context, p domain.Principal) ([]domain.Booking, error) {
	if !p.IsAdmin {
		return nil, fmt.Errorf("%w: admin only", domain.ErrForbidden)
	}
	list, err := s.store.Bookings.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.localizeAll(list), nil
}

func (s *Service) ListDeleted(ctx context.Context, p domain.Principal) ([]domain.DeletedBooking, error) {
	if !p.IsAdmin {
		return nil, fmt.Errorf("%w: admin only", domain.ErrForbidden)
	}
	list, err := s.store.DeletedBookings.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].SlotAt = s.policy.Local(list[i].SlotAt)
		list[i].BookedAt = s.policy.Local(list[i].BookedAt)
		list[i].DeletedAt = s.policy.Local(list[i].DeletedAt)
	}
	return list, nil
}

func (s *Service) localize(b *domain.Booking) *domain.Booking {
	b.SlotAt = s.policy.Local(b.SlotAt)
	b.CreatedAt = s.policy.Local(b.CreatedAt)
	b.UpdatedAt = s.policy.Local(b.UpdatedAt)
	return b
}

func (s *Service) localizeAll(list []domain.Booking) []domain.Booking {
	for i := range list {
		s.localize(&list[i])
	}
	return list
}
