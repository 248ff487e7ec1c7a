package updaterequest

import (
	"context"
	"fmt"
	"time"

	"museumbooking/internal/domain"
	"museumbooking/internal/modules/booking"
	"museumbooking/internal/pkg/clock"
	"museumbooking/internal/pkg/logger"
	"museumbooking/internal/pkg/patch"
	"museumbooking/internal/pkg/validator"
	"museumbooking/internal/repository"
	"museumbooking/internal/schedule"

	"github.com/sirupsen/logrus"
)

type Service struct {
	store    *repository.Store
	policy   *schedule.Policy
	bookings BookingApplier
	notifier Notifier
	clock    clock.Clock
}

func NewService(store *repository.Store, policy *schedule.Policy, bookings BookingApplier, notifier Notifier, clk clock.Clock) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{
		store:    store,
		policy:   policy,
		bookings: bookings,
		notifier: notifier,
		clock:    clk,
	}
}

// Submit records a change request for a booking. Requests from admins are approved and applied
// in the same transaction; everybody else gets a pending request, at most one per booking.
func (s *Service) Submit(ctx context.Context, bookingID int64, p domain.Principal, req SubmitRequest) (*domain.BookingUpdateRequest, error) {
	if req.empty() {
		return nil, fmt.Errorf("%w: propose at least one of requested_date_time, requested_people, requested_info_message", domain.ErrInvalidInput)
	}
	if req.RequestedPeople != nil && *req.RequestedPeople <= 0 {
		return nil, fmt.Errorf("%w: requested_people must be positive", domain.ErrInvalidInput)
	}
	var requestedAt *time.Time
	if req.RequestedDateTime != nil {
		t, err := schedule.ParseTimestamp(*req.RequestedDateTime, s.policy.Location())
		if err != nil {
			return nil, err
		}
		requestedAt = &t
	}

	now := s.clock.Now()
	var out *domain.BookingUpdateRequest

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !p.CanAccess(b.UserID) {
			return fmt.Errorf("%w: booking %d", domain.ErrForbidden, bookingID)
		}

		if requestedAt != nil {
			slot, err := s.policy.Normalize(*requestedAt, b.ExperienceType, schedule.ModeBooking, now)
			if err != nil {
				return err
			}
			requestedAt = &slot.At
		}

		r := &domain.BookingUpdateRequest{
			BookingID:       b.ID,
			UserID:          p.ID,
			RequestedSlotAt: requestedAt,
			RequestedPeople: req.RequestedPeople,
			RequestedNote:   req.RequestedInfoMessage,
			Note:            req.Note,
			Status:          domain.UpdateRequestPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if !p.IsAdmin {
			pending, err := tx.UpdateRequests.CountPendingForBooking(ctx, b.ID)
			if err != nil {
				return err
			}
			if pending > 0 {
				return fmt.Errorf("%w: booking %d already has a pending update request", domain.ErrConflict, b.ID)
			}
			if err := tx.UpdateRequests.Create(ctx, r); err != nil {
				return err
			}
			out = r
			return nil
		}

		r.Status = domain.UpdateRequestApproved
		r.ProcessedAt = &now
		if err := s.bookings.Apply(ctx, tx, b, changesOf(r, s.policy)); err != nil {
			return err
		}
		if err := tx.UpdateRequests.Create(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"request_id": out.ID,
		"booking_id": out.BookingID,
		"status":     out.Status,
	}).Info("update request submitted")

	out = s.localize(out)
	s.notifier.UpdateRequestSubmitted(ctx, out)
	return out, nil
}

// Decide resolves a pending request. Approval applies the requested fields to the booking in the
// same transaction, renormalising and re-admitting a requested slot.
func (s *Service) Decide(ctx context.Context, requestID int64, p domain.Principal, req DecideRequest) (*domain.BookingUpdateRequest, error) {
	if !p.IsAdmin {
		return nil, fmt.Errorf("%w: only admins decide update requests", domain.ErrForbidden)
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var out *domain.BookingUpdateRequest

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		r, err := tx.UpdateRequests.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !r.IsPending() {
			return fmt.Errorf("%w: update request %d is already %s", domain.ErrConflict, r.ID, r.Status)
		}

		if req.Decision == domain.UpdateRequestApproved {
			b, err := tx.Bookings.GetForUpdate(ctx, r.BookingID)
			if err != nil {
				return fmt.Errorf("booking %d: %w", r.BookingID, err)
			}
			if err := s.bookings.Apply(ctx, tx, b, changesOf(r, s.policy)); err != nil {
				return err
			}
		}

		r.Status = req.Decision
		r.AdminNote = req.AdminNote
		r.ProcessedAt = &now
		r.UpdatedAt = now
		if err := tx.UpdateRequests.Resolve(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"request_id": out.ID,
		"booking_id": out.BookingID,
		"decision":   out.Status,
	}).Info("update request decided")

	out = s.localize(out)
	s.notifier.UpdateRequestDecided(ctx, out)
	return out, nil
}

// ListMine returns the caller's requests, newest first.
func (s *Service) ListMine(ctx context.Context, p domain.Principal) ([]domain.BookingUpdateRequest, error) {
	list, err := s.store.UpdateRequests.ListByUser(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return s.localizeAll(list), nil
}

func (s *Service) ListPending(ctx context.Context, p domain.Principal) ([]domain.BookingUpdateRequest, error) {
	if !p.IsAdmin {
		return nil, fmt.Errorf("%w: admin only", domain.ErrForbidden)
	}
	list, err := s.store.UpdateRequests.ListByStatus(ctx, domain.UpdateRequestPending)
	if err != nil {
		return nil, err
	}
	return s.localizeAll(list), nil
}

func changesOf(r *domain.BookingUpdateRequest, policy *schedule.Policy) booking.Changes {
	var ch booking.Changes
	if r.RequestedSlotAt != nil {
		at := policy.Local(*r.RequestedSlotAt)
		ch.SlotAt = &at
	}
	ch.People = r.RequestedPeople
	if r.RequestedNote != nil {
		ch.Note = patch.Of(*r.RequestedNote)
	}
	return ch
}

func (s *Service) localize(r *domain.BookingUpdateRequest) *domain.BookingUpdateRequest {
	if r.RequestedSlotAt != nil {
		at := s.policy.Local(*r.RequestedSlotAt)
		r.RequestedSlotAt = &at
	}
	if r.ProcessedAt != nil {
		at := s.policy.Local(*r.ProcessedAt)
		r.ProcessedAt = &at
	}
	r.CreatedAt = s.policy.Local(r.CreatedAt)
	r.UpdatedAt = s.policy.Local(r.UpdatedAt)
	return r
}

func (s *Service) localizeAll(list []domain.BookingUpdateRequest) []domain.BookingUpdateRequest {
	for i := range list {
		s.localize(&list[i])
	}
	return list
}
