package updaterequest

import (
	"context"

	"museumbooking/internal/domain"
	"museumbooking/internal/modules/booking"
	"museumbooking/internal/repository"
)

// BookingApplier mutates a locked booking inside the caller's transaction.
type BookingApplier interface {
	Apply(ctx context.Context, tx *repository.Store, b *domain.Booking, ch booking.Changes) error
}

// Notifier is told about requests after their transaction committed. Delivery is best effort
// and implementations must return promptly.
type Notifier interface {
	UpdateRequestSubmitted(ctx context.Context, req *domain.BookingUpdateRequest)
	UpdateRequestDecided(ctx context.Context, req *domain.BookingUpdateRequest)
}

type noopNotifier struct{}

func (noopNotifier) UpdateRequestSubmitted(context.Context, *domain.BookingUpdateRequest) {}
func (noopNotifier) UpdateRequestDecided(context.Context, *domain.BookingUpdateRequest)   {}
