package repository

import (
	"context"
	"testing"
	"time"

	"museumbooking/internal/database"
	"museumbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewStore(db)
}

func createUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:         "Ada",
		Surname:      "Lovelace",
		Email:        email,
		Phone:        "+39 055 000",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

var slotAt = time.Date(2030, 5, 10, 10, 30, 0, 0, time.UTC)

func createBooking(t *testing.T, s *Store, userID int64, at time.Time) *domain.Booking {
	t.Helper()
	now := time.Now()
	b := &domain.Booking{
		UserID:         userID,
		SlotAt:         at,
		ExperienceType: domain.ExperienceGuidedTour,
		People:         2,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, s.Bookings.Create(context.Background(), b))
	return b
}

func TestUsers_DuplicateEmailIsConflict(t *testing.T) {
	s := newTestStore(t)
	createUser(t, s, "ada@example.com")

	dup := &domain.User{Name: "A", Surname: "B", Email: "  ADA@example.com ", Phone: "1", PasswordHash: "x"}
	err := s.Users.Create(context.Background(), dup)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUsers_GetByEmailNormalises(t *testing.T) {
	s := newTestStore(t)
	u := createUser(t, s, "ada@example.com")

	got, err := s.Users.GetByEmail(context.Background(), " Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Users.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookings_GuestContactsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "ada@example.com")

	note := "wheelchair"
	b := &domain.Booking{
		UserID:         u.ID,
		SlotAt:         slotAt,
		ExperienceType: domain.ExperienceTourTasting,
		People:         3,
		Note:           &note,
		GuestContacts:  []domain.GuestContact{{Name: "Bob", Contact: "bob@example.com"}},
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, s.Bookings.Create(ctx, b))

	got, err := s.Bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.GuestContacts, got.GuestContacts)
	require.NotNil(t, got.Note)
	assert.Equal(t, note, *got.Note)
	assert.True(t, got.SlotAt.Equal(slotAt))
}

func TestBookings_LegacyAndMalformedGuestContacts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "ada@example.com")
	legacy := createBooking(t, s, u.ID, slotAt)
	broken := createBooking(t, s, u.ID, slotAt.Add(time.Hour))

	require.NoError(t, s.DB().Exec(`UPDATE bookings SET guest_contacts = ? WHERE id = ?`,
		`[{"name":"Eve","email":"eve@example.com"}]`, legacy.ID).Error)
	require.NoError(t, s.DB().Exec(`UPDATE bookings SET guest_contacts = ? WHERE id = ?`,
		`{not json`, broken.ID).Error)

	got, err := s.Bookings.GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.GuestContact{{Name: "Eve", Contact: "eve@example.com"}}, got.GuestContacts)

	got, err = s.Bookings.GetByID(ctx, broken.ID)
	require.NoError(t, err)
	assert.Empty(t, got.GuestContacts)
}

func TestBookings_CountAtSlotExcludes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "ada@example.com")
	first := createBooking(t, s, u.ID, slotAt)
	createBooking(t, s, u.ID, slotAt)
	createBooking(t, s, u.ID, slotAt.Add(2*time.Hour))

	slot := domain.Slot{ExperienceType: domain.ExperienceGuidedTour, At: slotAt}
	n, err := s.Bookings.CountAtSlot(ctx, slot, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.Bookings.CountAtSlot(ctx, slot, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Bookings.CountAtSlot(ctx, domain.Slot{ExperienceType: domain.ExperienceTourTasting, At: slotAt}, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBookings_DeleteMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Bookings.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "ada@example.com")

	err := s.Transaction(ctx, func(tx *Store) error {
		b := &domain.Booking{UserID: u.ID, SlotAt: slotAt, ExperienceType: domain.ExperienceGuidedTour, People: 1}
		require.NoError(t, tx.Bookings.Create(ctx, b))
		return domain.ErrSlotFull
	})
	assert.ErrorIs(t, err, domain.ErrSlotFull)

	all, err := s.Bookings.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSlotLocks_AcquireIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	slot := domain.Slot{ExperienceType: domain.ExperienceGuidedTour, At: slotAt}

	for i := 0; i < 2; i++ {
		err := s.Transaction(ctx, func(tx *Store) error {
			return tx.SlotLocks.Acquire(ctx, slot, time.Now())
		})
		require.NoError(t, err)
	}

	var n int64
	require.NoError(t, s.DB().Model(&slotLockModel{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestDeletedBookings_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		d := &domain.DeletedBooking{
			BookingID:      int64(i + 1),
			SlotAt:         slotAt,
			ExperienceType: domain.ExperienceGuidedTour,
			People:         1,
			UserID:         7,
			UserName:       "Ada",
			UserSurname:    "Lovelace",
			UserEmail:      "ada@example.com",
			UserPhone:      "1",
			DeletedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.DeletedBookings.Create(ctx, d))
	}

	list, err := s.DeletedBookings.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, int64(3), list[0].BookingID)
	assert.Equal(t, int64(1), list[2].BookingID)
}

func TestUpdateRequests_ResolveOnlyPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "ada@example.com")
	b := createBooking(t, s, u.ID, slotAt)

	people := 4
	req := &domain.BookingUpdateRequest{
		BookingID:       b.ID,
		UserID:          u.ID,
		RequestedPeople: &people,
		Status:          domain.UpdateRequestPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	require.NoError(t, s.UpdateRequests.Create(ctx, req))

	n, err := s.UpdateRequests.CountPendingForBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	processed := time.Now()
	req.Status = domain.UpdateRequestRejected
	req.ProcessedAt = &processed
	req.UpdatedAt = processed
	require.NoError(t, s.UpdateRequests.Resolve(ctx, req))
	assert.ErrorIs(t, s.UpdateRequests.Resolve(ctx, req), domain.ErrConflict)

	pending, err := s.UpdateRequests.ListByStatus(ctx, domain.UpdateRequestPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	mine, err := s.UpdateRequests.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.UpdateRequestRejected, mine[0].Status)
	require.NotNil(t, mine[0].RequestedPeople)
	assert.Equal(t, 4, *mine[0].RequestedPeople)
}

func TestRefreshTokens_RevokeSemantics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	active := &domain.RefreshToken{UserID: 1, TokenHash: "a", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	expired := &domain.RefreshToken{UserID: 1, TokenHash: "b", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, s.RefreshTokens.Create(ctx, active))
	require.NoError(t, s.RefreshTokens.Create(ctx, expired))

	dup := &domain.RefreshToken{UserID: 2, TokenHash: "a", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	assert.ErrorIs(t, s.RefreshTokens.Create(ctx, dup), domain.ErrConflict)

	n, err := s.RefreshTokens.RevokeActiveByID(ctx, expired.ID, now)
	require.NoError(t, err)
	assert.Zero(t, n, "expired tokens are not revocable for rotation")

	n, err = s.RefreshTokens.RevokeActiveForUser(ctx, 1, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.RefreshTokens.RevokeActiveByID(ctx, active.ID, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.RefreshTokens.RevokeByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "already revoked")

	n, err = s.RefreshTokens.DeleteStale(ctx, now, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.RefreshTokens.GetByHash(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Revoked)
}
