// Package testutil builds the SQLite-backed fixtures shared by service tests.
package testutil

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"museumbooking/internal/database"
	"museumbooking/internal/domain"
	"museumbooking/internal/repository"
	"museumbooking/internal/schedule"

	"github.com/stretchr/testify/require"
)

// NewStore opens a migrated in-memory database that is closed with the test.
func NewStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewStore(db)
}

// Policy is the default museum schedule in Europe/Rome plus a window-policy "open_gallery"
// experience with capacity 3.
func Policy(t *testing.T) *schedule.Policy {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	opts := schedule.DefaultOptions(loc)
	opts.Experiences = append(opts.Experiences, schedule.Experience{Type: "open_gallery", Kind: schedule.KindWindow, Capacity: 3})
	p, err := schedule.NewPolicy(opts)
	require.NoError(t, err)
	return p
}

func CreateUser(t *testing.T, s *repository.Store, email string, isAdmin bool) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:         "Ada",
		Surname:      "Lovelace",
		Email:        email,
		Phone:        "+39 055 1234567",
		PasswordHash: "x",
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func PrincipalOf(u *domain.User) domain.Principal {
	return domain.Principal{ID: u.ID, IsAdmin: u.IsAdmin}
}
