package admin

import (
	"context"
	"errors"
	"fmt"

	"museumbooking/internal/domain"
	"museumbooking/internal/modules/auth"
	"museumbooking/internal/pkg/clock"
	"museumbooking/internal/pkg/logger"
	"museumbooking/internal/pkg/validator"
	"museumbooking/internal/repository"

	"github.com/sirupsen/logrus"
)

// Service is user administration. Every method requires an admin principal.
type Service struct {
	store    *repository.Store
	sessions SessionRevoker
	clock    clock.Clock
}

func NewService(store *repository.Store, sessions SessionRevoker, clk clock.Clock) *Service {
	return &Service{store: store, sessions: sessions, clock: clk}
}

func requireAdmin(p domain.Principal) error {
	if !p.IsAdmin {
		return fmt.Errorf("%w: admin only", domain.ErrForbidden)
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context, p domain.Principal) ([]domain.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, p domain.Principal, id int64) (*domain.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	u, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return u, nil
}

// UpdateUser edits profile fields and the admin flag. A role change ends the user's refresh
// sessions so the next access token carries the new role.
func (s *Service) UpdateUser(ctx context.Context, p domain.Principal, id int64, req UpdateUserRequest) (*domain.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	u, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.UpdateProfileRequest.Apply(u); err != nil {
		return nil, err
	}
	roleChanged := req.IsAdmin != nil && *req.IsAdmin != u.IsAdmin
	if req.IsAdmin != nil {
		if id == p.ID && !*req.IsAdmin {
			return nil, fmt.Errorf("%w: admins cannot revoke their own admin flag", domain.ErrInvalidInput)
		}
		u.IsAdmin = *req.IsAdmin
	}

	if err := s.store.Users.Update(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, auth.ErrEmailAlreadyExists
		}
		return nil, err
	}
	if roleChanged {
		if err := s.sessions.RevokeAll(ctx, id); err != nil {
			return nil, err
		}
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"user_id":  id,
		"admin_id": p.ID,
		"is_admin": u.IsAdmin,
	}).Info("user updated by admin")
	u.PasswordHash = ""
	return u, nil
}

// ResetPassword sets a new password without the current one and ends all refresh sessions.
func (s *Service) ResetPassword(ctx context.Context, p domain.Principal, id int64, req ResetPasswordRequest) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := validator.Struct(req); err != nil {
		return err
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.store.Users.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		return err
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{"user_id": id, "admin_id": p.ID}).Info("password reset by admin")
	return nil
}

// DeleteUser writes the DeletedUser snapshot, drops the user's refresh tokens and removes the
// account in one transaction. Bookings stay in place; deleting one later records a snapshot
// without owner details.
func (s *Service) DeleteUser(ctx context.Context, p domain.Principal, id int64) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if id == p.ID {
		return fmt.Errorf("%w: admins cannot delete their own account", domain.ErrInvalidInput)
	}

	now := s.clock.Now()
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		u, err := tx.Users.LockByID(ctx, id)
		if err != nil {
			return err
		}
		snapshot := &domain.DeletedUser{
			UserID:       u.ID,
			Name:         u.Name,
			Surname:      u.Surname,
			Email:        u.Email,
			Phone:        u.Phone,
			IsAdmin:      u.IsAdmin,
			RegisteredAt: u.CreatedAt,
			DeletedAt:    now,
		}
		if err := tx.DeletedUsers.Create(ctx, snapshot); err != nil {
			return err
		}
		if _, err := tx.RefreshTokens.DeleteForUser(ctx, u.ID); err != nil {
			return err
		}
		return tx.Users.Delete(ctx, u.ID)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{"user_id": id, "admin_id": p.ID}).Info("user deleted")
	return nil
}

func (s *Service) ListDeletedUsers(ctx context.Context, p domain.Principal) ([]domain.DeletedUser, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.store.DeletedUsers.List(ctx)
}
