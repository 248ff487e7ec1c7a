package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) Role() UserRole {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Principal is the already authenticated caller of a core operation.
type Principal struct {
	ID      int64
	IsAdmin bool
}

// CanAccess reports whether p may read or modify a resource owned by ownerID.
func (p Principal) CanAccess(ownerID int64) bool {
	return p.IsAdmin || p.ID == ownerID
}

// DeletedUser is the audit snapshot written when an admin removes an account. The user's
// bookings are kept and keep pointing at UserID.
type DeletedUser struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	IsAdmin      bool      `json:"is_admin"`
	RegisteredAt time.Time `json:"registered_at"`
	DeletedAt    time.Time `json:"deleted_at"`
}
