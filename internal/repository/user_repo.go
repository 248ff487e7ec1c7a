package repository

import (
	"context"
	"strings"
	"time"

	"museumbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userModel struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Surname      string    `gorm:"column:surname;not null"`
	Email        string    `gorm:"column:email;size:255;uniqueIndex;not null"`
	Phone        string    `gorm:"column:phone;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	IsAdmin      bool      `gorm:"column:is_admin;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (userModel) TableName() string { return "users" }

func toDomainUser(m userModel) *domain.User {
	return &domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Surname:      m.Surname,
		Email:        m.Email,
		Phone:        m.Phone,
		PasswordHash: m.PasswordHash,
		IsAdmin:      m.IsAdmin,
		CreatedAt:    m.CreatedAt,
	}
}

func toUserModel(u *domain.User) userModel {
	return userModel{
		ID:           u.ID,
		Name:         strings.TrimSpace(u.Name),
		Surname:      strings.TrimSpace(u.Surname),
		Email:        NormalizeEmail(u.Email),
		Phone:        strings.TrimSpace(u.Phone),
		PasswordHash: u.PasswordHash,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt.UTC(),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts u and fills its ID. A taken email yields domain.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return classify(err)
	}
	*u = *toDomainUser(m)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, classify(err)
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&m).Error; err != nil {
		return nil, classify(err)
	}
	return toDomainUser(m), nil
}

// LockByID loads the user row with a row lock held until the surrounding transaction ends.
// Used to serialise per-user token issuance.
func (r *UserRepository) LockByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		return nil, classify(err)
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return classify(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *UserRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	return classify(r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Update("is_admin", isAdmin).Error)
}

// Update writes the profile columns and the admin flag of u. A taken email yields
// domain.ErrConflict.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", u.ID).Updates(map[string]any{
		"name":     m.Name,
		"surname":  m.Surname,
		"email":    m.Email,
		"phone":    m.Phone,
		"is_admin": m.IsAdmin,
	})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return classify(gorm.ErrRecordNotFound)
	}
	u.Name, u.Surname, u.Email, u.Phone = m.Name, m.Surname, m.Email, m.Phone
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&userModel{}, id)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return classify(gorm.ErrRecordNotFound)
	}
	return nil
}

// List returns every user ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	var rows []userModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	out := make([]domain.User, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainUser(m))
	}
	return out, nil
}
