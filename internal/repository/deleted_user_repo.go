package repository

import (
	"context"
	"time"

	"museumbooking/internal/domain"

	"gorm.io/gorm"
)

// DeletedUserRepository is append-only, like DeletedBookingRepository.
type DeletedUserRepository struct {
	db *gorm.DB
}

func NewDeletedUserRepository(db *gorm.DB) *DeletedUserRepository {
	return &DeletedUserRepository{db: db}
}

type deletedUserModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	UserID    int64     `gorm:"column:user_id;index;not null"`
	Name      string    `gorm:"column:name;not null"`
	Surname   string    `gorm:"column:surname;not null"`
	Email     string    `gorm:"column:email;not null"`
	Phone     string    `gorm:"column:phone;not null"`
	IsAdmin   bool      `gorm:"column:is_admin;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at"`
	DeletedAt time.Time `gorm:"column:deleted_at;not null"`
}

func (deletedUserModel) TableName() string { return "deleted_users" }

func (r *DeletedUserRepository) Create(ctx context.Context, d *domain.DeletedUser) error {
	m := deletedUserModel{
		UserID:    d.UserID,
		Name:      d.Name,
		Surname:   d.Surname,
		Email:     d.Email,
		Phone:     d.Phone,
		IsAdmin:   d.IsAdmin,
		CreatedAt: d.RegisteredAt.UTC(),
		DeletedAt: d.DeletedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return classify(err)
	}
	d.ID = m.ID
	return nil
}

// List returns snapshots, most recently deleted first.
func (r *DeletedUserRepository) List(ctx context.Context) ([]domain.DeletedUser, error) {
	var rows []deletedUserModel
	if err := r.db.WithContext(ctx).Order("deleted_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	out := make([]domain.DeletedUser, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.DeletedUser{
			ID:           m.ID,
			UserID:       m.UserID,
			Name:         m.Name,
			Surname:      m.Surname,
			Email:        m.Email,
			Phone:        m.Phone,
			IsAdmin:      m.IsAdmin,
			RegisteredAt: m.CreatedAt,
			DeletedAt:    m.DeletedAt,
		})
	}
	return out, nil
}
