package repository

import (
	"context"
	"time"

	"museumbooking/internal/domain"

	"gorm.io/gorm"
)

// DeletedBookingRepository is append-only: snapshots are never updated or removed.
type DeletedBookingRepository struct {
	db *gorm.DB
}

func NewDeletedBookingRepository(db *gorm.DB) *DeletedBookingRepository {
	return &DeletedBookingRepository{db: db}
}

type deletedBookingModel struct {
	ID             int64     `gorm:"column:id;primaryKey"`
	BookingID      int64     `gorm:"column:booking_id;index;not null"`
	ExperienceType string    `gorm:"column:experience_type;size:64"`
	SlotAt         time.Time `gorm:"column:date_time"`
	People         int       `gorm:"column:people"`
	InfoMessage    *string   `gorm:"column:info_message"`
	GuestContacts  *string   `gorm:"column:guest_contacts;type:text"`
	BookedAt       time.Time `gorm:"column:booked_at"`
	UserID         int64     `gorm:"column:user_id;index;not null"`
	UserName       string    `gorm:"column:user_name;not null"`
	UserSurname    string    `gorm:"column:user_surname;not null"`
	UserEmail      string    `gorm:"column:user_email;not null"`
	UserPhone      string    `gorm:"column:user_phone;not null"`
	DeletedAt      time.Time `gorm:"column:deleted_at;not null"`
}

func (deletedBookingModel) TableName() string { return "deleted_bookings" }

func (r *DeletedBookingRepository) Create(ctx context.Context, d *domain.DeletedBooking) error {
	contacts, err := encodeGuestContacts(d.GuestContacts)
	if err != nil {
		return classify(err)
	}
	m := deletedBookingModel{
		BookingID:      d.BookingID,
		ExperienceType: string(d.ExperienceType),
		SlotAt:         d.SlotAt.UTC(),
		People:         d.People,
		InfoMessage:    d.Note,
		GuestContacts:  contacts,
		BookedAt:       d.BookedAt.UTC(),
		UserID:         d.UserID,
		UserName:       d.UserName,
		UserSurname:    d.UserSurname,
		UserEmail:      d.UserEmail,
		UserPhone:      d.UserPhone,
		DeletedAt:      d.DeletedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return classify(err)
	}
	d.ID = m.ID
	return nil
}

// List returns snapshots, most recently deleted first.
func (r *DeletedBookingRepository) List(ctx context.Context) ([]domain.DeletedBooking, error) {
	var rows []deletedBookingModel
	if err := r.db.WithContext(ctx).Order("deleted_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	out := make([]domain.DeletedBooking, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.DeletedBooking{
			ID:             m.ID,
			BookingID:      m.BookingID,
			SlotAt:         m.SlotAt,
			ExperienceType: domain.ExperienceType(m.ExperienceType),
			People:         m.People,
			Note:           m.InfoMessage,
			GuestContacts:  decodeGuestContacts(m.GuestContacts),
			BookedAt:       m.BookedAt,
			UserID:         m.UserID,
			UserName:       m.UserName,
			UserSurname:    m.UserSurname,
			UserEmail:      m.UserEmail,
			UserPhone:      m.UserPhone,
			DeletedAt:      m.DeletedAt,
		})
	}
	return out, nil
}
