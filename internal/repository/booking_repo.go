package repository

import (
	"context"
	"time"

	"museumbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID             int64     `gorm:"column:id;primaryKey"`
	UserID         int64     `gorm:"column:user_id;index;not null"`
	ExperienceType string    `gorm:"column:experience_type;size:64;not null;index:idx_bookings_slot,priority:1"`
	SlotAt         time.Time `gorm:"column:date_time;not null;index:idx_bookings_slot,priority:2"`
	People         int       `gorm:"column:people;not null"`
	InfoMessage    *string   `gorm:"column:info_message"`
	GuestContacts  *string   `gorm:"column:guest_contacts;type:text"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	return &domain.Booking{
		ID:             m.ID,
		UserID:         m.UserID,
		SlotAt:         m.SlotAt,
		ExperienceType: domain.ExperienceType(m.ExperienceType),
		People:         m.People,
		Note:           m.InfoMessage,
		GuestContacts:  decodeGuestContacts(m.GuestContacts),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) (bookingModel, error) {
	contacts, err := encodeGuestContacts(b.GuestContacts)
	if err != nil {
		return bookingModel{}, err
	}
	return bookingModel{
		ID:             b.ID,
		UserID:         b.UserID,
		ExperienceType: string(b.ExperienceType),
		SlotAt:         b.SlotAt.UTC(),
		People:         b.People,
		InfoMessage:    b.Note,
		GuestContacts:  contacts,
		CreatedAt:      b.CreatedAt.UTC(),
		UpdatedAt:      b.UpdatedAt.UTC(),
	}, nil
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m, err := toBookingModel(b)
	if err != nil {
		return classify(err)
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return classify(err)
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, classify(err)
	}
	return toDomainBooking(m), nil
}

// GetForUpdate loads the booking and locks its row for the rest of the transaction.
func (r *BookingRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		return nil, classify(err)
	}
	return toDomainBooking(m), nil
}

// Update overwrites every mutable column of b.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	m, err := toBookingModel(b)
	if err != nil {
		return classify(err)
	}
	res := r.db.WithContext(ctx).Model(&bookingModel{}).Where("id = ?", b.ID).Updates(map[string]any{
		"experience_type": m.ExperienceType,
		"date_time":       m.SlotAt,
		"people":          m.People,
		"info_message":    m.InfoMessage,
		"guest_contacts":  m.GuestContacts,
		"updated_at":      m.UpdatedAt,
	})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return classify(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&bookingModel{}, id)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return classify(gorm.ErrRecordNotFound)
	}
	return nil
}

// CountAtSlot counts bookings at exactly slot, ignoring excludeID (0 excludes nothing).
func (r *BookingRepository) CountAtSlot(ctx context.Context, slot domain.Slot, excludeID int64) (int64, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("experience_type = ? AND date_time = ?", string(slot.ExperienceType), slot.At.UTC())
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return 0, classify(err)
	}
	return cnt, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	var rows []bookingModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date_time ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	return toDomainBookings(rows), nil
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]domain.Booking, error) {
	var rows []bookingModel
	if err := r.db.WithContext(ctx).Order("date_time ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return toDomainBookings(rows), nil
}

func toDomainBookings(rows []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out
}
