package repository

import (
	"context"
	"time"

	"museumbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SlotLockRepository serialises admissions per slot. Each (experience_type, slot) owns one row;
// writing that row inside a transaction blocks every other transaction admitting into the same
// slot until commit or rollback.
type SlotLockRepository struct {
	db *gorm.DB
}

func NewSlotLockRepository(db *gorm.DB) *SlotLockRepository {
	return &SlotLockRepository{db: db}
}

type slotLockModel struct {
	ExperienceType string    `gorm:"column:experience_type;size:64;primaryKey"`
	SlotAt         time.Time `gorm:"column:date_time;primaryKey"`
	TouchedAt      time.Time `gorm:"column:touched_at;not null"`
}

func (slotLockModel) TableName() string { return "slot_locks" }

// Acquire must run inside a transaction.
func (r *SlotLockRepository) Acquire(ctx context.Context, slot domain.Slot, now time.Time) error {
	db := r.db.WithContext(ctx)
	row := slotLockModel{
		ExperienceType: string(slot.ExperienceType),
		SlotAt:         slot.At.UTC(),
		TouchedAt:      now.UTC(),
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return classify(err)
	}
	err := db.Model(&slotLockModel{}).
		Where("experience_type = ? AND date_time = ?", row.ExperienceType, row.SlotAt).
		Update("touched_at", row.TouchedAt).Error
	return classify(err)
}
