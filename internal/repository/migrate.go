package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates every table owned by the repositories.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&bookingModel{},
		&deletedBookingModel{},
		&deletedUserModel{},
		&updateRequestModel{},
		&refreshTokenModel{},
		&slotLockModel{},
	)
}
