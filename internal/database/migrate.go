package database

import (
	"gorm.io/gorm"

	"linkdrop/internal/storage"
)

// Migrate performs the schema migration for all application models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&storage.Blob{},
	)
}
