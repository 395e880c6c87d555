package database

import (
	"gorm.io/gorm"

	"github.com/chirpstack-social/backend/internal/models"
)

// RunMigrations brings the schema up to date. AutoMigrate covers the four
// tables and their unique/composite indexes on both postgres and the
// sqlite databases the tests run against.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.Follow{},
		&models.Like{},
	)
}
