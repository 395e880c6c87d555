package models

import (
	"time"
)

// Default images served by the frontend for users that never uploaded one.
const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
)

// User is an account holder. Username and email are unique across the
// system; PasswordHash is a bcrypt hash and never leaves the backend.
type User struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Username       string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email          string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	ImageURL       string    `gorm:"size:255;not null" json:"image_url"`
	HeaderImageURL string    `gorm:"size:255;not null" json:"header_image_url"`
	Bio            string    `gorm:"type:text" json:"bio"`
	Location       string    `gorm:"size:100" json:"location"`
}
