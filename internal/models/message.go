package models

import (
	"time"
)

// MaxMessageLength bounds the text body of a message.
const MaxMessageLength = 140

// Message is a short post owned by exactly one user. Deleting the user
// deletes the message.
type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Text      string    `gorm:"size:140;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
