package models

import (
	"time"
)

// Like marks a message as liked by a user. Toggled, not accumulated: the
// composite unique index guarantees at most one row per (user, message).
type Like struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_pair" json:"user_id"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_likes_pair" json:"message_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Message   Message   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Like) TableName() string {
	return "likes"
}
