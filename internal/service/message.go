package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/chirpstack-social/backend/internal/models"
)

// FeedPageSize bounds the home timeline.
const FeedPageSize = 100

// MessageService handles messages and the like relation.
type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// Create posts a message for the author. Text must be 1–140 characters.
func (s *MessageService) Create(ctx context.Context, authorID uint, text string) (*models.Message, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", ErrValidation)
	}
	if len([]rune(text)) > models.MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrValidation, models.MaxMessageLength)
	}

	msg := models.Message{Text: text, UserID: authorID}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetByID retrieves a message, ErrNotFound when absent.
func (s *MessageService) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := s.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("message %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &msg, nil
}

// Delete removes a message. Only the owner may delete it; anyone else
// gets ErrForbidden, not ErrNotFound.
func (s *MessageService) Delete(ctx context.Context, messageID, requesterID uint) error {
	msg, err := s.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.UserID != requesterID {
		return fmt.Errorf("%w: not the message owner", ErrForbidden)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(msg).Error
	})
}

// Feed returns the newest messages authored by any user in the id set,
// most recent first, capped at FeedPageSize.
func (s *MessageService) Feed(ctx context.Context, userIDs []uint) ([]models.Message, error) {
	if len(userIDs) == 0 {
		return []models.Message{}, nil
	}

	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at DESC, id DESC").
		Limit(FeedPageSize).
		Find(&messages).Error
	return messages, err
}

// ForUser returns a user's own messages, newest first.
func (s *MessageService) ForUser(ctx context.Context, userID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&messages).Error
	return messages, err
}

// ToggleLike adds or removes the user's like on a message and reports the
// resulting state. Liking one's own message is ErrForbidden and leaves no
// row. A concurrent toggle racing on the unique index fails cleanly with
// ErrDuplicate rather than corrupting the pair.
func (s *MessageService) ToggleLike(ctx context.Context, userID, messageID uint) (bool, error) {
	msg, err := s.GetByID(ctx, messageID)
	if err != nil {
		return false, err
	}
	if msg.UserID == userID {
		return false, fmt.Errorf("%w: cannot like your own message", ErrForbidden)
	}

	liked := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var like models.Like
		findErr := tx.Where("user_id = ? AND message_id = ?", userID, messageID).First(&like).Error
		switch {
		case findErr == nil:
			return tx.Delete(&like).Error
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			liked = true
			return tx.Create(&models.Like{UserID: userID, MessageID: messageID}).Error
		default:
			return findErr
		}
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, fmt.Errorf("like %w", ErrDuplicate)
		}
		return false, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"message_id": messageID,
		"liked":      liked,
	}).Debug("like toggled")
	return liked, nil
}

// LikedIDs returns the ids of messages the user likes, for marking liked
// state in timeline views.
func (s *MessageService) LikedIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ?", userID).
		Pluck("message_id", &ids).Error
	return ids, err
}

// LikedMessages returns the messages a user has liked, newest like first.
func (s *MessageService) LikedMessages(ctx context.Context, userID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Order("likes.created_at DESC, likes.id DESC").
		Find(&messages).Error
	return messages, err
}
