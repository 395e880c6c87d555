package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/chirpstack-social/backend/internal/models"
)

// UserService handles user lookup and the follow relation.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetByID retrieves a user, ErrNotFound when absent.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// likeEscaper neutralizes LIKE metacharacters so a search term is always
// a literal substring match.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List returns all users, or those whose username contains the search
// term (case-insensitive). Ordered by id so paging stays stable.
func (s *UserService) List(ctx context.Context, searchTerm string) ([]models.User, error) {
	query := s.db.WithContext(ctx).Order("id")
	if searchTerm != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(searchTerm)) + "%"
		query = query.Where(`LOWER(username) LIKE ? ESCAPE '\'`, pattern)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Follow makes follower follow target. Following twice is a no-op: the
// composite unique index rejects the second row and that rejection is
// swallowed here. Self-follow is rejected outright.
func (s *UserService) Follow(ctx context.Context, followerID, targetID uint) error {
	if followerID == targetID {
		return fmt.Errorf("%w: cannot follow yourself", ErrValidation)
	}
	if _, err := s.GetByID(ctx, targetID); err != nil {
		return err
	}

	follow := models.Follow{FollowerID: followerID, FollowedID: targetID}
	if err := s.db.WithContext(ctx).Create(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	return nil
}

// Unfollow removes the relation. Unfollowing someone not followed has no
// effect and no error.
func (s *UserService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	return s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, targetID).
		Delete(&models.Follow{}).Error
}

// Following lists the users this user follows.
func (s *UserService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("users.id").
		Find(&users).Error
	return users, err
}

// Followers lists the users following this user.
func (s *UserService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Order("users.id").
		Find(&users).Error
	return users, err
}

// FollowingIDs returns just the followed ids, for building the home feed.
func (s *UserService) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followed_id", &ids).Error
	return ids, err
}
