package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chirpstack-social/backend/internal/models"
	"github.com/chirpstack-social/backend/internal/types"
)

// AuthService owns the credential store and the account lifecycle:
// signup, authentication, profile edits and account deletion.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// Signup creates a new account. The insert is transactional: a duplicate
// username or email rolls everything back and returns ErrDuplicate with
// no partial row left behind.
func (s *AuthService) Signup(ctx context.Context, username, password, email, imageURL string) (*models.User, error) {
	if username == "" || password == "" || email == "" {
		return nil, fmt.Errorf("%w: username, password and email are required", ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if imageURL == "" {
		imageURL = models.DefaultImageURL
	}

	user := models.User{
		Username:       username,
		Email:          email,
		PasswordHash:   string(hashed),
		ImageURL:       imageURL,
		HeaderImageURL: models.DefaultHeaderImageURL,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username or email %w", ErrDuplicate)
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": username}).Info("user signed up")
	return &user, nil
}

// Authenticate looks up a user by username and verifies the password.
// Unknown user and wrong password are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// UpdateProfile applies a profile edit after re-verifying the current
// password. A duplicate username or email rolls the edit back.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, req *types.UpdateProfileRequest) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.ImageURL != nil {
		user.ImageURL = *req.ImageURL
		if user.ImageURL == "" {
			user.ImageURL = models.DefaultImageURL
		}
	}
	if req.HeaderImageURL != nil {
		user.HeaderImageURL = *req.HeaderImageURL
		if user.HeaderImageURL == "" {
			user.HeaderImageURL = models.DefaultHeaderImageURL
		}
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Location != nil {
		user.Location = *req.Location
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Save(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username or email %w", ErrDuplicate)
		}
		return nil, err
	}

	return &user, nil
}

// DeleteAccount removes the user and everything that references them:
// likes they made, likes on their messages, follow rows in both
// directions, their messages and finally the user row. One transaction;
// the caller must invalidate the session before calling this.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user: %w", ErrNotFound)
			}
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id IN (?)",
			tx.Model(&models.Message{}).Select("id").Where("user_id = ?", userID),
		).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR followed_id = ?", userID, userID).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&user).Error; err != nil {
			return err
		}

		logrus.WithField("user_id", userID).Info("account deleted")
		return nil
	})
}
