package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/chirpstack-social/backend/config"
	"github.com/chirpstack-social/backend/internal/models"
)

// MaxAvatarBytes bounds uploaded profile pictures.
const MaxAvatarBytes = 5 << 20

var allowedAvatarExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// S3API is the slice of the S3 client the avatar store needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageService stores uploaded avatars in S3 and records the public URL
// on the user.
type ImageService struct {
	db     *gorm.DB
	client S3API
	bucket string
}

func NewImageService(db *gorm.DB, s3Config *config.S3Config) *ImageService {
	return &ImageService{db: db, client: s3Config.Client, bucket: s3Config.BucketName}
}

// NewImageServiceWithClient wires an explicit S3 client; tests use this
// with a stub.
func NewImageServiceWithClient(db *gorm.DB, client S3API, bucket string) *ImageService {
	return &ImageService{db: db, client: client, bucket: bucket}
}

// UploadAvatar validates the upload, writes it to the avatar bucket under
// a fresh key and updates the user's image URL. Returns the public URL.
func (s *ImageService) UploadAvatar(ctx context.Context, userID uint, filename string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty upload", ErrValidation)
	}
	if len(data) > MaxAvatarBytes {
		return "", fmt.Errorf("%w: avatar exceeds %d bytes", ErrValidation, MaxAvatarBytes)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedAvatarExts[ext] || !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: unsupported image type", ErrValidation)
	}

	key := fmt.Sprintf("avatars/%s%s", uuid.NewString(), ext)
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("image_url", url)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "key": key}).Info("avatar uploaded")
	return url, nil
}
