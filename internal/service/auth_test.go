package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chirpstack-social/backend/internal/models"
	"github.com/chirpstack-social/backend/internal/service"
	"github.com/chirpstack-social/backend/internal/testhelpers"
	"github.com/chirpstack-social/backend/internal/types"
)

func TestSignup(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "alice", "password123", "alice@example.com", "")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.DefaultImageURL, user.ImageURL)
	assert.Equal(t, models.DefaultHeaderImageURL, user.HeaderImageURL)
	assert.NotEqual(t, "password123", user.PasswordHash)
}

func TestSignupDuplicateUsername(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "password123", "alice@example.com", "")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "alice", "otherpass456", "other@example.com", "")
	assert.ErrorIs(t, err, service.ErrDuplicate)

	// The failed attempt must not leave a partial row behind.
	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "alice").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSignupDuplicateEmail(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "password123", "alice@example.com", "")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "bob", "password123", "alice@example.com", "")
	assert.ErrorIs(t, err, service.ErrDuplicate)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSignupValidation(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "", "password123", "a@example.com", "")
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = svc.Signup(ctx, "alice", "", "a@example.com", "")
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = svc.Signup(ctx, "alice", "password123", "", "")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestAuthenticate(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "alice", "password123", "alice@example.com", "")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.Authenticate(ctx, "alice", "wrongpass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	// Unknown user reads the same as a wrong password.
	_, err = svc.Authenticate(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "alice", "password123", "alice@example.com", "")
	require.NoError(t, err)

	bio := "gopher"
	updated, err := svc.UpdateProfile(ctx, user.ID, &types.UpdateProfileRequest{
		Password: "password123",
		Username: "alice2",
		Bio:      &bio,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, "gopher", updated.Bio)
	assert.Equal(t, "alice@example.com", updated.Email)
}

func TestUpdateProfileWrongPassword(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "alice", "password123", "alice@example.com", "")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, user.ID, &types.UpdateProfileRequest{
		Password: "wrongpass",
		Username: "mallory",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	var unchanged models.User
	require.NoError(t, db.First(&unchanged, user.ID).Error)
	assert.Equal(t, "alice", unchanged.Username)
}

func TestUpdateProfileDuplicateUsername(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "password123", "alice@example.com", "")
	require.NoError(t, err)
	bob, err := svc.Signup(ctx, "bob", "password123", "bob@example.com", "")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, bob.ID, &types.UpdateProfileRequest{
		Password: "password123",
		Username: "alice",
	})
	assert.ErrorIs(t, err, service.ErrDuplicate)
}

func TestDeleteAccountCascades(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	auth := service.NewAuthService(db)
	users := service.NewUserService(db)
	messages := service.NewMessageService(db)
	ctx := context.Background()

	alice, err := auth.Signup(ctx, "alice", "password123", "alice@example.com", "")
	require.NoError(t, err)
	bob, err := auth.Signup(ctx, "bob", "password123", "bob@example.com", "")
	require.NoError(t, err)

	aliceMsg, err := messages.Create(ctx, alice.ID, "hello from alice")
	require.NoError(t, err)
	bobMsg, err := messages.Create(ctx, bob.ID, "hello from bob")
	require.NoError(t, err)

	require.NoError(t, users.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, users.Follow(ctx, bob.ID, alice.ID))

	_, err = messages.ToggleLike(ctx, alice.ID, bobMsg.ID)
	require.NoError(t, err)
	_, err = messages.ToggleLike(ctx, bob.ID, aliceMsg.ID)
	require.NoError(t, err)

	require.NoError(t, auth.DeleteAccount(ctx, alice.ID))

	var count int64
	require.NoError(t, db.Model(&models.Message{}).Where("user_id = ?", alice.ID).Count(&count).Error)
	assert.Zero(t, count, "alice's messages should be gone")

	require.NoError(t, db.Model(&models.Like{}).Where("user_id = ?", alice.ID).Count(&count).Error)
	assert.Zero(t, count, "alice's likes should be gone")

	require.NoError(t, db.Model(&models.Like{}).Where("message_id = ?", aliceMsg.ID).Count(&count).Error)
	assert.Zero(t, count, "likes on alice's messages should be gone")

	require.NoError(t, db.Model(&models.Follow{}).
		Where("follower_id = ? OR followed_id = ?", alice.ID, alice.ID).
		Count(&count).Error)
	assert.Zero(t, count, "follow rows referencing alice should be gone")

	// Bob and his message survive.
	_, err = users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	_, err = messages.GetByID(ctx, bobMsg.ID)
	require.NoError(t, err)
}

func TestDeleteAccountNotFound(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db)

	err := svc.DeleteAccount(context.Background(), 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
