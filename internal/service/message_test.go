package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chirpstack-social/backend/internal/models"
	"github.com/chirpstack-social/backend/internal/service"
	"github.com/chirpstack-social/backend/internal/testhelpers"
)

func TestCreateMessageAndFeed(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMessageService(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")

	msg, err := svc.Create(ctx, alice.ID, "hello world")
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())

	feed, err := svc.Feed(ctx, []uint{alice.ID})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "hello world", feed[0].Text)
}

func TestCreateMessageValidation(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMessageService(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")

	_, err := svc.Create(ctx, alice.ID, "")
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.Create(ctx, alice.ID, strings.Repeat("x", models.MaxMessageLength+1))
	assert.ErrorIs(t, err, service.ErrValidation)

	// Exactly at the bound is fine.
	_, err = svc.Create(ctx, alice.ID, strings.Repeat("x", models.MaxMessageLength))
	assert.NoError(t, err)
}

func TestFeedOrdering(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMessageService(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		msg := models.Message{Text: text, UserID: alice.ID, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, db.Create(&msg).Error)
	}

	feed, err := svc.Feed(ctx, []uint{alice.ID})
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, "third", feed[0].Text)
	assert.Equal(t, "second", feed[1].Text)
	assert.Equal(t, "first", feed[2].Text)
}

func TestFeedPageBound(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMessageService(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < service.FeedPageSize+5; i++ {
		msg := models.Message{
			Text:      fmt.Sprintf("message %d", i),
			UserID:    alice.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.Create(&msg).Error)
	}

	feed, err := svc.Feed(ctx, []uint{alice.ID})
	require.NoError(t, err)
	assert.Len(t, feed, service.FeedPageSize)
	// Newest message leads the page.
	assert.Equal(t, fmt.Sprintf("message %d", service.FeedPageSize+4), feed[0].Text)
}

func TestFeedAcrossUsers(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMessageService(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	_, err := svc.Create(ctx, alice.ID, "from alice")
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob.ID, "from bob")
	require.NoError(t, err)
	_, err = svc.Create(ctx, carol.ID, "from carol")
	require.NoError(t, err)

	feed, err := svc.Feed(ctx, []uint{alice.ID, bob.ID})
	require.NoError(t, err)
	require.Len(t, feed, 2)
	for _, msg := range feed {
		assert.NotEqual(t, carol.ID, msg.UserID)
	}

	empty, err := svc.Feed(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteMessageByOwner(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMessageService(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	msg, err := svc.Create(ctx, alice.ID, "soon gone")
	require.NoError(t, err)
	_, err = svc.ToggleLike(ctx, bob.ID, msg.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, msg.ID, alice.ID))

	_, err = svc.GetByID(ctx, msg.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Like{}).Where("message_id = ?", msg.ID).Count(&count).Error)
	assert.Zero(t, count, "likes on the deleted message should be gone")
}

func TestDeleteMessageNotOwner(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMessageService(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	msg, err := svc.Create(ctx, alice.ID, "keep out")
	require.NoError(t, err)

	err = svc.Delete(ctx, msg.ID, bob.ID)
	// Forbidden, not "missing": the caller renders these differently.
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.NotErrorIs(t, err, service.ErrNotFound)

	_, err = svc.GetByID(ctx, msg.ID)
	assert.NoError(t, err)
}

func TestDeleteMessageNotFound(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMessageService(db)

	alice := createUser(t, db, "alice")
	err := svc.Delete(context.Background(), 9999, alice.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestToggleLikeOwnMessage(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMessageService(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	msg, err := svc.Create(ctx, alice.ID, "self love")
	require.NoError(t, err)

	_, err = svc.ToggleLike(ctx, alice.ID, msg.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	var count int64
	require.NoError(t, db.Model(&models.Like{}).Count(&count).Error)
	assert.Zero(t, count, "no like row may be created")
}

func TestToggleLikeTogglesNotAccumulates(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMessageService(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	msg, err := svc.Create(ctx, alice.ID, "like me")
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, bob.ID, msg.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	var count int64
	require.NoError(t, db.Model(&models.Like{}).
		Where("user_id = ? AND message_id = ?", bob.ID, msg.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	liked, err = svc.ToggleLike(ctx, bob.ID, msg.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, db.Model(&models.Like{}).
		Where("user_id = ? AND message_id = ?", bob.ID, msg.ID).
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestLikedIDsAndMessages(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewMessageService(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	m1, err := svc.Create(ctx, alice.ID, "one")
	require.NoError(t, err)
	m2, err := svc.Create(ctx, alice.ID, "two")
	require.NoError(t, err)

	_, err = svc.ToggleLike(ctx, bob.ID, m1.ID)
	require.NoError(t, err)
	_, err = svc.ToggleLike(ctx, bob.ID, m2.ID)
	require.NoError(t, err)

	ids, err := svc.LikedIDs(ctx, bob.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{m1.ID, m2.ID}, ids)

	liked, err := svc.LikedMessages(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, liked, 2)
}
