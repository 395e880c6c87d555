package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionCookie is the fixed cookie name carrying the opaque session
// token. The cookie itself lives for the browser session; the server-side
// mapping expires after the configured TTL.
const SessionCookie = "session"

// Flash categories understood by the rendering frontend.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashWarning = "warning"
	FlashPrimary = "primary"
)

// Flash is a one-time, category-tagged user notification. It is consumed
// exactly once: reading drains the queue.
type Flash struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// SessionStore maps opaque tokens to user identities and carries the
// flash channel. A user id of zero means anonymous: guests get a session
// too so flashes survive the redirect to the login page.
type SessionStore interface {
	// Start creates an anonymous session and returns its token.
	Start(ctx context.Context) (string, error)
	// Login binds the session to a user, overwriting any previous
	// identity on the same token.
	Login(ctx context.Context, token string, userID uint) error
	// Logout resets the session to anonymous. Idempotent.
	Logout(ctx context.Context, token string) error
	// UserID resolves a token. Zero means anonymous; ErrNoSession means
	// the token is unknown or expired.
	UserID(ctx context.Context, token string) (uint, error)
	// AddFlash queues a flash message on the session.
	AddFlash(ctx context.Context, token string, flash Flash) error
	// Flashes returns all queued flash messages and clears them.
	Flashes(ctx context.Context, token string) ([]Flash, error)
}

// RedisSessionStore is the production SessionStore.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ SessionStore = (*RedisSessionStore)(nil)

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(token string) string { return "session:" + token }
func flashKey(token string) string   { return "flash:" + token }

func (s *RedisSessionStore) Start(ctx context.Context) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, sessionKey(token), "0", s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisSessionStore) Login(ctx context.Context, token string, userID uint) error {
	return s.client.Set(ctx, sessionKey(token), strconv.FormatUint(uint64(userID), 10), s.ttl).Err()
}

func (s *RedisSessionStore) Logout(ctx context.Context, token string) error {
	return s.client.Set(ctx, sessionKey(token), "0", s.ttl).Err()
}

func (s *RedisSessionStore) UserID(ctx context.Context, token string) (uint, error) {
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNoSession
		}
		return 0, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, ErrNoSession
	}
	return uint(id), nil
}

func (s *RedisSessionStore) AddFlash(ctx context.Context, token string, flash Flash) error {
	data, err := json.Marshal(flash)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, flashKey(token), data)
	pipe.Expire(ctx, flashKey(token), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisSessionStore) Flashes(ctx context.Context, token string) ([]Flash, error) {
	pipe := s.client.TxPipeline()
	items := pipe.LRange(ctx, flashKey(token), 0, -1)
	pipe.Del(ctx, flashKey(token))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	raw, err := items.Result()
	if err != nil {
		return nil, err
	}

	flashes := make([]Flash, 0, len(raw))
	for _, r := range raw {
		var f Flash
		if err := json.Unmarshal([]byte(r), &f); err != nil {
			continue
		}
		flashes = append(flashes, f)
	}
	return flashes, nil
}
