package testhelpers

import (
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/chirpstack-social/backend/internal/service"
)

// MemorySessionStore is an in-process SessionStore for tests, mirroring
// the Redis store's semantics: guest sessions hold user id zero, login
// overwrites, logout resets, flashes drain on read.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]uint
	flashes  map[string][]service.Flash
}

var _ service.SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]uint),
		flashes:  make(map[string][]service.Flash),
	}
}

func (s *MemorySessionStore) Start(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.sessions[token] = 0
	return token, nil
}

func (s *MemorySessionStore) Login(ctx context.Context, token string, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = userID
	return nil
}

func (s *MemorySessionStore) Logout(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = 0
	return nil
}

func (s *MemorySessionStore) UserID(ctx context.Context, token string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[token]
	if !ok {
		return 0, service.ErrNoSession
	}
	return id, nil
}

func (s *MemorySessionStore) AddFlash(ctx context.Context, token string, flash service.Flash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashes[token] = append(s.flashes[token], flash)
	return nil
}

func (s *MemorySessionStore) Flashes(ctx context.Context, token string) ([]service.Flash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flashes := s.flashes[token]
	delete(s.flashes, token)
	if flashes == nil {
		flashes = []service.Flash{}
	}
	return flashes, nil
}

// StubS3Client records uploads in memory instead of talking to S3. Set
// Err to make PutObject fail.
type StubS3Client struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

var _ service.S3API = (*StubS3Client)(nil)

func NewStubS3Client() *StubS3Client {
	return &StubS3Client{Objects: make(map[string][]byte)}
}

func (s *StubS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	s.Objects[*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}
