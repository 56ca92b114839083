package client

import (
	"context"
	"sync"
)

// TokenStore persists credentials across process restarts.
// Saving an empty access token removes it.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SaveAccessToken(ctx context.Context, token string) error
	SaveRefreshToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore is a TokenStore that lives only as long as the process.
type MemoryStore struct {
	mu      sync.Mutex
	access  string
	refresh string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) AccessToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, nil
}

func (s *MemoryStore) RefreshToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh, nil
}

func (s *MemoryStore) SaveAccessToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = token
	return nil
}

func (s *MemoryStore) SaveRefreshToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = token
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = "", ""
	return nil
}
