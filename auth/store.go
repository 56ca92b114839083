package auth

import (
	"context"

	"github.com/laelblog/blogctl/client"
	"github.com/laelblog/blogctl/db"
)

// TokenStore keeps the session tokens in the credential database.
type TokenStore struct {
	repo db.CredentialRepository
}

var _ client.TokenStore = (*TokenStore)(nil)

// NewTokenStore adapts repo to client.TokenStore.
func NewTokenStore(repo db.CredentialRepository) *TokenStore {
	return &TokenStore{repo: repo}
}

func (s *TokenStore) AccessToken(ctx context.Context) (string, error) {
	return s.repo.Get(ctx, db.AccessTokenKey)
}

func (s *TokenStore) RefreshToken(ctx context.Context) (string, error) {
	return s.repo.Get(ctx, db.RefreshTokenKey)
}

func (s *TokenStore) SaveAccessToken(ctx context.Context, token string) error {
	return s.save(ctx, db.AccessTokenKey, token)
}

func (s *TokenStore) SaveRefreshToken(ctx context.Context, token string) error {
	return s.save(ctx, db.RefreshTokenKey, token)
}

// Clear removes both tokens.
func (s *TokenStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, db.AccessTokenKey, db.RefreshTokenKey)
}

func (s *TokenStore) save(ctx context.Context, key, token string) error {
	if token == "" {
		return s.repo.Delete(ctx, key)
	}
	return s.repo.Put(ctx, key, token)
}
