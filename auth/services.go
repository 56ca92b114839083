package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/laelblog/blogctl/client"
	"github.com/laelblog/blogctl/pkg/validation"
	"github.com/rs/zerolog/log"
)

// Service orchestrates sign-in and sign-out using its dependencies.
type Service struct {
	API   API
	Store client.TokenStore
	now   func() time.Time
}

// NewService is the constructor for the auth service.
func NewService(api API, store client.TokenStore) *Service {
	return &Service{API: api, Store: store, now: time.Now}
}

// Login validates the credentials locally and signs in.
func (s *Service) Login(ctx context.Context, email, password string) (*client.Admin, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonEmptyString("password", password); err != nil {
		return nil, err
	}

	resp, err := s.API.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return &resp.Admin, nil
}

// Logout signs out. Local tokens are gone afterwards even when the server
// call fails; a 401 from the server means the session was already over and
// is not reported.
func (s *Service) Logout(ctx context.Context) error {
	err := s.API.Logout(ctx)
	if err != nil && client.IsUnauthorized(err) {
		log.Debug().Err(err).Msg("Session was already invalid on the server")
		return nil
	}
	if err != nil {
		return fmt.Errorf("logout failed on the server, local session cleared: %w", err)
	}
	return nil
}

// Status reports on the stored credentials without contacting the server.
func (s *Service) Status(ctx context.Context) (Session, error) {
	access, err := s.Store.AccessToken(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("failed to read access token: %w", err)
	}
	refresh, err := s.Store.RefreshToken(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("failed to read refresh token: %w", err)
	}
	return InspectToken(access, refresh, s.now()), nil
}

// WhoAmI asks the server who the stored token belongs to.
func (s *Service) WhoAmI(ctx context.Context) (*client.Admin, Session, error) {
	session, err := s.Status(ctx)
	if err != nil {
		return nil, Session{}, err
	}
	if !session.Authenticated {
		return nil, session, fmt.Errorf("not logged in")
	}
	admin, err := s.API.Me(ctx)
	if err != nil {
		return nil, session, err
	}
	// Me may have refreshed the token
	if fresh, err := s.Status(ctx); err == nil {
		session = fresh
	}
	return admin, session, nil
}
