package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// loginResponse carries the tokens at the top level. Some deployments wrap
// them in data instead.
type loginResponse struct {
	AuthResponse
	Data *AuthResponse `json:"data"`
}

func (r loginResponse) auth() AuthResponse {
	if r.AccessToken == "" && r.Data != nil {
		return *r.Data
	}
	return r.AuthResponse
}

// Login exchanges credentials for tokens and stores both of them.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var raw loginResponse
	err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: "/api/auth/login",
		Body:     map[string]string{"email": email, "password": password},
	}, &raw)
	if err != nil {
		return nil, err
	}
	resp := raw.auth()
	if resp.AccessToken == "" {
		return nil, NewAPIError("Login response did not contain an access token", 0, CodeInvalidResponse)
	}

	if err := c.SetToken(ctx, resp.AccessToken); err != nil {
		return nil, err
	}
	if resp.RefreshToken != "" {
		if err := c.store.SaveRefreshToken(ctx, resp.RefreshToken); err != nil {
			return nil, fmt.Errorf("failed to persist refresh token: %w", err)
		}
	}
	log.Info().Str("email", resp.Admin.Email).Msg("Logged in")
	return &resp, nil
}

// Logout ends the session on the server. Local tokens are cleared whatever
// the server answers; its error, if any, is still returned.
func (c *Client) Logout(ctx context.Context) error {
	var refreshToken string
	if rt, err := c.store.RefreshToken(ctx); err == nil {
		refreshToken = rt
	}

	var body any
	if refreshToken != "" {
		body = map[string]string{"refreshToken": refreshToken}
	}
	serverErr := c.Do(ctx, Request{Method: http.MethodPost, Endpoint: "/api/auth/logout", Body: body}, nil)
	if serverErr != nil {
		log.Warn().Err(serverErr).Msg("Server logout failed, clearing local session anyway")
	}

	if err := c.clearCredentials(ctx); err != nil {
		return err
	}
	return serverErr
}

// Me returns the signed-in administrator. The backend answers with the same
// shape as login, without tokens.
func (c *Client) Me(ctx context.Context) (*Admin, error) {
	var raw loginResponse
	if err := c.Do(ctx, Request{Endpoint: "/api/auth/me"}, &raw); err != nil {
		return nil, err
	}
	if raw.Admin.ID == 0 && raw.Admin.Email == "" && raw.Data != nil {
		return &raw.Data.Admin, nil
	}
	return &raw.Admin, nil
}

// Health checks the backend.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.Do(ctx, Request{Endpoint: "/api/health"}, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
