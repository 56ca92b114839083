package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	refreshEndpoint = "/api/auth/refresh"
	refreshKey      = "refresh"
)

var (
	errNoRefreshToken = errors.New("no refresh token stored")
	errNoAccessToken  = errors.New("refresh response did not contain an access token")
)

func isRefreshEndpoint(endpoint string) bool {
	return strings.Contains(endpoint, refreshEndpoint)
}

// refreshAccessToken returns a new access token, or "" when the session
// could not be renewed. Concurrent callers share one refresh call. The
// refresh itself is not bound to ctx; an error is only returned when ctx
// ends before the shared refresh settles.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		return c.performRefresh(context.WithoutCancel(ctx)), nil
	})
	select {
	case res := <-ch:
		token, _ := res.Val.(string)
		return token, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Client) performRefresh(ctx context.Context) string {
	refreshToken, err := c.store.RefreshToken(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read stored refresh token")
	}
	if refreshToken == "" {
		c.expireSession(ctx, errNoRefreshToken)
		return ""
	}

	tokens, err := c.postRefresh(ctx, refreshToken)
	if err != nil {
		c.expireSession(ctx, err)
		return ""
	}

	if err := c.SetToken(ctx, tokens.AccessToken); err != nil {
		log.Error().Err(err).Msg("Failed to persist refreshed access token")
	}
	if tokens.RefreshToken != "" && tokens.RefreshToken != refreshToken {
		if err := c.store.SaveRefreshToken(ctx, tokens.RefreshToken); err != nil {
			log.Error().Err(err).Msg("Failed to persist rotated refresh token")
		}
	}
	log.Info().Msg("Access token refreshed")
	return tokens.AccessToken
}

type refreshTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	refreshTokens
	Data *refreshTokens `json:"data"`
}

func (r refreshResponse) tokens() refreshTokens {
	if r.AccessToken == "" && r.Data != nil {
		return *r.Data
	}
	return r.refreshTokens
}

// postRefresh exchanges the refresh token. Transport failures are retried
// with a doubling backoff; any HTTP response is final.
func (c *Client) postRefresh(ctx context.Context, refreshToken string) (refreshTokens, error) {
	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return refreshTokens{}, fmt.Errorf("failed to encode refresh request: %w", err)
	}
	target, err := c.resolve(Request{Endpoint: refreshEndpoint})
	if err != nil {
		return refreshTokens{}, fmt.Errorf("failed to build refresh url: %w", err)
	}
	requestID := uuid.NewString()

	backoff := c.refreshBackoff
	var resp *response
	for attempt := 0; ; attempt++ {
		resp, err = c.send(ctx, http.MethodPost, target, payload, "application/json", requestID, "")
		if err == nil {
			break
		}
		if attempt >= c.refreshRetries {
			return refreshTokens{}, fmt.Errorf("refresh request failed after %d attempts: %w", attempt+1, err)
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("Refresh request failed, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return refreshTokens{}, ctx.Err()
		}
		backoff *= 2
	}

	if !resp.ok() {
		message, code := parseErrorBody(resp.body)
		return refreshTokens{}, NewAPIError(message, resp.status, code)
	}
	var decoded refreshResponse
	if err := json.Unmarshal(resp.body, &decoded); err != nil {
		return refreshTokens{}, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	tokens := decoded.tokens()
	if tokens.AccessToken == "" {
		return refreshTokens{}, errNoAccessToken
	}
	return tokens, nil
}

// expireSession forgets both tokens and notifies the session-expired hook.
func (c *Client) expireSession(ctx context.Context, cause error) {
	log.Warn().Err(cause).Msg("Token refresh failed, session expired")
	if err := c.clearCredentials(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to clear credentials after refresh failure")
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}
