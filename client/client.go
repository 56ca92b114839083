package client

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the production blog backend.
const DefaultBaseURL = "https://lael-blog-api.wini.workers.dev"

const (
	defaultTimeout        = 30 * time.Second
	defaultUserAgent      = "blogctl"
	defaultRefreshRetries = 2
	defaultRefreshBackoff = 500 * time.Millisecond
)

// Client talks to the blog backend. It is safe for concurrent use.
//
// Every call goes through Do, which refuses to contact the server while a
// previous 429 is still in effect, attaches the bearer token, refreshes the
// token once on a 401 and replays the call, and turns every failure into a
// *RateLimitError or an *APIError.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	store            TokenStore
	now              func() time.Time
	onSessionExpired func()
	userAgent        string
	refreshRetries   int
	refreshBackoff   time.Duration
	uploadLimiter    *bandwidthLimiter

	tokenMu sync.RWMutex
	token   string

	limitMu          sync.Mutex
	rateLimitedUntil time.Time

	refreshGroup singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTokenStore sets where credentials are persisted. The default keeps
// them in memory only.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.store = store }
}

// WithClock overrides the wall clock used for rate-limit bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithSessionExpiredHandler registers fn to run after a failed token
// refresh has cleared the stored credentials.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// WithRefreshRetry bounds how often a refresh call is retried after a
// transport failure, and the initial backoff between attempts.
func WithRefreshRetry(retries int, backoff time.Duration) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.refreshRetries = retries
		}
		if backoff >= 0 {
			c.refreshBackoff = backoff
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithUploadRateLimit caps direct-to-storage upload bandwidth.
func WithUploadRateLimit(bytesPerSecond int64) Option {
	return func(c *Client) { c.SetUploadRateLimit(bytesPerSecond) }
}

// New creates a Client for baseURL and loads any persisted access token.
func New(baseURL string, opts ...Option) *Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create cookie jar, cookies will not be kept")
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{Timeout: defaultTimeout, Jar: jar},
		store:          NewMemoryStore(),
		now:            time.Now,
		userAgent:      defaultUserAgent,
		refreshRetries: defaultRefreshRetries,
		refreshBackoff: defaultRefreshBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}

	token, err := c.store.AccessToken(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load stored access token")
	}
	c.token = token
	return c
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string { return c.baseURL }

// Token returns the current access token, or "" when unauthenticated.
func (c *Client) Token() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token
}

// SetToken replaces the access token in memory and in the store.
// An empty token signs the client out and removes the persisted copy.
func (c *Client) SetToken(ctx context.Context, token string) error {
	c.tokenMu.Lock()
	c.token = token
	c.tokenMu.Unlock()

	if err := c.store.SaveAccessToken(ctx, token); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	return nil
}

// clearCredentials forgets both tokens.
func (c *Client) clearCredentials(ctx context.Context) error {
	c.tokenMu.Lock()
	c.token = ""
	c.tokenMu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear stored credentials: %w", err)
	}
	return nil
}

// IsRateLimited reports whether requests are currently refused locally.
func (c *Client) IsRateLimited() bool {
	return c.RateLimitWait() > 0
}

// RateLimitWait returns the whole seconds left until requests are allowed
// again, rounded up, or 0 when not rate limited.
func (c *Client) RateLimitWait() int {
	c.limitMu.Lock()
	until := c.rateLimitedUntil
	c.limitMu.Unlock()

	remaining := until.Sub(c.now())
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}

// ClearRateLimit lifts a local rate limit before it expires.
func (c *Client) ClearRateLimit() {
	c.limitMu.Lock()
	c.rateLimitedUntil = time.Time{}
	c.limitMu.Unlock()
}

func (c *Client) setRateLimit(seconds int) {
	c.limitMu.Lock()
	c.rateLimitedUntil = c.now().Add(time.Duration(seconds) * time.Second)
	c.limitMu.Unlock()
}
