package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
)

const maxErrorPreview = 200

// Request describes one call to the backend.
type Request struct {
	Method   string
	Endpoint string // path under the base URL, or an absolute URL
	Query    url.Values

	// Body is encoded as JSON. Raw, when set, is sent as-is with
	// RawContentType instead (multipart forms, binary uploads).
	Body           any
	Raw            []byte
	RawContentType string

	// SkipAuth omits the Authorization header. A 401 still triggers a
	// refresh, and the replay carries the new token.
	SkipAuth bool
	// SkipRateLimitCheck sends the call even while rate limited.
	SkipRateLimitCheck bool
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r *response) ok() bool { return r.status >= 200 && r.status < 300 }

// Do sends r and decodes a successful JSON body into out. out may be nil.
//
// Every failure is either a *RateLimitError or an *APIError.
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	if !r.SkipRateLimitCheck {
		if wait := c.RateLimitWait(); wait > 0 {
			log.Debug().Str("endpoint", r.Endpoint).Int("retry_after", wait).Msg("Request refused locally, still rate limited")
			return NewRateLimitError(fmt.Sprintf("Rate limited. Please wait %d seconds.", wait), wait)
		}
	}

	if r.Method == "" {
		r.Method = http.MethodGet
	}
	target, err := c.resolve(r)
	if err != nil {
		return NewAPIError("Invalid request URL", 0, CodeInvalidRequest).withCause(err)
	}
	payload, contentType, err := encodeBody(r)
	if err != nil {
		return NewAPIError("Failed to encode request body", 0, CodeInvalidRequest).withCause(err)
	}
	requestID := uuid.NewString()

	token := ""
	if !r.SkipAuth {
		token = c.Token()
	}
	resp, err := c.send(ctx, r.Method, target, payload, contentType, requestID, token)
	if err != nil {
		return err
	}
	if resp.status == http.StatusTooManyRequests {
		return c.rateLimited(resp)
	}

	if resp.status == http.StatusUnauthorized && !isRefreshEndpoint(r.Endpoint) {
		newToken, err := c.refreshAccessToken(ctx)
		if err != nil {
			return NewAPIError("Request canceled", 0, CodeNetworkError).withCause(err)
		}
		if newToken != "" {
			log.Debug().Str("request_id", requestID).Str("url", target).Msg("Replaying request with refreshed token")
			resp, err = c.send(ctx, r.Method, target, payload, contentType, requestID, newToken)
			if err != nil {
				return err
			}
			if resp.status == http.StatusTooManyRequests {
				return c.rateLimited(resp)
			}
		}
	}

	if !resp.ok() {
		message, code := parseErrorBody(resp.body)
		return NewAPIError(message, resp.status, code)
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		log.Error().Err(err).Str("url", target).Str("body_preview", preview(resp.body)).Msg("Failed to parse response JSON")
		return NewAPIError("Invalid response from server", resp.status, CodeInvalidResponse).withCause(err)
	}
	return nil
}

func (c *Client) resolve(r Request) (string, error) {
	raw := r.Endpoint
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if !strings.HasPrefix(raw, "/") {
			raw = "/" + raw
		}
		raw = c.baseURL + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if len(r.Query) > 0 {
		q := u.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func encodeBody(r Request) ([]byte, string, error) {
	if r.Raw != nil {
		return r.Raw, r.RawContentType, nil
	}
	if r.Body == nil {
		return nil, "application/json", nil
	}
	b, err := json.Marshal(r.Body)
	if err != nil {
		return nil, "", err
	}
	return b, "application/json", nil
}

// send performs one HTTP exchange and reads the whole body.
func (c *Client) send(ctx context.Context, method, target string, payload []byte, contentType, requestID, token string) (*response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("url", target).Msg("Failed to create HTTP request object")
		return nil, NewAPIError("Invalid request", 0, CodeInvalidRequest).withCause(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	log.Debug().Str("method", method).Str("url", target).Str("request_id", requestID).Msg("Sending HTTP request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("url", target).Str("request_id", requestID).Msg("HTTP request failed")
		return nil, NewAPIError("Network error. Please check your connection.", 0, CodeNetworkError).withCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("url", target).Msg("Failed to read response body")
		return nil, NewAPIError("Failed to read response", resp.StatusCode, CodeNetworkError).withCause(err)
	}
	log.Debug().Str("method", method).Str("url", target).Str("request_id", requestID).Int("status", resp.StatusCode).Msg("HTTP request finished")
	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

func (c *Client) rateLimited(resp *response) error {
	wait := parseRetryAfter(resp.header.Get("Retry-After"), c.now())
	c.setRateLimit(wait)

	message, _ := parseErrorBody(resp.body)
	if message == defaultErrorMessage {
		message = defaultRateLimitMessage
	}
	log.Warn().Int("retry_after", wait).Msg("Rate limited by server")
	return NewRateLimitError(message, wait)
}

// parseRetryAfter accepts delta-seconds or an HTTP date. Seconds are read
// up to the first non-digit, so "30.5" is 30. Anything else, including a
// negative value, falls back to 60 seconds.
func parseRetryAfter(value string, now time.Time) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultRetryAfter
	}
	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d <= 0 {
			return 0
		}
		return int(math.Ceil(d.Seconds()))
	}
	digits := strings.TrimLeft(value, "+")
	if end := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }); end >= 0 {
		digits = digits[:end]
	}
	secs, err := strconv.Atoi(digits)
	if err != nil || len(digits) == 0 {
		return defaultRetryAfter
	}
	return secs
}

type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

type errorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// parseErrorBody extracts {error:{message,code}} from a failed response. It
// never fails: missing or unreadable fields fall back to defaults.
func parseErrorBody(body []byte) (message, code string) {
	message, code = defaultErrorMessage, CodeUnknown

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return message, code
	}

	var eb errorBody
	if err := json.Unmarshal(trimmed, &eb); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(string(trimmed))
		if rerr != nil {
			log.Debug().Err(err).Str("body_preview", preview(trimmed)).Msg("Unparseable error body")
			return message, code
		}
		eb = errorBody{}
		if err := json.Unmarshal([]byte(repaired), &eb); err != nil {
			return message, code
		}
	}

	var detail errorDetail
	var text string
	switch {
	case len(eb.Error) > 0 && json.Unmarshal(eb.Error, &detail) == nil:
		if detail.Message != "" {
			message = detail.Message
		}
		if detail.Code != "" {
			code = detail.Code
		}
	case len(eb.Error) > 0 && json.Unmarshal(eb.Error, &text) == nil && text != "":
		message = text
	}
	if message == defaultErrorMessage && eb.Message != "" {
		message = eb.Message
	}
	if code == CodeUnknown && eb.Code != "" {
		code = eb.Code
	}
	return message, code
}

func preview(b []byte) string {
	if len(b) > maxErrorPreview {
		return string(b[:maxErrorPreview])
	}
	return string(b)
}
