package client

import (
	"io"
	"sync"
	"time"
)

// bandwidthLimiter is a token bucket measured in bytes per second.
type bandwidthLimiter struct {
	mu     sync.Mutex
	rate   int64   // bytes per second
	tokens float64 // bytes available now
	last   time.Time
}

func newBandwidthLimiter(bytesPerSecond int64) *bandwidthLimiter {
	return &bandwidthLimiter{rate: bytesPerSecond, tokens: float64(bytesPerSecond), last: time.Now()}
}

// SetUploadRateLimit caps PutObject bandwidth. Zero or less removes the cap.
func (c *Client) SetUploadRateLimit(bytesPerSecond int64) {
	c.limitMu.Lock()
	defer c.limitMu.Unlock()

	if bytesPerSecond <= 0 {
		c.uploadLimiter = nil
		return
	}
	if c.uploadLimiter == nil {
		c.uploadLimiter = newBandwidthLimiter(bytesPerSecond)
		return
	}
	lim := c.uploadLimiter
	lim.mu.Lock()
	lim.rate = bytesPerSecond
	if lim.tokens > float64(bytesPerSecond) {
		lim.tokens = float64(bytesPerSecond)
	}
	lim.last = time.Now()
	lim.mu.Unlock()
}

// take blocks until at least one byte may pass and returns how many of want
// are allowed right now.
func (l *bandwidthLimiter) take(want int) int {
	for {
		l.mu.Lock()
		now := time.Now()
		if elapsed := now.Sub(l.last).Seconds(); elapsed > 0 {
			l.tokens += elapsed * float64(l.rate)
			if maxTokens := float64(l.rate); l.tokens > maxTokens {
				l.tokens = maxTokens
			}
			l.last = now
		}
		allowed := int(l.tokens)
		if allowed > 0 {
			if want < allowed {
				allowed = want
			}
			l.mu.Unlock()
			return allowed
		}
		wait := time.Duration(float64(time.Second) / float64(l.rate))
		l.mu.Unlock()
		time.Sleep(wait)
	}
}

func (l *bandwidthLimiter) spend(n int) {
	l.mu.Lock()
	l.tokens -= float64(n)
	l.mu.Unlock()
}

type limitedReader struct {
	under io.Reader
	lim   *bandwidthLimiter
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.lim == nil || lr.lim.rate <= 0 || len(p) == 0 {
		return lr.under.Read(p)
	}
	p = p[:lr.lim.take(len(p))]
	n, err := lr.under.Read(p)
	if n > 0 {
		lr.lim.spend(n)
	}
	return n, err
}

// throttle wraps r with the upload limiter, if one is set.
func (c *Client) throttle(r io.Reader) io.Reader {
	c.limitMu.Lock()
	lim := c.uploadLimiter
	c.limitMu.Unlock()

	if lim == nil {
		return r
	}
	return &limitedReader{under: r, lim: lim}
}
