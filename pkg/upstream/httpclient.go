package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 64 * 1024

// RateLimitedClient wraps an *http.Client with a per-adapter-instance
// rate limiter and bounded retry for transient failures, grounded on the
// teacher's GitHubProvider (rate.NewLimiter(100, 200) ahead of every
// outbound call). pkg/upstream/github and pkg/upstream/discord both embed
// one.
type RateLimitedClient struct {
	http    *http.Client
	limiter *rate.Limiter
	agent   string
}

// NewRateLimitedClient builds a client carrying agent as its User-Agent
// header on every outbound request.
func NewRateLimitedClient(agent string) *RateLimitedClient {
	return &RateLimitedClient{
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(100, 200),
		agent:   agent,
	}
}

// GetRetrying performs a GET with the rate limiter and a bounded
// exponential backoff retry on transient (5xx/network) failures. It is
// used only for identity-fetch subcalls, never for code/refresh
// exchanges, where a retried request risks a double redemption upstream.
func (c *RateLimitedClient) GetRetrying(ctx context.Context, url, authHeader string) ([]byte, error) {
	op := func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		body, status, err := c.doGet(ctx, url, authHeader)
		if err != nil {
			return nil, err
		}
		if status >= 500 {
			return nil, fmt.Errorf("%w: status %d", ErrIdentityFetchFailed, status)
		}
		if status != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("%w: status %d", ErrIdentityFetchFailed, status))
		}
		return body, nil
	}

	return backoff.Retry(ctx, op, backoff.WithMaxTries(3))
}

func (c *RateLimitedClient) doGet(ctx context.Context, url, authHeader string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.agent)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}
