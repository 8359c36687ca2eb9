package resilient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Backoff controls the retry schedule. Attempt n (0-based) waits
// InitialInterval * Multiplier^n before the next try.
type Backoff struct {
	MaxAttempts     int
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
}

// DefaultBackoff is three attempts growing by 1.8x.
var DefaultBackoff = Backoff{
	MaxAttempts:     3,
	InitialInterval: 1 * time.Second,
	Multiplier:      1.8,
	MaxInterval:     10 * time.Second,
}

var (
	// ErrUnavailable wraps every outcome where no usable body was obtained.
	ErrUnavailable = errors.New("upstream unavailable")

	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errClientStatus  = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// Client executes requests with per-attempt timeouts, exponential backoff
// and a circuit breaker.
type Client struct {
	HTTP    *http.Client
	Backoff Backoff
	// Timeout bounds a single attempt, including reading the body.
	Timeout time.Duration
	Breaker *gobreaker.CircuitBreaker

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Client with its own breaker named after the upstream.
func New(name string, httpClient *http.Client, backoff Backoff, timeout time.Duration) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// A 4xx is an answer from a healthy upstream, such as a
		// not-yet-published file; only transport errors, 429 and 5xx trip.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errClientStatus)
		},
	})
	return &Client{
		HTTP:    httpClient,
		Backoff: backoff,
		Timeout: timeout,
		Breaker: cb,
	}
}

// RequestBuilder creates a fresh request bound to the attempt context.
type RequestBuilder func(ctx context.Context) (*http.Request, error)

// Do runs build until a 2xx body is read or attempts are exhausted.
func (c *Client) Do(ctx context.Context, build RequestBuilder) ([]byte, error) {
	if c.HTTP == nil {
		return nil, errNoHTTPClient
	}
	if c.Backoff.MaxAttempts <= 0 || c.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var lastErr error
	for attempt := 0; attempt < c.Backoff.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}

		body, err := c.attempt(ctx, build)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w: %v", ErrUnavailable, errCircuitOpen, err)
		}
		if errors.Is(err, errClientStatus) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		lastErr = err
		if attempt == c.Backoff.MaxAttempts-1 {
			break
		}
		if err := c.wait(ctx, c.delay(attempt)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

func (c *Client) attempt(ctx context.Context, build RequestBuilder) ([]byte, error) {
	attemptCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := build(attemptCtx)
	if err != nil {
		return nil, err
	}

	execute := func() (interface{}, error) {
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d", errClientStatus, resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	}

	var result interface{}
	if c.Breaker != nil {
		result, err = c.Breaker.Execute(execute)
	} else {
		result, err = execute()
	}
	if err != nil {
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return body, nil
}

func (c *Client) delay(attempt int) time.Duration {
	mult := c.Backoff.Multiplier
	if mult < 1 {
		mult = 2
	}
	d := time.Duration(float64(c.Backoff.InitialInterval) * math.Pow(mult, float64(attempt)))
	if c.Backoff.MaxInterval > 0 && d > c.Backoff.MaxInterval {
		d = c.Backoff.MaxInterval
	}
	return d
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		return c.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
