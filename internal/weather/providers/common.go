package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/eagle-eye/internal/resilient"
	"github.com/i474232898/eagle-eye/internal/weather"
)

// getJSON fetches url through c and decodes the body into v. Transport
// failures map to weather.ErrNotAvailable and decode failures to
// weather.ErrMalformedResponse.
func getJSON(ctx context.Context, c *resilient.Client, url string, v any) error {
	body, err := c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", weather.ErrNotAvailable, err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", weather.ErrMalformedResponse, err)
	}
	return nil
}

// parseNumber reads JMA's string-encoded numbers; empty or invalid text is
// unknown.
func parseNumber(s string) weather.Measure {
	s = strings.TrimSpace(s)
	if s == "" {
		return weather.Unknown
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return weather.Unknown
	}
	return weather.Known(v)
}

// parseTime accepts RFC3339 and the offset-less minute format used by
// Open-Meteo, interpreting the latter in loc.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.In(loc), nil
	}
	return time.ParseInLocation("2006-01-02T15:04", s, loc)
}
