package weather

import (
	"context"
	"errors"

	"github.com/i474232898/eagle-eye/internal/area"
)

var (
	// ErrNotAvailable means the source could not be reached: retries
	// exhausted, non-success status or an open circuit. It is an expected
	// outcome and callers treat the source as absent.
	ErrNotAvailable = errors.New("weather source not available")

	// ErrMalformedResponse means a body arrived but could not be decoded.
	ErrMalformedResponse = errors.New("malformed weather response")
)

// Provider abstracts one weather source (JMA forecast office, Open-Meteo,
// AMeDAS).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, a area.Area) (RawWeatherSeries, error)
}
