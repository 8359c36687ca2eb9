package timezone

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ringsaturn/tzf"
)

// ErrNoTimezone is returned for coordinates outside every zone polygon.
var ErrNoTimezone = errors.New("no timezone at coordinate")

// Resolver maps area coordinates to IANA zone names from tzf's bundled
// polygons. It is safe for concurrent use.
type Resolver struct {
	finder tzf.F
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
	defaultErr      error
)

// Default returns the process-wide resolver. The polygon data is large,
// so it is loaded on first use only.
func Default() (*Resolver, error) {
	defaultOnce.Do(func() {
		finder, err := tzf.NewDefaultFinder()
		if err != nil {
			defaultErr = fmt.Errorf("load timezone polygons: %w", err)
			return
		}
		defaultResolver = &Resolver{finder: finder}
	})
	return defaultResolver, defaultErr
}

// GetTimezone returns the zone name at the coordinate. A name the local
// tzdata cannot load is reported as an error so callers keep their default.
func (r *Resolver) GetTimezone(latitude, longitude float64) (string, error) {
	name := r.finder.GetTimezoneName(longitude, latitude)
	if name == "" {
		return "", fmt.Errorf("%w: lat=%.4f lon=%.4f", ErrNoTimezone, latitude, longitude)
	}
	if _, err := time.LoadLocation(name); err != nil {
		return "", fmt.Errorf("load location %q: %w", name, err)
	}
	return name, nil
}
