package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/resilient"
	"github.com/i474232898/eagle-eye/internal/weather"
)

// AMeDASProvider reads today's station observations. Observations are
// published in three-hour point files.
type AMeDASProvider struct {
	name    string
	baseURL string
	client  *resilient.Client
	logger  *slog.Logger
	now     func() time.Time
}

func NewAMeDASProvider(httpClient *http.Client, logger *slog.Logger, now func() time.Time) *AMeDASProvider {
	if now == nil {
		now = time.Now
	}
	return &AMeDASProvider{
		name:    "amedas",
		baseURL: jmaBaseURL,
		client:  resilient.New("amedas", httpClient, resilient.DefaultBackoff, 5*time.Second),
		logger:  logger.With("component", "amedas-provider"),
		now:     now,
	}
}

func (p *AMeDASProvider) Name() string {
	return p.name
}

type amedasObservation struct {
	Temp     []*float64 `json:"temp"`
	Humidity []*float64 `json:"humidity"`
}

func (p *AMeDASProvider) Fetch(ctx context.Context, a area.Area) (weather.RawWeatherSeries, error) {
	if a.StationCode == "" {
		return weather.RawWeatherSeries{}, fmt.Errorf("%w: area %s has no station", weather.ErrNotAvailable, a.Key)
	}

	loc := a.Location()
	now := p.now().In(loc)
	day := weather.StartOfDay(now, loc)

	observations := make(map[string]amedasObservation)
	var firstErr error
	for block := 0; block <= now.Hour(); block += 3 {
		var doc map[string]amedasObservation
		url := fmt.Sprintf("%s/amedas/data/point/%s/%s_%02d.json", p.baseURL, a.StationCode, day.Format("20060102"), block)
		if err := getJSON(ctx, p.client, url, &doc); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			p.logger.Debug("observation block unavailable", "area", a.Key, "block", block, "err", err)
			continue
		}
		for k, v := range doc {
			observations[k] = v
		}
	}

	if len(observations) == 0 {
		if firstErr == nil || errors.Is(firstErr, weather.ErrMalformedResponse) {
			return weather.RawWeatherSeries{}, fmt.Errorf("%w: no observations for %s", weather.ErrNotAvailable, a.StationCode)
		}
		return weather.RawWeatherSeries{}, firstErr
	}

	return parseAMeDAS(observations, loc), nil
}

func parseAMeDAS(observations map[string]amedasObservation, loc *time.Location) weather.RawWeatherSeries {
	type row struct {
		t   time.Time
		obs amedasObservation
	}
	rows := make([]row, 0, len(observations))
	for key, obs := range observations {
		t, err := time.ParseInLocation("20060102150405", key, loc)
		if err != nil {
			continue
		}
		rows = append(rows, row{t: t, obs: obs})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].t.Before(rows[j].t) })

	series := weather.NewSeries(weather.SourceStation)
	for _, r := range rows {
		series.Append(weather.Sample{
			Time:        r.t,
			Temperature: first(r.obs.Temp),
			Humidity:    first(r.obs.Humidity),
		})
	}
	return series
}

// first reads the value of an AMeDAS [value, qualityFlag] pair.
func first(pair []*float64) weather.Measure {
	if len(pair) == 0 {
		return weather.Unknown
	}
	return weather.MeasureOf(pair[0])
}
