package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/resilient"
	"github.com/i474232898/eagle-eye/internal/weather"
)

// OpenMeteoForecastDays is the number of hourly forecast days requested.
const OpenMeteoForecastDays = 16

// OpenMeteoProvider reads the grid-point hourly forecast.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	days    int
	client  *resilient.Client
	logger  *slog.Logger
}

func NewOpenMeteoProvider(httpClient *http.Client, logger *slog.Logger) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		days:    OpenMeteoForecastDays,
		client:  resilient.New("openmeteo", httpClient, resilient.DefaultBackoff, 15*time.Second),
		logger:  logger.With("component", "openmeteo-provider"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoPayload struct {
	Timezone string `json:"timezone"`
	Hourly   struct {
		Time                     []string   `json:"time"`
		Temperature2m            []*float64 `json:"temperature_2m"`
		RelativeHumidity2m       []*float64 `json:"relative_humidity_2m"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		WeatherCode              []*float64 `json:"weather_code"`
	} `json:"hourly"`
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, a area.Area) (weather.RawWeatherSeries, error) {
	loc := a.Location()

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", a.Lat))
	values.Set("longitude", fmt.Sprintf("%f", a.Lon))
	values.Set("hourly", "temperature_2m,relative_humidity_2m,precipitation_probability,weather_code")
	tz := a.Timezone
	if tz == "" {
		tz = area.DefaultTimezone
	}
	values.Set("timezone", tz)
	values.Set("forecast_days", strconv.Itoa(p.days))

	var payload openMeteoPayload
	if err := getJSON(ctx, p.client, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.RawWeatherSeries{}, err
	}
	if len(payload.Hourly.Time) == 0 {
		return weather.RawWeatherSeries{}, fmt.Errorf("%w: no hourly samples", weather.ErrMalformedResponse)
	}

	series, skipped := parseOpenMeteoHourly(payload, loc)
	if skipped > 0 {
		p.logger.Debug("skipped unparseable hourly samples", "area", a.Key, "count", skipped)
	}
	return series, nil
}

func parseOpenMeteoHourly(payload openMeteoPayload, loc *time.Location) (weather.RawWeatherSeries, int) {
	h := payload.Hourly
	series := weather.NewSeries(weather.SourceGrid)
	skipped := 0

	for i, raw := range h.Time {
		ts, err := parseTime(raw, loc)
		if err != nil {
			skipped++
			continue
		}

		cond := weather.ConditionUnknown
		if c := optional(h.WeatherCode, i); c.Valid {
			cond = weather.FromWMOCode(int(c.Value))
		}

		series.Append(weather.Sample{
			Time:        ts,
			Condition:   cond,
			Temperature: optional(h.Temperature2m, i),
			Humidity:    optional(h.RelativeHumidity2m, i),
			PrecipProb:  optional(h.PrecipitationProbability, i),
		})
	}
	return series, skipped
}

// optional reads values[i], treating short arrays and nulls as unknown.
func optional(values []*float64, i int) weather.Measure {
	if i >= len(values) {
		return weather.Unknown
	}
	return weather.MeasureOf(values[i])
}
