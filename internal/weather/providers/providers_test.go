package providers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/resilient"
	"github.com/i474232898/eagle-eye/internal/weather"
)

var jst = time.FixedZone("JST", 9*60*60)

var fastBackoff = resilient.Backoff{MaxAttempts: 3, InitialInterval: time.Millisecond, Multiplier: 2}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func hakodate(t *testing.T) area.Area {
	t.Helper()
	a, err := area.Lookup("hakodate")
	require.NoError(t, err)
	return a
}

const jmaForecastFixture = `[
  {
    "publishingOffice": "函館地方気象台",
    "reportDatetime": "2025-10-14T05:00:00+09:00",
    "timeSeries": [
      {
        "timeDefines": ["2025-10-14T05:00:00+09:00", "2025-10-15T00:00:00+09:00", "2025-10-16T00:00:00+09:00"],
        "areas": [
          {"area": {"name": "檜山地方", "code": "017020"}, "weatherCodes": ["300", "300", "300"]},
          {"area": {"name": "渡島地方", "code": "017010"}, "weatherCodes": ["101", "200", "999"]}
        ]
      },
      {
        "timeDefines": ["2025-10-14T06:00:00+09:00", "2025-10-14T12:00:00+09:00", "2025-10-14T18:00:00+09:00", "2025-10-15T00:00:00+09:00"],
        "areas": [
          {"area": {"name": "渡島地方", "code": "017010"}, "pops": ["10", "bad", "30", "20"]}
        ]
      },
      {
        "timeDefines": ["2025-10-14T09:00:00+09:00", "2025-10-15T00:00:00+09:00", "2025-10-15T09:00:00+09:00"],
        "areas": [
          {"area": {"name": "江差", "code": "23496"}, "temps": ["10", "1", "2"]},
          {"area": {"name": "函館", "code": "23232"}, "temps": ["18", "9", "17"]}
        ]
      }
    ]
  },
  {
    "publishingOffice": "函館地方気象台",
    "reportDatetime": "2025-10-14T05:00:00+09:00",
    "timeSeries": [
      {
        "timeDefines": ["2025-10-15T00:00:00+09:00", "2025-10-16T00:00:00+09:00", "2025-10-17T00:00:00+09:00"],
        "areas": [
          {"area": {"name": "渡島・檜山地方", "code": "017000"}, "weatherCodes": ["300", "201", "400"], "pops": ["", "40", "70"]}
        ]
      },
      {
        "timeDefines": ["2025-10-15T00:00:00+09:00", "2025-10-16T00:00:00+09:00", "2025-10-17T00:00:00+09:00"],
        "areas": [
          {"area": {"name": "函館", "code": "23232"}, "tempsMin": ["", "8", "5"], "tempsMax": ["", "16", "12"]}
        ]
      }
    ]
  }
]`

const jmaWarningFixture = `{
  "reportDatetime": "2025-10-14T05:00:00+09:00",
  "areaTypes": [
    {"areas": [
      {"code": "017010", "warnings": [{"code": "14", "status": "発表"}, {"code": "10", "status": "解除"}, {"code": "20", "status": "継続"}]},
      {"code": "017020", "warnings": [{"code": "03", "status": "発表"}]}
    ]},
    {"areas": []}
  ]
}`

func TestJMAProviderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/forecast/data/forecast/017000.json":
			_, _ = io.WriteString(w, jmaForecastFixture)
		case "/warning/data/warning/017000.json":
			_, _ = io.WriteString(w, jmaWarningFixture)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewJMAProvider(srv.Client(), discardLogger())
	p.baseURL = srv.URL

	series, err := p.Fetch(context.Background(), hakodate(t))
	require.NoError(t, err)
	require.NoError(t, series.Validate())
	assert.Equal(t, weather.SourceOffice, series.Source)
	assert.Equal(t, []string{"雷注意報", "濃霧注意報"}, series.Warnings)

	day14 := series.OnDate(time.Date(2025, 10, 14, 0, 0, 0, 0, jst), jst)
	var cond weather.Condition
	var high weather.Measure
	var pops []weather.Measure
	for _, s := range day14 {
		if s.Condition.Known() {
			cond = s.Condition
		}
		if s.TempMax.Valid {
			high = s.TempMax
		}
		if s.PrecipProb.Valid {
			pops = append(pops, s.PrecipProb)
		}
	}
	assert.Equal(t, weather.ConditionSunny, cond)
	assert.Equal(t, weather.Known(18), high)
	assert.Equal(t, []weather.Measure{weather.Known(10), weather.Known(30)}, pops, "unparseable pop is dropped alone")

	day15 := series.OnDate(time.Date(2025, 10, 15, 0, 0, 0, 0, jst), jst)
	require.NotEmpty(t, day15)
	midnight := day15[0]
	assert.Equal(t, weather.ConditionCloudy, midnight.Condition, "short-range code wins over weekly")
	assert.Equal(t, weather.Known(9), midnight.TempMin)
	assert.Equal(t, weather.Known(20), midnight.PrecipProb)

	day16 := series.OnDate(time.Date(2025, 10, 16, 0, 0, 0, 0, jst), jst)
	require.Len(t, day16, 1)
	assert.Equal(t, weather.ConditionCloudy, day16[0].Condition, "out-of-range code maps to cloudy")
	assert.Equal(t, weather.Known(8), day16[0].TempMin)
	assert.Equal(t, weather.Known(16), day16[0].TempMax)
	assert.Equal(t, weather.Known(40), day16[0].PrecipProb)
}

func jmaServer(t *testing.T, forecast string) *JMAProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/forecast/") {
			_, _ = io.WriteString(w, forecast)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	p := NewJMAProvider(srv.Client(), discardLogger())
	p.baseURL = srv.URL
	return p
}

func TestJMAProviderUnknownPointHasNoTemperatures(t *testing.T) {
	p := jmaServer(t, jmaForecastFixture)
	a := hakodate(t)
	a.ForecastPointCode = "99999"

	series, err := p.Fetch(context.Background(), a)
	require.NoError(t, err)
	for i := 0; i < series.Len(); i++ {
		s := series.At(i)
		assert.False(t, s.TempMin.Valid, s.Time)
		assert.False(t, s.TempMax.Valid, s.Time)
	}
	assert.NotZero(t, series.Len(), "weather codes still parsed")
}

const jmaShiribeshiFixture = `[
  {
    "timeSeries": [
      {
        "timeDefines": ["2025-10-14T05:00:00+09:00"],
        "areas": [
          {"area": {"name": "石狩地方", "code": "016010"}, "weatherCodes": ["100"]},
          {"area": {"name": "後志地方", "code": "016020"}, "weatherCodes": ["300"]}
        ]
      },
      {
        "timeDefines": ["2025-10-14T09:00:00+09:00"],
        "areas": [
          {"area": {"name": "倶知安", "code": "16206"}, "temps": ["11"]},
          {"area": {"name": "札幌", "code": "14163"}, "temps": ["16"]}
        ]
      }
    ]
  }
]`

func TestJMAProviderAreaWithoutOwnPoint(t *testing.T) {
	p := jmaServer(t, jmaShiribeshiFixture)
	otaru, err := area.Lookup("otaru")
	require.NoError(t, err)

	series, err := p.Fetch(context.Background(), otaru)
	require.NoError(t, err)

	var cond weather.Condition
	var high weather.Measure
	for i := 0; i < series.Len(); i++ {
		s := series.At(i)
		if s.Condition.Known() {
			cond = s.Condition
		}
		if s.TempMax.Valid {
			high = s.TempMax
		}
	}
	assert.Equal(t, weather.ConditionRain, cond, "sub-region block, not the first one")
	assert.Equal(t, weather.Known(16), high, "nearest point, not the first one")
}

func TestJMAProviderWarningsOptional(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/forecast/") {
			_, _ = io.WriteString(w, jmaForecastFixture)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewJMAProvider(srv.Client(), discardLogger())
	p.baseURL = srv.URL

	series, err := p.Fetch(context.Background(), hakodate(t))
	require.NoError(t, err)
	assert.Empty(t, series.Warnings)
	assert.NotZero(t, series.Len())
}

func TestJMAProviderMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>maintenance</html>`)
	}))
	defer srv.Close()

	p := NewJMAProvider(srv.Client(), discardLogger())
	p.baseURL = srv.URL

	_, err := p.Fetch(context.Background(), hakodate(t))
	assert.ErrorIs(t, err, weather.ErrMalformedResponse)
}

func TestJMAProviderUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewJMAProvider(srv.Client(), discardLogger())
	p.baseURL = srv.URL
	p.client.Backoff = fastBackoff

	_, err := p.Fetch(context.Background(), hakodate(t))
	assert.ErrorIs(t, err, weather.ErrNotAvailable)
}

const openMeteoFixture = `{
  "timezone": "Asia/Tokyo",
  "hourly": {
    "time": ["2025-10-14T00:00", "2025-10-14T01:00", "not-a-time", "2025-10-14T03:00"],
    "temperature_2m": [10.5, null, 9.0, 8.5],
    "relative_humidity_2m": [80, 82],
    "precipitation_probability": [0, 10, 20, 30],
    "weather_code": [0, 61, 3, null]
  }
}`

func TestOpenMeteoProviderFetch(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = io.WriteString(w, openMeteoFixture)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), discardLogger())
	p.baseURL = srv.URL

	series, err := p.Fetch(context.Background(), hakodate(t))
	require.NoError(t, err)
	require.NoError(t, series.Validate())

	assert.Contains(t, query, "forecast_days=16")
	assert.Contains(t, query, "timezone=Asia%2FTokyo")

	require.Equal(t, 3, series.Len(), "the unparseable timestamp drops only its own sample")
	assert.Equal(t, weather.Known(10.5), series.Temperature[0])
	assert.False(t, series.Temperature[1].Valid)
	assert.Equal(t, weather.ConditionRain, series.Condition[1])
	assert.False(t, series.Humidity[2].Valid, "short humidity array yields unknown")
	assert.Equal(t, weather.ConditionUnknown, series.Condition[2])
	assert.Equal(t, weather.Known(30), series.PrecipProb[2])
}

func TestOpenMeteoProviderEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"hourly": {"time": []}}`)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), discardLogger())
	p.baseURL = srv.URL

	_, err := p.Fetch(context.Background(), hakodate(t))
	assert.ErrorIs(t, err, weather.ErrMalformedResponse)
}

func TestAMeDASProviderFetch(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/amedas/data/point/23232/20251014_00.json":
			_, _ = io.WriteString(w, `{
				"20251014000000": {"temp": [9.1, 0], "humidity": [90, 0]},
				"20251014010000": {"temp": [null, 5]}
			}`)
		case "/amedas/data/point/23232/20251014_03.json":
			_, _ = io.WriteString(w, `{"20251014030000": {"temp": [7.4, 0]}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	now := func() time.Time { return time.Date(2025, 10, 14, 7, 30, 0, 0, jst) }
	p := NewAMeDASProvider(srv.Client(), discardLogger(), now)
	p.baseURL = srv.URL

	series, err := p.Fetch(context.Background(), hakodate(t))
	require.NoError(t, err)
	require.NoError(t, series.Validate())

	assert.Len(t, paths, 3, "blocks 00, 03 and 06 are requested")
	require.Equal(t, 3, series.Len())
	assert.Equal(t, weather.SourceStation, series.Source)
	assert.Equal(t, weather.Known(9.1), series.Temperature[0])
	assert.False(t, series.Temperature[1].Valid)
	assert.Equal(t, weather.Known(7.4), series.Temperature[2])
	assert.Equal(t, weather.Known(90), series.Humidity[0])
}

func TestAMeDASProviderWithoutStation(t *testing.T) {
	p := NewAMeDASProvider(http.DefaultClient, discardLogger(), nil)

	_, err := p.Fetch(context.Background(), area.Area{Key: "x"})
	assert.ErrorIs(t, err, weather.ErrNotAvailable)
}

func TestAMeDASProviderNoBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	now := func() time.Time { return time.Date(2025, 10, 14, 1, 0, 0, 0, jst) }
	p := NewAMeDASProvider(srv.Client(), discardLogger(), now)
	p.baseURL = srv.URL

	_, err := p.Fetch(context.Background(), hakodate(t))
	assert.ErrorIs(t, err, weather.ErrNotAvailable)
}
