package forecast

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/weather"
)

var jst = time.FixedZone("JST", 9*60*60)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, jst)
}

func hakodate(t *testing.T) area.Area {
	t.Helper()
	a, err := area.Lookup("hakodate")
	require.NoError(t, err)
	return a
}

func TestRankOrdering(t *testing.T) {
	assert.True(t, RankC.Less(RankB))
	assert.True(t, RankB.Less(RankA))
	assert.True(t, RankA.Less(RankS))
	assert.False(t, RankS.Less(RankS))

	r, ok := ParseRank("A")
	assert.True(t, ok)
	assert.Equal(t, RankA, r)
	_, ok = ParseRank("SS")
	assert.False(t, ok)
}

func TestFallbackRank(t *testing.T) {
	g := NewFallbackGenerator(nil)
	tests := []struct {
		name string
		date time.Time
		want Rank
	}{
		{"tuesday", day(2025, time.October, 14), RankC},
		{"friday", day(2025, time.October, 17), RankB},
		{"saturday", day(2025, time.October, 18), RankB},
		{"plain sunday", day(2025, time.October, 19), RankC},
		{"holiday", day(2025, time.November, 3), RankB},
		{"holiday eve", day(2025, time.November, 2), RankB},
		{"substitute holiday", day(2025, time.November, 24), RankB},
		{"citizens holiday", day(2026, time.September, 22), RankB},
		{"eve after 2027", day(2028, time.January, 9), RankB},
		{"coming of age after 2027", day(2028, time.January, 10), RankB},
		{"plain tuesday after 2027", day(2028, time.January, 11), RankC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Rank(tt.date))
		})
	}
}

func TestDefaultCalendarNames(t *testing.T) {
	c := DefaultCalendar()
	tests := []struct {
		date time.Time
		want string
	}{
		{day(2026, time.January, 1), "元日"},
		{day(2027, time.March, 21), "春分の日"},
		{day(2028, time.January, 10), "成人の日"},
		{day(2030, time.November, 3), "文化の日"},
		{day(2026, time.October, 14), ""},
	}
	for _, tt := range tests {
		t.Run(ISODate(tt.date), func(t *testing.T) {
			assert.Equal(t, tt.want, c.HolidayName(tt.date))
			assert.Equal(t, tt.want != "", c.IsHoliday(tt.date))
		})
	}
}

func TestFixedCalendar(t *testing.T) {
	g := NewFallbackGenerator(NewCalendar(map[string]string{"2025-10-15": "開港記念日"}))
	assert.Equal(t, RankB, g.Rank(day(2025, time.October, 15)))
	assert.Equal(t, RankB, g.Rank(day(2025, time.October, 14)), "eve")
	assert.Equal(t, RankC, g.Rank(day(2025, time.November, 3)), "not in table")
}

func TestFallbackNeverAboveB(t *testing.T) {
	g := NewFallbackGenerator(nil)
	start := day(2025, time.January, 1)
	for i := 0; i < 365*3; i++ {
		r := g.Rank(start.AddDate(0, 0, i))
		assert.False(t, RankB.Less(r), "rank %s on %s", r, start.AddDate(0, 0, i))
	}
}

func TestFallbackDay(t *testing.T) {
	g := NewFallbackGenerator(NewCalendar(nil))
	a := hakodate(t)
	summary := &weather.DailyWeatherSummary{
		Condition:  weather.ConditionSnow,
		High:       weather.Known(2),
		Low:        weather.Known(-4),
		PrecipProb: weather.Unknown,
	}

	fd := g.Fallback(a, time.Date(2025, time.October, 14, 15, 30, 0, 0, jst), "紅葉シーズンで観光客が増加", summary)

	assert.True(t, fd.IsLongTerm)
	assert.Equal(t, RankC, fd.Rank)
	assert.Equal(t, "2025-10-14", fd.ISODate)
	assert.Equal(t, "2025年10月14日 (火)", fd.DisplayDate)
	assert.Contains(t, fd.Narrative, "紅葉シーズンで観光客が増加")
	assert.Contains(t, fd.Narrative, "■ 長期傾向")
	assert.Nil(t, fd.Timeline)
	assert.Empty(t, fd.Advice)
	assert.Equal(t, weather.ConditionSnow, fd.Weather.Condition)
	assert.Equal(t, weather.Known(-4), fd.Weather.Low)

	empty := g.Fallback(a, day(2025, time.October, 14), "  ", nil)
	assert.Contains(t, empty.Narrative, DefaultLongTerm)
	assert.Equal(t, weather.ConditionUnknown, empty.Weather.Condition)
	assert.False(t, empty.Weather.High.Valid)
}

func TestForecastDayJSON(t *testing.T) {
	g := NewFallbackGenerator(nil)
	fd := g.Fallback(hakodate(t), day(2025, time.October, 17), "x", nil)

	b, err := json.Marshal(fd)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "B", raw["rank"])
	assert.Equal(t, true, raw["is_long_term"])
	assert.NotContains(t, raw, "timeline")
	overview := raw["weather_overview"].(map[string]any)
	assert.Nil(t, overview["high"])
}

func TestDayPromptEmbedsWeather(t *testing.T) {
	s := weather.DailyWeatherSummary{
		Date:       day(2025, time.October, 17),
		Condition:  weather.ConditionRain,
		High:       weather.Known(15),
		Low:        weather.Known(8),
		PrecipProb: weather.Known(70),
		Warning:    "大雨注意報",
	}
	p := DayPrompt(hakodate(t), s, "", RankB)

	assert.Contains(t, p, "2025年10月17日 (金)")
	assert.Contains(t, p, "最高 15.0℃")
	assert.Contains(t, p, "大雨注意報")
	assert.Contains(t, p, "特記事項なし")
	assert.Contains(t, p, "基準ランクは B")
	for _, job := range Jobs {
		assert.Contains(t, p, `"`+string(job)+`"`)
	}
}
