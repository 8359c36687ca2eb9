package forecast

import (
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/weather"
)

// DefaultLongTerm is used when no long-term narrative could be generated.
const DefaultLongTerm = "長期的な傾向は取得できませんでした。季節要因と曜日を基に需要を見込んでください。"

// FallbackGenerator produces deterministic days for dates outside the AI
// horizon or when the oracle fails.
type FallbackGenerator struct {
	Calendar *Calendar
}

func NewFallbackGenerator(cal *Calendar) *FallbackGenerator {
	if cal == nil {
		cal = DefaultCalendar()
	}
	return &FallbackGenerator{Calendar: cal}
}

// Rank is C, raised to B on Fridays, Saturdays, holidays and holiday eves.
func (g *FallbackGenerator) Rank(date time.Time) Rank {
	rank, _ := g.rank(date)
	return rank
}

func (g *FallbackGenerator) rank(date time.Time) (Rank, string) {
	switch {
	case g.Calendar.IsHoliday(date):
		return RankB, g.Calendar.HolidayName(date) + "のため人出の増加が見込まれます。"
	case g.Calendar.IsHoliday(date.AddDate(0, 0, 1)):
		return RankB, "祝日前日のため夜間の需要増が見込まれます。"
	case date.Weekday() == time.Friday:
		return RankB, "金曜日のため夕方以降の需要増が見込まれます。"
	case date.Weekday() == time.Saturday:
		return RankB, "土曜日のため終日にわたり需要増が見込まれます。"
	default:
		return RankC, "平日のため通常水準の需要が見込まれます。"
	}
}

// Fallback builds the deterministic day. summary may be nil when no
// weather was available for the date.
func (g *FallbackGenerator) Fallback(a area.Area, date time.Time, longTerm string, summary *weather.DailyWeatherSummary) ForecastDay {
	date = weather.StartOfDay(date, a.Location())
	rank, reason := g.rank(date)
	if strings.TrimSpace(longTerm) == "" {
		longTerm = DefaultLongTerm
	}

	var b strings.Builder
	fmt.Fprintf(&b, "【%s の見通し】\n", a.Name)
	fmt.Fprintf(&b, "■ 長期傾向\n%s\n", longTerm)
	fmt.Fprintf(&b, "■ 需要の目安\n%s", reason)

	return ForecastDay{
		Date:        date,
		ISODate:     ISODate(date),
		DisplayDate: DisplayDate(date),
		Rank:        rank,
		Weather:     OverviewOf(summary),
		Narrative:   b.String(),
		IsLongTerm:  true,
	}
}
