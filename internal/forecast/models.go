package forecast

import (
	"fmt"
	"time"

	"github.com/i474232898/eagle-eye/internal/weather"
)

// Rank is the demand-intensity class, C lowest and S highest.
type Rank string

const (
	RankC Rank = "C"
	RankB Rank = "B"
	RankA Rank = "A"
	RankS Rank = "S"
)

func (r Rank) level() int {
	switch r {
	case RankC:
		return 1
	case RankB:
		return 2
	case RankA:
		return 3
	case RankS:
		return 4
	default:
		return 0
	}
}

// Valid reports whether r is one of the four ranks.
func (r Rank) Valid() bool { return r.level() > 0 }

// Less reports whether r is a lower demand class than o.
func (r Rank) Less(o Rank) bool { return r.level() < o.level() }

// ParseRank accepts "S", "A", "B" or "C".
func ParseRank(s string) (Rank, bool) {
	r := Rank(s)
	return r, r.Valid()
}

// Job is a business category that receives advice.
type Job string

const (
	JobTaxi       Job = "taxi"
	JobRestaurant Job = "restaurant"
	JobHotel      Job = "hotel"
	JobShop       Job = "shop"
	JobLogistics  Job = "logistics"
	JobConveni    Job = "conveni"
)

// Jobs lists every category in display order.
var Jobs = []Job{JobTaxi, JobRestaurant, JobHotel, JobShop, JobLogistics, JobConveni}

// Label is the Japanese name of the category.
func (j Job) Label() string {
	switch j {
	case JobTaxi:
		return "タクシー"
	case JobRestaurant:
		return "飲食店"
	case JobHotel:
		return "ホテル"
	case JobShop:
		return "お土産"
	case JobLogistics:
		return "物流"
	case JobConveni:
		return "コンビニ"
	default:
		return string(j)
	}
}

// WeatherOverview is the daily weather block of a ForecastDay.
type WeatherOverview struct {
	Condition weather.Condition `json:"condition"`
	Label     string            `json:"label"`
	Icon      string            `json:"icon"`
	High      weather.Measure   `json:"high"`
	Low       weather.Measure   `json:"low"`
	Rain      weather.Measure   `json:"rain"`
	Warning   string            `json:"warning"`
}

// OverviewOf renders a summary; nil yields an all-unknown overview.
func OverviewOf(s *weather.DailyWeatherSummary) WeatherOverview {
	if s == nil {
		c := weather.ConditionUnknown
		return WeatherOverview{Condition: c, Label: c.Label(), Icon: c.Icon()}
	}
	return WeatherOverview{
		Condition: s.Condition,
		Label:     s.Condition.Label(),
		Icon:      s.Condition.Icon(),
		High:      s.High,
		Low:       s.Low,
		Rain:      s.PrecipProb,
		Warning:   s.Warning,
	}
}

// Slot is one part of an AI-generated day.
type Slot struct {
	Weather     string          `json:"weather"`
	Temperature weather.Measure `json:"temp"`
	Humidity    weather.Measure `json:"humidity"`
	PrecipProb  weather.Measure `json:"rain"`
	Advice      map[Job]string  `json:"advice"`
}

// Timeline holds the three slots of a day.
type Timeline struct {
	Morning Slot `json:"morning"`
	Daytime Slot `json:"daytime"`
	Night   Slot `json:"night"`
}

// JobAdvice is a recommendation with the hint of its busiest window.
type JobAdvice struct {
	Advice   string `json:"advice"`
	PeakTime string `json:"peak_time"`
}

// ForecastDay is one (area, date) output record. It is built once and not
// modified afterwards.
type ForecastDay struct {
	Date        time.Time         `json:"-"`
	ISODate     string            `json:"iso_date"`
	DisplayDate string            `json:"date"`
	Rank        Rank              `json:"rank"`
	Weather     WeatherOverview   `json:"weather_overview"`
	Narrative   string            `json:"daily_schedule_and_impact"`
	Timeline    *Timeline         `json:"timeline,omitempty"`
	Advice      map[Job]JobAdvice `json:"advice,omitempty"`
	IsLongTerm  bool              `json:"is_long_term"`
}

// Document maps area keys to their ascending forecast days.
type Document map[string][]ForecastDay

var weekdays = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// DisplayDate formats t as "2006年01月02日 (月)".
func DisplayDate(t time.Time) string {
	return fmt.Sprintf("%s (%s)", t.Format("2006年01月02日"), weekdays[t.Weekday()])
}

// ISODate formats t as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// SlotOf renders a reconciled slot with the given per-job advice.
func SlotOf(ts weather.TimeSlotSummary, advice map[Job]string) Slot {
	if advice == nil {
		advice = map[Job]string{}
	}
	return Slot{
		Weather:     ts.Condition.Icon() + ts.Condition.Label(),
		Temperature: ts.Temperature,
		Humidity:    ts.Humidity,
		PrecipProb:  ts.PrecipProb,
		Advice:      advice,
	}
}
