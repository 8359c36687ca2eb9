package forecast

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/jp"
)

const substituteHoliday = "振替休日"

var japaneseNames = map[string]string{
	jp.NewYear.Name:                 "元日",
	jp.ComingOfAgeDay.Name:          "成人の日",
	jp.NationalFoundationDay.Name:   "建国記念の日",
	jp.TheEmperorsBirthday.Name:     "天皇誕生日",
	jp.VernalEquinoxDay.Name:        "春分の日",
	jp.ShowaDay.Name:                "昭和の日",
	jp.ConstitutionMemorialDay.Name: "憲法記念日",
	jp.GreeneryDay.Name:             "みどりの日",
	jp.ChildrensDay.Name:            "こどもの日",
	jp.MarineDay.Name:               "海の日",
	jp.MountainDay.Name:             "山の日",
	jp.RespectForTheAgedDay.Name:    "敬老の日",
	jp.AutumnalEquinoxDay.Name:      "秋分の日",
	jp.SportsDay.Name:               "スポーツの日",
	jp.CultureDay.Name:              "文化の日",
	jp.LaborThanksgivingDay.Name:    "勤労感謝の日",

	jp.NationalHolidayBetweenRespectForTheAgedDayAndAutumnalEquinoxDay.Name: "国民の休日",
}

// Calendar answers public-holiday lookups by local date.
type Calendar struct {
	cal *cal.Calendar

	// fixed replaces the rule set when non-nil.
	fixed map[string]string
}

// NewCalendar builds a calendar from a fixed YYYY-MM-DD → name table.
func NewCalendar(holidays map[string]string) *Calendar {
	m := make(map[string]string, len(holidays))
	for k, v := range holidays {
		m[k] = v
	}
	return &Calendar{fixed: m}
}

// DefaultCalendar returns the Japanese national holidays, substitute
// holidays included.
func DefaultCalendar() *Calendar {
	c := &cal.Calendar{Name: "JP", Cacheable: true}
	c.AddHoliday(jp.Holidays...)
	return &Calendar{cal: c}
}

// IsHoliday reports whether date is a public holiday.
func (c *Calendar) IsHoliday(date time.Time) bool {
	return c.HolidayName(date) != ""
}

// HolidayName returns the holiday name or "".
func (c *Calendar) HolidayName(date time.Time) string {
	if c.fixed != nil {
		return c.fixed[ISODate(date)]
	}

	actual, observed, h := c.cal.IsHoliday(date)

	switch {
	case actual:
		if name, ok := japaneseNames[h.Name]; ok {
			return name
		}
		return h.Name
	case observed:
		return substituteHoliday
	default:
		return ""
	}
}
