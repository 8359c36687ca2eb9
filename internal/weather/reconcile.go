package weather

import (
	"math"
	"strings"
	"time"

	"github.com/i474232898/eagle-eye/internal/area"
)

// Sources bundles the normalized inputs for one area. A nil series means
// the source was not available.
type Sources struct {
	Office  *RawWeatherSeries
	Grid    *RawWeatherSeries
	Station *RawWeatherSeries
}

// slotWindow is a [Start, End) hour range with the anchor hour whose
// sample represents it.
type slotWindow struct {
	Start, End, Anchor int
	// FromHigh approximates a missing slot temperature with the day's high
	// instead of its low.
	FromHigh bool
}

var (
	morningWindow = slotWindow{Start: 6, End: 12, Anchor: 9}
	daytimeWindow = slotWindow{Start: 12, End: 18, Anchor: 15, FromHigh: true}
	nightWindow   = slotWindow{Start: 18, End: 24, Anchor: 21}
)

// Reconciler merges the office, grid and station series into daily
// summaries. Now decides which date counts as "today" for the
// observation correction.
type Reconciler struct {
	Now func() time.Time
}

// NewReconciler returns a Reconciler using now, or time.Now when nil.
func NewReconciler(now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{Now: now}
}

// dayEstimate is one source's opinion of a date.
type dayEstimate struct {
	condition Condition
	high      Measure
	low       Measure
	precip    Measure
}

// Reconcile builds the summary for a on date.
func (r *Reconciler) Reconcile(a area.Area, date time.Time, src Sources) DailyWeatherSummary {
	loc := a.Location()
	day := StartOfDay(date, loc)

	officeRows := src.Office.OnDate(day, loc)
	gridRows := src.Grid.OnDate(day, loc)
	stationRows := src.Station.OnDate(day, loc)

	office := estimateOffice(officeRows)
	grid := estimateGrid(gridRows, loc)

	preferred, other := office, grid
	if a.UrbanSplit {
		preferred, other = grid, office
	}

	summary := DailyWeatherSummary{
		Date:       day,
		Condition:  preferred.condition,
		High:       preferred.high.Or(other.high),
		Low:        preferred.low.Or(other.low),
		PrecipProb: preferred.precip.Or(other.precip),
	}
	if !summary.Condition.Known() {
		summary.Condition = other.condition
	}

	if !summary.High.Valid || !summary.Low.Valid {
		rawHigh, rawLow := extremes(temperatures(gridRows, officeRows, stationRows))
		summary.High = summary.High.Or(rawHigh)
		summary.Low = summary.Low.Or(rawLow)
	}

	if summary.High.Valid && summary.Low.Valid && summary.High.Value < summary.Low.Value {
		summary.High, summary.Low = summary.Low, summary.High
	}

	if r.isToday(day, loc) {
		obsHigh, obsLow := extremes(temperatures(stationRows))
		summary.High = widen(summary.High, obsHigh, math.Max)
		summary.Low = widen(summary.Low, obsLow, math.Min)
		if src.Office != nil && len(src.Office.Warnings) > 0 {
			summary.Warning = strings.Join(src.Office.Warnings, "・")
		}
	}

	summary.High = summary.High.Round()
	summary.Low = summary.Low.Round()

	summary.Morning = buildSlot(morningWindow, gridRows, officeRows, stationRows, summary, loc)
	summary.Daytime = buildSlot(daytimeWindow, gridRows, officeRows, stationRows, summary, loc)
	summary.Night = buildSlot(nightWindow, gridRows, officeRows, stationRows, summary, loc)

	return summary
}

func (r *Reconciler) isToday(day time.Time, loc *time.Location) bool {
	return StartOfDay(r.Now(), loc).Equal(day)
}

// estimateOffice reads provider-issued daily extremes. The condition is the
// first coded entry of the day, which is the short-range value when one
// exists.
func estimateOffice(rows []Sample) dayEstimate {
	est := dayEstimate{condition: ConditionUnknown}
	for _, s := range rows {
		if !est.condition.Known() && s.Condition.Known() {
			est.condition = s.Condition
		}
		est.high = widen(est.high, s.TempMax, math.Max)
		est.low = widen(est.low, s.TempMin, math.Min)
		est.precip = widen(est.precip, s.PrecipProb, math.Max)
	}
	return est
}

// estimateGrid derives the day from hourly samples. The condition is the
// dominant daytime (06-18) code, or the whole day's when daytime has none.
func estimateGrid(rows []Sample, loc *time.Location) dayEstimate {
	est := dayEstimate{condition: ConditionUnknown}
	var daytime, all []Condition
	for _, s := range rows {
		est.high = widen(est.high, s.Temperature, math.Max)
		est.low = widen(est.low, s.Temperature, math.Min)
		est.precip = widen(est.precip, s.PrecipProb, math.Max)

		all = append(all, s.Condition)
		if h := s.Time.In(loc).Hour(); h >= 6 && h < 18 {
			daytime = append(daytime, s.Condition)
		}
	}
	est.condition = dominant(daytime)
	if !est.condition.Known() {
		est.condition = dominant(all)
	}
	return est
}

func buildSlot(w slotWindow, gridRows, officeRows, stationRows []Sample, day DailyWeatherSummary, loc *time.Location) TimeSlotSummary {
	slot := TimeSlotSummary{Condition: ConditionUnknown}

	grid := inWindow(gridRows, w, loc)
	if len(grid) > 0 {
		nearest := grid[0]
		best := anchorDistance(nearest, w, loc)
		for _, s := range grid[1:] {
			if d := anchorDistance(s, w, loc); d < best {
				nearest, best = s, d
			}
		}

		slot.Temperature = nearest.Temperature.Or(average(grid, func(s Sample) Measure { return s.Temperature }))
		slot.Humidity = nearest.Humidity.Or(average(grid, func(s Sample) Measure { return s.Humidity }))
		slot.PrecipProb = nearest.PrecipProb.Or(average(grid, func(s Sample) Measure { return s.PrecipProb }))
		slot.Condition = nearest.Condition
		if !slot.Condition.Known() {
			slot.Condition = dominant(conditions(grid))
		}
	}

	office := inWindow(officeRows, w, loc)
	if !slot.Temperature.Valid {
		observed := append(inWindow(stationRows, w, loc), office...)
		slot.Temperature = average(observed, func(s Sample) Measure { return s.Temperature })
	}
	if !slot.Temperature.Valid {
		if w.FromHigh {
			slot.Temperature = day.High
		} else {
			slot.Temperature = day.Low
		}
	}
	if !slot.PrecipProb.Valid {
		var p Measure
		for _, s := range office {
			p = widen(p, s.PrecipProb, math.Max)
		}
		slot.PrecipProb = p.Or(day.PrecipProb)
	}
	if !slot.Condition.Known() {
		slot.Condition = dominant(conditions(office))
	}
	if !slot.Condition.Known() {
		slot.Condition = day.Condition
	}

	slot.Temperature = slot.Temperature.Round()
	slot.Humidity = slot.Humidity.Round()
	slot.PrecipProb = slot.PrecipProb.Round()
	return slot
}

func inWindow(rows []Sample, w slotWindow, loc *time.Location) []Sample {
	var out []Sample
	for _, s := range rows {
		if h := s.Time.In(loc).Hour(); h >= w.Start && h < w.End {
			out = append(out, s)
		}
	}
	return out
}

func anchorDistance(s Sample, w slotWindow, loc *time.Location) time.Duration {
	t := s.Time.In(loc)
	anchor := time.Date(t.Year(), t.Month(), t.Day(), w.Anchor, 0, 0, 0, loc)
	d := t.Sub(anchor)
	if d < 0 {
		d = -d
	}
	return d
}

func conditions(rows []Sample) []Condition {
	out := make([]Condition, len(rows))
	for i, s := range rows {
		out[i] = s.Condition
	}
	return out
}

func temperatures(groups ...[]Sample) []Measure {
	var out []Measure
	for _, rows := range groups {
		for _, s := range rows {
			out = append(out, s.Temperature)
		}
	}
	return out
}

func average(rows []Sample, field func(Sample) Measure) Measure {
	var sum float64
	var n int
	for _, s := range rows {
		if m := field(s); m.Valid {
			sum += m.Value
			n++
		}
	}
	if n == 0 {
		return Unknown
	}
	return Known(sum / float64(n))
}

// extremes returns the max and min of the known measures.
func extremes(ms []Measure) (high, low Measure) {
	for _, m := range ms {
		high = widen(high, m, math.Max)
		low = widen(low, m, math.Min)
	}
	return high, low
}

// widen combines acc with m using pick, treating unknown as absent.
func widen(acc, m Measure, pick func(a, b float64) float64) Measure {
	switch {
	case !m.Valid:
		return acc
	case !acc.Valid:
		return m
	default:
		return Known(pick(acc.Value, m.Value))
	}
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}
