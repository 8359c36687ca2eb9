package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// Source tags which upstream produced a series.
type Source string

const (
	SourceOffice  Source = "office-forecast"
	SourceGrid    Source = "grid-hourly"
	SourceStation Source = "station-observation"
)

// Measure is a numeric value that may be unknown. The zero value is unknown.
type Measure struct {
	Value float64
	Valid bool
}

// Known wraps v as a known measure.
func Known(v float64) Measure { return Measure{Value: v, Valid: true} }

// Unknown is the explicit no-data marker.
var Unknown = Measure{}

// MeasureOf converts an optional JSON number.
func MeasureOf(p *float64) Measure {
	if p == nil || math.IsNaN(*p) {
		return Unknown
	}
	return Known(*p)
}

// Or returns m if known, otherwise alt.
func (m Measure) Or(alt Measure) Measure {
	if m.Valid {
		return m
	}
	return alt
}

// Round returns m rounded to one decimal place.
func (m Measure) Round() Measure {
	if !m.Valid {
		return m
	}
	return Known(math.Round(m.Value*10) / 10)
}

func (m Measure) String() string {
	if !m.Valid {
		return "unknown"
	}
	return fmt.Sprintf("%.1f", m.Value)
}

// MarshalJSON renders unknown measures as null.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Measure) UnmarshalJSON(b []byte) error {
	var p *float64
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = MeasureOf(p)
	return nil
}

var errSeriesShape = errors.New("series arrays are not aligned with the time axis")

// RawWeatherSeries is one provider's normalized output. Every column has
// the length of Times; a missing sample is an Unknown entry or
// ConditionUnknown, never an omitted element.
type RawWeatherSeries struct {
	Source Source      `json:"source"`
	Times  []time.Time `json:"times"`

	Condition   []Condition `json:"condition"`
	Temperature []Measure   `json:"temperature"`
	// TempMin and TempMax carry provider-issued daily extremes.
	TempMin    []Measure `json:"tempMin"`
	TempMax    []Measure `json:"tempMax"`
	PrecipProb []Measure `json:"precipProb"`
	Humidity   []Measure `json:"humidity"`

	// Warnings lists currently active warning names (office only).
	Warnings []string `json:"warnings,omitempty"`
}

// Sample is one row of a series.
type Sample struct {
	Time        time.Time
	Condition   Condition
	Temperature Measure
	TempMin     Measure
	TempMax     Measure
	PrecipProb  Measure
	Humidity    Measure
}

// NewSeries returns an empty series for src.
func NewSeries(src Source) RawWeatherSeries {
	return RawWeatherSeries{Source: src}
}

// Len is the length of the time axis.
func (s *RawWeatherSeries) Len() int { return len(s.Times) }

// Append adds one row, keeping every column aligned.
func (s *RawWeatherSeries) Append(row Sample) {
	if row.Condition == "" {
		row.Condition = ConditionUnknown
	}
	s.Times = append(s.Times, row.Time)
	s.Condition = append(s.Condition, row.Condition)
	s.Temperature = append(s.Temperature, row.Temperature)
	s.TempMin = append(s.TempMin, row.TempMin)
	s.TempMax = append(s.TempMax, row.TempMax)
	s.PrecipProb = append(s.PrecipProb, row.PrecipProb)
	s.Humidity = append(s.Humidity, row.Humidity)
}

// At returns row i.
func (s *RawWeatherSeries) At(i int) Sample {
	return Sample{
		Time:        s.Times[i],
		Condition:   s.Condition[i],
		Temperature: s.Temperature[i],
		TempMin:     s.TempMin[i],
		TempMax:     s.TempMax[i],
		PrecipProb:  s.PrecipProb[i],
		Humidity:    s.Humidity[i],
	}
}

// Validate checks column alignment and ascending order.
func (s *RawWeatherSeries) Validate() error {
	n := len(s.Times)
	for _, l := range []int{len(s.Condition), len(s.Temperature), len(s.TempMin), len(s.TempMax), len(s.PrecipProb), len(s.Humidity)} {
		if l != n {
			return fmt.Errorf("%w: %s has %d times but a column of %d", errSeriesShape, s.Source, n, l)
		}
	}
	for i := 1; i < n; i++ {
		if s.Times[i].Before(s.Times[i-1]) {
			return fmt.Errorf("%s: time axis not ascending at %d", s.Source, i)
		}
	}
	return nil
}

// OnDate returns the rows whose local calendar date equals date.
func (s *RawWeatherSeries) OnDate(date time.Time, loc *time.Location) []Sample {
	if s == nil {
		return nil
	}
	y, m, d := date.In(loc).Date()
	var out []Sample
	for i, ts := range s.Times {
		ty, tm, td := ts.In(loc).Date()
		if ty == y && tm == m && td == d {
			out = append(out, s.At(i))
		}
	}
	return out
}

// TimeSlotSummary is the representative reading for one part of a day.
type TimeSlotSummary struct {
	Condition   Condition `json:"condition"`
	Temperature Measure   `json:"temperature"`
	Humidity    Measure   `json:"humidity"`
	PrecipProb  Measure   `json:"precipProb"`
}

// DailyWeatherSummary is the reconciled view of one area on one date.
type DailyWeatherSummary struct {
	Date       time.Time `json:"date"`
	Condition  Condition `json:"condition"`
	High       Measure   `json:"high"`
	Low        Measure   `json:"low"`
	PrecipProb Measure   `json:"precipProb"`
	Warning    string    `json:"warning,omitempty"`

	Morning TimeSlotSummary `json:"morning"`
	Daytime TimeSlotSummary `json:"daytime"`
	Night   TimeSlotSummary `json:"night"`
}

// HasWarning reports whether a warning is active.
func (d DailyWeatherSummary) HasWarning() bool { return d.Warning != "" }
