package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/common"
	"github.com/i474232898/eagle-eye/internal/resilient"
	"github.com/i474232898/eagle-eye/internal/weather"
)

const jmaBaseURL = "https://www.jma.go.jp/bosai"

// JMAProvider reads the regional forecast office documents: the
// short-range and weekly forecast plus the warnings document.
type JMAProvider struct {
	name    string
	baseURL string
	client  *resilient.Client
	logger  *slog.Logger
}

func NewJMAProvider(httpClient *http.Client, logger *slog.Logger) *JMAProvider {
	return &JMAProvider{
		name:    "jma",
		baseURL: jmaBaseURL,
		client:  resilient.New("jma", httpClient, resilient.DefaultBackoff, 10*time.Second),
		logger:  logger.With("component", "jma-provider"),
	}
}

func (p *JMAProvider) Name() string {
	return p.name
}

type jmaArea struct {
	Area struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"area"`
	WeatherCodes []string `json:"weatherCodes"`
	Pops         []string `json:"pops"`
	Temps        []string `json:"temps"`
	TempsMin     []string `json:"tempsMin"`
	TempsMax     []string `json:"tempsMax"`
}

type jmaTimeSeries struct {
	TimeDefines []string  `json:"timeDefines"`
	Areas       []jmaArea `json:"areas"`
}

type jmaReport struct {
	PublishingOffice string          `json:"publishingOffice"`
	ReportDatetime   string          `json:"reportDatetime"`
	TimeSeries       []jmaTimeSeries `json:"timeSeries"`
}

type jmaWarningDoc struct {
	ReportDatetime string `json:"reportDatetime"`
	AreaTypes      []struct {
		Areas []struct {
			Code     string `json:"code"`
			Warnings []struct {
				Code   string `json:"code"`
				Status string `json:"status"`
			} `json:"warnings"`
		} `json:"areas"`
	} `json:"areaTypes"`
}

func (p *JMAProvider) Fetch(ctx context.Context, a area.Area) (weather.RawWeatherSeries, error) {
	if a.OfficeCode == "" {
		return weather.RawWeatherSeries{}, fmt.Errorf("%w: area %s has no office code", weather.ErrNotAvailable, a.Key)
	}

	var reports []jmaReport
	url := fmt.Sprintf("%s/forecast/data/forecast/%s.json", p.baseURL, a.OfficeCode)
	if err := getJSON(ctx, p.client, url, &reports); err != nil {
		return weather.RawWeatherSeries{}, err
	}
	if len(reports) == 0 {
		return weather.RawWeatherSeries{}, fmt.Errorf("%w: empty forecast document", weather.ErrMalformedResponse)
	}

	series := parseJMAReports(reports, a, a.Location())

	warnings, err := p.fetchWarnings(ctx, a)
	if err != nil {
		p.logger.Warn("warnings unavailable", "area", a.Key, "err", err)
	}
	series.Warnings = warnings

	return series, nil
}

func (p *JMAProvider) fetchWarnings(ctx context.Context, a area.Area) ([]string, error) {
	var doc jmaWarningDoc
	url := fmt.Sprintf("%s/warning/data/warning/%s.json", p.baseURL, a.OfficeCode)
	if err := getJSON(ctx, p.client, url, &doc); err != nil {
		return nil, err
	}
	return activeWarnings(doc, a.ForecastAreaCode), nil
}

// parseJMAReports merges the short-range report (index 0) and the weekly
// report (index 1) onto one time axis. Short-range values win; weekly values
// only fill gaps.
func parseJMAReports(reports []jmaReport, a area.Area, loc *time.Location) weather.RawWeatherSeries {
	rows := make(map[int64]*weather.Sample)
	row := func(ts time.Time) *weather.Sample {
		k := ts.Unix()
		r, ok := rows[k]
		if !ok {
			r = &weather.Sample{Time: ts, Condition: weather.ConditionUnknown}
			rows[k] = r
		}
		return r
	}
	fill := func(dst *weather.Measure, m weather.Measure) {
		if !dst.Valid {
			*dst = m
		}
	}

	for _, report := range reports {
		for _, ts := range report.TimeSeries {
			conds := conditionArea(ts.Areas, a)
			temps := findArea(ts.Areas, a.ForecastPointCode)

			for i, def := range ts.TimeDefines {
				t, err := parseTime(def, loc)
				if err != nil {
					continue
				}

				if conds != nil {
					if code, ok := at(conds.WeatherCodes, i); ok {
						if r := row(t); !r.Condition.Known() {
							r.Condition = weather.FromJMACode(code)
						}
					}
					if pop, ok := at(conds.Pops, i); ok {
						fill(&row(t).PrecipProb, parseNumber(pop))
					}
				}

				if temps == nil {
					continue
				}
				if v, ok := at(temps.Temps, i); ok {
					// Short-range markers: 00:00 is the day's minimum,
					// 09:00 its maximum.
					switch t.Hour() {
					case 0:
						fill(&row(t).TempMin, parseNumber(v))
					case 9:
						fill(&row(t).TempMax, parseNumber(v))
					}
				}
				if v, ok := at(temps.TempsMin, i); ok {
					fill(&row(t).TempMin, parseNumber(v))
				}
				if v, ok := at(temps.TempsMax, i); ok {
					fill(&row(t).TempMax, parseNumber(v))
				}
			}
		}
	}

	keys := make([]int64, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	series := weather.NewSeries(weather.SourceOffice)
	for _, k := range keys {
		series.Append(*rows[k])
	}
	return series
}

// findArea returns the block area with the given code, or nil.
func findArea(areas []jmaArea, code string) *jmaArea {
	if code == "" {
		return nil
	}
	for i := range areas {
		if areas[i].Area.Code == code {
			return &areas[i]
		}
	}
	return nil
}

// conditionArea picks the sub-region of a weather/pop block. Weekly blocks
// may cover the whole office under one coarser code.
func conditionArea(areas []jmaArea, a area.Area) *jmaArea {
	if ar := findArea(areas, a.ForecastAreaCode); ar != nil {
		return ar
	}
	if ar := findArea(areas, a.OfficeCode); ar != nil {
		return ar
	}
	if len(areas) == 1 {
		return &areas[0]
	}
	return nil
}

func at(values []string, i int) (string, bool) {
	if i < 0 || i >= len(values) || values[i] == "" {
		return "", false
	}
	return values[i], true
}

func activeWarnings(doc jmaWarningDoc, areaCode string) []string {
	if len(doc.AreaTypes) == 0 {
		return nil
	}
	areas := doc.AreaTypes[0].Areas

	matched := areas[:0:0]
	for _, ar := range areas {
		if ar.Code == areaCode {
			matched = append(matched, ar)
		}
	}
	if len(matched) == 0 {
		matched = areas
	}

	seen := make(map[string]bool)
	var out []string
	for _, ar := range matched {
		for _, w := range ar.Warnings {
			if w.Code == "" || common.HasAny(w.Status, "なし", "解除") {
				continue
			}
			name := warningName(w.Code)
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

var warningNames = map[string]string{
	"02": "暴風雪警報",
	"03": "大雨警報",
	"04": "洪水警報",
	"05": "暴風警報",
	"06": "大雪警報",
	"07": "波浪警報",
	"08": "高潮警報",
	"10": "大雨注意報",
	"12": "大雪注意報",
	"13": "風雪注意報",
	"14": "雷注意報",
	"15": "強風注意報",
	"16": "波浪注意報",
	"17": "融雪注意報",
	"18": "洪水注意報",
	"19": "高潮注意報",
	"20": "濃霧注意報",
	"21": "乾燥注意報",
	"22": "なだれ注意報",
	"23": "低温注意報",
	"24": "霜注意報",
	"25": "着氷注意報",
	"26": "着雪注意報",
	"32": "暴風雪特別警報",
	"33": "大雨特別警報",
	"35": "暴風特別警報",
	"36": "大雪特別警報",
	"37": "波浪特別警報",
	"38": "高潮特別警報",
}

func warningName(code string) string {
	if name, ok := warningNames[code]; ok {
		return name
	}
	return "警報・注意報(" + code + ")"
}
