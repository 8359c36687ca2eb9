package weather

import "strconv"

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionSunny   Condition = "sunny"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionThunder Condition = "thunder"
)

// Known reports whether c carries data.
func (c Condition) Known() bool { return c != "" && c != ConditionUnknown }

// Label is the Japanese display text.
func (c Condition) Label() string {
	switch c {
	case ConditionSunny:
		return "晴れ"
	case ConditionCloudy:
		return "曇り"
	case ConditionRain:
		return "雨"
	case ConditionSnow:
		return "雪"
	case ConditionThunder:
		return "雷雨"
	default:
		return "不明"
	}
}

// Icon is the display glyph.
func (c Condition) Icon() string {
	switch c {
	case ConditionSunny:
		return "☀️"
	case ConditionCloudy:
		return "☁️"
	case ConditionRain:
		return "☔"
	case ConditionSnow:
		return "⛄"
	case ConditionThunder:
		return "⚡"
	default:
		return "❓"
	}
}

// severity orders conditions for tie-breaks; higher wins.
func (c Condition) severity() int {
	switch c {
	case ConditionThunder:
		return 5
	case ConditionSnow:
		return 4
	case ConditionRain:
		return 3
	case ConditionCloudy:
		return 2
	case ConditionSunny:
		return 1
	default:
		return 0
	}
}

// FromJMACode maps a JMA three-digit weather code. The leading digit
// carries the dominant condition (1xx sunny, 2xx cloudy, 3xx rain, 4xx
// snow, 350 rain with thunder); unparseable or out-of-range codes map to
// cloudy.
func FromJMACode(code string) Condition {
	n, err := strconv.Atoi(code)
	if err != nil {
		return ConditionCloudy
	}
	switch {
	case n >= 100 && n < 200:
		return ConditionSunny
	case n >= 200 && n < 300:
		return ConditionCloudy
	case n == 350:
		return ConditionThunder
	case n >= 300 && n < 400:
		return ConditionRain
	case n >= 400 && n < 500:
		return ConditionSnow
	default:
		return ConditionCloudy
	}
}

// FromWMOCode maps an Open-Meteo (WMO 4677) weather code.
func FromWMOCode(code int) Condition {
	switch {
	case code == 0 || code == 1:
		return ConditionSunny
	case code == 2 || code == 3 || code == 45 || code == 48:
		return ConditionCloudy
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95 && code <= 99:
		return ConditionThunder
	default:
		return ConditionCloudy
	}
}

// dominant returns the most frequent known condition, ties going to the
// more severe one. ConditionUnknown when none is known.
func dominant(conds []Condition) Condition {
	counts := make(map[Condition]int)
	for _, c := range conds {
		if c.Known() {
			counts[c]++
		}
	}
	best := ConditionUnknown
	bestCount := 0
	for c, n := range counts {
		if n > bestCount || (n == bestCount && c.severity() > best.severity()) {
			best, bestCount = c, n
		}
	}
	return best
}
