package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/forecast"
	"github.com/i474232898/eagle-eye/internal/oracle"
	"github.com/i474232898/eagle-eye/internal/weather"
)

var validate = validator.New()

const defaultNarrative = "一日の詳細な見通しは生成できませんでした。"

// dayResponse is the object the oracle is asked to return for one day.
type dayResponse struct {
	Rank      string                        `json:"rank" validate:"required,oneof=S A B C"`
	Narrative string                        `json:"daily_schedule_and_impact" validate:"required"`
	Timeline  map[string]slotResponse       `json:"timeline"`
	Advice    map[string]forecast.JobAdvice `json:"advice"`
}

type slotResponse struct {
	Advice map[string]string `json:"advice"`
}

// invalidFields lists the dayResponse fields rejected by validation.
func invalidFields(resp dayResponse) (map[string]bool, error) {
	err := validate.Struct(resp)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = true
	}
	return out, nil
}

func (o *Orchestrator) generateDay(ctx context.Context, a area.Area, s weather.DailyWeatherSummary, facts string, log *slog.Logger) (forecast.ForecastDay, bool) {
	base := o.Fallback.Rank(s.Date)
	text, ok := o.ask(ctx, o.Oracle.AskForStructured, forecast.DayPrompt(a, s, facts, base))
	if !ok {
		return forecast.ForecastDay{}, false
	}
	var resp dayResponse
	if err := oracle.DecodeJSON(text, &resp); err != nil {
		log.Warn("oracle day response is not usable", "date", forecast.ISODate(s.Date), "err", err)
		return forecast.ForecastDay{}, false
	}
	resp.Rank = strings.ToUpper(strings.TrimSpace(resp.Rank))
	invalid, err := invalidFields(resp)
	if err != nil {
		log.Warn("oracle day response failed validation", "date", forecast.ISODate(s.Date), "err", err)
		return forecast.ForecastDay{}, false
	}
	if len(invalid) > 0 {
		log.Debug("oracle day response defaults applied", "date", forecast.ISODate(s.Date), "fields", invalid)
	}
	return mergeDay(s, resp, invalid, base), true
}

// mergeDay combines reconciled weather with the oracle's answer. Weather
// always comes from the reconciler; fields the oracle got wrong take
// defaults.
func mergeDay(s weather.DailyWeatherSummary, resp dayResponse, invalid map[string]bool, base forecast.Rank) forecast.ForecastDay {
	rank := forecast.Rank(resp.Rank)
	if invalid["Rank"] {
		rank = base
	}
	narrative := strings.TrimSpace(resp.Narrative)
	if invalid["Narrative"] || narrative == "" {
		narrative = defaultNarrative
	}

	advice := make(map[forecast.Job]forecast.JobAdvice, len(forecast.Jobs))
	for _, job := range forecast.Jobs {
		advice[job] = resp.Advice[string(job)]
	}

	return forecast.ForecastDay{
		Date:        s.Date,
		ISODate:     forecast.ISODate(s.Date),
		DisplayDate: forecast.DisplayDate(s.Date),
		Rank:        rank,
		Weather:     forecast.OverviewOf(&s),
		Narrative:   narrative,
		Timeline: &forecast.Timeline{
			Morning: forecast.SlotOf(s.Morning, slotAdvice(resp.Timeline["morning"])),
			Daytime: forecast.SlotOf(s.Daytime, slotAdvice(resp.Timeline["daytime"])),
			Night:   forecast.SlotOf(s.Night, slotAdvice(resp.Timeline["night"])),
		},
		Advice:     advice,
		IsLongTerm: false,
	}
}

func slotAdvice(r slotResponse) map[forecast.Job]string {
	out := make(map[forecast.Job]string, len(forecast.Jobs))
	for _, job := range forecast.Jobs {
		out[job] = r.Advice[string(job)]
	}
	return out
}
