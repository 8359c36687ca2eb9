package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/forecast"
	"github.com/i474232898/eagle-eye/internal/oracle"
	"github.com/i474232898/eagle-eye/internal/weather"
)

// ErrAreaPanic marks an area task that panicked.
var ErrAreaPanic = errors.New("area task panicked")

// Oracle is the advice service. Both calls report failure as ok=false.
type Oracle interface {
	AskForFacts(ctx context.Context, prompt string) (string, bool)
	AskForStructured(ctx context.Context, prompt string) (string, bool)
}

// Sources are the three weather providers. Any may be nil.
type Sources struct {
	Office  weather.Provider
	Grid    weather.Provider
	Station weather.Provider
}

type Options struct {
	Workers     int
	AIDays      int
	TotalDays   int
	OracleDelay time.Duration
}

func DefaultOptions() Options {
	return Options{Workers: 4, AIDays: 7, TotalDays: 90, OracleDelay: time.Second}
}

type areaState string

const (
	stateFetchingWeather areaState = "fetching_weather"
	stateFetchingFacts   areaState = "fetching_facts"
	stateGeneratingDays  areaState = "generating_days"
	stateDone            areaState = "done"
)

// Orchestrator runs one batch over a set of areas.
type Orchestrator struct {
	Sources  Sources
	Oracle   Oracle
	Fallback *forecast.FallbackGenerator
	Options  Options
	Now      func() time.Time

	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

func New(sources Sources, o Oracle, opts Options, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		Sources:  sources,
		Oracle:   o,
		Fallback: forecast.NewFallbackGenerator(nil),
		Options:  opts,
		Now:      time.Now,
		logger:   logger.With("component", "pipeline"),
		sleep:    sleepContext,
	}
}

type areaResult struct {
	key          string
	days         []forecast.ForecastDay
	aiDays       int
	fallbackDays int
	err          error
}

// Run processes every area and returns the document of the areas that
// completed. Area failures are logged and counted in the stats.
func (o *Orchestrator) Run(ctx context.Context, areas []area.Area) (forecast.Document, RunStats) {
	now := o.now()
	stats := RunStats{
		RunID:     uuid.NewString(),
		State:     RunIdle,
		StartedAt: now,
		Areas:     len(areas),
	}
	log := o.logger.With("run_id", stats.RunID)
	reconciler := weather.NewReconciler(o.now)

	workers := o.Options.Workers
	if workers < 1 {
		workers = 1
	}

	stats.State = RunRunning
	log.Info("run started", "areas", len(areas), "workers", workers,
		"ai_days", o.Options.AIDays, "total_days", o.Options.TotalDays)

	results := make(chan areaResult)
	go func() {
		var g errgroup.Group
		g.SetLimit(workers)
		for _, a := range areas {
			a := a
			g.Go(func() error {
				results <- o.runArea(ctx, reconciler, a, log.With("area", a.Key))
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	doc := make(forecast.Document, len(areas))
	for r := range results {
		if r.err != nil {
			log.Error("area failed", "area", r.key, "err", r.err)
			stats.Failed = append(stats.Failed, r.key)
			continue
		}
		doc[r.key] = r.days
		stats.Completed++
		stats.AIDays += r.aiDays
		stats.FallbackDays += r.fallbackDays
	}

	stats.FinishedAt = o.now()
	stats.State = RunCollected
	log.Info("run collected", "completed", stats.Completed, "failed", len(stats.Failed),
		"ai_days", stats.AIDays, "fallback_days", stats.FallbackDays,
		"elapsed", stats.FinishedAt.Sub(stats.StartedAt))
	return doc, stats
}

func (o *Orchestrator) runArea(ctx context.Context, rec *weather.Reconciler, a area.Area, log *slog.Logger) (res areaResult) {
	res.key = a.Key
	defer func() {
		if p := recover(); p != nil {
			log.Error("panic in area task", "panic", p)
			res = areaResult{key: a.Key, err: fmt.Errorf("%w: %v", ErrAreaPanic, p)}
		}
	}()

	total := max(o.Options.TotalDays, 0)
	aiDays := min(max(o.Options.AIDays, 0), total)
	today := weather.StartOfDay(o.now(), a.Location())
	dates := make([]time.Time, total)
	for i := range dates {
		dates[i] = today.AddDate(0, 0, i)
	}

	o.enter(log, stateFetchingWeather)
	src := weather.Sources{
		Office:  o.fetch(ctx, o.Sources.Office, a, log),
		Grid:    o.fetch(ctx, o.Sources.Grid, a, log),
		Station: o.fetch(ctx, o.Sources.Station, a, log),
	}
	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	o.enter(log, stateFetchingFacts)
	facts := o.facts(ctx, a, dates[:aiDays], log)
	longTerm := forecast.DefaultLongTerm
	if total > aiDays {
		if text, ok := o.ask(ctx, o.Oracle.AskForFacts, forecast.LongTermPrompt(a, dates[aiDays], dates[total-1])); ok {
			longTerm = text
		} else {
			log.Warn("long-term narrative unavailable, using default")
		}
	}

	o.enter(log, stateGeneratingDays)
	res.days = make([]forecast.ForecastDay, 0, total)
	for i, d := range dates {
		if err := ctx.Err(); err != nil {
			res.err = err
			return res
		}
		summary := rec.Reconcile(a, d, src)
		var weatherRef *weather.DailyWeatherSummary
		if hasData(summary) {
			weatherRef = &summary
		}

		if i < aiDays {
			if fd, ok := o.generateDay(ctx, a, summary, facts[forecast.ISODate(d)], log); ok {
				res.days = append(res.days, fd)
				res.aiDays++
				continue
			}
			log.Warn("oracle unavailable for day, using fallback", "date", forecast.ISODate(d))
		}
		res.days = append(res.days, o.Fallback.Fallback(a, d, longTerm, weatherRef))
		res.fallbackDays++
	}

	o.enter(log, stateDone)
	return res
}

func (o *Orchestrator) enter(log *slog.Logger, s areaState) {
	log.Debug("area state", "state", string(s))
}

func (o *Orchestrator) fetch(ctx context.Context, p weather.Provider, a area.Area, log *slog.Logger) *weather.RawWeatherSeries {
	if p == nil {
		return nil
	}
	s, err := p.Fetch(ctx, a)
	if err != nil {
		log.Warn("weather source unavailable", "source", p.Name(), "err", err)
		return nil
	}
	if err := s.Validate(); err != nil {
		log.Warn("weather source returned inconsistent series", "source", p.Name(), "err", err)
		return nil
	}
	log.Debug("weather source fetched", "source", p.Name(), "samples", s.Len())
	return &s
}

// facts asks once for the whole AI horizon and structures the answer into
// date → facts. Missing dates map to "".
func (o *Orchestrator) facts(ctx context.Context, a area.Area, dates []time.Time, log *slog.Logger) map[string]string {
	out := map[string]string{}
	if len(dates) == 0 {
		return out
	}
	text, ok := o.ask(ctx, o.Oracle.AskForFacts, forecast.FactsPrompt(a, dates))
	if !ok {
		log.Warn("facts unavailable")
		return out
	}
	structured, ok := o.ask(ctx, o.Oracle.AskForStructured, forecast.FactsStructurePrompt(a, dates, text))
	if !ok {
		log.Warn("facts structuring unavailable")
		return out
	}
	if err := oracle.DecodeJSON(structured, &out); err != nil {
		log.Warn("facts structuring returned invalid json", "err", err)
		return map[string]string{}
	}
	return out
}

// ask calls the oracle and then waits OracleDelay.
func (o *Orchestrator) ask(ctx context.Context, call func(context.Context, string) (string, bool), prompt string) (string, bool) {
	text, ok := call(ctx, prompt)
	_ = o.sleep(ctx, o.Options.OracleDelay)
	return text, ok
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func hasData(s weather.DailyWeatherSummary) bool {
	return s.Condition.Known() || s.High.Valid || s.Low.Valid || s.PrecipProb.Valid
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
