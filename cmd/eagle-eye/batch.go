package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/forecast"
	"github.com/i474232898/eagle-eye/internal/output"
	"github.com/i474232898/eagle-eye/internal/pipeline"
)

var errAllAreasFailed = errors.New("every area failed; nothing written")

// runner is the subset of the orchestrator a batch needs.
type runner interface {
	Run(ctx context.Context, areas []area.Area) (forecast.Document, pipeline.RunStats)
}

// sink receives the persisted run; nil in one-shot mode.
type sink interface {
	Save(run pipeline.RunStats, doc forecast.Document)
}

// batch is one Idle → Persisted cycle: run, write the file, publish.
type batch struct {
	orchestrator runner
	areas        []area.Area
	outputPath   string
	sink         sink
	logger       *slog.Logger
}

func (b *batch) run(ctx context.Context) (pipeline.RunStats, error) {
	doc, stats := b.orchestrator.Run(ctx, b.areas)
	log := b.logger.With("run_id", stats.RunID)

	if stats.AllFailed() {
		stats.State = pipeline.RunFailed
		return stats, errAllAreasFailed
	}
	if err := output.WriteFile(b.outputPath, doc); err != nil {
		stats.State = pipeline.RunFailed
		return stats, err
	}
	stats.State = pipeline.RunPersisted
	if b.sink != nil {
		b.sink.Save(stats, doc)
	}

	log.Info("run persisted", "path", b.outputPath, "areas", stats.Completed,
		"failed", stats.Failed, "ai_days", stats.AIDays, "fallback_days", stats.FallbackDays)
	return stats, nil
}
