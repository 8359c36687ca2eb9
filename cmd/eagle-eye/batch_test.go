package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/forecast"
	"github.com/i474232898/eagle-eye/internal/pipeline"
	"github.com/i474232898/eagle-eye/internal/store"
)

type fakeRunner struct {
	doc   forecast.Document
	stats pipeline.RunStats
}

func (f fakeRunner) Run(context.Context, []area.Area) (forecast.Document, pipeline.RunStats) {
	return f.doc, f.stats
}

func testBatch(t *testing.T, r runner) (*batch, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eagle_eye_data.json")
	return &batch{
		orchestrator: r,
		outputPath:   path,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, path
}

func TestBatchAllFailedWritesNothing(t *testing.T) {
	b, path := testBatch(t, fakeRunner{
		doc:   forecast.Document{},
		stats: pipeline.RunStats{RunID: "r", Areas: 2, Failed: []string{"hakodate", "otaru"}},
	})

	stats, err := b.run(context.Background())
	assert.ErrorIs(t, err, errAllAreasFailed)
	assert.Equal(t, pipeline.RunFailed, stats.State)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBatchPersistsPartialRun(t *testing.T) {
	b, path := testBatch(t, fakeRunner{
		doc:   forecast.Document{"hakodate": {{ISODate: "2025-10-14", Rank: forecast.RankB}}},
		stats: pipeline.RunStats{RunID: "r", Areas: 2, Completed: 1, Failed: []string{"otaru"}},
	})
	mem := store.NewMemoryStore(0)
	b.sink = mem

	stats, err := b.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pipeline.RunPersisted, stats.State)

	_, err = os.Stat(path)
	require.NoError(t, err)

	snap, err := mem.Latest()
	require.NoError(t, err)
	assert.Equal(t, "r", snap.Run.RunID)
	assert.Contains(t, snap.Document, "hakodate")
}
