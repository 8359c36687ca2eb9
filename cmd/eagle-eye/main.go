package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	httpapi "github.com/i474232898/eagle-eye/internal/api/http"
	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/config"
	"github.com/i474232898/eagle-eye/internal/oracle"
	"github.com/i474232898/eagle-eye/internal/pipeline"
	"github.com/i474232898/eagle-eye/internal/scheduler"
	"github.com/i474232898/eagle-eye/internal/store"
	"github.com/i474232898/eagle-eye/internal/timezone"
	"github.com/i474232898/eagle-eye/internal/weather/providers"
)

const appName = "eagle-eye"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 2
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	areas := area.Registry()
	if tz, err := timezone.Default(); err != nil {
		logger.Warn("timezone lookup unavailable, using default", "err", err, "timezone", area.DefaultTimezone)
	} else {
		areas = area.WithTimezones(areas, tz)
	}

	// Shared transport; per-request timeouts are applied by each client.
	httpClient := &http.Client{}

	sources := pipeline.Sources{
		Office:  providers.NewJMAProvider(httpClient, logger),
		Grid:    providers.NewOpenMeteoProvider(httpClient, logger),
		Station: providers.NewAMeDASProvider(httpClient, logger, time.Now),
	}
	advisor := oracle.NewClient(httpClient, oracle.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}, logger)

	orc := pipeline.New(sources, advisor, pipeline.Options{
		Workers:     cfg.Workers,
		AIDays:      cfg.AIDays,
		TotalDays:   cfg.TotalDays,
		OracleDelay: cfg.OracleDelay,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := &batch{
		orchestrator: orc,
		areas:        areas,
		outputPath:   cfg.OutputPath,
		logger:       logger,
	}

	if !cfg.Scheduled() {
		if _, err := b.run(ctx); err != nil {
			logger.Error("run failed", "err", err)
			return 1
		}
		return 0
	}

	return serve(ctx, cfg, b, areas, logger)
}

// serve runs batches on the cron schedule and exposes the latest run over
// HTTP until a termination signal arrives.
func serve(ctx context.Context, cfg *config.AppConfig, b *batch, areas []area.Area, logger *slog.Logger) int {
	memStore := store.NewMemoryStore(cfg.StoreMaxAge)
	b.sink = memStore

	loc := time.Local
	if len(areas) > 0 {
		loc = areas[0].Location()
	}
	// Batches run to completion; only individual HTTP calls time out.
	sched := scheduler.New(cfg.ScheduleCron, loc, 0, func(ctx context.Context) error {
		_, err := b.run(ctx)
		return err
	}, logger)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "err", err, "cron", cfg.ScheduleCron)
		return 1
	}
	defer sched.Stop()
	sched.RunNow()

	app := httpapi.NewApp(appName)
	httpapi.RegisterRoutes(app, memStore)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "err", err)
		}
	}()
	logger.Info("serving", "port", cfg.Port, "cron", cfg.ScheduleCron)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "err", err)
	}
	return 0
}
