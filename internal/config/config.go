package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type AppConfig struct {
	GeminiAPIKey  string `validate:"required"`
	GeminiModel   string `validate:"required"`
	GeminiBaseURL string `validate:"omitempty,url"`

	OutputPath string `validate:"required"`

	// ScheduleCron enables scheduled mode; empty runs one batch and exits.
	ScheduleCron string

	// Latest-run store retention (0 = unlimited).
	StoreMaxAge time.Duration

	Workers     int           `validate:"min=1,max=32"`
	AIDays      int           `validate:"min=0,ltefield=TotalDays"`
	TotalDays   int           `validate:"min=1,max=90"`
	OracleDelay time.Duration `validate:"min=0"`

	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=debug info warn warning error"`
	LogFormat string `validate:"oneof=text json"`
}

// Load reads configuration from environment with sensible defaults.
// A .env file is applied first when present.
func Load() (*AppConfig, error) {
	envErr := godotenv.Load()

	cfg := &AppConfig{
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getenvDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL: os.Getenv("GEMINI_BASE_URL"),
		OutputPath:    getenvDefault("OUTPUT_PATH", "eagle_eye_data.json"),
		ScheduleCron:  os.Getenv("SCHEDULE_CRON"),
		Workers:       getenvInt("MAX_WORKERS", 4),
		AIDays:        getenvInt("AI_DAYS", 7),
		TotalDays:     getenvInt("TOTAL_DAYS", 90),
		Port:          getenvDefault("PORT", "8080"),
		LogLevel:      strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
		LogFormat:     strings.ToLower(getenvDefault("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.OracleDelay, err = getenvDuration("ORACLE_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", 48*time.Hour); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if envErr != nil {
		cfg.NewLogger().Debug("no .env file loaded", "err", envErr)
	}
	return cfg, nil
}

// Scheduled reports whether a cron expression was configured.
func (c *AppConfig) Scheduled() bool {
	return strings.TrimSpace(c.ScheduleCron) != ""
}

// NewLogger creates a slog.Logger for the configured level and format.
func (c *AppConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch c.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
