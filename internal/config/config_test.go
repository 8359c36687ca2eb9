package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, "eagle_eye_data.json", cfg.OutputPath)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 7, cfg.AIDays)
	assert.Equal(t, 90, cfg.TotalDays)
	assert.Equal(t, time.Second, cfg.OracleDelay)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Scheduled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("MAX_WORKERS", "2")
	t.Setenv("AI_DAYS", "3")
	t.Setenv("TOTAL_DAYS", "30")
	t.Setenv("ORACLE_DELAY", "250ms")
	t.Setenv("SCHEDULE_CRON", "0 5 * * *")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.AIDays)
	assert.Equal(t, 30, cfg.TotalDays)
	assert.Equal(t, 250*time.Millisecond, cfg.OracleDelay)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.Scheduled())
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing api key", map[string]string{"GEMINI_API_KEY": ""}},
		{"too many days", map[string]string{"TOTAL_DAYS": "120"}},
		{"ai days beyond total", map[string]string{"AI_DAYS": "10", "TOTAL_DAYS": "5"}},
		{"bad delay", map[string]string{"ORACLE_DELAY": "soon"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "k")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
