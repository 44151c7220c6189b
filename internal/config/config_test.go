package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadgen/internal/runner"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{KeyURL: "http://localhost:8080"}))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.URL)
	assert.Equal(t, time.Minute, cfg.Duration)
	assert.Equal(t, 10, cfg.Rate)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, runner.DefaultGracePeriod, cfg.GracePeriod)
	assert.Equal(t, runner.DefaultProgressInterval, cfg.ProgressInterval)
	assert.Empty(t, cfg.ReportPath)
}

func TestFromViperOverrides(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{
		KeyURL:              "https://example.com/health",
		KeyDuration:         "5m",
		KeyRate:             250,
		KeyTimeout:          "500ms",
		KeyReportFile:       "out.json",
		KeyGrace:            "0s",
		KeyProgressInterval: "1s",
	}))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Duration)
	assert.Equal(t, 250, cfg.Rate)
	assert.Equal(t, 500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, "out.json", cfg.ReportPath)
	assert.Zero(t, cfg.GracePeriod)
	assert.Equal(t, time.Second, cfg.ProgressInterval)
}

func TestFromViperErrors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		wantErr   error
		contains  string
	}{
		{"missing url", map[string]any{}, runner.ErrMissingURL, ""},
		{"bad duration", map[string]any{KeyURL: "http://x", KeyDuration: "ten seconds"}, nil, "invalid duration"},
		{"bad timeout", map[string]any{KeyURL: "http://x", KeyTimeout: "5"}, nil, "invalid timeout"},
		{"negative duration", map[string]any{KeyURL: "http://x", KeyDuration: "-1s"}, runner.ErrInvalidDuration, ""},
		{"zero rate", map[string]any{KeyURL: "http://x", KeyRate: 0}, runner.ErrInvalidRate, ""},
		{"negative rate", map[string]any{KeyURL: "http://x", KeyRate: -3}, runner.ErrInvalidRate, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromViper(newViper(tt.overrides))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestFromViperEnv(t *testing.T) {
	t.Setenv("LOADGEN_URL", "http://from-env:9000")
	t.Setenv("LOADGEN_RATE", "42")
	t.Setenv("LOADGEN_REPORT_FILE", "env.json")

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9000", cfg.URL)
	assert.Equal(t, 42, cfg.Rate)
	assert.Equal(t, "env.json", cfg.ReportPath)
}
