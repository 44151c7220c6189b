package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"loadgen/internal/runner"
)

// Keys shared by the flags, the config file and LOADGEN_* environment variables.
const (
	KeyURL              = "url"
	KeyDuration         = "duration"
	KeyRate             = "rate"
	KeyTimeout          = "timeout"
	KeyReportFile       = "report-file"
	KeyGrace            = "grace"
	KeyProgressInterval = "progress-interval"
	KeyMetricsAddr      = "metrics-addr"
	KeyTUI              = "tui"
	KeyLogLevel         = "log-level"
	KeyLogFormat        = "log-format"
)

const EnvPrefix = "LOADGEN"

var envReplacer = strings.NewReplacer("-", "_")

// BindEnv makes every key overridable through LOADGEN_<KEY>, dashes as underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()
}

// SetDefaults registers defaults for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDuration, "1m")
	v.SetDefault(KeyRate, 10)
	v.SetDefault(KeyTimeout, "30s")
	v.SetDefault(KeyGrace, runner.DefaultGracePeriod.String())
	v.SetDefault(KeyProgressInterval, runner.DefaultProgressInterval.String())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// FromViper resolves a validated run configuration. Durations are parsed
// explicitly so that a typo is reported instead of silently becoming zero.
func FromViper(v *viper.Viper) (runner.Config, error) {
	cfg := runner.Config{
		URL:        v.GetString(KeyURL),
		Rate:       v.GetInt(KeyRate),
		ReportPath: v.GetString(KeyReportFile),
	}

	var err error
	if cfg.Duration, err = parseDuration(v, KeyDuration); err != nil {
		return cfg, err
	}
	if cfg.Timeout, err = parseDuration(v, KeyTimeout); err != nil {
		return cfg, err
	}
	if cfg.GracePeriod, err = parseDuration(v, KeyGrace); err != nil {
		return cfg, err
	}
	if cfg.ProgressInterval, err = parseDuration(v, KeyProgressInterval); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
