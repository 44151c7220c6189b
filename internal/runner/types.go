package runner

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	DefaultGracePeriod      = 2 * time.Second
	DefaultProgressInterval = 10 * time.Second

	// MaxRate keeps time.Second/Rate above zero.
	MaxRate = int(time.Second)
)

var (
	ErrMissingURL      = errors.New("target url is required")
	ErrInvalidURL      = errors.New("target url must be an absolute http(s) url")
	ErrInvalidRate     = errors.New("rate must be a positive number of requests per second")
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrInvalidTimeout  = errors.New("timeout must be positive")
	ErrInvalidGrace    = errors.New("grace period must not be negative")
	ErrInvalidProgress = errors.New("progress interval must be positive")
)

// Config is fixed for the lifetime of a run.
type Config struct {
	URL        string
	Duration   time.Duration
	Rate       int
	Timeout    time.Duration
	ReportPath string

	GracePeriod      time.Duration
	ProgressInterval time.Duration
}

// Validate rejects anything that would make the run impossible to schedule.
func (c Config) Validate() error {
	if c.URL == "" {
		return ErrMissingURL
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, c.URL)
	}
	if c.Rate <= 0 || c.Rate > MaxRate {
		return fmt.Errorf("%w: %d", ErrInvalidRate, c.Rate)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDuration, c.Duration)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Timeout)
	}
	if c.GracePeriod < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidGrace, c.GracePeriod)
	}
	if c.ProgressInterval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProgress, c.ProgressInterval)
	}
	return nil
}

// TickInterval is the spacing between two dispatches.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Rate)
}
