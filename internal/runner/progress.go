package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loadgen/internal/stats"
)

// Sink receives periodic snapshots while dispatch is running. It stops the
// moment ticking ends and is never called during the grace period.
type Sink struct {
	Interval    time.Duration
	WithLatency bool
	Emit        func(stats.Snapshot)
}

// LogSink emits the running totals as a log line every interval.
func LogSink(logger *zap.Logger, interval time.Duration) Sink {
	return Sink{
		Interval: interval,
		Emit: func(s stats.Snapshot) {
			logger.Info(ProgressLine(s),
				zap.Uint64("completed", s.Total),
				zap.Uint64("success", s.Success),
				zap.Uint64("failure", s.Failure),
				zap.Int64("inflight", s.Inflight),
			)
		},
	}
}

// ProgressLine renders "elapsed | dispatched | succeeded | failed".
func ProgressLine(s stats.Snapshot) string {
	return fmt.Sprintf("%s elapsed | %d dispatched | %d succeeded | %d failed",
		s.Elapsed.Round(time.Second), s.Dispatched, s.Success, s.Failure)
}

func (r *Runner) sample(ctx context.Context, start time.Time, s Sink) {
	if s.Interval <= 0 || s.Emit == nil {
		return
	}
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Emit(r.State.Sample(time.Since(start), s.WithLatency))
		}
	}
}
