package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"loadgen/internal/stats"
)

// Observer is notified of every recorded outcome, after it reached the State.
type Observer interface {
	Observe(o stats.Outcome)
}

// Result describes how the dispatch loop ended.
type Result struct {
	Start        time.Time
	TickingEnded time.Time
	End          time.Time
	Dispatched   uint64
	Interrupted  bool
}

type Runner struct {
	Cfg   Config
	State *stats.State
	RunID string

	exec      *Executor
	logger    *zap.Logger
	observers []Observer
	sinks     []Sink
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// WithSink adds a progress sink sampled while the run is ticking.
func WithSink(s Sink) Option {
	return func(r *Runner) { r.sinks = append(r.sinks, s) }
}

func WithRunID(id string) Option {
	return func(r *Runner) { r.RunID = id }
}

// NewRunner validates cfg; a Runner is only ever built from a schedulable config.
func NewRunner(cfg Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		Cfg:    cfg,
		State:  stats.NewState(),
		RunID:  uuid.New().String(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.exec = NewExecutor(cfg, r.RunID)
	return r, nil
}

// Run ticks at the configured rate until the duration elapses or ctx is
// cancelled, then waits out the grace period. It never waits on individual
// requests: whatever has not finished when the grace period ends is left out.
func (r *Runner) Run(ctx context.Context) Result {
	interval := r.Cfg.TickInterval()
	res := Result{Start: time.Now()}

	r.logger.Info("load test started",
		zap.String("url", r.Cfg.URL),
		zap.Duration("duration", r.Cfg.Duration),
		zap.Int("rate", r.Cfg.Rate),
		zap.Duration("interval", interval),
		zap.String("run_id", r.RunID),
	)

	ticking, stopTicking := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, s := range r.sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			r.sample(ticking, res.Start, s)
		}(s)
	}

	// In-flight requests outlive an interrupt; only the client timeout and
	// the grace period bound them.
	reqCtx := context.WithoutCancel(ctx)

	ticker := time.NewTicker(interval)
	deadline := time.NewTimer(r.Cfg.Duration)

loop:
	for {
		select {
		case <-ticker.C:
			res.Dispatched++
			r.State.MarkDispatched()
			go r.dispatch(reqCtx)
		case <-deadline.C:
			break loop
		case <-ctx.Done():
			res.Interrupted = true
			r.logger.Info("interrupt received, stopping dispatch")
			break loop
		}
	}
	ticker.Stop()
	deadline.Stop()

	stopTicking()
	wg.Wait()
	res.TickingEnded = time.Now()

	r.logger.Info("dispatch stopped, waiting for in-flight requests",
		zap.Uint64("dispatched", res.Dispatched),
		zap.Int64("inflight", r.State.Inflight()),
		zap.Duration("grace", r.Cfg.GracePeriod),
	)
	if r.Cfg.GracePeriod > 0 {
		grace := time.NewTimer(r.Cfg.GracePeriod)
		<-grace.C
	}
	res.End = time.Now()

	if left := r.State.Inflight(); left > 0 {
		r.logger.Warn("requests still in flight after grace period are excluded",
			zap.Int64("inflight", left))
	}
	r.logger.Info("load test completed", zap.Duration("elapsed", res.End.Sub(res.Start)))
	return res
}

func (r *Runner) dispatch(ctx context.Context) {
	r.State.Begin()
	defer r.State.End()

	o := r.exec.Execute(ctx)
	r.State.Record(o)
	for _, obs := range r.observers {
		obs.Observe(o)
	}
}

// AddObserver registers o; it must be called before Run.
func (r *Runner) AddObserver(o Observer) {
	r.observers = append(r.observers, o)
}

// AddSink registers a progress sink; it must be called before Run.
func (r *Runner) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}
