package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Outcome is the terminal result of one request attempt.
type Outcome struct {
	Timestamp  time.Time     `json:"timestamp"`
	Latency    time.Duration `json:"latency"`
	Success    bool          `json:"success"`
	StatusCode int           `json:"statusCode"`
	Error      string        `json:"error,omitempty"`
	Bytes      int64         `json:"bytes"`
}

// Counters is a consistent view of the running totals.
type Counters struct {
	Total   uint64
	Success uint64
	Failure uint64
	Bytes   uint64
}

// Snapshot is what progress sinks receive on every sample.
type Snapshot struct {
	Elapsed    time.Duration
	Dispatched uint64
	Inflight   int64
	Counters

	// Approximate quantiles from the live histogram, only filled when requested.
	P50Ms float64
	P90Ms float64
	P99Ms float64
	MaxMs float64
}

// State is the mutable shared state of a single run. Request goroutines only
// ever call Record; everything else reads.
type State struct {
	total   atomic.Uint64
	success atomic.Uint64
	failure atomic.Uint64
	bytes   atomic.Uint64

	dispatched atomic.Uint64
	inflight   atomic.Int64

	mu       sync.Mutex
	outcomes []Outcome

	latency *SafeHistogram
}

func NewState() *State {
	return &State{
		outcomes: make([]Outcome, 0, 1024),
		latency:  NewSafeHistogram(),
	}
}

// Record accounts for one finished attempt. The per-outcome counter is bumped
// before total, so a reader that loads total first never sees total ahead of
// success+failure.
func (s *State) Record(o Outcome) {
	if o.Success {
		s.success.Add(1)
	} else {
		s.failure.Add(1)
	}
	if o.Bytes > 0 {
		s.bytes.Add(uint64(o.Bytes))
	}
	s.total.Add(1)

	s.latency.Record(o.Latency)

	s.mu.Lock()
	s.outcomes = append(s.outcomes, o)
	s.mu.Unlock()
}

// Counters reads only the atomics. Writers may land between the loads, so it
// retries a few times until total == success + failure and otherwise derives
// total from the two halves.
func (s *State) Counters() Counters {
	var c Counters
	for i := 0; i < 8; i++ {
		c.Total = s.total.Load()
		c.Success = s.success.Load()
		c.Failure = s.failure.Load()
		if c.Total == c.Success+c.Failure {
			break
		}
	}
	c.Total = c.Success + c.Failure
	c.Bytes = s.bytes.Load()
	return c
}

// Sample builds a Snapshot. withLatency also reads the live histogram, which
// takes the histogram lock; the plain progress line never asks for it.
func (s *State) Sample(elapsed time.Duration, withLatency bool) Snapshot {
	snap := Snapshot{
		Elapsed:    elapsed,
		Dispatched: s.dispatched.Load(),
		Inflight:   s.inflight.Load(),
		Counters:   s.Counters(),
	}
	if withLatency && s.latency.TotalCount() > 0 {
		snap.P50Ms = s.latency.QuantileMs(50)
		snap.P90Ms = s.latency.QuantileMs(90)
		snap.P99Ms = s.latency.QuantileMs(99)
		snap.MaxMs = s.latency.MaxMs()
	}
	return snap
}

// Outcomes returns a copy of everything recorded so far, in completion order.
func (s *State) Outcomes() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]Outcome, len(s.outcomes))
	copy(res, s.outcomes)
	return res
}

// MarkDispatched is called by the dispatch loop once per tick.
func (s *State) MarkDispatched() {
	s.dispatched.Add(1)
}

func (s *State) Dispatched() uint64 {
	return s.dispatched.Load()
}

// Begin and End bracket an in-flight request.
func (s *State) Begin() { s.inflight.Add(1) }
func (s *State) End()   { s.inflight.Add(-1) }

func (s *State) Inflight() int64 {
	return s.inflight.Load()
}
