package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRecord(t *testing.T) {
	s := NewState()

	s.Record(Outcome{Success: true, StatusCode: 200, Latency: 10 * time.Millisecond, Bytes: 5})
	s.Record(Outcome{StatusCode: 500, Error: "HTTP 500", Latency: 20 * time.Millisecond})
	s.Record(Outcome{Error: "connection refused", Latency: time.Millisecond})

	c := s.Counters()
	assert.Equal(t, uint64(3), c.Total)
	assert.Equal(t, uint64(1), c.Success)
	assert.Equal(t, uint64(2), c.Failure)
	assert.Equal(t, uint64(5), c.Bytes)

	outcomes := s.Outcomes()
	require.Len(t, outcomes, 3)
	assert.Equal(t, 500, outcomes[1].StatusCode)
}

func TestStateOutcomesIsACopy(t *testing.T) {
	s := NewState()
	s.Record(Outcome{Success: true, StatusCode: 200})

	out := s.Outcomes()
	out[0].StatusCode = 418

	assert.Equal(t, 200, s.Outcomes()[0].StatusCode)
}

func TestStateConcurrentRecordKeepsInvariant(t *testing.T) {
	s := NewState()
	const writers, perWriter = 16, 500

	stop := make(chan struct{})
	violations := make(chan Counters, 1)
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			c := s.Counters()
			if c.Total != c.Success+c.Failure {
				select {
				case violations <- c:
				default:
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.Record(Outcome{Success: (i+w)%3 != 0, Latency: time.Duration(i) * time.Microsecond})
			}
		}(w)
	}
	wg.Wait()
	close(stop)
	readers.Wait()

	select {
	case c := <-violations:
		t.Fatalf("observed total != success + failure: %+v", c)
	default:
	}

	c := s.Counters()
	assert.Equal(t, uint64(writers*perWriter), c.Total)
	assert.Equal(t, c.Total, c.Success+c.Failure)
	assert.Len(t, s.Outcomes(), writers*perWriter)
}

func TestStateSample(t *testing.T) {
	s := NewState()
	s.MarkDispatched()
	s.MarkDispatched()
	s.Begin()
	s.Record(Outcome{Success: true, Latency: 40 * time.Millisecond})

	plain := s.Sample(time.Second, false)
	assert.Equal(t, uint64(2), plain.Dispatched)
	assert.Equal(t, int64(1), plain.Inflight)
	assert.Equal(t, uint64(1), plain.Total)
	assert.Zero(t, plain.P50Ms)

	withLatency := s.Sample(time.Second, true)
	assert.InDelta(t, 40.0, withLatency.P50Ms, 0.1)
	assert.InDelta(t, 40.0, withLatency.MaxMs, 0.1)

	s.End()
	assert.Equal(t, int64(0), s.Inflight())
}

func TestSafeHistogramClamps(t *testing.T) {
	h := NewSafeHistogram()
	h.Record(0)
	h.Record(time.Hour)

	assert.Equal(t, int64(2), h.TotalCount())
	assert.InDelta(t, float64(10*time.Minute/time.Millisecond), h.MaxMs(), 1000)
}
