package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"loadgen/internal/stats"
)

func TestProgressLine(t *testing.T) {
	s := stats.Snapshot{
		Elapsed:    10*time.Second + 400*time.Millisecond,
		Dispatched: 101,
		Counters:   stats.Counters{Total: 100, Success: 98, Failure: 2},
	}
	assert.Equal(t, "10s elapsed | 101 dispatched | 98 succeeded | 2 failed", ProgressLine(s))
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := LogSink(zap.New(core), 10*time.Second)

	assert.Equal(t, 10*time.Second, sink.Interval)
	assert.False(t, sink.WithLatency)

	sink.Emit(stats.Snapshot{
		Elapsed:    20 * time.Second,
		Dispatched: 200,
		Inflight:   3,
		Counters:   stats.Counters{Total: 197, Success: 190, Failure: 7},
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "20s elapsed | 200 dispatched | 190 succeeded | 7 failed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, uint64(197), fields["completed"])
	assert.Equal(t, int64(3), fields["inflight"])
}
