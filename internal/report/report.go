package report

import (
	"sort"
	"time"

	"loadgen/internal/runner"
	"loadgen/internal/stats"
)

// ConfigEcho is the run configuration as it appears in the report.
type ConfigEcho struct {
	URL         string `json:"url"`
	Duration    string `json:"duration"`
	RatePerSec  int    `json:"ratePerSec"`
	Timeout     string `json:"timeout"`
	GracePeriod string `json:"gracePeriod"`
	ReportFile  string `json:"reportFile,omitempty"`
}

// TimelineBucket counts requests by the second (relative to start) they were dispatched in.
type TimelineBucket struct {
	Second   int64  `json:"second"`
	Requests uint64 `json:"requests"`
	Errors   uint64 `json:"errors"`
}

// Report is a read-only snapshot built once the run is over.
type Report struct {
	RunID         string     `json:"runId"`
	Config        ConfigEcho `json:"config"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       time.Time  `json:"endTime"`
	TotalDuration string     `json:"totalDuration"`
	Interrupted   bool       `json:"interrupted"`

	DispatchedRequests uint64 `json:"dispatchedRequests"`
	TotalRequests      uint64 `json:"totalRequests"`
	SuccessRequests    uint64 `json:"successRequests"`
	FailedRequests     uint64 `json:"failedRequests"`
	LostRequests       uint64 `json:"lostRequests"`
	BytesReceived      uint64 `json:"bytesReceived"`

	LatencyMin  float64 `json:"latencyMinMs"`
	LatencyMax  float64 `json:"latencyMaxMs"`
	LatencyMean float64 `json:"latencyMeanMs"`
	LatencyP50  float64 `json:"latencyP50Ms"`
	LatencyP90  float64 `json:"latencyP90Ms"`
	LatencyP95  float64 `json:"latencyP95Ms"`
	LatencyP99  float64 `json:"latencyP99Ms"`

	RequestsPerSec float64 `json:"requestsPerSec"`

	StatusCodeDist map[int]uint64    `json:"statusCodeDistribution"`
	ErrorDetails   map[string]uint64 `json:"errorDetails"`
	Timeline       []TimelineBucket  `json:"timeline"`
}

// FromRunner builds the report from a runner whose Run has returned.
func FromRunner(r *runner.Runner, res runner.Result) Report {
	return Build(r.Cfg, r.RunID, res, r.State.Outcomes())
}

// Build computes all statistics from a frozen set of outcomes. The slice is
// treated as unordered and is not modified.
func Build(cfg runner.Config, runID string, res runner.Result, outcomes []stats.Outcome) Report {
	rep := Report{
		RunID: runID,
		Config: ConfigEcho{
			URL:         cfg.URL,
			Duration:    cfg.Duration.String(),
			RatePerSec:  cfg.Rate,
			Timeout:     cfg.Timeout.String(),
			GracePeriod: cfg.GracePeriod.String(),
			ReportFile:  cfg.ReportPath,
		},
		StartTime:          res.Start,
		EndTime:            res.End,
		TotalDuration:      res.End.Sub(res.Start).String(),
		Interrupted:        res.Interrupted,
		DispatchedRequests: res.Dispatched,
		StatusCodeDist:     make(map[int]uint64),
		ErrorDetails:       make(map[string]uint64),
		Timeline:           []TimelineBucket{},
	}

	latencies := make([]float64, 0, len(outcomes))
	buckets := make(map[int64]*TimelineBucket)

	for _, o := range outcomes {
		rep.TotalRequests++
		if o.Success {
			rep.SuccessRequests++
		} else {
			rep.FailedRequests++
			rep.ErrorDetails[o.Error]++
		}
		if o.StatusCode > 0 {
			rep.StatusCodeDist[o.StatusCode]++
		}
		if o.Bytes > 0 {
			rep.BytesReceived += uint64(o.Bytes)
		}

		latencies = append(latencies, float64(o.Latency.Microseconds())/1000.0)

		sec := int64(o.Timestamp.Sub(res.Start) / time.Second)
		b, ok := buckets[sec]
		if !ok {
			b = &TimelineBucket{Second: sec}
			buckets[sec] = b
		}
		b.Requests++
		if !o.Success {
			b.Errors++
		}
	}

	if rep.DispatchedRequests > rep.TotalRequests {
		rep.LostRequests = rep.DispatchedRequests - rep.TotalRequests
	}

	if elapsed := res.End.Sub(res.Start).Seconds(); elapsed > 0 {
		rep.RequestsPerSec = float64(rep.TotalRequests) / elapsed
	}

	for _, b := range buckets {
		rep.Timeline = append(rep.Timeline, *b)
	}
	sort.Slice(rep.Timeline, func(i, j int) bool {
		return rep.Timeline[i].Second < rep.Timeline[j].Second
	})

	if len(latencies) == 0 {
		return rep
	}

	// Summing after the sort keeps the mean independent of completion order.
	sort.Float64s(latencies)
	var totalLatency float64
	for _, ms := range latencies {
		totalLatency += ms
	}
	rep.LatencyMin = latencies[0]
	rep.LatencyMax = latencies[len(latencies)-1]
	rep.LatencyMean = totalLatency / float64(len(latencies))
	rep.LatencyP50 = Percentile(latencies, 50)
	rep.LatencyP90 = Percentile(latencies, 90)
	rep.LatencyP95 = Percentile(latencies, 95)
	rep.LatencyP99 = Percentile(latencies, 99)

	return rep
}

// Percentile returns sorted[floor(p/100*N)], clamped to the last element.
// No interpolation.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)) * p / 100.0)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}

// Percent returns part as a percentage of whole, 0 when whole is 0.
func Percent(part, whole uint64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
