package runner

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"loadgen/internal/stats"
	"loadgen/version"
)

// Executor issues exactly one GET per call and never retries.
type Executor struct {
	URL    string
	RunID  string
	Client *http.Client
}

func NewExecutor(cfg Config, runID string) *Executor {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 0
	t.MaxIdleConnsPerHost = 2000
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &Executor{
		URL:   cfg.URL,
		RunID: runID,
		Client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: t,
		},
	}
}

// Execute performs the request and classifies it. Latency covers dispatch up
// to the end of the body drain, or up to the transport error.
func (e *Executor) Execute(ctx context.Context) stats.Outcome {
	start := time.Now()
	res := stats.Outcome{Timestamp: start}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL, nil)
	if err != nil {
		res.Latency = time.Since(start)
		res.Error = err.Error()
		return res
	}
	req.Header.Set("User-Agent", "loadgen/"+version.Version)
	if e.RunID != "" {
		req.Header.Set("X-Run-ID", e.RunID)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		res.Latency = time.Since(start)
		res.Error = err.Error()
		return res
	}

	// Drain so the connection goes back to the pool.
	n, err := io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	res.Latency = time.Since(start)
	res.Bytes = n
	res.StatusCode = resp.StatusCode
	switch {
	case err != nil:
		// The status line arrived but the body did not, e.g. the client
		// timeout fired mid-read.
		res.Error = err.Error()
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		res.Success = true
	default:
		res.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return res
}
