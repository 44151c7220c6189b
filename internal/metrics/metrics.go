package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"loadgen/internal/stats"
)

const namespace = "loadgen"

// Collector mirrors a run's outcomes into Prometheus metrics. It implements
// runner.Observer.
type Collector struct {
	Registry *prometheus.Registry

	requests *prometheus.CounterVec
	statuses *prometheus.CounterVec
	latency  prometheus.Histogram
}

func NewCollector(state *stats.State, runID string) *Collector {
	labels := prometheus.Labels{"run_id": runID}

	c := &Collector{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "requests_total",
			Help:        "Completed requests by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		statuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "responses_total",
			Help:        "Received responses by HTTP status code.",
			ConstLabels: labels,
		}, []string{"code"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "request_duration_seconds",
			Help:        "Request latency from dispatch to completion.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 16),
		}),
	}

	inflight := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "requests_in_flight",
		Help:        "Requests dispatched but not yet completed.",
		ConstLabels: labels,
	}, func() float64 { return float64(state.Inflight()) })

	dispatched := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "requests_dispatched_total",
		Help:        "Requests dispatched by the ticker.",
		ConstLabels: labels,
	}, func() float64 { return float64(state.Dispatched()) })

	c.Registry.MustRegister(c.requests, c.statuses, c.latency, inflight, dispatched)
	return c
}

func (c *Collector) Observe(o stats.Outcome) {
	if o.Success {
		c.requests.WithLabelValues("success").Inc()
	} else {
		c.requests.WithLabelValues("failure").Inc()
	}
	if o.StatusCode > 0 {
		c.statuses.WithLabelValues(strconv.Itoa(o.StatusCode)).Inc()
	}
	c.latency.Observe(o.Latency.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
