package dummy

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type ServerConfig struct {
	Port int
}

// NewHandler serves the demo endpoints:
//
//	/fast          200 after 10-50ms
//	/slow          200 after 1-2s, or after ?delay=<duration>
//	/error         always 500
//	/flaky         500 for ~20%, 429 for ~20%, 200 otherwise
//	/status/{code} always the given status
func NewHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /fast", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(rand.Intn(40)+10) * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Fast response"))
	})

	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		delay := time.Duration(rand.Intn(1000)+1000) * time.Millisecond
		if raw := r.URL.Query().Get("delay"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				http.Error(w, "bad delay", http.StatusBadRequest)
				return
			}
			delay = d
		}
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Slow response"))
	})

	mux.HandleFunc("GET /error", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("500 Internal Server Error"))
	})

	mux.HandleFunc("GET /flaky", func(w http.ResponseWriter, r *http.Request) {
		rnd := rand.Float32()
		switch {
		case rnd < 0.2:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 Internal Server Error"))
		case rnd < 0.4:
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("429 Too Many Requests"))
		default:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		}
	})

	mux.HandleFunc("GET /status/{code}", func(w http.ResponseWriter, r *http.Request) {
		code, err := strconv.Atoi(r.PathValue("code"))
		if err != nil || code < 100 || code > 599 {
			http.Error(w, "bad status code", http.StatusBadRequest)
			return
		}
		w.WriteHeader(code)
		fmt.Fprintf(w, "%d %s", code, http.StatusText(code))
	})

	return mux
}

// Start binds the port and serves the demo endpoints in the background. A
// port that cannot be bound is returned as an error; server.Addr holds the
// bound address, which matters for port 0.
func Start(cfg ServerConfig, logger *zap.Logger) (*http.Server, error) {
	addr := fmt.Sprintf(":%d", cfg.Port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("target server: %w", err)
	}

	server := &http.Server{
		Addr:              l.Addr().String(),
		Handler:           NewHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("target server running",
		zap.String("addr", server.Addr),
		zap.Strings("endpoints", []string{"/fast", "/slow", "/error", "/flaky", "/status/{code}"}),
	)

	go func() {
		if err := server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("target server failed", zap.Error(err))
		}
	}()
	return server, nil
}
