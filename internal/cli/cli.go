package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"loadgen/internal/metrics"
	"loadgen/internal/report"
	"loadgen/internal/runner"
	"loadgen/internal/stats"
	"loadgen/internal/tui/live"
)

const dashboardInterval = 200 * time.Millisecond

type Options struct {
	Logger *zap.Logger
	Stdout io.Writer

	// MetricsAddr enables a Prometheus /metrics endpoint for the run's lifetime.
	MetricsAddr string
	// TUI replaces the progress log lines with the live dashboard.
	TUI bool
}

// Start runs one load test end to end: dispatch, grace period, summary on
// stdout and, if configured, the JSON report. Cancelling ctx stops dispatch
// early but still produces a report. Only an unusable configuration is an
// error; failed requests and a failed report write are not.
func Start(ctx context.Context, cfg runner.Config, opts Options) (report.Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	runLogger := logger
	if opts.TUI {
		runLogger = dashboardLogger(logger)
	}

	r, err := runner.NewRunner(cfg, runner.WithLogger(runLogger))
	if err != nil {
		return report.Report{}, err
	}

	if !opts.TUI {
		printHeader(stdout, cfg, r.RunID)
		r.AddSink(runner.LogSink(logger, cfg.ProgressInterval))
	}

	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	defer stopMetrics()

	var g errgroup.Group
	if opts.MetricsAddr != "" {
		col := metrics.NewCollector(r.State, r.RunID)
		r.AddObserver(col)
		g.Go(func() error {
			return metrics.Serve(metricsCtx, opts.MetricsAddr, col.Handler(), runLogger)
		})
	}

	var rep report.Report
	g.Go(func() error {
		defer stopMetrics()
		if opts.TUI {
			rep = runWithDashboard(ctx, r, logger)
			return nil
		}
		rep = report.FromRunner(r, r.Run(ctx))
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Warn("metrics endpoint failed", zap.Error(err))
	}

	if err := report.WriteSummary(stdout, rep); err != nil {
		logger.Warn("failed to print summary", zap.Error(err))
	}
	handleReportFile(cfg, rep, logger)
	return rep, nil
}

func runWithDashboard(ctx context.Context, r *runner.Runner, logger *zap.Logger) report.Report {
	runCtx, interrupt := context.WithCancel(ctx)
	defer interrupt()

	p := tea.NewProgram(live.NewModel(r.Cfg, interrupt), tea.WithAltScreen())
	r.AddSink(runner.Sink{
		Interval:    dashboardInterval,
		WithLatency: true,
		Emit: func(s stats.Snapshot) {
			p.Send(live.SnapshotMsg(s))
		},
	})

	done := make(chan report.Report, 1)
	go func() {
		rep := report.FromRunner(r, r.Run(runCtx))

		var buf bytes.Buffer
		if err := report.WriteSummary(&buf, rep); err == nil {
			p.Send(live.DoneMsg{Summary: buf.String()})
		}
		done <- rep
	}()

	if _, err := p.Run(); err != nil {
		logger.Warn("dashboard unavailable, waiting for the run to finish", zap.Error(err))
	}
	return <-done
}

// dashboardLogger drops lifecycle chatter while bubbletea owns the terminal;
// only warnings and errors still get through.
func dashboardLogger(logger *zap.Logger) *zap.Logger {
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		return logger
	}
	return logger.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
}

func handleReportFile(cfg runner.Config, rep report.Report, logger *zap.Logger) {
	if cfg.ReportPath == "" {
		return
	}
	if err := report.Save(cfg.ReportPath, rep); err != nil {
		logger.Warn("report not saved", zap.Error(err))
		return
	}
	logger.Info("report saved", zap.String("path", cfg.ReportPath))
}

func printHeader(w io.Writer, cfg runner.Config, runID string) {
	fmt.Fprintf(w, "\nSTARTING LOAD TEST\n")
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 70))
	fmt.Fprintf(w, "Target URL : %s\n", cfg.URL)
	fmt.Fprintf(w, "Rate       : %d req/sec (every %s)\n", cfg.Rate, cfg.TickInterval())
	fmt.Fprintf(w, "Duration   : %s (+%s grace)\n", cfg.Duration, cfg.GracePeriod)
	fmt.Fprintf(w, "Timeout    : %s\n", cfg.Timeout)
	fmt.Fprintf(w, "Run ID     : %s\n", runID)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 70))
}
