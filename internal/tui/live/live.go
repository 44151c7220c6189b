package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"loadgen/internal/runner"
	"loadgen/internal/stats"
	"loadgen/internal/tui/components"
	"loadgen/internal/tui/styles"
)

// SnapshotMsg carries one progress sample into the program.
type SnapshotMsg stats.Snapshot

// DoneMsg is sent once the report has been built.
type DoneMsg struct {
	Summary string
}

type Model struct {
	Cfg   runner.Config
	Stats stats.Snapshot

	Progress progress.Model
	Result   viewport.Model

	RateLine    components.Sparkline
	LatencyLine components.Sparkline

	lastElapsed    time.Duration
	lastDispatched uint64

	// Interrupt stops dispatching; it is what ctrl+c means while the run is live.
	Interrupt func()
	Stopping  bool
	Done      bool

	Width  int
	Height int
}

func NewModel(cfg runner.Config, interrupt func()) Model {
	return Model{
		Cfg: cfg,
		Progress: progress.New(
			progress.WithGradient(string(styles.ColorPrimary), string(styles.ColorSecondary)),
			progress.WithWidth(60),
		),
		Result:      viewport.New(80, 20),
		RateLine:    components.NewSparkline(40, "Dispatch rate", "req/s", styles.Active),
		LatencyLine: components.NewSparkline(40, "Latency P90", "ms", styles.Warn),
		Interrupt:   interrupt,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		s := stats.Snapshot(msg)

		dt := (s.Elapsed - m.lastElapsed).Seconds()
		if dt > 0 && s.Dispatched >= m.lastDispatched {
			m.RateLine.Add(float64(s.Dispatched-m.lastDispatched) / dt)
		}
		m.LatencyLine.Add(s.P90Ms)

		m.Stats = s
		m.lastElapsed = s.Elapsed
		m.lastDispatched = s.Dispatched

		pct := 0.0
		if m.Cfg.Duration > 0 {
			pct = float64(s.Elapsed) / float64(m.Cfg.Duration)
		}
		if pct > 1.0 {
			pct = 1.0
		}
		return m, m.Progress.SetPercent(pct)

	case DoneMsg:
		m.Done = true
		m.Result.SetContent(msg.Summary)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.Done {
				return m, tea.Quit
			}
			if !m.Stopping && m.Interrupt != nil {
				m.Interrupt()
			}
			m.Stopping = true
			return m, nil
		}
		if m.Done {
			var cmd tea.Cmd
			m.Result, cmd = m.Result.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 4

		half := (msg.Width / 2) - 6
		if half < 10 {
			half = 10
		}
		m.RateLine.Resize(half)
		m.LatencyLine.Resize(half)

		m.Result.Width = msg.Width - 2
		m.Result.Height = msg.Height - 4
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.Done {
		return styles.Title.Render("Run complete") + "\n" +
			m.Result.View() + "\n" +
			styles.RenderKey("q", "quit") + "  " + styles.RenderKey("↑/↓", "scroll")
	}

	s := strings.Builder{}
	s.WriteString(styles.Title.Render(fmt.Sprintf("GET %s @ %d req/s", m.Cfg.URL, m.Cfg.Rate)))
	s.WriteString("\n\n")

	failRate := 0.0
	if m.Stats.Total > 0 {
		failRate = float64(m.Stats.Failure) / float64(m.Stats.Total) * 100
	}
	failStyle := styles.Value
	if failRate > 5.0 {
		failStyle = styles.Error
	} else if failRate > 1.0 {
		failStyle = styles.Warn
	}

	col1 := fmt.Sprintf("SENT: %d\nINF:  %d", m.Stats.Dispatched, m.Stats.Inflight)
	col2 := fmt.Sprintf("OK:   %d\nFAIL: %s", m.Stats.Success,
		failStyle.Render(fmt.Sprintf("%d (%.2f%%)", m.Stats.Failure, failRate)))
	col3 := fmt.Sprintf("ELAPSED: %s\nTARGET:  %s",
		m.Stats.Elapsed.Round(time.Second), m.Cfg.Duration)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(col2),
		styles.Box.Render(col3),
	))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.RateLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n\n")

	s.WriteString(styles.Box.Render(fmt.Sprintf(
		"P50: %.2f ms  |  P90: %.2f ms  |  P99: %.2f ms  |  Max: %.2f ms",
		m.Stats.P50Ms, m.Stats.P90Ms, m.Stats.P99Ms, m.Stats.MaxMs,
	)))
	s.WriteString("\n\n")
	s.WriteString(m.Progress.View())
	s.WriteString("\n\n")

	if m.Stopping {
		s.WriteString(styles.Warn.Render("Stopping: waiting for in-flight requests..."))
	} else {
		s.WriteString(styles.RenderKey("q", "stop run"))
	}
	return s.String()
}
