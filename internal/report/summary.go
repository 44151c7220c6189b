package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const rule = 70

// WriteSummary prints the human-readable report. Headings are styled only when
// w is a terminal.
func WriteSummary(w io.Writer, r Report) error {
	renderer := lipgloss.NewRenderer(w)
	heading := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	bad := renderer.NewStyle().Foreground(lipgloss.Color("#FF5F87"))

	var b strings.Builder
	line := func(c string) { b.WriteString(strings.Repeat(c, rule) + "\n") }

	b.WriteString("\n")
	line("=")
	b.WriteString(heading.Render("LOAD TEST REPORT") + "\n")
	line("=")
	fmt.Fprintf(&b, "URL:              %s\n", r.Config.URL)
	fmt.Fprintf(&b, "Run ID:           %s\n", r.RunID)
	fmt.Fprintf(&b, "Duration:         %s (configured %s)\n", r.TotalDuration, r.Config.Duration)
	fmt.Fprintf(&b, "Target Rate:      %d req/sec\n", r.Config.RatePerSec)
	fmt.Fprintf(&b, "Actual Rate:      %.2f req/sec\n", r.RequestsPerSec)
	if r.Interrupted {
		b.WriteString(bad.Render("Interrupted:      dispatch stopped early") + "\n")
	}
	line("-")
	fmt.Fprintf(&b, "Total Requests:   %s\n", humanize.Comma(int64(r.TotalRequests)))
	fmt.Fprintf(&b, "Success:          %s (%.2f%%)\n",
		humanize.Comma(int64(r.SuccessRequests)), Percent(r.SuccessRequests, r.TotalRequests))
	fmt.Fprintf(&b, "Failed:           %s (%.2f%%)\n",
		humanize.Comma(int64(r.FailedRequests)), Percent(r.FailedRequests, r.TotalRequests))
	if r.LostRequests > 0 {
		fmt.Fprintf(&b, "Unfinished:       %s (still in flight after grace period)\n",
			humanize.Comma(int64(r.LostRequests)))
	}
	fmt.Fprintf(&b, "Bytes Received:   %s\n", humanize.Bytes(r.BytesReceived))
	line("-")
	b.WriteString(heading.Render("Latency Statistics (milliseconds):") + "\n")
	fmt.Fprintf(&b, "  Min:     %8.2f ms\n", r.LatencyMin)
	fmt.Fprintf(&b, "  Mean:    %8.2f ms\n", r.LatencyMean)
	fmt.Fprintf(&b, "  P50:     %8.2f ms\n", r.LatencyP50)
	fmt.Fprintf(&b, "  P90:     %8.2f ms\n", r.LatencyP90)
	fmt.Fprintf(&b, "  P95:     %8.2f ms\n", r.LatencyP95)
	fmt.Fprintf(&b, "  P99:     %8.2f ms\n", r.LatencyP99)
	fmt.Fprintf(&b, "  Max:     %8.2f ms\n", r.LatencyMax)

	if len(r.StatusCodeDist) > 0 {
		line("-")
		b.WriteString(heading.Render("Status Code Distribution:") + "\n")
		codes := make([]int, 0, len(r.StatusCodeDist))
		for code := range r.StatusCodeDist {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(&b, "  %d: %d\n", code, r.StatusCodeDist[code])
		}
	}

	if len(r.ErrorDetails) > 0 {
		line("-")
		b.WriteString(bad.Render("Error Details:") + "\n")
		errs := make([]string, 0, len(r.ErrorDetails))
		for e := range r.ErrorDetails {
			errs = append(errs, e)
		}
		sort.Strings(errs)
		for _, e := range errs {
			fmt.Fprintf(&b, "  %s: %d\n", e, r.ErrorDetails[e])
		}
	}
	line("=")

	_, err := io.WriteString(w, b.String())
	return err
}
