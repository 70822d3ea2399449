// Package report renders score results: a line-oriented human report with a
// machine-readable status line, and cross-run summary tables.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/signalnine/meshbench/internal/rubric"
	"golang.org/x/term"
)

var (
	passStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true)
)

// Render writes the human report followed by the machine-readable status
// line. Styling applies only when w is a terminal and NO_COLOR is unset.
func Render(w io.Writer, res *rubric.Result, runDir string) {
	styled := colorEnabled(w)
	paint := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	if res.CriticalFail {
		fmt.Fprintln(w, paint(criticalStyle, res.Label))
		fmt.Fprintf(w, "reason: %s\n", res.CriticalReason)
		fmt.Fprintf(w, "forensics: %s\n", runDir)
		fmt.Fprintf(w, "RESULT: %s (0/0)\n", res.Label)
		return
	}

	fmt.Fprintln(w, paint(headerStyle, "Rubric breakdown"))
	category := ""
	for _, cr := range res.Checks {
		if cr.Category != category {
			category = cr.Category
			fmt.Fprintf(w, "%s\n", paint(headerStyle, category))
		}
		mark, style := "PASS", passStyle
		switch {
		case cr.Warned:
			mark, style = "WARN", warnStyle
		case !cr.Passed:
			mark, style = "FAIL", failStyle
		}
		fmt.Fprintf(w, "  [%s] %s (%d/%d)\n", paint(style, mark), cr.Name, cr.Awarded, cr.Possible)
	}

	fmt.Fprintf(w, "\npassed %d, failed %d, warned %d\n", res.Passed, res.Failed, res.Warned)
	if res.CapApplied {
		fmt.Fprintf(w, "%s: score capped at %.0f%% of total (%s)\n",
			paint(warnStyle, "CAP"), res.CapPercent*100, res.CapReason)
	}
	if res.Penalty > 0 {
		fmt.Fprintf(w, "%s: -%d friction\n", paint(warnStyle, "PENALTY"), res.Penalty)
	}
	fmt.Fprintf(w, "forensics: raw artifacts in %s (channel-history.txt, agents/, status.env)\n", runDir)

	style := failStyle
	switch res.Label {
	case rubric.LabelAllPassed, rubric.LabelExcellent, rubric.LabelPass:
		style = passStyle
	}
	fmt.Fprintf(w, "RESULT: %s (%d/%d)\n", paint(style, res.Label), res.Score, res.Total)
}

// ExitCode maps a result to the harness process exit code: zero only when no
// check failed and no critical-fail occurred. Warnings (partial graduated
// credit) are acceptable.
func ExitCode(res *rubric.Result) int {
	if res.CriticalFail || res.Failed > 0 {
		return 1
	}
	return 0
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
