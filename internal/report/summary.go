package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/signalnine/meshbench/internal/artifact"
	"github.com/signalnine/meshbench/internal/rubric"
)

type ScenarioSummary struct {
	Scenario  string         `json:"scenario"`
	Runs      int            `json:"runs"`
	Completed int            `json:"completed"`
	MeanPct   float64        `json:"mean_pct"`
	Labels    map[string]int `json:"labels"`
}

// Summarize walks a results directory and aggregates every scored run per
// scenario. Runs without a score.json are counted but contribute no score.
func Summarize(resultsDir, format string, w io.Writer) error {
	summaries, err := collect(resultsDir)
	if err != nil {
		return err
	}

	switch format {
	case "markdown":
		return writeMarkdown(summaries, w)
	case "json":
		return writeJSON(summaries, w)
	default:
		return writeTable(summaries, w)
	}
}

type runRecord struct {
	scenario string
	status   string
	result   *rubric.Result
}

func collect(resultsDir string) ([]ScenarioSummary, error) {
	runsDir := filepath.Join(resultsDir, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return nil, fmt.Errorf("reading runs dir: %w", err)
	}

	var records []runRecord
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(runsDir, e.Name())
		store := artifact.Open(dir)
		status := store.ReadStatus()
		rec := runRecord{scenario: status["scenario"], status: status["status"]}
		if rec.scenario == "" {
			continue
		}
		if data, err := os.ReadFile(filepath.Join(dir, "score.json")); err == nil {
			var res rubric.Result
			if err := json.Unmarshal(data, &res); err == nil {
				rec.result = &res
			}
		}
		records = append(records, rec)
	}

	type accum struct {
		runs      int
		completed int
		pctSum    float64
		scored    int
		labels    map[string]int
	}
	byScenario := map[string]*accum{}
	for _, r := range records {
		a, ok := byScenario[r.scenario]
		if !ok {
			a = &accum{labels: map[string]int{}}
			byScenario[r.scenario] = a
		}
		a.runs++
		if strings.HasPrefix(r.status, "completed") {
			a.completed++
		}
		if r.result != nil {
			if r.result.Total > 0 {
				a.pctSum += float64(r.result.Score) / float64(r.result.Total)
			}
			a.scored++
			a.labels[r.result.Label]++
		}
	}

	var summaries []ScenarioSummary
	for name, a := range byScenario {
		s := ScenarioSummary{Scenario: name, Runs: a.runs, Completed: a.completed, Labels: a.labels}
		if a.scored > 0 {
			s.MeanPct = a.pctSum / float64(a.scored)
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Scenario < summaries[j].Scenario
	})
	return summaries, nil
}

func writeTable(summaries []ScenarioSummary, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tRUNS\tCOMPLETED\tMEAN SCORE\tLABELS")
	fmt.Fprintln(tw, strings.Repeat("-", 64))
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.0f%%\t%s\n",
			s.Scenario, s.Runs, s.Completed, s.MeanPct*100, labelList(s.Labels))
	}
	return tw.Flush()
}

func writeMarkdown(summaries []ScenarioSummary, w io.Writer) error {
	fmt.Fprintln(w, "| Scenario | Runs | Completed | Mean Score | Labels |")
	fmt.Fprintln(w, "|---|---|---|---|---|")
	for _, s := range summaries {
		fmt.Fprintf(w, "| %s | %d | %d | %.0f%% | %s |\n",
			s.Scenario, s.Runs, s.Completed, s.MeanPct*100, labelList(s.Labels))
	}
	return nil
}

func writeJSON(summaries []ScenarioSummary, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}

func labelList(labels map[string]int) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s×%d", k, labels[k]))
	}
	return strings.Join(parts, " ")
}
