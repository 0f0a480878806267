package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/signalnine/driftbench/internal/pricing"
	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/stats"
)

// Key identifies one aggregation group.
type Key struct {
	TaskID     string `json:"task_id"`
	ConfigName string `json:"config_name"`
	Model      string `json:"model"`
}

// AggregatedMetrics summarizes all runs of one (task, config, model) group.
type AggregatedMetrics struct {
	Key
	TotalRuns    int             `json:"total_runs"`
	Passed       int             `json:"passed"`
	Failed       int             `json:"failed"`
	PassRate     float64         `json:"pass_rate"`
	MeanScore    float64         `json:"mean_score"`
	MinScore     float64         `json:"min_score"`
	MaxScore     float64         `json:"max_score"`
	MeanTokens   float64         `json:"mean_tokens"`
	MeanDuration float64         `json:"mean_duration_seconds"`
	MeanCostUSD  float64         `json:"mean_cost_usd"`
	PassAtK      map[int]float64 `json:"pass_at_k,omitempty"`
	Stability    stats.Stability `json:"stability"`
}

// Aggregate groups results by (task, config, model) and computes summary
// metrics. ks lists the k values to estimate pass@k for; costs come from the
// pricing table, which may be nil to skip cost estimation.
func Aggregate(results []result.EvalResult, ks []int, table *pricing.Table) []AggregatedMetrics {
	grouped := make(map[Key][]result.EvalResult)
	for _, r := range results {
		k := Key{TaskID: r.TaskID, ConfigName: r.ConfigName, Model: r.Model}
		grouped[k] = append(grouped[k], r)
	}

	keys := make([]Key, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].TaskID != keys[j].TaskID {
			return keys[i].TaskID < keys[j].TaskID
		}
		if keys[i].ConfigName != keys[j].ConfigName {
			return keys[i].ConfigName < keys[j].ConfigName
		}
		return keys[i].Model < keys[j].Model
	})

	var out []AggregatedMetrics
	for _, k := range keys {
		out = append(out, aggregateGroup(k, grouped[k], ks, table))
	}
	return out
}

func aggregateGroup(key Key, runs []result.EvalResult, ks []int, table *pricing.Table) AggregatedMetrics {
	m := AggregatedMetrics{Key: key, TotalRuns: len(runs)}
	if len(runs) == 0 {
		return m
	}

	m.MinScore = runs[0].OverallScore
	m.MaxScore = runs[0].OverallScore
	var scoreSum, tokenSum, durationSum, costSum float64
	scores := make([]float64, 0, len(runs))
	for _, r := range runs {
		if r.Passed {
			m.Passed++
		}
		scoreSum += r.OverallScore
		scores = append(scores, r.OverallScore)
		if r.OverallScore < m.MinScore {
			m.MinScore = r.OverallScore
		}
		if r.OverallScore > m.MaxScore {
			m.MaxScore = r.OverallScore
		}
		tokenSum += float64(r.Trace.Usage.Total())
		durationSum += r.Trace.DurationSeconds
		if table != nil {
			costSum += table.Cost(r.Model, r.Trace.Usage)
		}
	}
	m.Failed = m.TotalRuns - m.Passed
	n := float64(m.TotalRuns)
	m.PassRate = float64(m.Passed) / n
	m.MeanScore = scoreSum / n
	m.MeanTokens = tokenSum / n
	m.MeanDuration = durationSum / n
	m.MeanCostUSD = costSum / n
	m.Stability = stats.ComputeStability(scores)

	if len(ks) > 0 {
		m.PassAtK = make(map[int]float64, len(ks))
		for _, k := range ks {
			// Unbiased estimator over the observed runs rather than the
			// plug-in 1-(1-p)^k, which overestimates at small n.
			m.PassAtK[k] = stats.PassAtKUnbiased(m.TotalRuns, m.Passed, k)
		}
	}
	return m
}

// Generate renders aggregated metrics in the requested format.
func Generate(metrics []AggregatedMetrics, format string, w io.Writer) error {
	switch format {
	case "markdown":
		return writeMarkdown(metrics, w)
	case "json":
		return writeJSON(metrics, w)
	default:
		return writeTable(metrics, w)
	}
}

func writeTable(metrics []AggregatedMetrics, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tCONFIG\tMODEL\tRUNS\tPASS RATE\tMEAN SCORE\tSTDDEV\tMEAN TOKENS\tMEAN COST")
	fmt.Fprintln(tw, strings.Repeat("-", 100))
	for _, m := range metrics {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.0f%%\t%.3f\t%.3f\t%.0f\t$%.4f\n",
			m.TaskID, m.ConfigName, m.Model, m.TotalRuns,
			m.PassRate*100, m.MeanScore, m.Stability.StdDev, m.MeanTokens, m.MeanCostUSD)
	}
	return tw.Flush()
}

func writeMarkdown(metrics []AggregatedMetrics, w io.Writer) error {
	fmt.Fprintln(w, "| Task | Config | Model | Runs | Pass Rate | Mean Score | StdDev | Mean Tokens | Mean Cost |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|---|---|---|")
	for _, m := range metrics {
		fmt.Fprintf(w, "| %s | %s | %s | %d | %.0f%% | %.3f | %.3f | %.0f | $%.4f |\n",
			m.TaskID, m.ConfigName, m.Model, m.TotalRuns,
			m.PassRate*100, m.MeanScore, m.Stability.StdDev, m.MeanTokens, m.MeanCostUSD)
	}
	return nil
}

func writeJSON(metrics []AggregatedMetrics, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(metrics)
}
