package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/signalnine/driftbench/internal/regress"
	"github.com/signalnine/driftbench/internal/stats"
)

// ComparisonReport bundles the overall statistical comparison, the
// efficiency deltas, and the per-task regression verdict.
type ComparisonReport struct {
	Overall    stats.Comparison `json:"overall"`
	Efficiency stats.Efficiency `json:"efficiency"`
	Verdict    regress.Verdict  `json:"verdict"`
}

// GenerateComparison renders a baseline/current comparison in the requested
// format.
func GenerateComparison(rep ComparisonReport, format string, w io.Writer) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "markdown":
		return writeComparisonMarkdown(rep, w)
	default:
		return writeComparisonTable(rep, w)
	}
}

func writeComparisonTable(rep ComparisonReport, w io.Writer) error {
	fmt.Fprintf(w, "Overall: %.3f -> %.3f (delta %+.3f, p=%.4f, effect %s)\n",
		rep.Overall.MeanA, rep.Overall.MeanB, rep.Overall.Delta,
		rep.Overall.PValue, rep.Overall.EffectMagnitude)
	fmt.Fprintln(w, rep.Overall.Recommendation)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Tokens:   %.0f -> %.0f (%+.0f%%)\n",
		rep.Efficiency.TokensAMean, rep.Efficiency.TokensBMean, rep.Efficiency.TokensDeltaPct)
	fmt.Fprintf(w, "Duration: %.1fs -> %.1fs (%+.0f%%)\n",
		rep.Efficiency.DurationAMean, rep.Efficiency.DurationBMean, rep.Efficiency.DurationDeltaPct)
	fmt.Fprintf(w, "Cost:     $%.4f -> $%.4f (%+.0f%%)\n",
		rep.Efficiency.CostAMean, rep.Efficiency.CostBMean, rep.Efficiency.CostDeltaPct)
	fmt.Fprintln(w, rep.Efficiency.Recommendation)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tBASE PASS\tCUR PASS\tBASE SCORE\tCUR SCORE\tDELTA\tSTATUS")
	fmt.Fprintln(tw, strings.Repeat("-", 90))
	for _, t := range rep.Verdict.Tasks {
		fmt.Fprintf(tw, "%s\t%.0f%%\t%.0f%%\t%.3f\t%.3f\t%+.3f\t%s\n",
			t.TaskID, t.BaselinePassRate*100, t.CurrentPassRate*100,
			t.BaselineMeanScore, t.CurrentMeanScore, t.ScoreDelta, taskStatus(t))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if rep.Verdict.RegressionDetected {
		fmt.Fprintf(w, "REGRESSION DETECTED in %d task(s)\n", len(rep.Verdict.Regressions))
		for _, t := range rep.Verdict.Regressions {
			fmt.Fprintf(w, "  - %s: %s\n", t.TaskID, t.Reason)
		}
	} else {
		fmt.Fprintln(w, "No regressions detected")
	}
	return nil
}

func writeComparisonMarkdown(rep ComparisonReport, w io.Writer) error {
	fmt.Fprintln(w, "## Comparison")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Overall: %.3f -> %.3f (delta %+.3f, p=%.4f, effect %s)\n\n",
		rep.Overall.MeanA, rep.Overall.MeanB, rep.Overall.Delta,
		rep.Overall.PValue, rep.Overall.EffectMagnitude)
	fmt.Fprintf(w, "%s\n\n", rep.Overall.Recommendation)

	fmt.Fprintln(w, "| Metric | Baseline | Current | Change |")
	fmt.Fprintln(w, "|---|---|---|---|")
	fmt.Fprintf(w, "| Tokens | %.0f | %.0f | %+.0f%% |\n",
		rep.Efficiency.TokensAMean, rep.Efficiency.TokensBMean, rep.Efficiency.TokensDeltaPct)
	fmt.Fprintf(w, "| Duration | %.1fs | %.1fs | %+.0f%% |\n",
		rep.Efficiency.DurationAMean, rep.Efficiency.DurationBMean, rep.Efficiency.DurationDeltaPct)
	fmt.Fprintf(w, "| Cost | $%.4f | $%.4f | %+.0f%% |\n",
		rep.Efficiency.CostAMean, rep.Efficiency.CostBMean, rep.Efficiency.CostDeltaPct)
	fmt.Fprintf(w, "\n%s\n\n", rep.Efficiency.Recommendation)

	fmt.Fprintln(w, "| Task | Base Pass | Cur Pass | Base Score | Cur Score | Delta | Status |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|---|")
	for _, t := range rep.Verdict.Tasks {
		fmt.Fprintf(w, "| %s | %.0f%% | %.0f%% | %.3f | %.3f | %+.3f | %s |\n",
			t.TaskID, t.BaselinePassRate*100, t.CurrentPassRate*100,
			t.BaselineMeanScore, t.CurrentMeanScore, t.ScoreDelta, taskStatus(t))
	}
	fmt.Fprintln(w)
	if rep.Verdict.RegressionDetected {
		fmt.Fprintf(w, "**REGRESSION DETECTED** in %d task(s)\n", len(rep.Verdict.Regressions))
	} else {
		fmt.Fprintln(w, "No regressions detected")
	}
	return nil
}

func taskStatus(t regress.TaskComparison) string {
	switch {
	case t.Regressed:
		return "REGRESSED"
	case t.Improved:
		return "improved"
	default:
		return "ok"
	}
}
