package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/signalnine/driftbench/internal/pricing"
	"github.com/signalnine/driftbench/internal/regress"
	"github.com/signalnine/driftbench/internal/report"
	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/stats"
)

var (
	flagThreshold      float64
	flagRequireSig     bool
	flagAlpha          float64
	flagCompareFmt     string
	flagComparePricing string
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare BASELINE CURRENT",
		Short: "Compare two result files and detect regressions",
		Args:  cobra.ExactArgs(2),
		RunE:  runCompare,
	}
	cmd.Flags().Float64Var(&flagThreshold, "threshold", regress.DefaultThreshold, "score drop that counts as a regression")
	cmd.Flags().BoolVar(&flagRequireSig, "require-significance", false, "only flag statistically significant drops")
	cmd.Flags().Float64Var(&flagAlpha, "alpha", stats.DefaultAlpha, "significance level")
	cmd.Flags().StringVar(&flagCompareFmt, "format", "table", "output format (table, markdown, json)")
	cmd.Flags().StringVar(&flagComparePricing, "pricing", "", "pricing table YAML (builtin defaults if empty)")
	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	baseline, err := result.Load(args[0])
	if err != nil {
		return err
	}
	current, err := result.Load(args[1])
	if err != nil {
		return err
	}

	detector := &regress.Detector{
		Threshold:           flagThreshold,
		RequireSignificance: flagRequireSig,
		Alpha:               flagAlpha,
	}
	verdict := detector.Detect(baseline, current)

	overall := stats.Compare(scoresOf(baseline), scoresOf(current), flagAlpha)

	table := pricing.Default()
	if flagComparePricing != "" {
		table, err = pricing.Load(flagComparePricing)
		if err != nil {
			return err
		}
	}
	efficiency := stats.CompareEfficiency(
		tokensOf(baseline), tokensOf(current),
		durationsOf(baseline), durationsOf(current),
		costsOf(baseline, table), costsOf(current, table))

	err = report.GenerateComparison(report.ComparisonReport{
		Overall:    overall,
		Efficiency: efficiency,
		Verdict:    verdict,
	}, flagCompareFmt, os.Stdout)
	if err != nil {
		return err
	}
	if verdict.RegressionDetected {
		os.Exit(1)
	}
	return nil
}

func scoresOf(results []result.EvalResult) []float64 {
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.OverallScore
	}
	return scores
}

func tokensOf(results []result.EvalResult) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = float64(r.Trace.Usage.Total())
	}
	return out
}

func durationsOf(results []result.EvalResult) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.Trace.DurationSeconds
	}
	return out
}

func costsOf(results []result.EvalResult, table *pricing.Table) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = table.Cost(r.Model, r.Trace.Usage)
	}
	return out
}
