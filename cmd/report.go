package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalnine/driftbench/internal/pricing"
	"github.com/signalnine/driftbench/internal/report"
	"github.com/signalnine/driftbench/internal/result"
)

var (
	flagReportFmt string
	flagKs        []int
	flagPricing   string
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report RESULTS",
		Short: "Summarize a results file",
		Args:  cobra.ExactArgs(1),
		RunE:  runReport,
	}
	cmd.Flags().StringVar(&flagReportFmt, "format", "table", "output format (table, markdown, json)")
	cmd.Flags().IntSliceVar(&flagKs, "k", []int{1, 3, 5}, "k values for pass@k")
	cmd.Flags().StringVar(&flagPricing, "pricing", "", "pricing table YAML (builtin defaults if empty)")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	results, err := result.Load(args[0])
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no results in %s", args[0])
	}

	table := pricing.Default()
	if flagPricing != "" {
		table, err = pricing.Load(flagPricing)
		if err != nil {
			return err
		}
	}

	metrics := report.Aggregate(results, flagKs, table)
	return report.Generate(metrics, flagReportFmt, os.Stdout)
}
