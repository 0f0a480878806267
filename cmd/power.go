package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalnine/driftbench/internal/stats"
)

var (
	flagBaselineRate float64
	flagMinEffect    float64
	flagPower        float64
	flagPowerAlpha   float64
	flagPowerJSON    bool
)

func newPowerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "power",
		Short: "Estimate the sample size needed to detect an effect",
		RunE:  runPower,
	}
	cmd.Flags().Float64Var(&flagBaselineRate, "baseline-rate", 0.7, "assumed baseline pass rate")
	cmd.Flags().Float64Var(&flagMinEffect, "min-effect", 0.1, "minimum detectable absolute effect")
	cmd.Flags().Float64Var(&flagPower, "power", 0.8, "target statistical power")
	cmd.Flags().Float64Var(&flagPowerAlpha, "alpha", stats.DefaultAlpha, "significance level")
	cmd.Flags().BoolVar(&flagPowerJSON, "json", false, "emit JSON")
	return cmd
}

func runPower(cmd *cobra.Command, args []string) error {
	analysis := stats.MinimumSampleSize(flagBaselineRate, flagMinEffect, flagPower, flagPowerAlpha)
	if flagPowerJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}
	fmt.Printf("Minimum sample size per group: %d\n", analysis.RecommendedSampleSize)
	fmt.Println(analysis.Notes)
	return nil
}
