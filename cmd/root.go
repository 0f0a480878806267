package cmd

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "driftbench",
		Short: "Regression harness for AI coding assistant configurations",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newPowerCmd())
	root.AddCommand(newRescoreCmd())
	return root
}
