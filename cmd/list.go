package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalnine/driftbench/internal/task"
)

var (
	flagListTasks   string
	flagListConfigs string
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered tasks and configs",
		RunE:  runList,
	}
	cmd.Flags().StringVar(&flagListTasks, "tasks", "tasks/*.yaml", "glob for task definitions")
	cmd.Flags().StringVar(&flagListConfigs, "configs", "configs/*.yaml", "glob for config definitions")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	tasks, err := task.LoadTasksGlob(flagListTasks)
	if err != nil {
		return err
	}
	configs, err := task.LoadConfigsGlob(flagListConfigs)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Tasks (%d):\n", len(tasks))
	fmt.Fprintln(tw, "ID\tCATEGORY\tDIFFICULTY\tASSERTIONS\tDESCRIPTION")
	fmt.Fprintln(tw, strings.Repeat("-", 80))
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			t.ID, t.Category, t.Difficulty, len(t.Assertions), t.Description)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Configs (%d):\n", len(configs))
	fmt.Fprintln(tw, "NAME\tMODEL\tMAX TURNS\tDESCRIPTION")
	fmt.Fprintln(tw, strings.Repeat("-", 80))
	for _, c := range configs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.Name, c.Model, c.MaxTurns, c.Description)
	}
	return tw.Flush()
}
