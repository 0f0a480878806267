package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/signalnine/driftbench/internal/grader"
	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/task"
)

var (
	flagRescoreTasks   string
	flagRescoreOutput  string
	flagRescoreEnvFile string
	flagRescoreJudge   string
)

func newRescoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rescore RESULTS",
		Short: "Re-run rubric grading over stored traces and recompute scores",
		Args:  cobra.ExactArgs(1),
		RunE:  runRescore,
	}
	cmd.Flags().StringVar(&flagRescoreTasks, "tasks", "tasks/*.yaml", "glob for task definitions")
	cmd.Flags().StringVar(&flagRescoreOutput, "output", "", "output path (default: overwrite input)")
	cmd.Flags().StringVar(&flagRescoreEnvFile, "env-file", "", "env file with judge API credentials")
	cmd.Flags().StringVar(&flagRescoreJudge, "judge-model", grader.DefaultJudgeModel, "model used for rubric grading")
	return cmd
}

func runRescore(cmd *cobra.Command, args []string) error {
	if flagRescoreEnvFile != "" {
		if err := godotenv.Load(flagRescoreEnvFile); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
	}

	results, err := result.Load(args[0])
	if err != nil {
		return err
	}
	tasks, err := task.LoadTasksGlob(flagRescoreTasks)
	if err != nil {
		return err
	}
	byID := make(map[string]*task.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	llm := grader.NewLLMGrader(flagRescoreJudge, os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_BASE_URL"))
	ctx := context.Background()

	rescored := 0
	for i := range results {
		t, ok := byID[results[i].TaskID]
		if !ok {
			fmt.Printf("skipping %s: no task definition\n", results[i].TaskID)
			continue
		}

		// Code grades are kept as stored: their environments are gone.
		// Only rubric grades are recomputed from the trace.
		var grades []result.GradeResult
		llmIdx := 0
		llmAssertions := t.LLMAssertions()
		for _, g := range results[i].Grades {
			if g.AssertionType == string(task.AssertionLLM) && llmIdx < len(llmAssertions) {
				fresh := llm.Grade(ctx, llmAssertions[llmIdx], t, &results[i].Trace, "")
				fresh.AssertionID = fmt.Sprintf("llm_%d", llmIdx)
				grades = append(grades, fresh)
				llmIdx++
				continue
			}
			grades = append(grades, g)
		}

		if len(grades) == 0 {
			results[i].Grades = nil
			results[i].OverallScore = 0
			results[i].Passed = false
			continue
		}
		overall := grader.WeightedScore(grades, t.Scoring)
		allCodePass := true
		for _, g := range grades {
			if g.AssertionType == string(task.AssertionCode) && !g.Passed {
				allCodePass = false
			}
		}
		threshold := grader.DefaultPassThreshold
		if t.PassThreshold != nil {
			threshold = *t.PassThreshold
		}
		results[i].Grades = grades
		results[i].OverallScore = overall
		results[i].Passed = overall >= threshold || allCodePass
		rescored++
	}

	output := flagRescoreOutput
	if output == "" {
		output = args[0]
	}
	if err := result.Save(results, output); err != nil {
		return err
	}
	fmt.Printf("Rescored %d/%d results -> %s\n", rescored, len(results), output)
	return nil
}
