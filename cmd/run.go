package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/signalnine/driftbench/internal/executor"
	"github.com/signalnine/driftbench/internal/grader"
	"github.com/signalnine/driftbench/internal/isolator"
	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/runner"
	"github.com/signalnine/driftbench/internal/task"
)

var (
	flagTasks      string
	flagConfigs    string
	flagTask       string
	flagConfigName string
	flagRuns       int
	flagParallel   int
	flagExecutor   string
	flagModels     string
	flagOutput     string
	flagEnvFile    string
	flagJudgeModel string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the evaluation matrix and persist graded results",
		RunE:  runMatrix,
	}
	cmd.Flags().StringVar(&flagTasks, "tasks", "tasks/*.yaml", "glob for task definitions")
	cmd.Flags().StringVar(&flagConfigs, "configs", "configs/*.yaml", "glob for config definitions")
	cmd.Flags().StringVar(&flagTask, "task", "", "filter to a single task id")
	cmd.Flags().StringVar(&flagConfigName, "config-name", "", "filter to a single config")
	cmd.Flags().IntVar(&flagRuns, "runs", 1, "runs per task/config pair")
	cmd.Flags().IntVar(&flagParallel, "parallel", 1, "max concurrent evaluations")
	cmd.Flags().StringVar(&flagExecutor, "executor", "local", "executor backend (local or docker)")
	cmd.Flags().StringVar(&flagModels, "models", "", "comma-separated model override list")
	cmd.Flags().StringVar(&flagOutput, "output", "results", "output directory for results JSON")
	cmd.Flags().StringVar(&flagEnvFile, "env-file", "", "env file with judge API credentials")
	cmd.Flags().StringVar(&flagJudgeModel, "judge-model", grader.DefaultJudgeModel, "model used for rubric grading")
	return cmd
}

func runMatrix(cmd *cobra.Command, args []string) error {
	if flagEnvFile != "" {
		if err := godotenv.Load(flagEnvFile); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
	}

	tasks, err := task.LoadTasksGlob(flagTasks)
	if err != nil {
		return err
	}
	configs, err := task.LoadConfigsGlob(flagConfigs)
	if err != nil {
		return err
	}
	tasks = filterTasks(tasks, flagTask)
	configs = filterConfigs(configs, flagConfigName)
	if len(tasks) == 0 {
		return fmt.Errorf("no tasks matched %s", flagTasks)
	}
	if len(configs) == 0 {
		return fmt.Errorf("no configs matched %s", flagConfigs)
	}

	var exec executor.Executor
	switch flagExecutor {
	case "docker":
		exec = executor.NewDockerExecutor()
	case "local":
		exec = executor.NewCLIExecutor()
	default:
		return fmt.Errorf("unknown executor %q", flagExecutor)
	}

	llm := grader.NewLLMGrader(flagJudgeModel, os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_BASE_URL"))
	composite := grader.NewCompositeGrader(grader.NewCodeGrader(), llm)
	r := runner.New(exec, composite, isolator.New(""))

	var models []string
	if flagModels != "" {
		models = strings.Split(flagModels, ",")
	}

	taskPtrs := make([]*task.Task, len(tasks))
	for i := range tasks {
		taskPtrs[i] = &tasks[i]
	}
	configPtrs := make([]*task.Config, len(configs))
	for i := range configs {
		configPtrs[i] = &configs[i]
	}

	fmt.Printf("Running %d task(s) x %d config(s) x %d run(s)\n", len(tasks), len(configs), flagRuns)

	results := r.RunMatrix(context.Background(), taskPtrs, configPtrs, runner.MatrixOpts{
		Runs:     flagRuns,
		Parallel: flagParallel,
		Models:   models,
		Progress: func(done, total int, res result.EvalResult) {
			status := "FAIL"
			if res.Passed {
				status = "PASS"
			}
			fmt.Printf("[%d/%d] %s %s x %s score=%.2f\n",
				done, total, status, res.TaskID, res.ConfigName, res.OverallScore)
		},
	})

	runDir, err := result.CreateRunDir(flagOutput)
	if err != nil {
		// Symlinks are not available everywhere; fall back to a flat file.
		log.Printf("warning: %v", err)
		path, err := result.SaveTimestamped(results, flagOutput)
		if err != nil {
			return err
		}
		fmt.Printf("Results written to %s\n", path)
	} else {
		path := filepath.Join(runDir, "results.json")
		if err := result.Save(results, path); err != nil {
			return err
		}
		fmt.Printf("Results written to %s\n", path)
	}

	var passed int
	for _, res := range results {
		if res.Passed {
			passed++
		}
	}
	if len(results) > 0 {
		fmt.Printf("Passed %d/%d (%.0f%%)\n", passed, len(results), float64(passed)/float64(len(results))*100)
	}
	return nil
}

func filterTasks(tasks []task.Task, id string) []task.Task {
	if id == "" {
		return tasks
	}
	var out []task.Task
	for _, t := range tasks {
		if t.ID == id {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		log.Printf("warning: no task with id %q", id)
	}
	return out
}

func filterConfigs(configs []task.Config, name string) []task.Config {
	if name == "" {
		return configs
	}
	var out []task.Config
	for _, c := range configs {
		if c.Name == name {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		log.Printf("warning: no config named %q", name)
	}
	return out
}
