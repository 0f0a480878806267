package runner

import (
	"context"
	"log"
	"time"

	"github.com/signalnine/driftbench/internal/executor"
	"github.com/signalnine/driftbench/internal/grader"
	"github.com/signalnine/driftbench/internal/isolator"
	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/task"
)

// Runner drives the full evaluation pipeline for one run: isolate, execute,
// diff, grade.
type Runner struct {
	Executor executor.Executor
	Grader   *grader.CompositeGrader
	Isolator *isolator.Isolator
}

func New(exec executor.Executor, g *grader.CompositeGrader, iso *isolator.Isolator) *Runner {
	return &Runner{Executor: exec, Grader: g, Isolator: iso}
}

// RunSingle evaluates one (task, config, run index) combination in a fresh
// environment. Executor and grading failures surface inside the EvalResult;
// an error return means the environment itself could not be prepared.
func (r *Runner) RunSingle(ctx context.Context, t *task.Task, cfg *task.Config, runIndex int) (result.EvalResult, error) {
	env, err := r.Isolator.Create(t, cfg)
	if err != nil {
		return result.EvalResult{}, err
	}
	defer func() {
		if err := env.Cleanup(); err != nil {
			log.Printf("warning: cleaning up %s: %v", env.Root, err)
		}
	}()

	before := isolator.Snapshot(env.Path)

	trace, err := r.Executor.Run(ctx, t.Prompt, cfg, env.Path, t.Timeout())
	if err != nil {
		trace = &result.ExecutionTrace{
			Response: "Execution failed: " + err.Error(),
			IsError:  true,
		}
	}
	trace.FileChanges = isolator.Diff(before, env.Path)

	grades, overall, passed := r.Grader.Grade(ctx, t, trace, env.Path)

	return result.EvalResult{
		TaskID:       t.ID,
		ConfigName:   cfg.Name,
		Model:        cfg.Model,
		RunIndex:     runIndex,
		Timestamp:    time.Now().UTC(),
		Trace:        *trace,
		Grades:       grades,
		OverallScore: overall,
		Passed:       passed,
	}, nil
}
