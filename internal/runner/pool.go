package runner

import (
	"context"
	"log"
	"sync"

	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/task"
)

// MatrixOpts controls a full tasks x configs x runs sweep.
type MatrixOpts struct {
	// Runs is the number of repetitions per (task, config) pair, minimum 1.
	Runs int

	// Parallel caps concurrent evaluations. Zero or one runs sequentially.
	Parallel int

	// Models, when non-empty, expands every config across these model ids
	// instead of the config's own model.
	Models []string

	// Progress, when set, is called after each completed run.
	Progress func(done, total int, r result.EvalResult)
}

type job struct {
	task     *task.Task
	config   *task.Config
	runIndex int
}

// RunMatrix evaluates every combination and returns results in a stable
// order (task, config, run index) regardless of worker scheduling.
func (r *Runner) RunMatrix(ctx context.Context, tasks []*task.Task, configs []*task.Config, opts MatrixOpts) []result.EvalResult {
	if opts.Runs < 1 {
		opts.Runs = 1
	}
	workers := opts.Parallel
	if workers < 1 {
		workers = 1
	}

	expanded := expandConfigs(configs, opts.Models)

	var jobs []job
	for _, t := range tasks {
		for _, cfg := range expanded {
			for i := 0; i < opts.Runs; i++ {
				jobs = append(jobs, job{task: t, config: cfg, runIndex: i})
			}
		}
	}
	total := len(jobs)

	results := make([]result.EvalResult, total)
	jobCh := make(chan int)

	var mu sync.Mutex
	done := 0

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				j := jobs[idx]
				res, err := r.RunSingle(ctx, j.task, j.config, j.runIndex)
				if err != nil {
					log.Printf("run failed for task %s config %s: %v", j.task.ID, j.config.Name, err)
					res = result.EvalResult{
						TaskID:     j.task.ID,
						ConfigName: j.config.Name,
						Model:      j.config.Model,
						RunIndex:   j.runIndex,
						Trace:      result.ExecutionTrace{Response: err.Error(), IsError: true},
					}
				}
				results[idx] = res

				mu.Lock()
				done++
				if opts.Progress != nil {
					opts.Progress(done, total, res)
				}
				mu.Unlock()
			}
		}()
	}

	for idx := range jobs {
		select {
		case <-ctx.Done():
			close(jobCh)
			wg.Wait()
			// Keep the runs that finished before cancellation so partial
			// sweeps can still be saved and rescored.
			completed := results[:0]
			for _, res := range results {
				if res.TaskID != "" {
					completed = append(completed, res)
				}
			}
			return completed
		case jobCh <- idx:
		}
	}
	close(jobCh)
	wg.Wait()
	return results
}

// expandConfigs crosses configs with a model override list. Each variant
// keeps the config name with the model appended so result grouping stays
// unambiguous.
func expandConfigs(configs []*task.Config, models []string) []*task.Config {
	if len(models) == 0 {
		return configs
	}
	var out []*task.Config
	for _, cfg := range configs {
		for _, m := range models {
			variant := *cfg
			variant.Model = m
			variant.Name = cfg.Name + "@" + m
			out = append(out, &variant)
		}
	}
	return out
}
