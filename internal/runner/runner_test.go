package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/signalnine/driftbench/internal/executor"
	"github.com/signalnine/driftbench/internal/grader"
	"github.com/signalnine/driftbench/internal/isolator"
	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/runner"
	"github.com/signalnine/driftbench/internal/task"
)

// fakeExecutor writes a file into the environment and returns a canned
// trace, standing in for a real agent.
type fakeExecutor struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeExecutor) Run(ctx context.Context, prompt string, cfg *task.Config, workDir string, timeout time.Duration) (*result.ExecutionTrace, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err := os.WriteFile(filepath.Join(workDir, "solution.py"), []byte("def fix():\n    return True\n"), 0o644); err != nil {
		return nil, err
	}
	return &result.ExecutionTrace{
		Response:        "Wrote solution.py",
		Usage:           result.TokenUsage{InputTokens: 100, OutputTokens: 50},
		DurationSeconds: 1.5,
		NumTurns:        2,
	}, nil
}

func newTestRunner(t *testing.T, exec executor.Executor) *runner.Runner {
	t.Helper()
	composite := grader.NewCompositeGrader(grader.NewCodeGrader(), nil)
	return runner.New(exec, composite, isolator.New(t.TempDir()))
}

func passingTask(id string) *task.Task {
	return &task.Task{
		ID:             id,
		Category:       task.CategoryCoding,
		Prompt:         "Fix the bug.",
		TimeoutSeconds: 30,
		Assertions: []task.Assertion{
			{Type: task.AssertionCode, Check: task.CheckFileExists, File: "solution.py"},
			{Type: task.AssertionCode, Check: task.CheckFileContains, File: "solution.py", Pattern: `def fix`},
		},
	}
}

func TestRunSingle(t *testing.T) {
	fake := &fakeExecutor{}
	r := newTestRunner(t, fake)
	cfg := &task.Config{Name: "default", Model: "test-model", MaxTurns: 10}

	got, err := r.RunSingle(context.Background(), passingTask("t1"), cfg, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Passed {
		t.Errorf("got passed=false, grades=%+v", got.Grades)
	}
	if got.TaskID != "t1" || got.ConfigName != "default" || got.Model != "test-model" {
		t.Errorf("identity fields = %q/%q/%q", got.TaskID, got.ConfigName, got.Model)
	}
	if len(got.Grades) != 2 {
		t.Errorf("got %d grades, want 2", len(got.Grades))
	}
	if len(got.Trace.FileChanges) == 0 {
		t.Error("file changes missing from trace")
	}
	if got.Trace.FileChanges[0].Action != "created" {
		t.Errorf("action = %q", got.Trace.FileChanges[0].Action)
	}
}

func TestRunMatrix(t *testing.T) {
	fake := &fakeExecutor{}
	r := newTestRunner(t, fake)
	tasks := []*task.Task{passingTask("t1"), passingTask("t2")}
	configs := []*task.Config{
		{Name: "a", Model: "m", MaxTurns: 10},
		{Name: "b", Model: "m", MaxTurns: 10},
	}

	var progressCalls int
	results := r.RunMatrix(context.Background(), tasks, configs, runner.MatrixOpts{
		Runs:     3,
		Parallel: 4,
		Progress: func(done, total int, res result.EvalResult) {
			progressCalls++
			if total != 12 {
				t.Errorf("total = %d, want 12", total)
			}
		},
	})
	if len(results) != 12 {
		t.Fatalf("got %d results, want 12", len(results))
	}
	if progressCalls != 12 {
		t.Errorf("progress called %d times, want 12", progressCalls)
	}
	if fake.calls != 12 {
		t.Errorf("executor ran %d times, want 12", fake.calls)
	}

	// Stable ordering: first block is t1/a runs 0..2.
	for i := 0; i < 3; i++ {
		if results[i].TaskID != "t1" || results[i].ConfigName != "a" || results[i].RunIndex != i {
			t.Errorf("results[%d] = %s/%s/%d", i, results[i].TaskID, results[i].ConfigName, results[i].RunIndex)
		}
	}
}

func TestRunMatrixCancelKeepsCompleted(t *testing.T) {
	fake := &fakeExecutor{}
	r := newTestRunner(t, fake)
	tasks := []*task.Task{passingTask("t1")}
	configs := []*task.Config{{Name: "a", Model: "m", MaxTurns: 10}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := r.RunMatrix(ctx, tasks, configs, runner.MatrixOpts{
		Runs:     6,
		Parallel: 1,
		Progress: func(done, total int, res result.EvalResult) {
			if done == 2 {
				cancel()
			}
		},
	})
	if len(results) < 2 {
		t.Fatalf("got %d results, want the completed runs back", len(results))
	}
	if len(results) != fake.calls {
		t.Errorf("got %d results for %d executed runs", len(results), fake.calls)
	}
	for i, res := range results {
		if res.TaskID != "t1" {
			t.Errorf("results[%d].TaskID = %q, want completed run", i, res.TaskID)
		}
	}
}

func TestRunMatrixModelOverride(t *testing.T) {
	fake := &fakeExecutor{}
	r := newTestRunner(t, fake)
	tasks := []*task.Task{passingTask("t1")}
	configs := []*task.Config{{Name: "base", Model: "orig", MaxTurns: 10}}

	results := r.RunMatrix(context.Background(), tasks, configs, runner.MatrixOpts{
		Runs:   1,
		Models: []string{"model-x", "model-y"},
	})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Model != "model-x" || results[1].Model != "model-y" {
		t.Errorf("models = %q, %q", results[0].Model, results[1].Model)
	}
	if results[0].ConfigName != "base@model-x" {
		t.Errorf("config name = %q", results[0].ConfigName)
	}
}
