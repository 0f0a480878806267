package grader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalnine/driftbench/internal/grader"
	"github.com/signalnine/driftbench/internal/task"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGradeFileContains(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "def handle_error(e):\n    pass\n")
	g := grader.NewCodeGrader()

	got := g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckFileContains,
		File: "main.py", Pattern: `def handle_error`,
	}, dir)
	if !got.Passed || got.Score != 1.0 {
		t.Errorf("got passed=%v score=%f, want pass", got.Passed, got.Score)
	}

	got = g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckFileContains,
		File: "main.py", Pattern: `def missing_function`,
	}, dir)
	if got.Passed || got.Score != 0.0 {
		t.Errorf("got passed=%v score=%f, want fail", got.Passed, got.Score)
	}
}

func TestGradeFileContainsMissingFile(t *testing.T) {
	g := grader.NewCodeGrader()
	got := g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckFileContains,
		File: "nope.py", Pattern: `x`,
	}, t.TempDir())
	if got.Passed {
		t.Error("missing file must fail file_contains")
	}
}

func TestGradeFileNotContains(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.py", "import json\n")
	g := grader.NewCodeGrader()

	got := g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckFileNotContains,
		File: "app.py", Pattern: `import pickle`,
	}, dir)
	if !got.Passed {
		t.Errorf("absent pattern should pass: %s", got.Details)
	}

	got = g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckFileNotContains,
		File: "app.py", Pattern: `import json`,
	}, dir)
	if got.Passed {
		t.Error("present pattern should fail file_not_contains")
	}
}

func TestGradeFileNotContainsMissingFile(t *testing.T) {
	// Absence of the file never counts as absence of the pattern.
	g := grader.NewCodeGrader()
	got := g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckFileNotContains,
		File: "ghost.py", Pattern: `anything`,
	}, t.TempDir())
	if got.Passed || got.Score != 0.0 {
		t.Errorf("got passed=%v score=%f, want fail on missing file", got.Passed, got.Score)
	}
}

func TestGradeFileContainsInvalidRegex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "content")
	g := grader.NewCodeGrader()
	got := g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckFileContains,
		File: "a.txt", Pattern: `[unclosed`,
	}, dir)
	if got.Passed {
		t.Error("invalid regex must grade as failed, not panic")
	}
}

func TestGradeFileExists(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", "")
	g := grader.NewCodeGrader()

	got := g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckFileExists, File: "empty.txt",
	}, dir)
	if !got.Passed {
		t.Error("zero-byte file should pass file_exists")
	}

	got = g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckFileExists, File: "sub",
	}, dir)
	if got.Passed {
		t.Error("missing path should fail file_exists")
	}

	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	got = g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckFileExists, File: "sub",
	}, dir)
	if !got.Passed {
		t.Error("directory should pass file_exists")
	}
}

func TestGradeCommandSucceeds(t *testing.T) {
	g := grader.NewCodeGrader()
	dir := t.TempDir()

	got := g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckCommandSucceeds, Command: "true",
	}, dir)
	if !got.Passed || got.Score != 1.0 {
		t.Errorf("got passed=%v score=%f, want pass for exit 0", got.Passed, got.Score)
	}

	got = g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckCommandSucceeds, Command: "false",
	}, dir)
	if got.Passed || got.Score != 0.0 {
		t.Errorf("got passed=%v score=%f, want fail for exit 1", got.Passed, got.Score)
	}
}

func TestGradeTestsPass(t *testing.T) {
	g := grader.NewCodeGrader()
	dir := t.TempDir()

	got := g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckTestsPass,
		Command: `echo "3 passed"; exit 0`,
	}, dir)
	if !got.Passed || got.Score != 1.0 {
		t.Errorf("got passed=%v score=%f, want pass", got.Passed, got.Score)
	}
	if got.Details != "3/3 tests passed" {
		t.Errorf("details = %q", got.Details)
	}

	got = g.Grade(context.Background(), task.Assertion{
		Type: task.AssertionCode, Check: task.CheckTestsPass,
		Command: `echo "2 passed, 1 failed"; exit 1`,
	}, dir)
	if got.Passed || got.Score != 0.0 {
		t.Errorf("got passed=%v score=%f, want fail for exit 1", got.Passed, got.Score)
	}
}
