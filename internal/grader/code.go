package grader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/signalnine/driftbench/internal/docker"
	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/task"
)

const (
	// DefaultTestCommand runs when a tests_pass assertion names no command.
	DefaultTestCommand = "pytest"

	testTimeout    = 120 * time.Second
	commandTimeout = 60 * time.Second

	maxDetails = 2000
	maxContent = 5000
)

// CodeGrader evaluates deterministic assertions against a finished
// environment. Grading is total: every filesystem or process error becomes a
// failing GradeResult, never an error to the caller.
type CodeGrader struct {
	// Image, when set, runs shell checks inside a validation container
	// instead of the host shell.
	Image string
}

func NewCodeGrader() *CodeGrader {
	return &CodeGrader{}
}

// Grade evaluates one code assertion. Scores are binary: an assertion either
// holds or it does not.
func (g *CodeGrader) Grade(ctx context.Context, a task.Assertion, envPath string) result.GradeResult {
	switch a.Check {
	case task.CheckTestsPass:
		command := a.Command
		if command == "" {
			command = DefaultTestCommand
		}
		return g.gradeTestsPass(ctx, envPath, command)
	case task.CheckFileContains:
		if a.File == "" || a.Pattern == "" {
			return codeGrade("file_contains", false, 0, "file_contains requires file and pattern", "")
		}
		return g.gradeFileContains(envPath, a.File, a.Pattern, false)
	case task.CheckFileNotContains:
		if a.File == "" || a.Pattern == "" {
			return codeGrade("file_not_contains", false, 0, "file_not_contains requires file and pattern", "")
		}
		return g.gradeFileContains(envPath, a.File, a.Pattern, true)
	case task.CheckFileExists:
		if a.File == "" {
			return codeGrade("file_exists", false, 0, "file_exists requires file", "")
		}
		return g.gradeFileExists(envPath, a.File)
	case task.CheckCommandSucceeds:
		if a.Command == "" {
			return codeGrade("command_succeeds", false, 0, "command_succeeds requires command", "")
		}
		return g.gradeCommandSucceeds(ctx, envPath, a.Command)
	default:
		return codeGrade("unknown", false, 0, fmt.Sprintf("Unknown check type: %s", a.Check), "")
	}
}

func (g *CodeGrader) gradeTestsPass(ctx context.Context, envPath, command string) result.GradeResult {
	exitCode, output, timedOut, err := g.runShell(ctx, envPath, command, testTimeout)
	if timedOut {
		return codeGrade("tests_pass", false, 0,
			"Test command timed out",
			fmt.Sprintf("Test command timed out after %s", testTimeout))
	}
	if err != nil {
		return codeGrade("tests_pass", false, 0,
			fmt.Sprintf("Error running tests: %v", err), err.Error())
	}

	ok := exitCode == 0
	score := 0.0
	if ok {
		score = 1.0
	}

	details := truncate(output, maxDetails)
	if passed, failed, errored := parseTestCounts(output); passed+failed+errored > 0 {
		details = fmt.Sprintf("%d/%d tests passed", passed, passed+failed+errored)
		if errored > 0 {
			details += fmt.Sprintf(", %d errors", errored)
		}
	}
	return codeGrade("tests_pass", ok, score, details, output)
}

func (g *CodeGrader) gradeFileContains(envPath, file, pattern string, invert bool) result.GradeResult {
	name := "file_contains"
	if invert {
		name = "file_not_contains"
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return codeGrade(name, false, 0, fmt.Sprintf("Invalid regex pattern: %v", err), err.Error())
	}

	path := filepath.Join(envPath, file)
	data, err := os.ReadFile(path)
	if err != nil {
		// A missing file fails both variants: absence of the file never
		// counts as absence of the pattern.
		return codeGrade(name, false, 0,
			fmt.Sprintf("File not found: %s", file),
			fmt.Sprintf("Expected file %s does not exist", file))
	}

	found := re.Match(data)
	ok := found != invert
	score := 0.0
	if ok {
		score = 1.0
	}
	var details string
	switch {
	case invert && ok:
		details = fmt.Sprintf("Pattern absent: %s", pattern)
	case invert:
		details = fmt.Sprintf("Pattern found: %s", pattern)
	case ok:
		details = fmt.Sprintf("Pattern found: %s", pattern)
	default:
		details = fmt.Sprintf("Pattern not found: %s", pattern)
	}
	return codeGrade(name, ok, score, details, truncate(string(data), maxContent))
}

func (g *CodeGrader) gradeFileExists(envPath, file string) result.GradeResult {
	path := filepath.Join(envPath, file)
	_, err := os.Stat(path)
	ok := err == nil
	score := 0.0
	details := fmt.Sprintf("File not found: %s", file)
	if ok {
		score = 1.0
		details = fmt.Sprintf("File exists: %s", file)
	}
	return codeGrade("file_exists", ok, score, details, fmt.Sprintf("Checked path: %s", path))
}

func (g *CodeGrader) gradeCommandSucceeds(ctx context.Context, envPath, command string) result.GradeResult {
	exitCode, output, timedOut, err := g.runShell(ctx, envPath, command, commandTimeout)
	if timedOut {
		return codeGrade("command_succeeds", false, 0,
			"Command timed out",
			fmt.Sprintf("Command timed out after %s", commandTimeout))
	}
	if err != nil {
		return codeGrade("command_succeeds", false, 0,
			fmt.Sprintf("Error running command: %v", err), err.Error())
	}
	ok := exitCode == 0
	score := 0.0
	if ok {
		score = 1.0
	}
	return codeGrade("command_succeeds", ok, score, truncate(output, 1000), output)
}

// runShell executes a shell command in the environment with a hard ceiling,
// on the host or in the validation container when Image is set.
func (g *CodeGrader) runShell(ctx context.Context, envPath, command string, timeout time.Duration) (exitCode int, output string, timedOut bool, err error) {
	if g.Image != "" {
		res, err := docker.RunCommand(ctx, &docker.CommandOpts{
			Image:   g.Image,
			WorkDir: envPath,
			Command: command,
			Timeout: timeout,
		})
		if err != nil {
			return 0, "", false, err
		}
		return res.ExitCode, res.Output, res.TimedOut, nil
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(cctx, "sh", "-c", command)
	cmd.Dir = envPath
	out, runErr := cmd.CombinedOutput()
	if cctx.Err() == context.DeadlineExceeded {
		return 0, string(out), true, nil
	}
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return exitErr.ExitCode(), string(out), false, nil
		}
		return 0, string(out), false, runErr
	}
	return 0, string(out), false, nil
}

var (
	passedRe = regexp.MustCompile(`(\d+)\s+passed`)
	failedRe = regexp.MustCompile(`(\d+)\s+failed`)
	errorRe  = regexp.MustCompile(`(\d+)\s+error`)
)

// parseTestCounts extracts pass/fail/error counts from test runner output.
func parseTestCounts(output string) (passed, failed, errored int) {
	if m := passedRe.FindStringSubmatch(output); m != nil {
		passed, _ = strconv.Atoi(m[1])
	}
	if m := failedRe.FindStringSubmatch(output); m != nil {
		failed, _ = strconv.Atoi(m[1])
	}
	if m := errorRe.FindStringSubmatch(output); m != nil {
		errored, _ = strconv.Atoi(m[1])
	}
	return passed, failed, errored
}

func codeGrade(name string, passed bool, score float64, details, fullOutput string) result.GradeResult {
	return result.GradeResult{
		AssertionID:   name,
		AssertionType: string(task.AssertionCode),
		AssertionName: name,
		Passed:        passed,
		Score:         score,
		Details:       details,
		FullOutput:    fullOutput,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
