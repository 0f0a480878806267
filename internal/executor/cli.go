package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/task"
)

// CLIExecutor drives an agent CLI as a subprocess on the host.
type CLIExecutor struct {
	// BinPath is the agent executable, "claude" by default.
	BinPath string

	// SkipPermissions passes the flag that disables interactive permission
	// prompts. Required for unattended runs.
	SkipPermissions bool

	// Env overrides applied on top of the inherited environment.
	Env map[string]string
}

func NewCLIExecutor() *CLIExecutor {
	return &CLIExecutor{BinPath: "claude", SkipPermissions: true}
}

func (e *CLIExecutor) Run(ctx context.Context, prompt string, cfg *task.Config, workDir string, timeout time.Duration) (*result.ExecutionTrace, error) {
	args := e.buildArgs(prompt, cfg)

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, e.BinPath, args...)
	cmd.Dir = workDir
	cmd.Env = os.Environ()
	for k, v := range e.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if cctx.Err() == context.DeadlineExceeded {
		return errorTrace("Execution timed out", duration, cfg), nil
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return errorTrace(fmt.Sprintf("Execution failed: %v", err), duration, cfg), nil
		}
		// Nonzero exit still produces parseable output.
	}

	trace := ParseTrace(stdout.String(), stderr.String(), duration, cfg)
	trace.Prompt = prompt
	return trace, nil
}

func (e *CLIExecutor) buildArgs(prompt string, cfg *task.Config) []string {
	args := []string{
		"-p", prompt,
		"--model", cfg.Model,
		"--output-format", "json",
		"--max-turns", strconv.Itoa(cfg.MaxTurns),
	}
	if e.SkipPermissions {
		args = append(args, "--dangerously-skip-permissions")
	}
	if len(cfg.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(cfg.AllowedTools, ","))
	}
	if cfg.Instructions != "" {
		args = append(args, "--append-system-prompt", cfg.Instructions)
	}
	return args
}
