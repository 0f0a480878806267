package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/signalnine/driftbench/internal/docker"
	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/task"
)

// DefaultAgentImage is the container image used when a config names none.
const DefaultAgentImage = "driftbench-agent:latest"

// DockerExecutor runs the agent CLI inside a container with the environment
// bind-mounted at /workspace. Each run gets a fresh container.
type DockerExecutor struct {
	// Image overrides the config's image for every run.
	Image string

	// Env overrides passed into the container.
	Env map[string]string

	CPULimit    float64
	MemoryLimit int64
}

func NewDockerExecutor() *DockerExecutor {
	return &DockerExecutor{}
}

func (e *DockerExecutor) Run(ctx context.Context, prompt string, cfg *task.Config, workDir string, timeout time.Duration) (*result.ExecutionTrace, error) {
	image := e.Image
	if image == "" && cfg != nil {
		image = cfg.Image
	}
	if image == "" {
		image = DefaultAgentImage
	}

	args := []string{
		"claude",
		"-p", prompt,
		"--model", cfg.Model,
		"--output-format", "json",
		"--max-turns", strconv.Itoa(cfg.MaxTurns),
		"--dangerously-skip-permissions",
	}
	if len(cfg.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(cfg.AllowedTools, ","))
	}
	if cfg.Instructions != "" {
		args = append(args, "--append-system-prompt", cfg.Instructions)
	}

	start := time.Now()
	res, err := docker.RunContainer(ctx, &docker.RunOpts{
		Image:       image,
		Command:     args,
		WorkDir:     workDir,
		Env:         e.Env,
		Timeout:     timeout,
		CPULimit:    e.CPULimit,
		MemoryLimit: e.MemoryLimit,
	})
	duration := time.Since(start)
	if err != nil {
		return errorTrace(fmt.Sprintf("Container execution failed: %v", err), duration, cfg), nil
	}
	if res.TimedOut {
		return errorTrace("Execution timed out", duration, cfg), nil
	}

	trace := ParseTrace(res.Output, "", duration, cfg)
	trace.Prompt = prompt
	if res.ExitCode != 0 {
		trace.IsError = true
	}
	return trace, nil
}
