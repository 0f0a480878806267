package executor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/task"
)

// Executor runs one prompt under one config in a working directory and
// returns the trace. Execution is total: failures come back as error traces,
// not Go errors, so a crashed agent still produces a gradeable result.
type Executor interface {
	Run(ctx context.Context, prompt string, cfg *task.Config, workDir string, timeout time.Duration) (*result.ExecutionTrace, error)
}

// cliOutput is the JSON envelope the agent CLI prints with
// --output-format json.
type cliOutput struct {
	SessionID string `json:"session_id"`
	Result    string `json:"result"`
	IsError   bool   `json:"is_error"`
	Usage     struct {
		InputTokens         int `json:"input_tokens"`
		OutputTokens        int `json:"output_tokens"`
		CacheReadTokens     int `json:"cache_read_tokens"`
		CacheCreationTokens int `json:"cache_creation_tokens"`
	} `json:"usage"`
	ToolCalls []struct {
		Name   string         `json:"name"`
		Input  map[string]any `json:"input"`
		Output string         `json:"output"`
		Error  string         `json:"error"`
	} `json:"tool_calls"`
	NumTurns int `json:"num_turns"`
}

// ParseTrace turns CLI stdout/stderr into a trace. Non-JSON stdout falls
// back to treating the raw text as the response.
func ParseTrace(stdout, stderr string, duration time.Duration, cfg *task.Config) *result.ExecutionTrace {
	trace := &result.ExecutionTrace{
		DurationSeconds: duration.Seconds(),
		Stderr:          stderr,
	}
	if cfg != nil {
		trace.ConfigSnapshot = snapshotConfig(cfg)
		trace.MaxTurns = cfg.MaxTurns
	}

	var out cliOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil || strings.TrimSpace(stdout) == "" {
		trace.Response = stdout
		if trace.Response == "" {
			trace.Response = stderr
		}
		trace.IsError = stderr != ""
		return trace
	}

	trace.SessionID = out.SessionID
	trace.Response = out.Result
	if trace.Response == "" {
		trace.Response = stdout
	}
	trace.IsError = out.IsError
	trace.Usage = result.TokenUsage{
		InputTokens:         out.Usage.InputTokens,
		OutputTokens:        out.Usage.OutputTokens,
		CacheReadTokens:     out.Usage.CacheReadTokens,
		CacheCreationTokens: out.Usage.CacheCreationTokens,
	}
	for _, tc := range out.ToolCalls {
		trace.ToolCalls = append(trace.ToolCalls, result.ToolCall{
			Name:   tc.Name,
			Input:  tc.Input,
			Output: tc.Output,
			Error:  tc.Error,
		})
	}
	trace.NumTurns = out.NumTurns
	if trace.NumTurns == 0 {
		trace.NumTurns = len(trace.ToolCalls)
	}
	if cfg != nil && cfg.MaxTurns > 0 && trace.NumTurns >= cfg.MaxTurns {
		trace.HitTurnLimit = true
	}
	return trace
}

func snapshotConfig(cfg *task.Config) result.ConfigSnapshot {
	instructions := cfg.Instructions
	if len(instructions) > 500 {
		instructions = instructions[:500]
	}
	return result.ConfigSnapshot{
		Model:        cfg.Model,
		Instructions: instructions,
		SkillsPath:   cfg.SkillsPath,
		MaxTurns:     cfg.MaxTurns,
	}
}

func errorTrace(message string, duration time.Duration, cfg *task.Config) *result.ExecutionTrace {
	trace := &result.ExecutionTrace{
		Response:        message,
		IsError:         true,
		DurationSeconds: duration.Seconds(),
	}
	if cfg != nil {
		trace.ConfigSnapshot = snapshotConfig(cfg)
		trace.MaxTurns = cfg.MaxTurns
	}
	return trace
}
