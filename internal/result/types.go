package result

import "time"

// FileChange records one file the agent touched during a run. Modifications
// carry a unified diff, created files carry their content.
type FileChange struct {
	Path         string `json:"path"`
	Action       string `json:"action"` // created, modified, deleted
	Diff         string `json:"diff,omitempty"`
	ContentAfter string `json:"content_after,omitempty"`
}

type ToolCall struct {
	Name      string         `json:"name"`
	Input     map[string]any `json:"input,omitempty"`
	Output    string         `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
}

type TokenUsage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheReadTokens     int `json:"cache_read_tokens"`
	CacheCreationTokens int `json:"cache_creation_tokens"`
}

func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// ConfigSnapshot captures the few config fields worth keeping with a trace
// for later inspection. Instructions are truncated at capture time.
type ConfigSnapshot struct {
	Model        string `json:"model"`
	Instructions string `json:"instructions,omitempty"`
	SkillsPath   string `json:"skills_path,omitempty"`
	MaxTurns     int    `json:"max_turns"`
}

// ExecutionTrace is the read-only record of one agent execution, produced by
// an executor and consumed by grading and statistics.
type ExecutionTrace struct {
	SessionID       string         `json:"session_id,omitempty"`
	Response        string         `json:"response"`
	IsError         bool           `json:"is_error"`
	Usage           TokenUsage     `json:"usage"`
	ToolCalls       []ToolCall     `json:"tool_calls,omitempty"`
	DurationSeconds float64        `json:"duration_seconds"`
	NumTurns        int            `json:"num_turns"`
	FileChanges     []FileChange   `json:"file_changes,omitempty"`
	Prompt          string         `json:"prompt,omitempty"`
	ConfigSnapshot  ConfigSnapshot `json:"config_snapshot"`
	MaxTurns        int            `json:"max_turns"`
	HitTurnLimit    bool           `json:"hit_turn_limit"`
	Stderr          string         `json:"stderr,omitempty"`
}

// CriterionScore is one line of an LLM grade breakdown.
type CriterionScore struct {
	Criterion string  `json:"criterion"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// GradeResult is the outcome of grading a single assertion.
type GradeResult struct {
	AssertionID    string           `json:"assertion_id"`
	AssertionType  string           `json:"assertion_type"`
	AssertionName  string           `json:"assertion_name"`
	Passed         bool             `json:"passed"`
	Score          float64          `json:"score"`
	Details        string           `json:"details,omitempty"`
	Reasoning      string           `json:"reasoning,omitempty"`
	FullOutput     string           `json:"full_output,omitempty"`
	GradingPrompt  string           `json:"grading_prompt,omitempty"`
	CriteriaScores []CriterionScore `json:"criteria_scores,omitempty"`
}

// EvalResult is the terminal artifact of one (task, config, run index)
// evaluation. Created once by the grading pipeline, never mutated after.
type EvalResult struct {
	TaskID       string         `json:"task_id"`
	ConfigName   string         `json:"config_name"`
	Model        string         `json:"model"`
	RunIndex     int            `json:"run_index"`
	Timestamp    time.Time      `json:"timestamp"`
	Trace        ExecutionTrace `json:"trace"`
	Grades       []GradeResult  `json:"grades"`
	OverallScore float64        `json:"overall_score"`
	Passed       bool           `json:"passed"`
}
