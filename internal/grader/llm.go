package grader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/task"
)

// DefaultJudgeModel is used when no judge model is configured.
const DefaultJudgeModel = "gpt-4o-mini"

const biasHeader = `IMPORTANT EVALUATION RULES:
- Judge code quality, NOT output length or verbosity
- A short, correct fix is better than a verbose, over-engineered one
- Ignore formatting differences that don't affect functionality
- Focus on whether requirements are MET, not on code style preferences
- Do NOT favor the first solution you see (position bias)
- Evaluate based on correctness and completeness, not impressiveness`

// LLMGrader scores rubric assertions by submitting the agent's work to a
// judge model over any OpenAI-compatible endpoint.
type LLMGrader struct {
	client   *openai.Client
	model    string
	Fallback FallbackScorer
}

// NewLLMGrader builds a grader against the given endpoint. baseURL may be
// empty for the default OpenAI API.
func NewLLMGrader(model, apiKey, baseURL string) *LLMGrader {
	if model == "" {
		model = DefaultJudgeModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &LLMGrader{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		Fallback: KeywordFallback{},
	}
}

// Grade evaluates one rubric assertion. A failed judge call scores 0.0; a
// malformed response degrades to the fallback score. Grade never returns an
// error.
func (g *LLMGrader) Grade(ctx context.Context, a task.Assertion, t *task.Task, trace *result.ExecutionTrace, envPath string) result.GradeResult {
	prompt := g.buildPrompt(t, a.Rubric, trace, envPath)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		// No response to salvage a score from. The keyword fallback is for
		// malformed responses only.
		return result.GradeResult{
			AssertionID:   "llm_quality",
			AssertionType: string(task.AssertionLLM),
			AssertionName: "llm_quality",
			Passed:        false,
			Score:         0,
			Details:       fmt.Sprintf("LLM grading failed: %v", err),
			GradingPrompt: prompt,
		}
	}
	raw := ""
	if len(resp.Choices) > 0 {
		raw = resp.Choices[0].Message.Content
	}
	gr := g.ParseResponse(raw)
	gr.GradingPrompt = prompt
	gr.FullOutput = raw
	return gr
}

// judgeResponse is the structured shape the judge is asked to return.
type judgeResponse struct {
	Step1Changes   []string `json:"step1_changes"`
	CriteriaScores []struct {
		Criterion string  `json:"criterion"`
		Evidence  string  `json:"evidence"`
		Score     float64 `json:"score"`
		Reasoning string  `json:"reasoning"`
	} `json:"criteria_scores"`
	RegressionCheck *struct {
		Passed bool   `json:"passed"`
		Notes  string `json:"notes"`
	} `json:"regression_check"`
	OverallScore     float64 `json:"overall_score"`
	OverallReasoning string  `json:"overall_reasoning"`
	Passed           *bool   `json:"passed"`
}

// ParseResponse turns raw judge output into a grade, degrading to the
// fallback score when the JSON cannot be parsed.
func (g *LLMGrader) ParseResponse(raw string) result.GradeResult {
	content := strings.TrimSpace(raw)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var jr judgeResponse
	if err := json.Unmarshal([]byte(content), &jr); err != nil {
		score, passed := g.Fallback.Score(raw)
		return result.GradeResult{
			AssertionID:   "llm_quality",
			AssertionType: string(task.AssertionLLM),
			AssertionName: "llm_quality",
			Passed:        passed,
			Score:         score,
			Details:       fmt.Sprintf("Could not parse structured response: %v", err),
			Reasoning:     truncate(raw, 500),
		}
	}

	score := clamp01(jr.OverallScore)
	// Judges sometimes omit the verdict; derive it from the score.
	passed := score >= DefaultPassThreshold
	if jr.Passed != nil {
		passed = *jr.Passed
	}

	var criteria []result.CriterionScore
	var details []string
	for _, c := range jr.CriteriaScores {
		reasoning := c.Reasoning
		if c.Evidence != "" {
			reasoning = c.Evidence + "\n" + c.Reasoning
		}
		criteria = append(criteria, result.CriterionScore{
			Criterion: c.Criterion,
			Score:     clamp01(c.Score),
			Reasoning: reasoning,
		})
		details = append(details, fmt.Sprintf("%s: %.2f", c.Criterion, c.Score))
	}
	if len(jr.Step1Changes) > 0 {
		summary := "Changes identified: " + strings.Join(head(jr.Step1Changes, 3), "; ")
		if n := len(jr.Step1Changes); n > 3 {
			summary += fmt.Sprintf(" (+%d more)", n-3)
		}
		details = append([]string{summary}, details...)
	}
	// A failed regression check caps the score and forces a fail.
	if jr.RegressionCheck != nil && !jr.RegressionCheck.Passed {
		details = append(details, "REGRESSION WARNING: "+jr.RegressionCheck.Notes)
		if score > 0.5 {
			score = 0.5
		}
		passed = false
	}

	detailsText := jr.OverallReasoning
	if len(details) > 0 {
		detailsText = strings.Join(details, "\n")
	}
	return result.GradeResult{
		AssertionID:    "llm_quality",
		AssertionType:  string(task.AssertionLLM),
		AssertionName:  "llm_quality",
		Passed:         passed,
		Score:          score,
		Details:        detailsText,
		Reasoning:      jr.OverallReasoning,
		CriteriaScores: criteria,
	}
}

func (g *LLMGrader) buildPrompt(t *task.Task, rubric string, trace *result.ExecutionTrace, envPath string) string {
	response := "(no response)"
	if trace != nil && trace.Response != "" {
		response = trace.Response
	}
	return fmt.Sprintf(`You are evaluating an AI coding assistant's work on a task.

%s

## Task Description
%s

## Task Prompt Given to the Assistant
%s

## Evaluation Rubric
%s

## Assistant's Output
%s

## Final Code State
%s

## Step-by-Step Evaluation Process

### Step 1: Identify Changes
List the specific code changes made by the assistant. Quote the relevant code.

### Step 2: Criterion-by-Criterion Evaluation
For each criterion in the rubric, quote the relevant code, explain whether it
meets the criterion, and assign a score from 0.0 to 1.0.

### Step 3: Check for Regressions
Verify no existing functionality was broken by the changes.

### Step 4: Calculate Overall Score
Weight criterion scores according to importance in the rubric.

## Output Format
Return your complete evaluation as JSON in this exact format:
{
    "step1_changes": ["change1: description"],
    "criteria_scores": [
        {"criterion": "...", "evidence": "...", "score": 0.0, "reasoning": "..."}
    ],
    "regression_check": {"passed": true, "notes": "..."},
    "overall_score": 0.0,
    "overall_reasoning": "...",
    "passed": true
}

Only return valid JSON, no other text.`,
		biasHeader, t.Description, t.Prompt, rubric, response, g.finalCodeState(trace, envPath))
}

// finalCodeState renders the agent's modifications: diffs for changed files,
// full content for created ones. When the trace carries no file changes it
// falls back to reading recently modified source files from the environment.
func (g *LLMGrader) finalCodeState(trace *result.ExecutionTrace, envPath string) string {
	if trace != nil && len(trace.FileChanges) > 0 {
		var parts []string
		for _, fc := range trace.FileChanges {
			switch {
			case fc.Diff != "":
				parts = append(parts, fmt.Sprintf("### %s (%s)\n```diff\n%s\n```", fc.Path, fc.Action, fc.Diff))
			case fc.ContentAfter != "":
				parts = append(parts, fmt.Sprintf("### %s (%s)\n```\n%s\n```", fc.Path, fc.Action, fc.ContentAfter))
			default:
				parts = append(parts, fmt.Sprintf("### %s (%s)", fc.Path, fc.Action))
			}
		}
		return strings.Join(parts, "\n\n")
	}
	return readModifiedFiles(envPath, 10)
}

var sourceExts = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".java": true, ".go": true, ".rs": true,
}

func readModifiedFiles(envPath string, maxFiles int) string {
	type entry struct {
		rel   string
		mtime int64
	}
	var files []entry
	filepath.WalkDir(envPath, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !sourceExts[filepath.Ext(path)] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(envPath, path)
		if err != nil {
			return nil
		}
		files = append(files, entry{rel: rel, mtime: info.ModTime().UnixNano()})
		return nil
	})
	sort.Slice(files, func(i, j int) bool { return files[i].mtime > files[j].mtime })
	if len(files) > maxFiles {
		files = files[:maxFiles]
	}

	var parts []string
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(envPath, f.rel))
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("### %s\n```\n%s\n```", f.rel, string(data)))
	}
	if len(parts) == 0 {
		return "(No source files found)"
	}
	return strings.Join(parts, "\n\n")
}

func head(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
