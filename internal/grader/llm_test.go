package grader_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/signalnine/driftbench/internal/grader"
	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/task"
)

func TestParseResponseStructured(t *testing.T) {
	g := grader.NewLLMGrader("", "test-key", "")
	got := g.ParseResponse(`{
		"criteria_scores": [
			{"criterion": "Correctness", "evidence": "handles nil", "score": 0.9, "reasoning": "covers edge cases"},
			{"criterion": "Clarity", "score": 0.7, "reasoning": "readable"}
		],
		"regression_check": {"passed": true, "notes": ""},
		"overall_score": 0.85,
		"overall_reasoning": "solid work",
		"passed": true
	}`)
	if !got.Passed {
		t.Error("want passed")
	}
	if absf(got.Score-0.85) > 0.001 {
		t.Errorf("score = %f, want 0.85", got.Score)
	}
	if len(got.CriteriaScores) != 2 {
		t.Fatalf("got %d criteria, want 2", len(got.CriteriaScores))
	}
	if got.CriteriaScores[0].Criterion != "Correctness" {
		t.Errorf("criterion = %q", got.CriteriaScores[0].Criterion)
	}
	if got.Reasoning != "solid work" {
		t.Errorf("reasoning = %q", got.Reasoning)
	}
}

func TestParseResponseFencedJSON(t *testing.T) {
	g := grader.NewLLMGrader("", "test-key", "")
	got := g.ParseResponse("```json\n{\"overall_score\": 0.6, \"overall_reasoning\": \"ok\", \"passed\": false}\n```")
	if absf(got.Score-0.6) > 0.001 {
		t.Errorf("score = %f, want 0.6", got.Score)
	}
	if got.Passed {
		t.Error("want not passed")
	}
}

func TestParseResponseRegressionPenalty(t *testing.T) {
	g := grader.NewLLMGrader("", "test-key", "")
	got := g.ParseResponse(`{
		"overall_score": 0.9,
		"overall_reasoning": "good but broke existing tests",
		"regression_check": {"passed": false, "notes": "deleted a test"},
		"passed": true
	}`)
	if got.Score > 0.5 {
		t.Errorf("score = %f, want capped at 0.5 after regression", got.Score)
	}
	if got.Passed {
		t.Error("failed regression check must force a fail")
	}
	if !strings.Contains(got.Details, "REGRESSION WARNING") {
		t.Errorf("details = %q", got.Details)
	}
}

func TestParseResponseMalformedFallsBack(t *testing.T) {
	g := grader.NewLLMGrader("", "test-key", "")

	got := g.ParseResponse("The evaluation passed with flying colors")
	if absf(got.Score-0.7) > 0.001 || !got.Passed {
		t.Errorf("got score=%f passed=%v, want 0.7/true", got.Score, got.Passed)
	}

	got = g.ParseResponse("nothing useful here")
	if absf(got.Score-0.3) > 0.001 || got.Passed {
		t.Errorf("got score=%f passed=%v, want 0.3/false", got.Score, got.Passed)
	}
}

func TestParseResponseClampsScore(t *testing.T) {
	g := grader.NewLLMGrader("", "test-key", "")
	got := g.ParseResponse(`{"overall_score": 1.7, "passed": true}`)
	if got.Score != 1.0 {
		t.Errorf("score = %f, want clamped to 1.0", got.Score)
	}
}

func TestGradeJudgeCallFailure(t *testing.T) {
	// A dead endpoint means no response at all: score 0, not the keyword
	// fallback floor.
	g := grader.NewLLMGrader("", "test-key", "http://127.0.0.1:1")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := g.Grade(ctx, task.Assertion{Type: task.AssertionLLM, Rubric: "r"},
		&task.Task{ID: "t", Prompt: "p"}, &result.ExecutionTrace{Response: "done"}, t.TempDir())
	if got.Score != 0 || got.Passed {
		t.Errorf("got score=%f passed=%v, want 0.0/false on transport failure", got.Score, got.Passed)
	}
	if !strings.Contains(got.Details, "LLM grading failed") {
		t.Errorf("details = %q", got.Details)
	}
}

func TestParseResponseMissingPassedDerivedFromScore(t *testing.T) {
	g := grader.NewLLMGrader("", "test-key", "")

	got := g.ParseResponse(`{"overall_score": 0.9, "overall_reasoning": "good"}`)
	if !got.Passed {
		t.Error("score 0.9 with no verdict should pass")
	}

	got = g.ParseResponse(`{"overall_score": 0.5, "overall_reasoning": "weak"}`)
	if got.Passed {
		t.Error("score 0.5 with no verdict should not pass")
	}
}

func TestKeywordFallback(t *testing.T) {
	var f grader.KeywordFallback
	cases := []struct {
		raw        string
		wantScore  float64
		wantPassed bool
	}{
		{"all checks passed", 0.7, true},
		{"the operation was a success", 0.7, true},
		{"FAILED miserably", 0.3, false},
		{"", 0.3, false},
	}
	for _, c := range cases {
		score, passed := f.Score(c.raw)
		if absf(score-c.wantScore) > 0.001 || passed != c.wantPassed {
			t.Errorf("Score(%q) = %f/%v, want %f/%v", c.raw, score, passed, c.wantScore, c.wantPassed)
		}
	}
}
