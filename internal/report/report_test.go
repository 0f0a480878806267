package report_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/signalnine/driftbench/internal/pricing"
	"github.com/signalnine/driftbench/internal/report"
	"github.com/signalnine/driftbench/internal/result"
)

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func sampleResults() []result.EvalResult {
	mk := func(taskID string, run int, score float64, passed bool, tokens int) result.EvalResult {
		return result.EvalResult{
			TaskID:       taskID,
			ConfigName:   "default",
			Model:        "claude-sonnet-4-20250514",
			RunIndex:     run,
			OverallScore: score,
			Passed:       passed,
			Trace: result.ExecutionTrace{
				Usage:           result.TokenUsage{InputTokens: tokens, OutputTokens: tokens / 2},
				DurationSeconds: 30,
			},
		}
	}
	return []result.EvalResult{
		mk("task-a", 0, 0.9, true, 1000),
		mk("task-a", 1, 0.7, true, 1200),
		mk("task-a", 2, 0.5, false, 800),
		mk("task-b", 0, 1.0, true, 500),
	}
}

func TestAggregate(t *testing.T) {
	metrics := report.Aggregate(sampleResults(), []int{1, 3}, nil)
	if len(metrics) != 2 {
		t.Fatalf("got %d groups, want 2", len(metrics))
	}

	a := metrics[0]
	if a.TaskID != "task-a" {
		t.Fatalf("first group = %q, want task-a (sorted)", a.TaskID)
	}
	if a.TotalRuns != 3 || a.Passed != 2 || a.Failed != 1 {
		t.Errorf("counts = %d/%d/%d", a.TotalRuns, a.Passed, a.Failed)
	}
	if absf(a.PassRate-2.0/3.0) > 0.001 {
		t.Errorf("pass rate = %f", a.PassRate)
	}
	if absf(a.MeanScore-0.7) > 0.001 {
		t.Errorf("mean score = %f", a.MeanScore)
	}
	if absf(a.MinScore-0.5) > 0.001 || absf(a.MaxScore-0.9) > 0.001 {
		t.Errorf("min/max = %f/%f", a.MinScore, a.MaxScore)
	}

	// pass@1 equals the empirical pass rate.
	if absf(a.PassAtK[1]-a.PassRate) > 0.001 {
		t.Errorf("pass@1 = %f, want %f", a.PassAtK[1], a.PassRate)
	}
	if a.PassAtK[3] < a.PassAtK[1] {
		t.Error("pass@3 must not be below pass@1")
	}
	// Unbiased estimator: 2 passes in 3 runs guarantees a pass within any
	// 3 draws, so pass@3 is exactly 1.
	if absf(a.PassAtK[3]-1.0) > 0.001 {
		t.Errorf("pass@3 = %f, want 1.0", a.PassAtK[3])
	}
	if a.Stability.StdDev <= 0 {
		t.Errorf("stddev = %f, want > 0 for spread scores", a.Stability.StdDev)
	}
	if absf(a.Stability.ScoreRange-0.4) > 0.001 {
		t.Errorf("score range = %f, want 0.4", a.Stability.ScoreRange)
	}
}

func TestAggregateWithPricing(t *testing.T) {
	metrics := report.Aggregate(sampleResults(), nil, pricing.Default())
	if metrics[0].MeanCostUSD <= 0 {
		t.Errorf("mean cost = %f, want > 0 with pricing table", metrics[0].MeanCostUSD)
	}
}

func TestGenerateTable(t *testing.T) {
	var buf bytes.Buffer
	metrics := report.Aggregate(sampleResults(), nil, nil)
	if err := report.Generate(metrics, "table", &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "task-a") || !strings.Contains(out, "PASS RATE") {
		t.Errorf("table output:\n%s", out)
	}
}

func TestGenerateMarkdown(t *testing.T) {
	var buf bytes.Buffer
	metrics := report.Aggregate(sampleResults(), nil, nil)
	if err := report.Generate(metrics, "markdown", &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "| task-a |") {
		t.Errorf("markdown output:\n%s", buf.String())
	}
}

func TestGenerateJSON(t *testing.T) {
	var buf bytes.Buffer
	metrics := report.Aggregate(sampleResults(), []int{1}, nil)
	if err := report.Generate(metrics, "json", &buf); err != nil {
		t.Fatal(err)
	}
	var decoded []report.AggregatedMetrics
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 {
		t.Errorf("got %d groups", len(decoded))
	}
}
