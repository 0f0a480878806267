package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/signalnine/driftbench/internal/regress"
	"github.com/signalnine/driftbench/internal/report"
	"github.com/signalnine/driftbench/internal/stats"
)

func sampleComparison() report.ComparisonReport {
	return report.ComparisonReport{
		Overall: stats.Comparison{
			MeanA: 0.85, MeanB: 0.60, NA: 7, NB: 7,
			PValue: 0.002, IsSignificant: true,
			EffectSize: 1.8, EffectMagnitude: "large",
			Delta:          -0.25,
			Recommendation: "Significant large regression detected (p=0.002). This is a substantial difference.",
		},
		Efficiency: stats.Efficiency{
			TokensAMean: 1200, TokensBMean: 1500, TokensDelta: 300, TokensDeltaPct: 25,
			DurationAMean: 10.0, DurationBMean: 12.0, DurationDelta: 2.0, DurationDeltaPct: 20,
			CostAMean: 0.0120, CostBMean: 0.0150, CostDelta: 0.0030, CostDeltaPct: 25,
			Recommendation: "Current run uses more tokens for lower scores.",
		},
		Verdict: regress.Verdict{
			RegressionDetected: true,
			Tasks: []regress.TaskComparison{
				{
					TaskID:            "task-1",
					BaselinePassRate:  1.0,
					CurrentPassRate:   0.4,
					BaselineMeanScore: 0.85,
					CurrentMeanScore:  0.60,
					ScoreDelta:        -0.25,
					Regressed:         true,
					Reason:            "mean score dropped 0.85 -> 0.60",
				},
			},
			Regressions: []regress.TaskComparison{
				{TaskID: "task-1", Regressed: true, Reason: "mean score dropped 0.85 -> 0.60"},
			},
		},
	}
}

func TestGenerateComparisonTable(t *testing.T) {
	var buf bytes.Buffer
	if err := report.GenerateComparison(sampleComparison(), "table", &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "REGRESSION DETECTED") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, "task-1") || !strings.Contains(out, "REGRESSED") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, "Tokens:   1200 -> 1500 (+25%)") {
		t.Errorf("efficiency section missing:\n%s", out)
	}
	if !strings.Contains(out, "Cost:     $0.0120 -> $0.0150 (+25%)") {
		t.Errorf("efficiency section missing:\n%s", out)
	}
}

func TestGenerateComparisonNoRegression(t *testing.T) {
	rep := sampleComparison()
	rep.Verdict.RegressionDetected = false
	rep.Verdict.Regressions = nil
	rep.Verdict.Tasks[0].Regressed = false

	var buf bytes.Buffer
	if err := report.GenerateComparison(rep, "table", &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No regressions detected") {
		t.Errorf("output:\n%s", buf.String())
	}
}

func TestGenerateComparisonMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := report.GenerateComparison(sampleComparison(), "markdown", &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "| task-1 |") {
		t.Errorf("output:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "| Tokens | 1200 | 1500 | +25% |") {
		t.Errorf("output:\n%s", buf.String())
	}
}
