package stats_test

import (
	"strings"
	"testing"

	"github.com/signalnine/driftbench/internal/stats"
)

func TestCompareInsufficientSamples(t *testing.T) {
	got := stats.Compare([]float64{0.5}, []float64{0.6, 0.7}, 0.05)
	if !strings.Contains(got.Recommendation, "Insufficient samples") {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
	if got.IsSignificant {
		t.Error("insufficient samples must not be significant")
	}
}

func TestCompareClearRegression(t *testing.T) {
	baseline := []float64{0.9, 0.85, 0.95, 0.88, 0.92, 0.91, 0.87}
	current := []float64{0.3, 0.25, 0.35, 0.28, 0.32, 0.31, 0.27}
	got := stats.Compare(baseline, current, 0.05)
	if !got.IsSignificant {
		t.Errorf("want significant, p = %f", got.PValue)
	}
	if got.Delta >= 0 {
		t.Errorf("delta = %f, want negative", got.Delta)
	}
	if got.EffectMagnitude != "large" {
		t.Errorf("magnitude = %q, want large", got.EffectMagnitude)
	}
	if !strings.Contains(got.Recommendation, "regression") {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
}

func TestCompareEquivalentSamples(t *testing.T) {
	a := []float64{0.80, 0.82, 0.78, 0.81, 0.79, 0.83, 0.80, 0.81, 0.79, 0.82}
	b := []float64{0.81, 0.79, 0.80, 0.82, 0.78, 0.80, 0.81, 0.79, 0.83, 0.80}
	got := stats.Compare(a, b, 0.05)
	if got.IsSignificant {
		t.Errorf("want not significant, p = %f", got.PValue)
	}
	if !strings.Contains(got.Recommendation, "equivalent") {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
}

func TestCompareSmallSampleWarning(t *testing.T) {
	got := stats.Compare([]float64{0.9, 0.8}, []float64{0.3, 0.4}, 0.05)
	if !strings.Contains(got.Recommendation, "Sample size too small") {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
}

func TestCompareEfficiencyDirections(t *testing.T) {
	tokensA := []float64{1000, 1100, 1050, 1000, 1080}
	tokensB := []float64{500, 520, 510, 530, 490}
	durA := []float64{60, 65, 62, 61, 63}
	durB := []float64{30, 32, 31, 29, 33}
	got := stats.CompareEfficiency(tokensA, tokensB, durA, durB, nil, nil)

	if got.TokensDeltaPct >= 0 {
		t.Errorf("tokens delta pct = %f, want negative", got.TokensDeltaPct)
	}
	if !strings.Contains(got.Recommendation, "fewer tokens") {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
	if !strings.Contains(got.Recommendation, "faster") {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
	if !strings.Contains(got.Recommendation, "more efficient overall") {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
}

func TestCompareEfficiencyInsufficient(t *testing.T) {
	got := stats.CompareEfficiency([]float64{100}, []float64{200}, nil, nil, nil, nil)
	if !strings.Contains(got.Recommendation, "Insufficient samples") {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
}

func TestComputeStability(t *testing.T) {
	got := stats.ComputeStability([]float64{0.8, 0.9, 0.7, 0.8, 0.8})
	if absf(got.MinScore-0.7) > 0.001 || absf(got.MaxScore-0.9) > 0.001 {
		t.Errorf("min/max = %f/%f", got.MinScore, got.MaxScore)
	}
	if absf(got.ScoreRange-0.2) > 0.001 {
		t.Errorf("range = %f, want 0.2", got.ScoreRange)
	}
	if got.StdDev <= 0 {
		t.Errorf("stddev = %f, want > 0", got.StdDev)
	}
}

func TestComputeStabilityEmpty(t *testing.T) {
	got := stats.ComputeStability(nil)
	if got.StdDev != 0 || got.ScoreRange != 0 {
		t.Errorf("got %+v, want zero value", got)
	}
}
