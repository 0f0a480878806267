package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Cohen's d magnitude thresholds.
const (
	effectNegligible = 0.2
	effectSmall      = 0.5
	effectMedium     = 0.8
)

// CohenD is the standardized mean difference between two samples using the
// pooled standard deviation. Returns 0 when the pooled deviation is 0.
func CohenD(a, b []float64) float64 {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 < 2 || n2 < 2 {
		return 0
	}
	meanA, meanB := stat.Mean(a, nil), stat.Mean(b, nil)
	varA, varB := stat.Variance(a, nil), stat.Variance(b, nil)
	pooled := math.Sqrt(((n1-1)*varA + (n2-1)*varB) / (n1 + n2 - 2))
	if pooled == 0 {
		return 0
	}
	return math.Abs(meanB-meanA) / pooled
}

// EffectMagnitude buckets an effect size into the conventional labels.
func EffectMagnitude(d float64) string {
	d = math.Abs(d)
	switch {
	case d < effectNegligible:
		return "negligible"
	case d < effectSmall:
		return "small"
	case d < effectMedium:
		return "medium"
	default:
		return "large"
	}
}
