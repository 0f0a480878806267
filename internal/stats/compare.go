package stats

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// DefaultAlpha is the significance level used when callers pass 0.
const DefaultAlpha = 0.05

// Comparison is the outcome of a two-sample statistical comparison.
type Comparison struct {
	MeanA float64 `json:"mean_a"`
	MeanB float64 `json:"mean_b"`
	NA    int     `json:"n_a"`
	NB    int     `json:"n_b"`

	Statistic     float64 `json:"statistic"`
	PValue        float64 `json:"p_value"`
	IsSignificant bool    `json:"is_significant"`

	EffectSize      float64 `json:"effect_size"`
	EffectMagnitude string  `json:"effect_magnitude"`

	Delta          float64 `json:"delta"`
	RelativeChange float64 `json:"relative_change"`
	Recommendation string  `json:"recommendation"`
}

// Compare runs the rank-based two-sample comparison between baseline scores
// a and candidate scores b. Groups with fewer than two samples yield a
// clearly marked insufficient-samples result instead of misleading numbers.
func Compare(a, b []float64, alpha float64) Comparison {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	c := Comparison{NA: len(a), NB: len(b)}
	if len(a) > 0 {
		c.MeanA = stat.Mean(a, nil)
	}
	if len(b) > 0 {
		c.MeanB = stat.Mean(b, nil)
	}
	c.Delta = c.MeanB - c.MeanA

	u, p, err := MannWhitney(a, b)
	if err != nil {
		c.PValue = 1
		c.EffectMagnitude = "negligible"
		c.Recommendation = "Insufficient samples for statistical comparison (need at least 2 per group)."
		return c
	}

	c.Statistic = u
	c.PValue = p
	c.IsSignificant = p < alpha
	c.EffectSize = CohenD(a, b)
	c.EffectMagnitude = EffectMagnitude(c.EffectSize)
	if c.MeanA > 0 {
		c.RelativeChange = c.Delta / c.MeanA * 100
	}
	c.Recommendation = recommendation(c)
	return c
}

func recommendation(c Comparison) string {
	minN := c.NA
	if c.NB < minN {
		minN = c.NB
	}
	if minN < 5 {
		return fmt.Sprintf("Sample size too small (n=%d). Collect at least 5 runs per configuration for reliable comparison.", minN)
	}
	if !c.IsSignificant {
		if minN < 10 {
			return fmt.Sprintf("No significant difference detected (p=%.3f). Consider increasing sample size for more statistical power.", c.PValue)
		}
		return fmt.Sprintf("No significant difference detected (p=%.3f). The configurations appear equivalent.", c.PValue)
	}

	direction := "improvement"
	if c.Delta < 0 {
		direction = "regression"
	}
	switch c.EffectMagnitude {
	case "negligible":
		return fmt.Sprintf("Statistically significant but negligible %s (p=%.3f). The practical difference is minimal.", direction, c.PValue)
	case "small":
		return fmt.Sprintf("Statistically significant small %s (p=%.3f). Consider whether this is practically meaningful.", direction, c.PValue)
	case "medium":
		return fmt.Sprintf("Significant medium %s detected (p=%.3f). This is a meaningful difference.", direction, c.PValue)
	default:
		return fmt.Sprintf("Significant large %s detected (p=%.3f). This is a substantial difference.", direction, c.PValue)
	}
}
