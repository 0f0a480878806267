package stats

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Efficiency compares token, duration, and cost distributions between a
// baseline and a candidate. P-values are nil when a group is too small to
// test.
type Efficiency struct {
	TokensAMean    float64 `json:"tokens_a_mean"`
	TokensBMean    float64 `json:"tokens_b_mean"`
	TokensDelta    float64 `json:"tokens_delta"`
	TokensDeltaPct float64 `json:"tokens_delta_pct"`

	DurationAMean    float64 `json:"duration_a_mean"`
	DurationBMean    float64 `json:"duration_b_mean"`
	DurationDelta    float64 `json:"duration_delta"`
	DurationDeltaPct float64 `json:"duration_delta_pct"`

	CostAMean    float64 `json:"cost_a_mean"`
	CostBMean    float64 `json:"cost_b_mean"`
	CostDelta    float64 `json:"cost_delta"`
	CostDeltaPct float64 `json:"cost_delta_pct"`

	TokensPValue   *float64 `json:"tokens_p_value,omitempty"`
	DurationPValue *float64 `json:"duration_p_value,omitempty"`

	Recommendation string `json:"recommendation"`
}

// CompareEfficiency computes mean deltas for tokens, durations, and costs
// and flags significance on tokens and durations with the rank-based test.
func CompareEfficiency(tokensA, tokensB, durationsA, durationsB, costsA, costsB []float64) Efficiency {
	e := Efficiency{}
	e.TokensAMean = meanOrZero(tokensA)
	e.TokensBMean = meanOrZero(tokensB)
	e.TokensDelta = e.TokensBMean - e.TokensAMean
	if e.TokensAMean > 0 {
		e.TokensDeltaPct = e.TokensDelta / e.TokensAMean * 100
	}

	e.DurationAMean = meanOrZero(durationsA)
	e.DurationBMean = meanOrZero(durationsB)
	e.DurationDelta = e.DurationBMean - e.DurationAMean
	if e.DurationAMean > 0 {
		e.DurationDeltaPct = e.DurationDelta / e.DurationAMean * 100
	}

	e.CostAMean = meanOrZero(costsA)
	e.CostBMean = meanOrZero(costsB)
	e.CostDelta = e.CostBMean - e.CostAMean
	if e.CostAMean > 0 {
		e.CostDeltaPct = e.CostDelta / e.CostAMean * 100
	}

	if _, p, err := MannWhitney(tokensA, tokensB); err == nil {
		e.TokensPValue = &p
	}
	if _, p, err := MannWhitney(durationsA, durationsB); err == nil {
		e.DurationPValue = &p
	}

	e.Recommendation = efficiencyRecommendation(e, len(tokensA), len(tokensB))
	return e
}

func efficiencyRecommendation(e Efficiency, nA, nB int) string {
	minN := nA
	if nB < minN {
		minN = nB
	}
	if minN < 2 {
		return "Insufficient samples for efficiency comparison (need at least 2 per group)."
	}

	var parts []string
	tokensSig := e.TokensPValue != nil && *e.TokensPValue < DefaultAlpha
	if abs(e.TokensDeltaPct) > 10 {
		direction := "more"
		if e.TokensDeltaPct < 0 {
			direction = "fewer"
		}
		sigNote := ""
		if tokensSig {
			sigNote = " (statistically significant)"
		}
		parts = append(parts, fmt.Sprintf("Current uses %.0f%% %s tokens%s.", abs(e.TokensDeltaPct), direction, sigNote))
	}

	durationSig := e.DurationPValue != nil && *e.DurationPValue < DefaultAlpha
	if abs(e.DurationDeltaPct) > 10 {
		direction := "slower"
		if e.DurationDeltaPct < 0 {
			direction = "faster"
		}
		sigNote := ""
		if durationSig {
			sigNote = " (statistically significant)"
		}
		parts = append(parts, fmt.Sprintf("Current is %.0f%% %s%s.", abs(e.DurationDeltaPct), direction, sigNote))
	}

	if len(parts) == 0 {
		return "No significant efficiency differences detected between configurations."
	}

	if e.TokensDeltaPct < -10 && e.DurationDeltaPct < -10 {
		parts = append(parts, "Current is more efficient overall.")
	} else if e.TokensDeltaPct > 10 && e.DurationDeltaPct > 10 {
		parts = append(parts, "Current is less efficient overall.")
	}
	return strings.Join(parts, " ")
}

func meanOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
