package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Stability summarizes the spread of a score distribution for one
// (task, config) group.
type Stability struct {
	Variance               float64 `json:"variance"`
	StdDev                 float64 `json:"std_dev"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	MinScore               float64 `json:"min_score"`
	MaxScore               float64 `json:"max_score"`
	ScoreRange             float64 `json:"score_range"`
}

func ComputeStability(scores []float64) Stability {
	if len(scores) == 0 {
		return Stability{}
	}
	s := Stability{MinScore: scores[0], MaxScore: scores[0]}
	for _, v := range scores {
		s.MinScore = math.Min(s.MinScore, v)
		s.MaxScore = math.Max(s.MaxScore, v)
	}
	s.ScoreRange = s.MaxScore - s.MinScore
	if len(scores) > 1 {
		s.Variance = stat.Variance(scores, nil)
		s.StdDev = math.Sqrt(s.Variance)
	}
	if mean := stat.Mean(scores, nil); mean > 0 {
		s.CoefficientOfVariation = s.StdDev / mean
	}
	return s
}
