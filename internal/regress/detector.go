package regress

import (
	"fmt"
	"sort"

	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/stats"
)

// DefaultThreshold is the score or pass-rate drop that flags a regression.
const DefaultThreshold = 0.05

// Detector compares a baseline result set against a current one and flags
// tasks whose quality dropped beyond the threshold.
type Detector struct {
	// Threshold is the minimum absolute drop (as a fraction) in mean score
	// or pass rate that counts as a regression.
	Threshold float64

	// RequireSignificance gates score regressions on a significant
	// rank-test result, avoiding noise from small samples.
	RequireSignificance bool

	// Alpha is the significance level used when RequireSignificance is set.
	Alpha float64
}

func NewDetector() *Detector {
	return &Detector{Threshold: DefaultThreshold, Alpha: stats.DefaultAlpha}
}

// TaskComparison is the per-task before/after diff.
type TaskComparison struct {
	TaskID            string   `json:"task_id"`
	BaselinePassRate  float64  `json:"baseline_pass_rate"`
	CurrentPassRate   float64  `json:"current_pass_rate"`
	PassRateDelta     float64  `json:"pass_rate_delta"`
	BaselineMeanScore float64  `json:"baseline_mean_score"`
	CurrentMeanScore  float64  `json:"current_mean_score"`
	ScoreDelta        float64  `json:"score_delta"`
	BaselineRuns      int      `json:"baseline_runs"`
	CurrentRuns       int      `json:"current_runs"`
	PValue            *float64 `json:"p_value,omitempty"`
	Significant       bool     `json:"significant"`
	Regressed         bool     `json:"regressed"`
	Improved          bool     `json:"improved"`
	Reason            string   `json:"reason,omitempty"`
}

// Verdict aggregates per-task comparisons into an overall answer.
type Verdict struct {
	RegressionDetected bool             `json:"regression_detected"`
	Regressions        []TaskComparison `json:"regressions"`
	Improvements       []TaskComparison `json:"improvements"`
	Tasks              []TaskComparison `json:"tasks"`
}

// Detect groups both collections by task id and flags each task whose pass
// rate or mean score dropped by more than the threshold. Tasks present in
// only one collection are skipped: there is nothing to compare.
func (d *Detector) Detect(baseline, current []result.EvalResult) Verdict {
	base := groupByTask(baseline)
	cur := groupByTask(current)

	ids := make([]string, 0, len(base))
	for id := range base {
		if _, ok := cur[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var v Verdict
	for _, id := range ids {
		tc := d.compareTask(id, base[id], cur[id])
		v.Tasks = append(v.Tasks, tc)
		if tc.Regressed {
			v.RegressionDetected = true
			v.Regressions = append(v.Regressions, tc)
		}
		if tc.Improved {
			v.Improvements = append(v.Improvements, tc)
		}
	}
	return v
}

func (d *Detector) compareTask(id string, baseline, current []result.EvalResult) TaskComparison {
	baseScores := scores(baseline)
	curScores := scores(current)

	tc := TaskComparison{
		TaskID:            id,
		BaselinePassRate:  passRate(baseline),
		CurrentPassRate:   passRate(current),
		BaselineMeanScore: mean(baseScores),
		CurrentMeanScore:  mean(curScores),
		BaselineRuns:      len(baseline),
		CurrentRuns:       len(current),
	}
	tc.PassRateDelta = tc.CurrentPassRate - tc.BaselinePassRate
	tc.ScoreDelta = tc.CurrentMeanScore - tc.BaselineMeanScore

	alpha := d.Alpha
	if alpha <= 0 {
		alpha = stats.DefaultAlpha
	}
	if len(baseScores) >= 2 && len(curScores) >= 2 {
		if _, p, err := stats.MannWhitney(baseScores, curScores); err == nil {
			tc.PValue = &p
			tc.Significant = p < alpha
		}
	}

	dropped := tc.ScoreDelta < -d.Threshold || tc.PassRateDelta < -d.Threshold
	improved := tc.ScoreDelta > d.Threshold || tc.PassRateDelta > d.Threshold

	if dropped {
		if d.RequireSignificance && !tc.Significant {
			tc.Reason = fmt.Sprintf("drop of %.2f not statistically significant", -tc.ScoreDelta)
		} else {
			tc.Regressed = true
			tc.Reason = regressionReason(tc)
		}
	}
	if improved && !tc.Regressed {
		tc.Improved = true
	}
	return tc
}

func regressionReason(tc TaskComparison) string {
	if tc.ScoreDelta < tc.PassRateDelta {
		return fmt.Sprintf("mean score dropped %.2f -> %.2f", tc.BaselineMeanScore, tc.CurrentMeanScore)
	}
	return fmt.Sprintf("pass rate dropped %.0f%% -> %.0f%%", tc.BaselinePassRate*100, tc.CurrentPassRate*100)
}

func groupByTask(results []result.EvalResult) map[string][]result.EvalResult {
	grouped := make(map[string][]result.EvalResult)
	for _, r := range results {
		grouped[r.TaskID] = append(grouped[r.TaskID], r)
	}
	return grouped
}

func scores(results []result.EvalResult) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.OverallScore
	}
	return out
}

func passRate(results []result.EvalResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var passed int
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return float64(passed) / float64(len(results))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
