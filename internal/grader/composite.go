package grader

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/task"
)

// DefaultPassThreshold is the overall score at or above which a task passes
// regardless of individual assertion outcomes.
const DefaultPassThreshold = 0.7

// CompositeGrader runs every assertion of a task through the code and LLM
// graders and combines the results into a weighted overall score.
type CompositeGrader struct {
	Code *CodeGrader
	LLM  *LLMGrader

	// StrictWeights, when true, warns about scoring keys that match no
	// assertion id, surfacing typos in scoring config.
	StrictWeights bool

	// DifficultyThresholds replaces the flat pass threshold with per
	// difficulty cutoffs (easy 0.85, medium 0.70, hard 0.55).
	DifficultyThresholds bool
}

func NewCompositeGrader(code *CodeGrader, llm *LLMGrader) *CompositeGrader {
	return &CompositeGrader{Code: code, LLM: llm}
}

// Grade evaluates all assertions of t in declaration order and returns the
// individual grades, the weighted overall score, and the pass verdict.
//
// A task passes when the overall score meets the threshold OR every code
// assertion passed. A task with zero assertions scores 0.0 and fails.
func (g *CompositeGrader) Grade(ctx context.Context, t *task.Task, trace *result.ExecutionTrace, envPath string) ([]result.GradeResult, float64, bool) {
	var grades []result.GradeResult

	for i, a := range t.CodeAssertions() {
		gr := g.Code.Grade(ctx, a, envPath)
		gr.AssertionID = fmt.Sprintf("code_%d_%s", i, a.Check)
		gr.AssertionName = string(a.Check)
		grades = append(grades, gr)
	}
	for i, a := range t.LLMAssertions() {
		gr := g.LLM.Grade(ctx, a, t, trace, envPath)
		gr.AssertionID = fmt.Sprintf("llm_%d", i)
		grades = append(grades, gr)
	}

	if len(grades) == 0 {
		return nil, 0.0, false
	}

	overall := WeightedScore(grades, t.Scoring)

	if g.StrictWeights {
		if unmatched := UnmatchedWeightKeys(grades, t.Scoring); len(unmatched) > 0 {
			log.Printf("warning: task %s scoring keys match no assertion: %s",
				t.ID, strings.Join(unmatched, ", "))
		}
	}

	allCodePass := true
	for _, gr := range grades {
		if gr.AssertionType == string(task.AssertionCode) && !gr.Passed {
			allCodePass = false
			break
		}
	}

	passed := overall >= g.threshold(t) || allCodePass
	return grades, overall, passed
}

func (g *CompositeGrader) threshold(t *task.Task) float64 {
	if t.PassThreshold != nil {
		return *t.PassThreshold
	}
	if g.DifficultyThresholds {
		switch t.Difficulty {
		case task.DifficultyEasy:
			return 0.85
		case task.DifficultyHard:
			return 0.55
		}
	}
	return DefaultPassThreshold
}

// WeightedScore computes Σ(score·weight)/Σ(weight) over all grades. A grade's
// weight comes from the first scoring key (in sorted order) that is a
// substring of its assertion id; unmatched grades weigh 1.0.
func WeightedScore(grades []result.GradeResult, scoring map[string]float64) float64 {
	if len(grades) == 0 {
		return 0.0
	}

	// Sorted keys make substring resolution deterministic when several
	// keys match the same id.
	keys := make([]string, 0, len(scoring))
	for k := range scoring {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var weightedSum, totalWeight float64
	for _, gr := range grades {
		weight := 1.0
		for _, k := range keys {
			if containsSubstring(gr.AssertionID, k) {
				weight = scoring[k]
				break
			}
		}
		weightedSum += gr.Score * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0.0
	}
	return weightedSum / totalWeight
}

// UnmatchedWeightKeys reports scoring keys that match no grade id. Used by
// strict weight mode to surface typos in task scoring config.
func UnmatchedWeightKeys(grades []result.GradeResult, scoring map[string]float64) []string {
	var unmatched []string
	for k := range scoring {
		found := false
		for _, gr := range grades {
			if containsSubstring(gr.AssertionID, k) {
				found = true
				break
			}
		}
		if !found {
			unmatched = append(unmatched, k)
		}
	}
	sort.Strings(unmatched)
	return unmatched
}

func containsSubstring(id, key string) bool {
	return key != "" && strings.Contains(id, key)
}
