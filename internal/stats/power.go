package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// PowerAnalysis is the result of a sample size calculation for comparing
// two pass rates.
type PowerAnalysis struct {
	BaselineRate          float64 `json:"baseline_rate"`
	MinDetectableEffect   float64 `json:"min_detectable_effect"`
	RecommendedSampleSize int     `json:"recommended_sample_size"`
	Power                 float64 `json:"power"`
	Alpha                 float64 `json:"alpha"`
	Notes                 string  `json:"notes"`
}

// MinimumSampleSize computes the per-group sample size needed for a
// two-proportion comparison to detect an absolute change of minEffect from
// baselineRate with the requested power at significance level alpha, using
// the normal approximation to the binomial. Larger effects need fewer
// samples; higher power targets need more.
func MinimumSampleSize(baselineRate, minEffect, power, alpha float64) PowerAnalysis {
	out := PowerAnalysis{
		BaselineRate:        baselineRate,
		MinDetectableEffect: minEffect,
		Power:               power,
		Alpha:               alpha,
	}
	if baselineRate <= 0 || baselineRate >= 1 {
		out.RecommendedSampleSize = 30
		out.Notes = "Invalid baseline rate. Using minimum sample size of 30."
		return out
	}

	altRate := baselineRate + minEffect
	if altRate >= 1 {
		altRate = 0.99
	}
	if altRate <= 0 {
		altRate = 0.01
	}

	pooled := (baselineRate + altRate) / 2
	zAlpha := distuv.UnitNormal.Quantile(1 - alpha/2)
	zPower := distuv.UnitNormal.Quantile(power)

	numerator := zAlpha*math.Sqrt(2*pooled*(1-pooled)) +
		zPower*math.Sqrt(baselineRate*(1-baselineRate)+altRate*(1-altRate))
	numerator *= numerator
	denominator := (baselineRate - altRate) * (baselineRate - altRate)

	if denominator == 0 {
		out.RecommendedSampleSize = 30
		out.Notes = "Effect size is 0. Using minimum sample size of 30."
		return out
	}

	n := int(math.Ceil(numerator / denominator))
	if n < 5 {
		n = 5
	}
	out.RecommendedSampleSize = n
	out.Notes = fmt.Sprintf("Sample size provides %.0f%% power to detect a %.0f%% change.",
		power*100, minEffect*100)
	return out
}
