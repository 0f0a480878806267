package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInsufficientSamples is returned when a test needs more data points per
// group than were provided. Callers decide whether to skip significance
// testing or surface the error.
var ErrInsufficientSamples = errors.New("insufficient samples (need at least 2 per group)")

// MannWhitney runs the two-sided Mann-Whitney U test on two independent
// samples. It is distribution-free, which suits scores and durations that
// are not normally distributed at the small sample sizes typical here.
// Returns the U statistic of the first sample and a two-sided p-value from
// the tie-corrected normal approximation.
func MannWhitney(a, b []float64) (u, p float64, err error) {
	n1, n2 := len(a), len(b)
	if n1 < 2 || n2 < 2 {
		return 0, 1, ErrInsufficientSamples
	}

	ranks, tieTerm := midranks(a, b)
	var r1 float64
	for i := 0; i < n1; i++ {
		r1 += ranks[i]
	}
	u = r1 - float64(n1)*float64(n1+1)/2

	n := float64(n1 + n2)
	mu := float64(n1) * float64(n2) / 2
	variance := float64(n1) * float64(n2) / 12 * ((n + 1) - tieTerm/(n*(n-1)))
	if variance <= 0 {
		// Every value tied; the samples are indistinguishable.
		return u, 1, nil
	}

	// Continuity correction toward the mean.
	diff := u - mu
	switch {
	case diff > 0.5:
		diff -= 0.5
	case diff < -0.5:
		diff += 0.5
	default:
		diff = 0
	}
	z := diff / math.Sqrt(variance)
	p = 2 * distuv.UnitNormal.Survival(math.Abs(z))
	if p > 1 {
		p = 1
	}
	return u, p, nil
}

// midranks assigns average ranks to the concatenation of a and b, returning
// the ranks in input order (a first) and the tie correction term Σ(t³-t).
func midranks(a, b []float64) (ranks []float64, tieTerm float64) {
	n := len(a) + len(b)
	type entry struct {
		value float64
		pos   int
	}
	entries := make([]entry, 0, n)
	for i, v := range a {
		entries = append(entries, entry{v, i})
	}
	for i, v := range b {
		entries = append(entries, entry{v, len(a) + i})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].value < entries[j].value })

	ranks = make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && entries[j].value == entries[i].value {
			j++
		}
		// Average rank for the tie group spanning [i, j).
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[entries[k].pos] = avg
		}
		t := float64(j - i)
		tieTerm += t*t*t - t
		i = j
	}
	return ranks, tieTerm
}
