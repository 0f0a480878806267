package stats

// PassAtK is the probability that at least one of k independent attempts
// succeeds given single-attempt pass probability p. p is clamped to [0,1].
func PassAtK(p float64, k int) float64 {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	if k <= 0 {
		return 0
	}
	q := 1.0
	for i := 0; i < k; i++ {
		q *= 1 - p
	}
	return 1 - q
}

// PassAtKUnbiased is the unbiased pass@k estimator over n observed runs of
// which c passed: 1 - C(n-c, k)/C(n, k). When k exceeds n it falls back to
// the empirical pass rate.
func PassAtKUnbiased(n, c, k int) float64 {
	if n <= 0 {
		return 0
	}
	if k > n {
		return float64(c) / float64(n)
	}
	if c >= n {
		return 1
	}
	if c <= 0 {
		return 0
	}
	// C(n-c, k)/C(n, k) as a running product keeps intermediate values in
	// float range for any n.
	ratio := 1.0
	for i := 0; i < k; i++ {
		ratio *= float64(n-c-i) / float64(n-i)
		if ratio == 0 {
			break
		}
	}
	return 1 - ratio
}
