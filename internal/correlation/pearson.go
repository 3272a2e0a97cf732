package correlation

import "math"

// pearson computes the Pearson correlation coefficient over paired
// samples. Returns 0 for fewer than 2 pairs or when either series has
// zero variance (never a division error).
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return 0
	}

	var xMean, yMean float64
	for i := 0; i < n; i++ {
		xMean += xs[i]
		yMean += ys[i]
	}
	xMean /= float64(n)
	yMean /= float64(n)

	var numerator, xVariance, yVariance float64
	for i := 0; i < n; i++ {
		xDiff := xs[i] - xMean
		yDiff := ys[i] - yMean
		numerator += xDiff * yDiff
		xVariance += xDiff * xDiff
		yVariance += yDiff * yDiff
	}

	denominator := math.Sqrt(xVariance * yVariance)
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// meetsThreshold is the single qualifying gate for both coefficient and
// mean-difference statistics: the magnitude must reach the threshold.
func meetsThreshold(value, threshold float64) bool {
	return math.Abs(value) >= threshold
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
