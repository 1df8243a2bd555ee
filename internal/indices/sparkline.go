package indices

import "math/rand"

// SparklinePoints is the fixed length of every sparkline series, whatever
// its data source.
const SparklinePoints = 20

// SynthesizeSparkline back-computes an implied starting price from the
// current price and its change percent, then emits n points of small random
// noise plus a trend rising linearly to roughly half the total change.
//
// This is a display approximation of recent movement, not a reconstruction
// of historical prices. Tests should fix the rand source or assert only on
// shape and bounds.
func SynthesizeSparkline(current, changePct float64, n int, rng *rand.Rand) []float64 {
	if n <= 0 {
		return nil
	}

	implied := current
	if changePct > -100 {
		implied = current / (1 + changePct/100)
	}

	points := make([]float64, n)
	for i := range points {
		noise := (rng.Float64() - 0.5) * 0.01 // within ±0.5%
		trend := 0.0
		if n > 1 {
			trend = float64(i) / float64(n-1) * changePct / 2 / 100
		}
		points[i] = implied * (1 + noise + trend)
	}

	return points
}

// flatSparkline is the zero-valued series used by fallback records.
func flatSparkline(n int) []float64 {
	return make([]float64, n)
}
