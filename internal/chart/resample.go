package chart

import "math"

// Resample shrinks s to n columns by area-preserving linear
// interpolation. Each output column averages the stretch of
// input it covers, counting partially covered input elements
// by the covered fraction, so sum(out)*len(s)/n equals sum(s).
// Input that already fits in n columns is returned as is.
func Resample(s []float64, n int) []float64 {
	size := len(s)
	if n <= 0 {
		return []float64{}
	}
	if size <= n {
		return s
	}

	span := float64(size) / float64(n)
	last := size - 1
	clamp := func(i int) int {
		return max(0, min(i, last))
	}

	out := make([]float64, n)
	for k := range out {
		left := float64(k) * span
		right := float64(k+1) * span
		if k == n-1 {
			right = float64(size)
		}
		lf, lc := math.Floor(left), math.Ceil(left)
		rf := math.Floor(right)

		var sum float64
		for i := int(lc); i < int(rf); i++ {
			sum += s[clamp(i)]
		}
		sum += s[clamp(int(lf))] * (lc - left)
		sum += s[clamp(int(rf))] * (right - rf)
		out[k] = sum / span
	}
	return out
}
