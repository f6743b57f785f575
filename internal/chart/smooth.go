package chart

// Smooth applies a forward-looking moving average of the given
// radius: out[i] is the mean of s[i:i+radius], with the window
// shrinking at the tail. A radius below 2 returns s unchanged.
func Smooth(s []float64, radius int) []float64 {
	if radius < 2 {
		return s
	}
	out := make([]float64, len(s))
	for i := range s {
		out[i] = mean(s[i:min(i+radius, len(s))])
	}
	return out
}

// mean returns the arithmetic mean of s, or 0 for an empty s.
func mean(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}
