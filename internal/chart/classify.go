package chart

// Activity levels, also used as stroke widths.
const (
	ActivityLow  = 1
	ActivityWarm = 2
	ActivityHot  = 3
)

// Classify rates recent activity from the mean of the last
// period values of a raw series: below half of hot is low,
// below hot is warm, anything else is hot.
func Classify(s []float64, period int, hot float64) int {
	avg := trailingMean(s, period)
	switch {
	case avg < hot/2:
		return ActivityLow
	case avg < hot:
		return ActivityWarm
	default:
		return ActivityHot
	}
}

func trailingMean(s []float64, period int) float64 {
	if period <= 0 {
		return 0
	}
	return mean(s[max(0, len(s)-period):])
}
