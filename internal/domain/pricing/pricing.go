package pricing

import (
	"math"
	"time"
)

// Compute returns hourlyRate multiplied by the fractional hour count of
// duration, rounded half-up to 2 decimal places. Pure and deterministic.
func Compute(hourlyRate float64, duration time.Duration) float64 {
	hours := float64(duration.Milliseconds()) / float64(time.Hour.Milliseconds())
	return roundHalfUp(hourlyRate * hours)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
