package catalog

import "math"

// DifficultyRating derives a 1-5 difficulty score from exam statistics.
// Pass rate contributes 60% and mean score 40%; both are inverted so that
// stronger exam results mean an easier course. The result is rescaled onto
// 1-5 and rounded to one decimal place.
func DifficultyRating(meanScore, passRate float64) float64 {
	d := (1-passRate/100)*0.6 + (1-(meanScore-1)/4)*0.4
	return math.Round((d*4+1)*10) / 10
}

// Stars buckets a difficulty rating into a 1-5 star count.
func Stars(rating float64) int {
	switch {
	case rating <= 1.5:
		return 1
	case rating <= 2.5:
		return 2
	case rating <= 3.5:
		return 3
	case rating <= 4.5:
		return 4
	default:
		return 5
	}
}
