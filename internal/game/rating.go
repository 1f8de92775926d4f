package game

// Rating grades a finished classic game.
type Rating string

// Ratings, best first.
const (
	RatingPerfect   Rating = "perfect"
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingPoor      Rating = "poor"
)

// Percentage returns score as a whole percentage of total, halves rounded
// up. It returns 0 when total is not positive.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return (score*200 + total) / (2 * total)
}

// RatingFor maps a score out of total to a Rating.
func RatingFor(score, total int) Rating {
	switch p := Percentage(score, total); {
	case p >= 100:
		return RatingPerfect
	case p >= 80:
		return RatingExcellent
	case p >= 60:
		return RatingGood
	case p >= 40:
		return RatingFair
	default:
		return RatingPoor
	}
}
