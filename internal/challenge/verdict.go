package challenge

// Verdict is the outcome of a challenge from the challenged player's side.
type Verdict string

// Verdicts.
const (
	Win  Verdict = "win"
	Lose Verdict = "lose"
	Tie  Verdict = "tie"
)

// SingleResult is the challenged player's finished daily or random game.
type SingleResult struct {
	Solved       bool
	Attempts     int
	BestDistance *int
}

// Judge compares a finished single-city game with the opponent's.
// Solving beats not solving; when both solved, fewer attempts wins. When
// neither solved the game is a tie, unless the player never guessed at all.
func (d *Data) Judge(r SingleResult) Verdict {
	switch {
	case r.Solved && !d.OpponentSolved:
		return Win
	case !r.Solved && d.OpponentSolved:
		return Lose
	case r.Solved:
		switch opp := len(d.OpponentGuesses); {
		case r.Attempts < opp:
			return Win
		case r.Attempts > opp:
			return Lose
		default:
			return Tie
		}
	case r.BestDistance == nil:
		return Lose
	default:
		return Tie
	}
}

// ClassicResult is the challenged player's finished classic game.
type ClassicResult struct {
	Score          int
	MedianDistance *int
}

// Judge compares a finished classic game with the opponent's.
// The lower median distance wins; a player without a median loses to one
// with a median. Equal medians fall back to the higher score.
func (d *ClassicData) Judge(r ClassicResult) Verdict {
	mine, theirs := r.MedianDistance, d.OpponentMedianDistance
	switch {
	case mine != nil && theirs == nil:
		return Win
	case mine == nil && theirs != nil:
		return Lose
	case mine != nil && *mine < *theirs:
		return Win
	case mine != nil && *mine > *theirs:
		return Lose
	}

	switch {
	case r.Score > d.OpponentScore:
		return Win
	case r.Score < d.OpponentScore:
		return Lose
	default:
		return Tie
	}
}
