package game

import (
	"city-coords/internal/challenge"
	"city-coords/internal/model"
)

// Phase is the position of a session in its state machine.
type Phase int

// Session phases.
const (
	PhaseNotStarted Phase = iota
	PhaseInRound
	PhaseRoundResolved
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseInRound:
		return "in_round"
	case PhaseRoundResolved:
		return "round_resolved"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// State is a read-only snapshot of a session. Slices, maps and pointers are
// copies; changing them does not affect the session.
type State struct {
	Phase       Phase
	Mode        model.Mode
	CurrentCity model.City
	Seed        string
	Round       int
	TotalRounds int
	Attempt     int
	MaxAttempts int
	Score       int
	// IsCorrect is nil until the current round or attempt has been answered.
	IsCorrect    *bool
	GameOver     bool
	UsedCities   map[int]struct{}
	GuessedCity  *model.City
	History      []model.RoundResult
	Attempts     []model.AttemptResult
	BestDistance *int
	IsChallenge  bool
	Opponent     challenge.Challenge
}

// Solved reports whether a single-city game found the target.
func (s State) Solved() bool {
	return s.Mode.SingleCity() && s.Score == 1
}
