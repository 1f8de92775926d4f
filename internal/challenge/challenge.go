// Package challenge encodes finished games into compact, URL-safe tokens
// that let another player replay the same seed and compare results.
package challenge

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"city-coords/internal/model"
)

// ErrInvalidChallenge is returned by Encode for data that Decode would reject.
var ErrInvalidChallenge = errors.New("invalid challenge")

// Challenge is either a Data (daily or random) or a ClassicData.
type Challenge interface {
	ChallengeMode() model.Mode
	ChallengeSeed() string
}

// Data is a daily or random challenge: the opponent's guesses, in order,
// and whether they found the city.
type Data struct {
	Mode            model.Mode `json:"mode"`
	Seed            string     `json:"seed"`
	OpponentGuesses []string   `json:"opponentGuesses"`
	OpponentSolved  bool       `json:"opponentSolved"`
}

// ChallengeMode implements Challenge.
func (d *Data) ChallengeMode() model.Mode { return d.Mode }

// ChallengeSeed implements Challenge.
func (d *Data) ChallengeSeed() string { return d.Seed }

// HistoryEntry is one classic round as seen by the opponent.
// GuessName and Distance are nil for a skipped round.
type HistoryEntry struct {
	CityName  string  `json:"cityName"`
	GuessName *string `json:"guessName"`
	Distance  *int    `json:"distance"`
}

// ClassicData is a ten-round classic challenge.
type ClassicData struct {
	Mode                   model.Mode     `json:"mode"`
	Seed                   string         `json:"seed"`
	OpponentHistory        []HistoryEntry `json:"opponentHistory"`
	OpponentScore          int            `json:"opponentScore"`
	OpponentMedianDistance *int           `json:"opponentMedianDistance"`
}

// ChallengeMode implements Challenge.
func (d *ClassicData) ChallengeMode() model.Mode { return d.Mode }

// ChallengeSeed implements Challenge.
func (d *ClassicData) ChallengeSeed() string { return d.Seed }

// NewSingle builds a daily or random challenge from a finished game.
func NewSingle(mode model.Mode, seed string, attempts []model.AttemptResult, solved bool) *Data {
	guesses := make([]string, len(attempts))
	for i, a := range attempts {
		guesses[i] = a.Guess.Name
	}
	return &Data{
		Mode:            mode,
		Seed:            seed,
		OpponentGuesses: guesses,
		OpponentSolved:  solved,
	}
}

// NewClassic builds a classic challenge from a finished game.
func NewClassic(seed string, history []model.RoundResult, score int, median *int) *ClassicData {
	entries := make([]HistoryEntry, len(history))
	for i, r := range history {
		e := HistoryEntry{CityName: r.City.Name}
		if r.Guess != nil {
			name := r.Guess.Name
			e.GuessName = &name
		}
		if r.Distance != nil {
			d := *r.Distance
			e.Distance = &d
		}
		entries[i] = e
	}
	var m *int
	if median != nil {
		v := *median
		m = &v
	}
	return &ClassicData{
		Mode:                   model.ModeClassic,
		Seed:                   seed,
		OpponentHistory:        entries,
		OpponentScore:          score,
		OpponentMedianDistance: m,
	}
}

// Encode serializes c as JSON and returns it base64url encoded without
// padding, ready for a query string. A nil guess or history list is written
// as an empty one, so Decode returns an empty, non-nil slice for it.
func Encode(c Challenge) (string, error) {
	if c == nil || c.ChallengeSeed() == "" {
		return "", ErrInvalidChallenge
	}

	var payload any
	switch v := c.(type) {
	case *Data:
		if !v.Mode.SingleCity() {
			return "", fmt.Errorf("%w: mode %q", ErrInvalidChallenge, v.Mode)
		}
		out := *v
		if out.OpponentGuesses == nil {
			out.OpponentGuesses = []string{}
		}
		payload = out
	case *ClassicData:
		if v.Mode != model.ModeClassic {
			return "", fmt.Errorf("%w: mode %q", ErrInvalidChallenge, v.Mode)
		}
		out := *v
		if out.OpponentHistory == nil {
			out.OpponentHistory = []HistoryEntry{}
		}
		payload = out
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidChallenge, c)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal challenge: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// envelope is the loosely typed view used to validate a token before
// decoding it into its concrete shape.
type envelope struct {
	Mode            string          `json:"mode"`
	Seed            string          `json:"seed"`
	OpponentGuesses json.RawMessage `json:"opponentGuesses"`
	OpponentHistory json.RawMessage `json:"opponentHistory"`
}

// Decode parses a token produced by Encode. It returns nil for anything
// that is not a well formed challenge; callers then start a normal game.
// Both the URL-safe and the standard base64 alphabet are accepted, with or
// without padding.
func Decode(token string) Challenge {
	token = strings.TrimSpace(token)
	token = strings.TrimRight(token, "=")
	token = strings.NewReplacer("+", "-", "/", "_").Replace(token)
	if token == "" {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	if env.Mode == "" || env.Seed == "" {
		return nil
	}

	switch model.Mode(env.Mode) {
	case model.ModeClassic:
		if !isArray(env.OpponentHistory) {
			return nil
		}
		var d ClassicData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil
		}
		return &d
	case model.ModeDaily, model.ModeRandom:
		if !isArray(env.OpponentGuesses) {
			return nil
		}
		var d Data
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil
		}
		return &d
	default:
		return nil
	}
}

func isArray(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("["))
}
