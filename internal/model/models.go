// Package model defines the shared domain types for the capital guessing game.
package model

import (
	"errors"
	"fmt"
	"strings"

	"city-coords/internal/geo"
)

// City is a capital city from the reference dataset.
// Name is the canonical identity and is unique across the dataset.
type City struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Point returns the city's coordinates.
func (c City) Point() geo.Point {
	return geo.Point{Lat: c.Lat, Lng: c.Lng}
}

// Mode is a game mode.
type Mode string

// Game modes.
const (
	ModeClassic Mode = "classic" // ten rounds, one guess each
	ModeDaily   Mode = "daily"   // one city per calendar day, six guesses
	ModeRandom  Mode = "random"  // one seeded city, six guesses
)

// ErrUnknownMode is returned when a mode string does not name a mode.
var ErrUnknownMode = errors.New("unknown game mode")

// ModeConfig holds the fixed limits of a mode.
type ModeConfig struct {
	MaxAttempts int
	TotalRounds int
}

var modeConfigs = map[Mode]ModeConfig{
	ModeClassic: {MaxAttempts: 1, TotalRounds: 10},
	ModeDaily:   {MaxAttempts: 6, TotalRounds: 1},
	ModeRandom:  {MaxAttempts: 6, TotalRounds: 1},
}

// Config returns the limits for m. Unknown modes get a zero config.
func (m Mode) Config() ModeConfig {
	return modeConfigs[m]
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	_, ok := modeConfigs[m]
	return ok
}

// SingleCity reports whether m plays one target city over several attempts.
func (m Mode) SingleCity() bool {
	return m == ModeDaily || m == ModeRandom
}

// ParseMode converts a user supplied string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// Modes returns all modes in menu order.
func Modes() []Mode {
	return []Mode{ModeClassic, ModeDaily, ModeRandom}
}

// Lang is a supported display language.
type Lang string

// Supported languages.
const (
	LangEN Lang = "en"
	LangPL Lang = "pl"
	LangES Lang = "es"
)

// Langs returns the supported languages.
func Langs() []Lang {
	return []Lang{LangEN, LangPL, LangES}
}

// ParseLang normalizes a language tag such as "pl-PL" to a supported Lang.
// Unsupported tags fall back to English.
func ParseLang(s string) Lang {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i >= 0 {
		s = s[:i]
	}
	switch Lang(s) {
	case LangPL:
		return LangPL
	case LangES:
		return LangES
	default:
		return LangEN
	}
}

// AttemptResult is one guess in daily or random mode.
type AttemptResult struct {
	Guess     City          `json:"guess"`
	Distance  int           `json:"distance"`
	Bearing   float64       `json:"bearing"`
	Direction geo.Direction `json:"direction"`
	Arrow     string        `json:"arrow"`
	IsCorrect bool          `json:"isCorrect"`
}

// RoundResult is one finished round in classic mode.
// Guess and Distance are nil when the round was skipped.
type RoundResult struct {
	City      City  `json:"city"`
	Guess     *City `json:"guess"`
	IsCorrect bool  `json:"isCorrect"`
	Distance  *int  `json:"distance"`
}

// Skipped reports whether the round ended without a guess.
func (r RoundResult) Skipped() bool {
	return r.Guess == nil
}
