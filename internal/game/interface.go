// Package game implements the capital guessing game session: mode rules,
// seeded target selection, guess scoring and daily progress resumption.
package game

import (
	"context"

	"city-coords/internal/daily"
	"city-coords/internal/model"
)

// CityProvider is the ordered city dataset a session draws targets from.
// Positions must be stable, since seeds map to positions.
type CityProvider interface {
	// Len returns the number of cities.
	Len() int

	// At returns the city at position i.
	At(i int) model.City

	// ByName looks a city up by its canonical name.
	ByName(name string) (model.City, error)
}

// ProgressStore persists today's daily game. daily.Tracker implements it.
type ProgressStore interface {
	// LoadToday returns today's progress, or nil if there is none.
	LoadToday(ctx context.Context) (*daily.Progress, error)

	// SaveToday replaces today's progress.
	SaveToday(ctx context.Context, p daily.Progress) error

	// CompleteToday records the end of today's game in the statistics.
	CompleteToday(ctx context.Context, solved bool, bestDistance *int) error
}

var _ ProgressStore = (*daily.Tracker)(nil)
