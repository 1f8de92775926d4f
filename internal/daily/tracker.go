package daily

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"city-coords/internal/geo"
	"city-coords/internal/prng"
)

// DefaultKey is the record key used when no other key is configured.
const DefaultKey = "city-coords-daily"

// MaxAttempts is the number of guesses after which the day counts as played.
const MaxAttempts = 6

// Guess is one persisted daily guess.
type Guess struct {
	CityName  string        `json:"cityName"`
	Distance  int           `json:"distance"`
	Direction geo.Direction `json:"direction"`
	Arrow     string        `json:"arrow"`
	Bearing   float64       `json:"bearing"`
}

// Progress is the state of one day's game.
type Progress struct {
	Date         string  `json:"date"`
	Solved       bool    `json:"solved"`
	Attempts     int     `json:"attempts"`
	BestDistance *int    `json:"bestDistance"`
	Guesses      []Guess `json:"guesses"`
}

// Stats aggregates finished daily games.
type Stats struct {
	CurrentStreak  int     `json:"currentStreak"`
	MaxStreak      int     `json:"maxStreak"`
	LastPlayedDate *string `json:"lastPlayedDate"`
	GamesPlayed    int     `json:"gamesPlayed"`
	GamesWon       int     `json:"gamesWon"`
}

// record is the persisted document.
type record struct {
	Progress *Progress `json:"progress"`
	Stats    *Stats    `json:"stats"`
}

func (r *record) valid() bool {
	if r.Stats == nil {
		return false
	}
	s := r.Stats
	if s.CurrentStreak < 0 || s.MaxStreak < 0 || s.GamesPlayed < 0 || s.GamesWon < 0 || s.GamesWon > s.GamesPlayed {
		return false
	}
	if p := r.Progress; p != nil {
		if _, err := time.Parse(prng.DateLayout, p.Date); err != nil {
			return false
		}
		if p.Attempts < 0 {
			return false
		}
	}
	return true
}

// Tracker reads and writes the daily record of a single player.
type Tracker struct {
	store RecordStore
	key   string
	now   func() time.Time

	mu sync.Mutex
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithKey sets the record key, e.g. to keep one record per player.
func WithKey(key string) Option {
	return func(t *Tracker) {
		if key != "" {
			t.key = key
		}
	}
}

// WithClock replaces time.Now. Dates are taken in the clock's location.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a Tracker over store.
func NewTracker(store RecordStore, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
		key:   DefaultKey,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Key returns the record key.
func (t *Tracker) Key() string {
	return t.key
}

// load reads the record. Missing, undecodable or invalid records yield
// fresh defaults; only store failures are returned as errors.
func (t *Tracker) load(ctx context.Context) (*record, error) {
	raw, err := t.store.Get(ctx, t.key)
	if errors.Is(err, ErrRecordNotFound) {
		return &record{Stats: &Stats{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load daily record: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		log.Warn().Err(err).Str("key", t.key).Msg("Discarding undecodable daily record")
		return &record{Stats: &Stats{}}, nil
	}
	if !rec.valid() {
		log.Warn().Str("key", t.key).Msg("Discarding invalid daily record")
		return &record{Stats: &Stats{}}, nil
	}
	return &rec, nil
}

func (t *Tracker) save(ctx context.Context, rec *record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal daily record: %w", err)
	}
	if err := t.store.Put(ctx, t.key, raw); err != nil {
		return fmt.Errorf("failed to save daily record: %w", err)
	}
	return nil
}

// LoadToday returns today's progress, or nil when the player has not
// guessed today. Progress from earlier days is ignored but kept.
func (t *Tracker) LoadToday(ctx context.Context) (*Progress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	if rec.Progress == nil || rec.Progress.Date != prng.TodaySeed(t.now()) {
		return nil, nil
	}
	return rec.Progress, nil
}

// SaveToday stores p as today's progress, replacing any earlier progress.
func (t *Tracker) SaveToday(ctx context.Context, p Progress) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.load(ctx)
	if err != nil {
		return err
	}
	p.Date = prng.TodaySeed(t.now())
	if p.Guesses == nil {
		p.Guesses = []Guess{}
	}
	rec.Progress = &p
	return t.save(ctx, rec)
}

// CompleteToday records the end of today's game in the statistics.
// A win continues yesterday's streak or starts a new one; a loss breaks the
// streak unless today was already counted.
func (t *Tracker) CompleteToday(ctx context.Context, solved bool, bestDistance *int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.load(ctx)
	if err != nil {
		return err
	}

	now := t.now()
	today, yesterday := prng.TodaySeed(now), prng.YesterdaySeed(now)
	s := rec.Stats
	last := ""
	if s.LastPlayedDate != nil {
		last = *s.LastPlayedDate
	}

	s.GamesPlayed++
	if solved {
		s.GamesWon++
		switch last {
		case yesterday:
			s.CurrentStreak++
		case today:
			// already counted
		default:
			s.CurrentStreak = 1
		}
		s.MaxStreak = max(s.MaxStreak, s.CurrentStreak)
	} else if last != today {
		s.CurrentStreak = 0
	}
	s.LastPlayedDate = &today

	if p := rec.Progress; p != nil && p.Date == today {
		p.Solved = solved
		p.BestDistance = bestDistance
	}

	log.Debug().
		Str("key", t.key).
		Bool("solved", solved).
		Int("streak", s.CurrentStreak).
		Msg("Daily challenge completed")
	return t.save(ctx, rec)
}

// Stats returns the player's statistics.
func (t *Tracker) Stats(ctx context.Context) (Stats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.load(ctx)
	if err != nil {
		return Stats{}, err
	}
	return *rec.Stats, nil
}

// Completed reports whether today's game is over, solved or not.
func (t *Tracker) Completed(ctx context.Context) (bool, error) {
	p, err := t.LoadToday(ctx)
	if err != nil || p == nil {
		return false, err
	}
	return p.Solved || p.Attempts >= MaxAttempts, nil
}

// Reset removes the record, statistics included.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Delete(ctx, t.key); err != nil && !errors.Is(err, ErrRecordNotFound) {
		return fmt.Errorf("failed to reset daily record: %w", err)
	}
	return nil
}
