// Package service hosts game sessions for many players.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"city-coords/internal/challenge"
	"city-coords/internal/cityindex"
	"city-coords/internal/config"
	"city-coords/internal/daily"
	"city-coords/internal/game"
	"city-coords/internal/model"
	"city-coords/internal/pkg/lock"
)

// Common errors for play operations.
var (
	ErrNoPlayer    = errors.New("player id is required")
	ErrNoSession   = errors.New("no game in progress")
	ErrUnknownCity = errors.New("no city matches the guess")
	ErrBusy        = errors.New("player is busy")
)

// DefaultLockTimeout bounds how long an operation waits for the player lock.
const DefaultLockTimeout = 5 * time.Second

// Snapshot is a player's view of their game.
type Snapshot struct {
	SessionID string
	State     game.State
	// Verdict is set once a challenge game is over.
	Verdict *challenge.Verdict
}

// GuessResult is the outcome of one guess.
type GuessResult struct {
	City    model.City
	Correct bool
	Snapshot
}

type playerSession struct {
	id      string
	session *game.Session
}

// PlayService keeps one game session per player. Operations for the same
// player run one at a time.
type PlayService struct {
	index       *cityindex.Index
	records     daily.RecordStore
	dailyCfg    config.DailyConfig
	lang        model.Lang
	shareBase   string
	now         func() time.Time
	locks       *lock.PlayerLock
	lockTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*playerSession
}

// PlayOption configures a PlayService.
type PlayOption func(*PlayService)

// WithClock replaces time.Now. The configured timezone still applies.
func WithClock(now func() time.Time) PlayOption {
	return func(s *PlayService) {
		s.now = now
	}
}

// WithLockTimeout changes DefaultLockTimeout.
func WithLockTimeout(d time.Duration) PlayOption {
	return func(s *PlayService) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// NewPlayService creates a new PlayService instance.
func NewPlayService(
	index *cityindex.Index,
	records daily.RecordStore,
	gameCfg config.GameConfig,
	dailyCfg config.DailyConfig,
	opts ...PlayOption,
) (*PlayService, error) {
	loc, err := gameCfg.Location()
	if err != nil {
		return nil, err
	}
	if dailyCfg.KeyPrefix == "" {
		dailyCfg.KeyPrefix = daily.DefaultKey
	}

	s := &PlayService{
		index:       index,
		records:     records,
		dailyCfg:    dailyCfg,
		lang:        model.ParseLang(gameCfg.Lang),
		shareBase:   gameCfg.ShareBaseURL,
		now:         time.Now,
		locks:       lock.NewPlayerLock(),
		lockTimeout: DefaultLockTimeout,
		sessions:    make(map[string]*playerSession),
	}
	for _, opt := range opts {
		opt(s)
	}

	clock := s.now
	s.now = func() time.Time { return clock().In(loc) }
	return s, nil
}

// tracker returns the daily tracker of player.
func (s *PlayService) tracker(player string) *daily.Tracker {
	return daily.NewTracker(s.records,
		daily.WithKey(s.dailyCfg.DailyKey(player)),
		daily.WithClock(s.now),
	)
}

// withPlayer runs fn holding the player's lock.
func (s *PlayService) withPlayer(ctx context.Context, player, name string, fn operation) error {
	if player == "" {
		return ErrNoPlayer
	}
	err := s.locks.WithLockContext(ctx, player, s.lockTimeout, logged(player, name, recovered(player, name, fn)))
	if errors.Is(err, lock.ErrLockTimeout) {
		return fmt.Errorf("%w: %s", ErrBusy, player)
	}
	return err
}

func (s *PlayService) lookup(player string) (*playerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.sessions[player]
	if !ok {
		return nil, ErrNoSession
	}
	return ps, nil
}

// Start begins a game for player. challengeRef may be empty, a bare token
// or a challenge link; an unreadable one starts a normal game.
func (s *PlayService) Start(ctx context.Context, player string, mode model.Mode, challengeRef string) (Snapshot, error) {
	var snap Snapshot
	err := s.withPlayer(ctx, player, "start", func() error {
		sess, err := game.New(game.Config{
			Cities: s.index,
			Store:  s.tracker(player),
			Now:    s.now,
		})
		if err != nil {
			return err
		}

		ch := parseChallenge(challengeRef)
		if challengeRef != "" && ch == nil {
			log.Warn().Str("player", player).Msg("Ignoring invalid challenge")
		}
		if err := sess.Start(ctx, mode, ch); err != nil {
			return fmt.Errorf("failed to start game: %w", err)
		}

		ps := &playerSession{id: uuid.NewString(), session: sess}
		s.mu.Lock()
		s.sessions[player] = ps
		s.mu.Unlock()

		log.Info().
			Str("player", player).
			Str("session_id", ps.id).
			Str("mode", string(mode)).
			Msg("Game started")
		snap = snapshot(ps)
		return nil
	})
	return snap, err
}

func parseChallenge(ref string) challenge.Challenge {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if strings.Contains(ref, "://") || strings.Contains(ref, "?") {
		return challenge.FromURL(ref)
	}
	return challenge.Decode(ref)
}

// ResolveCity maps free text to a dataset city: an exact canonical name
// first, then the best search hit in the service language.
func (s *PlayService) ResolveCity(text string) (model.City, error) {
	if c, err := s.index.ByName(strings.TrimSpace(text)); err == nil {
		return c, nil
	}
	hits := s.index.Search(text, s.lang)
	if len(hits) == 0 {
		return model.City{}, fmt.Errorf("%w: %q", ErrUnknownCity, text)
	}
	return hits[0], nil
}

// Guess submits a guess for player's current round.
func (s *PlayService) Guess(ctx context.Context, player, text string) (GuessResult, error) {
	var res GuessResult
	err := s.withPlayer(ctx, player, "guess", func() error {
		ps, err := s.lookup(player)
		if err != nil {
			return err
		}
		c, err := s.ResolveCity(text)
		if err != nil {
			return err
		}
		ok, err := ps.session.SubmitGuess(ctx, c)
		if err != nil {
			return err
		}
		res = GuessResult{City: c, Correct: ok, Snapshot: snapshot(ps)}
		return nil
	})
	return res, err
}

// Advance moves player's classic game to the next round.
func (s *PlayService) Advance(ctx context.Context, player string) (Snapshot, error) {
	var snap Snapshot
	err := s.withPlayer(ctx, player, "advance", func() error {
		ps, err := s.lookup(player)
		if err != nil {
			return err
		}
		if err := ps.session.AdvanceRound(ctx); err != nil {
			return err
		}
		snap = snapshot(ps)
		return nil
	})
	return snap, err
}

// State returns player's current game.
func (s *PlayService) State(ctx context.Context, player string) (Snapshot, error) {
	var snap Snapshot
	err := s.withPlayer(ctx, player, "state", func() error {
		ps, err := s.lookup(player)
		if err != nil {
			return err
		}
		snap = snapshot(ps)
		return nil
	})
	return snap, err
}

// Share returns a challenge link for player's finished game.
func (s *PlayService) Share(ctx context.Context, player string) (string, error) {
	var link string
	err := s.withPlayer(ctx, player, "share", func() error {
		ps, err := s.lookup(player)
		if err != nil {
			return err
		}
		ch, err := ps.session.Challenge()
		if err != nil {
			return err
		}
		link, err = challenge.Link(s.shareBase, ch)
		return err
	})
	return link, err
}

// Leave ends player's game and forgets the session.
func (s *PlayService) Leave(ctx context.Context, player string) error {
	return s.withPlayer(ctx, player, "leave", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		ps, ok := s.sessions[player]
		if !ok {
			return ErrNoSession
		}
		ps.session.GoToMenu()
		delete(s.sessions, player)
		return nil
	})
}

// Search looks cities up by name or country. An empty lang uses the
// service language.
func (s *PlayService) Search(query string, lang string) []model.City {
	l := s.lang
	if lang != "" {
		l = model.ParseLang(lang)
	}
	return s.index.Search(query, l)
}

// DailyStats returns player's daily statistics.
func (s *PlayService) DailyStats(ctx context.Context, player string) (daily.Stats, error) {
	var stats daily.Stats
	err := s.withPlayer(ctx, player, "daily_stats", func() error {
		var err error
		stats, err = s.tracker(player).Stats(ctx)
		return err
	})
	return stats, err
}

// DailyDone reports whether player has finished today's daily game.
func (s *PlayService) DailyDone(ctx context.Context, player string) (bool, error) {
	var done bool
	err := s.withPlayer(ctx, player, "daily_done", func() error {
		var err error
		done, err = s.tracker(player).Completed(ctx)
		return err
	})
	return done, err
}

// ResetDaily clears player's daily progress and statistics.
func (s *PlayService) ResetDaily(ctx context.Context, player string) error {
	return s.withPlayer(ctx, player, "reset_daily", func() error {
		return s.tracker(player).Reset(ctx)
	})
}

// Today returns today's daily seed and target city.
func (s *PlayService) Today(ctx context.Context) (string, model.City, error) {
	sess, err := game.New(game.Config{Cities: s.index, Now: s.now})
	if err != nil {
		return "", model.City{}, err
	}
	if err := sess.Start(ctx, model.ModeDaily, nil); err != nil {
		return "", model.City{}, err
	}
	st := sess.State()
	return st.Seed, st.CurrentCity, nil
}

func snapshot(ps *playerSession) Snapshot {
	snap := Snapshot{SessionID: ps.id, State: ps.session.State()}
	if v, ok := ps.session.Verdict(); ok {
		snap.Verdict = &v
	}
	return snap
}
