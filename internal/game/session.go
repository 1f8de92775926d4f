package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"city-coords/internal/challenge"
	"city-coords/internal/daily"
	"city-coords/internal/geo"
	"city-coords/internal/model"
	"city-coords/internal/prng"
)

// Session errors
var (
	ErrNoCities          = errors.New("no cities available")
	ErrNotStarted        = errors.New("game not started")
	ErrGameOver          = errors.New("game is over")
	ErrRoundResolved     = errors.New("round already resolved")
	ErrNotOver           = errors.New("game is not over yet")
	ErrChallengeMismatch = errors.New("challenge is for a different mode")
)

// Config holds the dependencies of a Session.
type Config struct {
	Cities CityProvider
	// Store persists daily games. Daily progress is kept in memory only when nil.
	Store ProgressStore
	// Now defaults to time.Now. Its location decides the daily calendar date.
	Now func() time.Time
}

// Session is one player's game. It is not safe for concurrent use.
type Session struct {
	cities CityProvider
	store  ProgressStore
	now    func() time.Time

	phase    Phase
	mode     model.Mode
	limits   model.ModeConfig
	seed     string
	perm     []int
	target   int
	round    int
	attempt  int
	score    int
	correct  *bool
	used     map[int]struct{}
	guessed  *model.City
	history  []model.RoundResult
	attempts []model.AttemptResult
	best     *int
	opponent challenge.Challenge
}

// New creates a Session in the NotStarted phase.
func New(cfg Config) (*Session, error) {
	if cfg.Cities == nil || cfg.Cities.Len() == 0 {
		return nil, ErrNoCities
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{
		cities: cfg.Cities,
		store:  cfg.Store,
		now:    cfg.Now,
	}, nil
}

// Start begins a new game in mode. A non-nil challenge replays the
// opponent's seed and must be for the same mode.
//
// A daily game played on today's date resumes from the store when progress
// for today exists.
func (s *Session) Start(ctx context.Context, mode model.Mode, ch challenge.Challenge) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownMode, mode)
	}
	if ch != nil && ch.ChallengeMode() != mode {
		return fmt.Errorf("%w: got %s, want %s", ErrChallengeMismatch, ch.ChallengeMode(), mode)
	}

	now := s.now()
	var seed string
	switch {
	case ch != nil:
		seed = ch.ChallengeSeed()
	case mode == model.ModeDaily:
		seed = prng.TodaySeed(now)
	default:
		seed = prng.RandomSeed(now)
	}

	s.mode = mode
	s.limits = mode.Config()
	s.seed = seed
	s.opponent = ch
	s.perm = prng.Shuffle(s.cities.Len(), prng.FromString(seed))
	s.used = make(map[int]struct{})
	s.round = 1
	s.attempt = 1
	s.score = 0
	s.correct = nil
	s.guessed = nil
	s.history = []model.RoundResult{}
	s.attempts = []model.AttemptResult{}
	s.best = nil

	s.target = s.pick(0)
	s.used[s.target] = struct{}{}
	s.phase = PhaseInRound

	if s.persistsDaily() {
		p, err := s.store.LoadToday(ctx)
		if err != nil {
			log.Warn().Err(err).Str("seed", seed).Msg("Failed to load daily progress")
		} else if p != nil {
			s.resume(p)
		}
	}

	log.Debug().
		Str("mode", string(mode)).
		Str("seed", seed).
		Bool("challenge", ch != nil).
		Msg("Game started")
	return nil
}

// pick returns the dataset position of the target for the zero-based round.
func (s *Session) pick(roundIndex int) int {
	if s.mode.SingleCity() {
		return s.perm[0]
	}

	available := len(s.perm) - len(s.used)
	if available <= 0 {
		return s.perm[roundIndex%len(s.perm)]
	}

	start := roundIndex % available
	for i := 0; i < len(s.perm); i++ {
		idx := s.perm[(start+i)%len(s.perm)]
		if _, taken := s.used[idx]; !taken {
			return idx
		}
	}
	return s.perm[roundIndex%len(s.perm)]
}

// persistsDaily reports whether this game is today's daily game.
func (s *Session) persistsDaily() bool {
	return s.store != nil &&
		s.mode == model.ModeDaily &&
		s.seed == prng.TodaySeed(s.now())
}

// resume restores today's daily game from p. Guesses naming cities that are
// no longer in the dataset are dropped.
func (s *Session) resume(p *daily.Progress) {
	current := s.cities.At(s.target)
	for _, g := range p.Guesses {
		c, err := s.cities.ByName(g.CityName)
		if err != nil {
			log.Warn().Str("city", g.CityName).Msg("Dropping unknown city from daily progress")
			continue
		}
		s.attempts = append(s.attempts, model.AttemptResult{
			Guess:     c,
			Distance:  g.Distance,
			Bearing:   g.Bearing,
			Direction: g.Direction,
			Arrow:     g.Arrow,
			IsCorrect: c.Name == current.Name,
		})
	}

	s.attempt = min(p.Attempts+1, s.limits.MaxAttempts+1)
	s.best = copyInt(p.BestDistance)
	if p.Attempts > 0 {
		solved := p.Solved
		s.correct = &solved
	}
	if n := len(s.attempts); n > 0 {
		last := s.attempts[n-1].Guess
		s.guessed = &last
	}
	if p.Solved {
		s.score = 1
	}
	if p.Solved || p.Attempts >= s.limits.MaxAttempts {
		s.phase = PhaseGameOver
	}
}

// SubmitGuess scores city against the current target and reports whether
// it was correct. A city outside the dataset is simply wrong.
func (s *Session) SubmitGuess(ctx context.Context, city model.City) (bool, error) {
	switch s.phase {
	case PhaseNotStarted:
		return false, ErrNotStarted
	case PhaseGameOver:
		return false, ErrGameOver
	case PhaseRoundResolved:
		return false, ErrRoundResolved
	}

	current := s.cities.At(s.target)
	isCorrect := city.Name == current.Name
	distance := 0
	if !isCorrect {
		distance = geo.Distance(current.Point(), city.Point())
	}
	heading := geo.HeadingTo(city.Point(), current.Point())

	guessed := city
	s.guessed = &guessed
	s.correct = &isCorrect

	if !s.mode.SingleCity() {
		d := distance
		s.history = append(s.history, model.RoundResult{
			City:      current,
			Guess:     &guessed,
			IsCorrect: isCorrect,
			Distance:  &d,
		})
		if isCorrect {
			s.score++
		}
		s.attempt++
		s.phase = PhaseRoundResolved
		return isCorrect, nil
	}

	s.attempts = append(s.attempts, model.AttemptResult{
		Guess:     city,
		Distance:  distance,
		Bearing:   heading.Bearing,
		Direction: heading.Direction,
		Arrow:     heading.Arrow,
		IsCorrect: isCorrect,
	})
	if s.best == nil || distance < *s.best {
		d := distance
		s.best = &d
	}
	over := isCorrect || s.attempt >= s.limits.MaxAttempts
	if isCorrect {
		s.score = 1
	}
	s.attempt++
	if over {
		s.phase = PhaseGameOver
	}

	if s.persistsDaily() {
		s.saveDaily(ctx, over, isCorrect)
	}
	return isCorrect, nil
}

// saveDaily writes today's progress and, once the game is over, the result.
// Failures are logged; the game continues in memory.
func (s *Session) saveDaily(ctx context.Context, over, solved bool) {
	guesses := make([]daily.Guess, len(s.attempts))
	for i, a := range s.attempts {
		guesses[i] = daily.Guess{
			CityName:  a.Guess.Name,
			Distance:  a.Distance,
			Direction: a.Direction,
			Arrow:     a.Arrow,
			Bearing:   a.Bearing,
		}
	}

	progress := daily.Progress{
		Date:         s.seed,
		Solved:       solved,
		Attempts:     s.attempt - 1,
		BestDistance: copyInt(s.best),
		Guesses:      guesses,
	}
	if err := s.store.SaveToday(ctx, progress); err != nil {
		log.Warn().Err(err).Str("date", s.seed).Msg("Failed to save daily progress")
	}
	if !over {
		return
	}
	if err := s.store.CompleteToday(ctx, solved, copyInt(s.best)); err != nil {
		log.Warn().Err(err).Str("date", s.seed).Msg("Failed to complete daily game")
	}
}

// AdvanceRound moves a classic game to its next round, or ends it after the
// last one. An unanswered round is recorded as skipped. It does nothing in
// single-city modes or once the game is over.
func (s *Session) AdvanceRound(ctx context.Context) error {
	if s.phase == PhaseNotStarted {
		return ErrNotStarted
	}
	if s.phase == PhaseGameOver || s.mode.SingleCity() {
		return nil
	}

	if s.phase == PhaseInRound {
		s.history = append(s.history, model.RoundResult{City: s.cities.At(s.target)})
	}

	if s.round >= s.limits.TotalRounds {
		s.phase = PhaseGameOver
		log.Debug().
			Str("seed", s.seed).
			Int("score", s.score).
			Int("rounds", s.limits.TotalRounds).
			Msg("Classic game finished")
		return nil
	}

	s.target = s.pick(s.round)
	s.used[s.target] = struct{}{}
	s.round++
	s.attempt = 1
	s.correct = nil
	s.guessed = nil
	s.attempts = []model.AttemptResult{}
	s.phase = PhaseInRound
	return nil
}

// Reset starts a fresh game in the current mode without a challenge.
func (s *Session) Reset(ctx context.Context) error {
	if s.phase == PhaseNotStarted {
		return ErrNotStarted
	}
	return s.Start(ctx, s.mode, nil)
}

// GoToMenu abandons the game and returns the session to NotStarted.
func (s *Session) GoToMenu() {
	*s = Session{cities: s.cities, store: s.store, now: s.now}
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Mode returns the mode of the current game.
func (s *Session) Mode() model.Mode {
	return s.mode
}

// MedianDistance returns the median distance of the answered classic rounds,
// or nil if none were answered.
func (s *Session) MedianDistance() *int {
	var distances []int
	for _, r := range s.history {
		if r.Distance != nil {
			distances = append(distances, *r.Distance)
		}
	}
	return median(distances)
}

func median(values []int) *int {
	n := len(values)
	if n == 0 {
		return nil
	}
	sorted := make([]int, n)
	copy(sorted, values)
	sort.Ints(sorted)

	m := sorted[n/2]
	if n%2 == 0 {
		// Distances are non-negative, so this rounds half up.
		m = (sorted[n/2-1] + sorted[n/2] + 1) / 2
	}
	return &m
}

// State returns a snapshot of the game.
func (s *Session) State() State {
	st := State{
		Phase:        s.phase,
		Mode:         s.mode,
		Seed:         s.seed,
		Round:        s.round,
		TotalRounds:  s.limits.TotalRounds,
		Attempt:      s.attempt,
		MaxAttempts:  s.limits.MaxAttempts,
		Score:        s.score,
		GameOver:     s.phase == PhaseGameOver,
		UsedCities:   make(map[int]struct{}, len(s.used)),
		History:      make([]model.RoundResult, len(s.history)),
		Attempts:     make([]model.AttemptResult, len(s.attempts)),
		BestDistance: copyInt(s.best),
		IsChallenge:  s.opponent != nil,
		Opponent:     s.opponent,
	}
	if s.phase != PhaseNotStarted {
		st.CurrentCity = s.cities.At(s.target)
	}
	if s.correct != nil {
		v := *s.correct
		st.IsCorrect = &v
	}
	if s.guessed != nil {
		c := *s.guessed
		st.GuessedCity = &c
	}
	for i := range s.used {
		st.UsedCities[i] = struct{}{}
	}
	for i, r := range s.history {
		st.History[i] = copyRound(r)
	}
	copy(st.Attempts, s.attempts)
	return st
}

// Challenge builds a challenge from the finished game for another player.
func (s *Session) Challenge() (challenge.Challenge, error) {
	if s.phase != PhaseGameOver {
		return nil, ErrNotOver
	}
	if s.mode.SingleCity() {
		return challenge.NewSingle(s.mode, s.seed, s.attempts, s.score == 1), nil
	}
	return challenge.NewClassic(s.seed, s.history, s.score, s.MedianDistance()), nil
}

// Verdict compares the finished game with the opponent it was started
// against. ok is false when there is no opponent or the game is not over.
func (s *Session) Verdict() (v challenge.Verdict, ok bool) {
	if s.phase != PhaseGameOver || s.opponent == nil {
		return "", false
	}
	switch opp := s.opponent.(type) {
	case *challenge.Data:
		return opp.Judge(challenge.SingleResult{
			Solved:       s.score == 1,
			Attempts:     s.attempt - 1,
			BestDistance: copyInt(s.best),
		}), true
	case *challenge.ClassicData:
		return opp.Judge(challenge.ClassicResult{
			Score:          s.score,
			MedianDistance: s.MedianDistance(),
		}), true
	default:
		return "", false
	}
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyRound(r model.RoundResult) model.RoundResult {
	out := model.RoundResult{City: r.City, IsCorrect: r.IsCorrect, Distance: copyInt(r.Distance)}
	if r.Guess != nil {
		g := *r.Guess
		out.Guess = &g
	}
	return out
}
