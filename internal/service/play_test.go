package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"city-coords/internal/challenge"
	"city-coords/internal/cityindex"
	"city-coords/internal/config"
	"city-coords/internal/daily"
	"city-coords/internal/game"
	"city-coords/internal/model"
)

func fixedNow() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }

func newTestService(t *testing.T, opts ...PlayOption) (*PlayService, *daily.MemoryStore) {
	t.Helper()
	ix, err := cityindex.NewEmbedded()
	require.NoError(t, err)

	store := daily.NewMemoryStore()
	opts = append([]PlayOption{WithClock(fixedNow)}, opts...)
	svc, err := NewPlayService(ix, store,
		config.GameConfig{Timezone: "UTC", Lang: "pl", ShareBaseURL: "https://city-coords.app/"},
		config.DailyConfig{KeyPrefix: "city-coords-daily"},
		opts...,
	)
	require.NoError(t, err)
	return svc, store
}

func TestNewPlayServiceBadTimezone(t *testing.T) {
	ix, err := cityindex.NewEmbedded()
	require.NoError(t, err)

	_, err = NewPlayService(ix, daily.NewMemoryStore(), config.GameConfig{Timezone: "Nowhere/Special"}, config.DailyConfig{})
	assert.Error(t, err)
}

func TestStartDaily(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	snap, err := svc.Start(ctx, "alice", model.ModeDaily, "")
	require.NoError(t, err)

	_, err = uuid.Parse(snap.SessionID)
	assert.NoError(t, err)
	assert.Equal(t, "Dakar", snap.State.CurrentCity.Name)
	assert.Equal(t, "2024-01-15", snap.State.Seed)
	assert.Nil(t, snap.Verdict)

	_, err = svc.State(ctx, "alice")
	assert.NoError(t, err)
}

func TestPlayerIsRequired(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, "", model.ModeDaily, "")
	assert.ErrorIs(t, err, ErrNoPlayer)
	_, err = svc.DailyStats(ctx, "")
	assert.ErrorIs(t, err, ErrNoPlayer)
}

func TestNoSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Guess(ctx, "alice", "Dakar")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Advance(ctx, "alice")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.State(ctx, "alice")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Share(ctx, "alice")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, svc.Leave(ctx, "alice"), ErrNoSession)
}

func TestGuessResolvesText(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Start(ctx, "alice", model.ModeDaily, "")
	require.NoError(t, err)

	res, err := svc.Guess(ctx, "alice", "warszawa")
	require.NoError(t, err)
	assert.Equal(t, "Warsaw", res.City.Name)
	assert.False(t, res.Correct)
	assert.Equal(t, 5376, res.State.Attempts[0].Distance)

	_, err = svc.Guess(ctx, "alice", "xyzqw")
	assert.ErrorIs(t, err, ErrUnknownCity)

	res, err = svc.Guess(ctx, "alice", "Dakar")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.True(t, res.State.GameOver)
}

func TestDailyStatsArePerPlayer(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, "alice", model.ModeDaily, "")
	require.NoError(t, err)
	_, err = svc.Guess(ctx, "alice", "Dakar")
	require.NoError(t, err)

	alice, err := svc.DailyStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.GamesWon)
	assert.Equal(t, 1, alice.CurrentStreak)

	bob, err := svc.DailyStats(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, daily.Stats{}, bob)

	_, err = store.Get(ctx, "city-coords-daily:alice")
	assert.NoError(t, err)

	require.NoError(t, svc.ResetDaily(ctx, "alice"))
	alice, err = svc.DailyStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, daily.Stats{}, alice)
}

func TestDailyResumesAcrossSessions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, "alice", model.ModeDaily, "")
	require.NoError(t, err)
	_, err = svc.Guess(ctx, "alice", "Madrid")
	require.NoError(t, err)
	require.NoError(t, svc.Leave(ctx, "alice"))

	snap, err := svc.Start(ctx, "alice", model.ModeDaily, "")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.State.Attempt)
	assert.Equal(t, 3154, *snap.State.BestDistance)
}

func TestShareAndAcceptChallenge(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, "alice", model.ModeDaily, "")
	require.NoError(t, err)

	_, err = svc.Share(ctx, "alice")
	assert.ErrorIs(t, err, game.ErrNotOver)

	_, err = svc.Guess(ctx, "alice", "Dakar")
	require.NoError(t, err)

	link, err := svc.Share(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://city-coords.app/?c="), link)

	ch, ok := challenge.FromURL(link).(*challenge.Data)
	require.True(t, ok)
	assert.Equal(t, []string{"Dakar"}, ch.OpponentGuesses)

	snap, err := svc.Start(ctx, "bob", model.ModeDaily, link)
	require.NoError(t, err)
	assert.True(t, snap.State.IsChallenge)
	assert.Equal(t, "Dakar", snap.State.CurrentCity.Name)

	_, err = svc.Guess(ctx, "bob", "Madrid")
	require.NoError(t, err)
	res, err := svc.Guess(ctx, "bob", "Dakar")
	require.NoError(t, err)
	require.NotNil(t, res.Verdict)
	assert.Equal(t, challenge.Lose, *res.Verdict)
}

func TestStartWithBareToken(t *testing.T) {
	svc, _ := newTestService(t)
	token, err := challenge.Encode(&challenge.Data{Mode: model.ModeRandom, Seed: "challenge-seed"})
	require.NoError(t, err)

	snap, err := svc.Start(context.Background(), "carol", model.ModeRandom, token)
	require.NoError(t, err)
	assert.True(t, snap.State.IsChallenge)
	assert.Equal(t, "Phnom Penh", snap.State.CurrentCity.Name)
}

func TestStartIgnoresInvalidChallenge(t *testing.T) {
	svc, _ := newTestService(t)

	snap, err := svc.Start(context.Background(), "carol", model.ModeRandom, "not a token!")
	require.NoError(t, err)
	assert.False(t, snap.State.IsChallenge)
}

func TestStartRejectsMismatchedChallenge(t *testing.T) {
	svc, _ := newTestService(t)
	token, err := challenge.Encode(&challenge.Data{Mode: model.ModeRandom, Seed: "abc"})
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), "carol", model.ModeClassic, token)
	assert.ErrorIs(t, err, game.ErrChallengeMismatch)

	_, err = svc.State(context.Background(), "carol")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClassicAdvance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	snap, err := svc.Start(ctx, "dave", model.ModeClassic, "")
	require.NoError(t, err)
	first := snap.State.CurrentCity

	res, err := svc.Guess(ctx, "dave", first.Name)
	require.NoError(t, err)
	assert.True(t, res.Correct)

	snap, err = svc.Advance(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.State.Round)
	assert.NotEqual(t, first.Name, snap.State.CurrentCity.Name)
	assert.Equal(t, 1, snap.State.Score)
}

func TestLeave(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, "erin", model.ModeRandom, "")
	require.NoError(t, err)
	require.NoError(t, svc.Leave(ctx, "erin"))

	_, err = svc.State(ctx, "erin")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSearch(t *testing.T) {
	svc, _ := newTestService(t)

	hits := svc.Search("Londres", "es")
	require.NotEmpty(t, hits)
	assert.Equal(t, "London", hits[0].Name)

	// Service language is Polish.
	hits = svc.Search("Sztokholm", "")
	require.NotEmpty(t, hits)
	assert.Equal(t, "Stockholm", hits[0].Name)

	assert.Empty(t, svc.Search("  ", ""))
}

func TestToday(t *testing.T) {
	svc, _ := newTestService(t)

	seed, c, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", seed)
	assert.Equal(t, "Dakar", c.Name)
}

func TestConcurrentGuessesAreSerialized(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Start(ctx, "frank", model.ModeDaily, "")
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		over     int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Guess(ctx, "frank", "Warsaw")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, game.ErrGameOver):
				over++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, daily.MaxAttempts, accepted)
	assert.Equal(t, 10-daily.MaxAttempts, over)

	snap, err := svc.State(ctx, "frank")
	require.NoError(t, err)
	assert.Len(t, snap.State.Attempts, daily.MaxAttempts)
	assert.True(t, snap.State.GameOver)
}

func TestBusyPlayer(t *testing.T) {
	svc, _ := newTestService(t, WithLockTimeout(20*time.Millisecond))
	ctx := context.Background()
	_, err := svc.Start(ctx, "gina", model.ModeRandom, "")
	require.NoError(t, err)

	held := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	go func() {
		_ = svc.locks.WithLockContext(ctx, "gina", time.Second, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	_, err = svc.State(ctx, "gina")
	assert.ErrorIs(t, err, ErrBusy)

	// Other players are not affected.
	_, err = svc.Start(ctx, "hank", model.ModeRandom, "")
	assert.NoError(t, err)
}

func TestDailyDone(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	done, err := svc.DailyDone(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, done)

	_, err = svc.Start(ctx, "alice", model.ModeDaily, "")
	require.NoError(t, err)
	res, err := svc.Guess(ctx, "alice", "Dakar")
	require.NoError(t, err)
	assert.True(t, res.Correct)

	done, err = svc.DailyDone(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = svc.DailyDone(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, done)

	_, err = svc.DailyDone(ctx, "")
	assert.ErrorIs(t, err, ErrNoPlayer)
}
