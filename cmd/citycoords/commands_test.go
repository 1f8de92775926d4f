package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"city-coords/internal/challenge"
	"city-coords/internal/daily"
	"city-coords/internal/geo"
	"city-coords/internal/model"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDecodeCmd(t *testing.T) {
	link, err := challenge.Link("https://city-coords.app/", &challenge.ClassicData{
		Mode:                   model.ModeClassic,
		Seed:                   "seed-1",
		OpponentHistory:        []challenge.HistoryEntry{{CityName: "Warsaw"}},
		OpponentMedianDistance: nil,
	})
	require.NoError(t, err)

	out, err := run(t, "", "decode", link)
	require.NoError(t, err)
	assert.Contains(t, out, "mode: classic")
	assert.Contains(t, out, "seed: seed-1")
	assert.Contains(t, out, " 1. Warsaw: skipped")

	_, err = run(t, "", "decode", "garbage")
	assert.ErrorIs(t, err, challenge.ErrInvalidChallenge)
}

func TestPrintStats(t *testing.T) {
	last := "2024-01-15"
	var out bytes.Buffer
	printStats(&out, daily.Stats{GamesPlayed: 1200, GamesWon: 600, CurrentStreak: 3, MaxStreak: 9, LastPlayedDate: &last})

	assert.Contains(t, out.String(), "played:         1,200")
	assert.Contains(t, out.String(), "won:            600 (50%)")
	assert.Contains(t, out.String(), "last played:    2024-01-15")
}

func TestSearchCmdWithMemoryStorage(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	out, err := run(t, "", "--config", t.TempDir(), "search", "Varsovia", "--lang", "es")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Varsovia, Polonia"), out)
}

func TestNearestCmd(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	out, err := run(t, "", "--config", t.TempDir(), "nearest", "52.39,13.06", "--lang", "pl")
	require.NoError(t, err)
	assert.Equal(t, "Berlin, Niemcy\t27 km\n", out)

	_, err = run(t, "", "--config", t.TempDir(), "nearest", "52.39")
	assert.ErrorIs(t, err, geo.ErrInvalidPoint)
}

func TestTodayCmd(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	out, err := run(t, "", "--config", t.TempDir(), "today", "--player", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "\t")
	assert.NotContains(t, out, "already finished")
}

func TestPlayCmdRandomChallenge(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "play.db"))

	token, err := challenge.Encode(&challenge.Data{Mode: model.ModeRandom, Seed: "challenge-seed"})
	require.NoError(t, err)

	out, err := run(t, "Bangkok\nPhnom Penh\n:share\n:quit\n",
		"--config", t.TempDir(), "play", "--mode", "random", "--challenge", token)
	require.NoError(t, err)
	assert.Contains(t, out, "attempt 1/6")
	assert.Contains(t, out, "Phnom Penh is correct!")
	assert.Contains(t, out, "game over")
	assert.Contains(t, out, "against your challenger: win")
	assert.Contains(t, out, "https://city-coords.app/?c=")
}
