package prng

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSeedFromString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Seed
	}{
		{"empty string", "", 0},
		{"single char", "a", 97},
		{"ascii word", "hello", 99162322},
		{"daily seed", "2024-01-15", 613341597},
		{"random seed", "random-1700000000000-abc1234", 997109865},
		{"non ascii", "zażółć", 701064989},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SeedFromString(tt.input))
		})
	}
}

// TestSourceGoldenValues pins the generator output to known Mulberry32 vectors.
func TestSourceGoldenValues(t *testing.T) {
	src := New(1)
	assert.Equal(t, 0.6270739405881613, src.Float64())
	assert.Equal(t, 0.002735721180215478, src.Float64())
	assert.Equal(t, 0.5274470399599522, src.Float64())

	raw := New(0)
	assert.Equal(t, uint32(1144304738), raw.Uint32())
	assert.Equal(t, uint32(1416247), raw.Uint32())
	assert.Equal(t, uint32(958946056), raw.Uint32())

	daily := FromString("2024-01-15")
	assert.Equal(t, 0.38388572470285, daily.Float64())
	assert.Equal(t, 0.9167903775814921, daily.Float64())
	assert.Equal(t, 0.19195274473167956, daily.Float64())
}

func TestShuffle(t *testing.T) {
	assert.Equal(t, []int{6, 1, 2, 5, 4, 3, 0, 7, 8, 9}, Shuffle(10, FromString("test")))
	assert.Empty(t, Shuffle(0, FromString("test")))
	assert.Equal(t, []int{0}, Shuffle(1, FromString("test")))
}

func TestTodaySeed(t *testing.T) {
	loc := time.FixedZone("UTC+14", 14*3600)
	now := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-01-15", TodaySeed(now))
	assert.Equal(t, "2024-01-16", TodaySeed(now.In(loc)))
	assert.Equal(t, "2024-01-14", YesterdaySeed(now))
	assert.Equal(t, "2023-12-31", YesterdaySeed(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
}

func TestRandomSeed(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	a := RandomSeed(now)
	b := RandomSeed(now)

	require.True(t, strings.HasPrefix(a, "random-1700000000000-"))
	suffix := strings.TrimPrefix(a, "random-1700000000000-")
	assert.Len(t, suffix, 7)
	for _, r := range suffix {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z'), "unexpected rune %q", r)
	}
	assert.NotEqual(t, a, b)
}

// TestSourceDeterminismProperty checks that a seed string always replays
// the same sequence.
func TestSourceDeterminismProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.String().Draw(t, "seed")
		n := rapid.IntRange(1, 64).Draw(t, "n")

		a := FromString(seed)
		b := FromString(seed)
		for i := 0; i < n; i++ {
			x, y := a.Float64(), b.Float64()
			if x != y {
				t.Fatalf("step %d: %v != %v", i, x, y)
			}
			if x < 0 || x >= 1 {
				t.Fatalf("step %d: %v out of [0,1)", i, x)
			}
		}
	})
}

// TestShufflePermutationProperty checks that Shuffle is a deterministic
// permutation of 0..n-1.
func TestShufflePermutationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.String().Draw(t, "seed")
		n := rapid.IntRange(0, 300).Draw(t, "n")

		p := Shuffle(n, FromString(seed))
		q := Shuffle(n, FromString(seed))

		seen := make(map[int]bool, n)
		for i, v := range p {
			if v != q[i] {
				t.Fatalf("shuffle not deterministic at %d", i)
			}
			if v < 0 || v >= n || seen[v] {
				t.Fatalf("invalid permutation value %d", v)
			}
			seen[v] = true
		}
		if len(seen) != n {
			t.Fatalf("expected %d values, got %d", n, len(seen))
		}
	})
}
