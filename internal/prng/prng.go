// Package prng provides the deterministic random source used to pick
// target cities. The same seed string always yields the same sequence, so
// two players sharing a seed face the same cities.
package prng

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
)

// Seed is the 32-bit state a Source starts from.
type Seed uint32

// SeedFromString hashes s into a Seed with the polynomial h = h*31 + c over
// UTF-16 code units, wrapping at 32 bits, then takes the absolute value of
// the signed result.
func SeedFromString(s string) Seed {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	if h < 0 {
		// -MinInt32 wraps back to itself; as uint32 it is 2^31, the intended value.
		return Seed(uint32(-h))
	}
	return Seed(uint32(h))
}

// Source is a Mulberry32 generator. It is not safe for concurrent use and
// is meant to be created per operation.
type Source struct {
	state uint32
}

// New returns a Source starting at seed.
func New(seed Seed) *Source {
	return &Source{state: uint32(seed)}
}

// FromString is shorthand for New(SeedFromString(s)).
func FromString(s string) *Source {
	return New(SeedFromString(s))
}

// Uint32 returns the next raw 32-bit output.
func (s *Source) Uint32() uint32 {
	s.state += 0x6d2b79f5
	t := (s.state ^ s.state>>15) * (1 | s.state)
	t = (t + (t^t>>7)*(61|t)) ^ t
	return t ^ t>>14
}

// Float64 returns the next value in [0,1).
func (s *Source) Float64() float64 {
	return float64(s.Uint32()) / 4294967296
}

// Intn returns floor(Float64()*n). n must be positive.
func (s *Source) Intn(n int) int {
	return int(s.Float64() * float64(n))
}

// Shuffle returns a Fisher–Yates permutation of 0..n-1 driven by src.
func Shuffle(n int, src *Source) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx
}

// DateLayout is the calendar date format used for daily seeds.
const DateLayout = "2006-01-02"

// TodaySeed returns the calendar date of now in now's location.
func TodaySeed(now time.Time) string {
	return now.Format(DateLayout)
}

// YesterdaySeed returns the calendar date before now.
func YesterdaySeed(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(DateLayout)
}

// RandomSeed returns a fresh seed for random mode. Seeds are unique but
// carry no meaning beyond that.
func RandomSeed(now time.Time) string {
	return fmt.Sprintf("random-%d-%s", now.UnixMilli(), randomSuffix())
}

const suffixLen = 7

func randomSuffix() string {
	id := uuid.New()
	var n uint64
	for _, b := range id[:8] {
		n = n<<8 | uint64(b)
	}
	s := strconv.FormatUint(n, 36)
	if len(s) < suffixLen {
		s = strings.Repeat("0", suffixLen-len(s)) + s
	}
	return s[:suffixLen]
}
