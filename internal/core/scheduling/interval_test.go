package scheduling

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(t time.Time) *time.Time { return &t }

func TestOverlaps_InclusiveBoundaries(t *testing.T) {
	jan1 := date(2024, time.January, 1)
	jan5 := date(2024, time.January, 5)
	jan6 := date(2024, time.January, 6)
	jan10 := date(2024, time.January, 10)

	// Touching endpoints conflict: both intervals occupy Jan 5.
	assert.True(t, Overlaps(jan1, ptr(jan5), jan5, ptr(jan10)))
	// Adjacent but disjoint days do not.
	assert.False(t, Overlaps(jan1, ptr(jan5), jan6, ptr(jan10)))
	// Containment.
	assert.True(t, Overlaps(jan1, ptr(jan10), jan5, ptr(jan6)))
	// Same single day.
	assert.True(t, Overlaps(jan5, ptr(jan5), jan5, ptr(jan5)))
}

func TestOverlaps_OpenEnd(t *testing.T) {
	jan1 := date(2024, time.January, 1)
	jan5 := date(2024, time.January, 5)
	dec31 := date(2023, time.December, 31)

	// Indefinite maintenance starting Jan 1 blocks everything from Jan 1 on.
	assert.True(t, Overlaps(jan1, nil, jan5, ptr(jan5)))
	assert.True(t, Overlaps(jan5, ptr(jan5), jan1, nil))
	// But not intervals that end before it starts.
	assert.False(t, Overlaps(jan1, nil, dec31, ptr(dec31)))
	// Two open intervals always overlap.
	assert.True(t, Overlaps(jan1, nil, dec31, nil))
}

func TestOverlaps_IgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2024, time.January, 5, 23, 30, 0, 0, time.UTC)
	b := time.Date(2024, time.January, 5, 1, 0, 0, 0, time.UTC)
	assert.True(t, Overlaps(a, ptr(a), b, ptr(b)))
}

// The closed-form comparison and the day-by-day materialization must make
// identical decisions on every input, including open ends.
func TestOverlaps_MatchesDayByDayOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := date(2024, time.March, 1)

	randomInterval := func() (time.Time, *time.Time) {
		start := base.AddDate(0, 0, rng.Intn(60))
		if rng.Intn(5) == 0 {
			return start, nil // indefinite
		}
		end := start.AddDate(0, 0, rng.Intn(20))
		return start, ptr(end)
	}

	for i := 0; i < 2000; i++ {
		aStart, aEnd := randomInterval()
		bStart, bEnd := randomInterval()

		got := Overlaps(aStart, aEnd, bStart, bEnd)
		want := overlapsDayByDay(aStart, aEnd, bStart, bEnd)
		require.Equal(t, want, got,
			"a=[%v,%v] b=[%v,%v]", aStart, aEnd, bStart, bEnd)
	}
}

func TestDate_TruncatesToMidnightUTC(t *testing.T) {
	loc := time.FixedZone("X", 7*3600)
	in := time.Date(2024, time.June, 15, 18, 45, 12, 0, loc)
	out := Date(in)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), out)
}
