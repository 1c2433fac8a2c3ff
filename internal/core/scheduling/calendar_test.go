package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseAllowedDays(t *testing.T) {
	days, err := ParseAllowedDays("1,3,5")
	require.NoError(t, err)
	assert.True(t, days[1])
	assert.True(t, days[3])
	assert.True(t, days[5])
	assert.False(t, days[2])
	assert.Equal(t, "1,3,5", days.String())

	days, err = ParseAllowedDays("")
	require.NoError(t, err)
	assert.Empty(t, days)

	days, err = ParseAllowedDays(" 7 , 1 ")
	require.NoError(t, err)
	assert.Equal(t, "1,7", days.String())

	_, err = ParseAllowedDays("0")
	assert.ErrorIs(t, err, ErrInvalidWeekday)
	_, err = ParseAllowedDays("8")
	assert.ErrorIs(t, err, ErrInvalidWeekday)
	_, err = ParseAllowedDays("mon")
	assert.ErrorIs(t, err, ErrInvalidWeekday)
}

func TestISOWeekday_SundayMapsToSeven(t *testing.T) {
	// 2024-01-07 is a Sunday: native weekday 0, ISO weekday 7.
	sunday := date(2024, time.January, 7)
	require.Equal(t, time.Sunday, sunday.Weekday())
	assert.Equal(t, 7, ISOWeekday(sunday))

	monday := date(2024, time.January, 8)
	require.Equal(t, time.Monday, monday.Weekday())
	assert.Equal(t, 1, ISOWeekday(monday))

	saturday := date(2024, time.January, 6)
	require.Equal(t, time.Saturday, saturday.Weekday())
	assert.Equal(t, 6, ISOWeekday(saturday))
}

func TestAllowedDays_FridayOnlySection(t *testing.T) {
	days, err := ParseAllowedDays("5")
	require.NoError(t, err)

	friday := date(2024, time.January, 5)
	require.Equal(t, time.Friday, friday.Weekday())
	saturday := date(2024, time.January, 6)

	assert.True(t, days.Allows(friday))
	assert.False(t, days.Allows(saturday))
}

func TestAllowedDays_SundayOnlySection(t *testing.T) {
	// Regression guard for the native-Sunday(0) vs ISO-7 off-by-one.
	days, err := ParseAllowedDays("7")
	require.NoError(t, err)

	sunday := date(2024, time.January, 7)
	monday := date(2024, time.January, 8)

	assert.True(t, days.Allows(sunday))
	assert.False(t, days.Allows(monday))
}

func TestAllowedDays_EmptyAllowsEverything(t *testing.T) {
	days := AllowedDays{}
	for d := 0; d < 7; d++ {
		assert.True(t, days.Allows(date(2024, time.January, 1+d)))
	}
}
