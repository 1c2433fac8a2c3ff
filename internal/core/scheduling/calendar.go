package scheduling

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Calendar errors
var (
	ErrInvalidWeekday = errors.New("weekday codes must be between 1 (Monday) and 7 (Sunday)")
)

// AllowedDays is a set of ISO weekday codes (Monday=1 .. Sunday=7).
// The empty set allows every day.
type AllowedDays map[int]bool

// ParseAllowedDays parses a comma separated list of ISO weekday codes as
// stored on a section ("1,3,5"). Empty input yields the allow-all set.
// Invalid codes are rejected here, at configuration time, so evaluation
// never has to deal with them.
func ParseAllowedDays(csv string) (AllowedDays, error) {
	days := AllowedDays{}
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return days, nil
	}

	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWeekday, part)
		}
		if code < 1 || code > 7 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidWeekday, code)
		}
		days[code] = true
	}

	return days, nil
}

// String renders the set back to its stored form, sorted.
func (d AllowedDays) String() string {
	if len(d) == 0 {
		return ""
	}
	parts := make([]string, 0, len(d))
	for code := 1; code <= 7; code++ {
		if d[code] {
			parts = append(parts, strconv.Itoa(code))
		}
	}
	return strings.Join(parts, ",")
}

// ISOWeekday converts Go's native weekday (Sunday=0) to the ISO numbering
// (Monday=1 .. Sunday=7) used by section day rules.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// Allows reports whether date falls on a permitted weekday.
// The empty set permits any day.
func (d AllowedDays) Allows(date time.Time) bool {
	if len(d) == 0 {
		return true
	}
	return d[ISOWeekday(date)]
}
