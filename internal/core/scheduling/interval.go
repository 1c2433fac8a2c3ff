package scheduling

import "time"

// Date normalizes t to midnight UTC. Reservation and maintenance intervals
// operate on whole days in a single facility-wide timezone; start/end times
// are display attributes and never enter overlap math.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether the inclusive date intervals [aStart, aEnd] and
// [bStart, bEnd] share at least one day. A nil end is an open interval
// (indefinite maintenance) and is treated as +infinity.
//
// Closed form: a <= d && c <= b, with inclusive boundaries.
func Overlaps(aStart time.Time, aEnd *time.Time, bStart time.Time, bEnd *time.Time) bool {
	aStart = Date(aStart)
	bStart = Date(bStart)

	// aStart <= bEnd
	if bEnd != nil && aStart.After(Date(*bEnd)) {
		return false
	}
	// bStart <= aEnd
	if aEnd != nil && bStart.After(Date(*aEnd)) {
		return false
	}
	return true
}

// overlapsDayByDay materializes both intervals day by day and checks for a
// shared day. It exists only as the reference oracle for Overlaps: both must
// produce identical decisions on every input, including open ends and
// inclusive boundaries. Open intervals are capped at the latest date either
// interval mentions, plus one day, which is enough to decide overlap.
func overlapsDayByDay(aStart time.Time, aEnd *time.Time, bStart time.Time, bEnd *time.Time) bool {
	horizon := Date(aStart)
	for _, t := range []*time.Time{aEnd, bEnd} {
		if t != nil && Date(*t).After(horizon) {
			horizon = Date(*t)
		}
	}
	if Date(bStart).After(horizon) {
		horizon = Date(bStart)
	}
	horizon = horizon.AddDate(0, 0, 1)

	occupied := map[time.Time]bool{}
	for day := Date(aStart); !day.After(capEnd(aEnd, horizon)); day = day.AddDate(0, 0, 1) {
		occupied[day] = true
	}
	for day := Date(bStart); !day.After(capEnd(bEnd, horizon)); day = day.AddDate(0, 0, 1) {
		if occupied[day] {
			return true
		}
	}
	return false
}

func capEnd(end *time.Time, horizon time.Time) time.Time {
	if end == nil {
		return horizon
	}
	return Date(*end)
}
