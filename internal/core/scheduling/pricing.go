package scheduling

import (
	"time"

	"lendhub/internal/core/domain"
)

// DurationDays returns the inclusive length of [start, end] in days.
// A same-day interval has duration 1, not 0.
func DurationDays(start, end time.Time) int {
	start = Date(start)
	end = Date(end)
	return int(end.Sub(start).Hours()/24) + 1
}

// Price computes the credits owed for an inclusive interval.
//
// DAY charges per day. WEEK charges per started week: partial weeks round
// up, never down (10 days at 5 credits/week is 2 weeks, 10 credits).
//
// A nil price ("price hidden") must be rejected by the caller before the
// calculator is reached; this function assumes a concrete price.
func Price(start, end time.Time, priceCredits int64, period domain.CreditPeriod) int64 {
	duration := int64(DurationDays(start, end))

	if period == domain.PeriodWeek {
		weeks := (duration + 6) / 7
		return weeks * priceCredits
	}
	return duration * priceCredits
}
