package services

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendhub/internal/core/domain"
	"lendhub/internal/core/scheduling"
)

func allDays() string { return "1,2,3,4,5,6,7" }

func TestCreateReservation(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)

	reservation, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)

	// Friday through Sunday inclusive is 3 days at 10 credits each
	assert.Equal(t, string(domain.ReservationConfirmed), reservation.Status)
	assert.Equal(t, int64(30), reservation.CreditsCharged)
	assert.NotEmpty(t, reservation.Reference)
	assert.Equal(t, int64(70), env.mustBalance(t, user.ID))

	// Debit must land in the ledger
	entries, _, err := env.credits.History(user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(-30), entries[0].Amount)
	assert.Equal(t, string(domain.EntryReservationDebit), entries[0].Type)
	require.NotNil(t, entries[0].ReservationID)
	assert.Equal(t, reservation.ID, *entries[0].ReservationID)
}

func TestCreateReservationEndBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 0, 10, domain.PeriodDay)
	user := env.createUser(t, 100)

	_, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: sunday,
		EndDate:   friday,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateReservationDayRules(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	// Checkout on Fridays only, return on Sundays only
	section := env.createSection(t, "5", "7")
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)

	// Friday -> Sunday satisfies both rules
	_, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)

	// Monday start violates the checkout rule
	_, err = env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: monday.AddDate(0, 0, 7),
		EndDate:   sunday.AddDate(0, 0, 7),
	})
	assert.ErrorIs(t, err, domain.ErrDayNotAllowed)

	// Friday start, Friday end violates the return rule
	_, err = env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday.AddDate(0, 0, 7),
		EndDate:   friday.AddDate(0, 0, 7),
	})
	assert.ErrorIs(t, err, domain.ErrDayNotAllowed)
}

func TestCreateReservationDurationBounds(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	user := env.createUser(t, 100000)

	bounded := env.createProduct(t, section.ID, 3, 5, 10, domain.PeriodDay)

	// 2 days is below the minimum of 3
	_, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: bounded.ID,
		StartDate: monday,
		EndDate:   monday.AddDate(0, 0, 1),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// 6 days is above the maximum of 5
	_, err = env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: bounded.ID,
		StartDate: monday,
		EndDate:   monday.AddDate(0, 0, 5),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// MaxDuration zero means unbounded
	unbounded := env.createProduct(t, section.ID, 1, 0, 1, domain.PeriodDay)
	_, err = env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: unbounded.ID,
		StartDate: monday,
		EndDate:   monday.AddDate(0, 0, 399),
	})
	require.NoError(t, err)
}

func TestCreateReservationWeeklyPricing(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 0, 50, domain.PeriodWeek)
	user := env.createUser(t, 1000)

	// 8 days rounds up to 2 weeks
	reservation, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: monday,
		EndDate:   monday.AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), reservation.CreditsCharged)
}

func TestCreateReservationConflict(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	first := env.createUser(t, 100)
	second := env.createUser(t, 100)

	_, err := env.reservations.Create(first.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)

	// Touching even one occupied day is a conflict
	_, err = env.reservations.Create(second.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: sunday,
		EndDate:   sunday.AddDate(0, 0, 2),
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(100), env.mustBalance(t, second.ID))

	// The day after the occupied span is free
	_, err = env.reservations.Create(second.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: sunday.AddDate(0, 0, 1),
		EndDate:   sunday.AddDate(0, 0, 2),
	})
	require.NoError(t, err)
}

// Randomized booking storm: whatever order intervals arrive in, the index
// must admit exactly the conflict-free ones.
func TestCreateReservationRandomizedNeverAdmitsOverlap(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 0, 1, domain.PeriodDay)
	user := env.createUser(t, 100000)

	rng := rand.New(rand.NewSource(42))

	type span struct{ start, end time.Time }
	var accepted []span
	overlapsAny := func(start, end time.Time) bool {
		for _, s := range accepted {
			if scheduling.Overlaps(s.start, &s.end, start, &end) {
				return true
			}
		}
		return false
	}

	for i := 0; i < 60; i++ {
		start := friday.AddDate(0, 0, rng.Intn(40))
		end := start.AddDate(0, 0, rng.Intn(5))

		_, err := env.reservations.Create(user.ID, &CreateReservationInput{
			ProductID: product.ID,
			StartDate: start,
			EndDate:   end,
		})
		if overlapsAny(start, end) {
			assert.ErrorIs(t, err, domain.ErrConflict,
				"attempt %d [%s, %s] overlaps an admitted interval", i, start, end)
			continue
		}
		require.NoError(t, err,
			"attempt %d [%s, %s] is free and must be admitted", i, start, end)
		accepted = append(accepted, span{start, end})
	}

	require.NotEmpty(t, accepted)
	assert.Equal(t, int64(len(accepted)), env.reservationCount(t))
}

func TestCreateReservationInsufficientCredits(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 5)

	_, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientCredits)

	// The transaction must roll back: no reservation row, balance untouched
	assert.Equal(t, int64(0), env.reservationCount(t))
	assert.Equal(t, int64(5), env.mustBalance(t, user.ID))
}

func TestCreateReservationProductNotAvailable(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)

	require.NoError(t, env.db.Model(product).Update("status", string(domain.ProductArchived)).Error)

	_, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	assert.ErrorIs(t, err, domain.ErrProductNotAvailable)
}

func TestCreateReservationPriceHidden(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)

	require.NoError(t, env.db.Model(product).Update("price_credits", nil).Error)

	_, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	assert.ErrorIs(t, err, domain.ErrPriceHidden)
}

func TestConcurrentCreateOnlyOneWins(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	first := env.createUser(t, 100)
	second := env.createUser(t, 100)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []uint{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			_, errs[i] = env.reservations.Create(userID, &CreateReservationInput{
				ProductID: product.ID,
				StartDate: friday,
				EndDate:   sunday,
			})
		}(i, userID)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, int64(1), env.reservationCount(t))
}

func TestCheckAvailability(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)

	result, err := env.reservations.CheckAvailability(product.ID, friday, sunday)
	require.NoError(t, err)
	assert.True(t, result.Available)

	_, err = env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)

	result, err = env.reservations.CheckAvailability(product.ID, sunday, sunday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Len(t, result.Reservations, 1)
}

func TestCheckoutAndReturn(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)
	staff := domain.Actor{UserID: 99, Facility: true}

	reservation, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)

	// Return before checkout is illegal
	_, err = env.reservations.Return(reservation.ID, staff, domain.ConditionOK, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	checked, err := env.reservations.Checkout(reservation.ID, staff, "desk A")
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationCheckedOut), checked.Status)
	require.NotNil(t, checked.CheckedOutAt)

	// Double checkout is illegal
	_, err = env.reservations.Checkout(reservation.ID, staff, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	returned, err := env.reservations.Return(reservation.ID, staff, domain.ConditionMinorDamage, "scratched lens")
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationReturned), returned.Status)
	assert.Equal(t, string(domain.ConditionMinorDamage), returned.ReturnCondition)
	require.NotNil(t, returned.ReturnedAt)

	// Movement trail carries both transitions in order
	movements, err := env.reservations.Movements(reservation.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, string(domain.MovementCheckout), movements[0].Action)
	assert.Equal(t, string(domain.MovementReturn), movements[1].Action)
	assert.Equal(t, uint(99), movements[0].ActorID)
}

func TestReturnUnknownCondition(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)
	staff := domain.Actor{UserID: 99, Facility: true}

	reservation, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)
	_, err = env.reservations.Checkout(reservation.ID, staff, "")
	require.NoError(t, err)

	_, err = env.reservations.Return(reservation.ID, staff, domain.ReturnCondition("SHREDDED"), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCancelOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	owner := env.createUser(t, 100)
	other := env.createUser(t, 100)

	reservation, err := env.reservations.Create(owner.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)

	_, err = env.reservations.Cancel(reservation.ID, "not mine", domain.Actor{UserID: other.ID})
	assert.ErrorIs(t, err, ErrNotOwner)

	cancelled, err := env.reservations.Cancel(reservation.ID, "changed plans", domain.Actor{UserID: owner.ID})
	require.NoError(t, err)
	assert.NotEqual(t, string(domain.ReservationConfirmed), cancelled.Status)
}

func TestCancelRefundDeadline(t *testing.T) {
	env := newTestEnv(t)
	// Thursday: Friday start is only one day out, inside the 48h deadline
	env.setNow(date(2026, time.March, 5))

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)

	late, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)

	cancelled, err := env.reservations.Cancel(late.ID, "too late", domain.Actor{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationCancelled), cancelled.Status)
	assert.False(t, cancelled.IsRefunded())
	assert.Equal(t, int64(70), env.mustBalance(t, user.ID))

	// A start a week out clears the deadline and refunds automatically
	early, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday.AddDate(0, 0, 7),
		EndDate:   sunday.AddDate(0, 0, 7),
	})
	require.NoError(t, err)

	refunded, err := env.reservations.Cancel(early.ID, "changed plans", domain.Actor{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationRefunded), refunded.Status)
	assert.True(t, refunded.IsRefunded())
	assert.Equal(t, int64(70), env.mustBalance(t, user.ID))
}

func TestCancelByFacilityAlwaysRefunds(t *testing.T) {
	env := newTestEnv(t)
	// Day before start: a self-service cancel would get no refund
	env.setNow(date(2026, time.March, 5))

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)

	reservation, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)

	cancelled, err := env.reservations.Cancel(reservation.ID, "broken on intake", domain.Actor{UserID: 99, Facility: true})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationRefunded), cancelled.Status)
	assert.True(t, cancelled.IsRefunded())
	assert.Equal(t, int64(100), env.mustBalance(t, user.ID))
}

func TestRefundIdempotence(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)

	reservation, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)

	// Self-service cancel a week out refunds automatically
	_, err = env.reservations.Cancel(reservation.ID, "changed plans", domain.Actor{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(100), env.mustBalance(t, user.ID))

	// A second refund must not move the balance again
	_, err = env.reservations.Refund(reservation.ID, nil, "again")
	assert.ErrorIs(t, err, domain.ErrAlreadyRefunded)
	assert.Equal(t, int64(100), env.mustBalance(t, user.ID))
}

func TestPartialRefundOnReturned(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)
	staff := domain.Actor{UserID: 99, Facility: true}

	reservation, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)
	_, err = env.reservations.Checkout(reservation.ID, staff, "")
	require.NoError(t, err)
	_, err = env.reservations.Return(reservation.ID, staff, domain.ConditionOK, "")
	require.NoError(t, err)

	// Over the charged amount is rejected
	over := int64(31)
	_, err = env.reservations.Refund(reservation.ID, &over, "too much")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	// Partial refund on a RETURNED reservation keeps the status
	partial := int64(10)
	refunded, err := env.reservations.Refund(reservation.ID, &partial, "early return")
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationReturned), refunded.Status)
	require.NotNil(t, refunded.RefundAmount)
	assert.Equal(t, int64(10), *refunded.RefundAmount)
	assert.Equal(t, int64(80), env.mustBalance(t, user.ID))
}

func TestRefundRequiresTerminalState(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)

	reservation, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)

	_, err = env.reservations.Refund(reservation.ID, nil, "still confirmed")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancelledSpanFreesTheCalendar(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	user := env.createUser(t, 100)

	reservation, err := env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)

	_, err = env.reservations.Cancel(reservation.ID, "changed plans", domain.Actor{UserID: user.ID})
	require.NoError(t, err)

	// A cancelled reservation no longer occupies the interval
	_, err = env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)
}

func TestReservationNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	_, err := env.reservations.GetByID(12345)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	_, err = env.reservations.Checkout(12345, domain.Actor{UserID: 1, Facility: true}, "")
	assert.ErrorIs(t, err, ErrReservationNotFound)

	_, err = env.reservations.Create(1, &CreateReservationInput{
		ProductID: 12345,
		StartDate: friday,
		EndDate:   sunday,
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}
