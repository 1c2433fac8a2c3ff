package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendhub/internal/adapters/persistence/models"
	"lendhub/internal/core/domain"
)

func TestMaintenancePreviewDoesNotMutate(t *testing.T) {
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

	end := sunday
	preview, err := env.maintenance.Preview(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   &end,
		Reason:    "inspection",
	})
	require.NoError(t, err)
	assert.False(t, preview.HasOverlap)
	assert.Equal(t, 1, preview.TotalReservationsAffected)
	assert.Equal(t, int64(30), preview.TotalCreditsToRefund)

	// Dry run: nothing changed
	current, err := env.reservations.GetByID(reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationConfirmed), current.Status)
	assert.Equal(t, int64(70), env.mustBalance(t, user.ID))

	var count int64
	require.NoError(t, env.db.Model(&models.Maintenance{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestMaintenanceCascade(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	alice := env.createUser(t, 100)
	bob := env.createUser(t, 100)

	first, err := env.reservations.Create(alice.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)
	second, err := env.reservations.Create(bob.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: sunday.AddDate(0, 0, 1),
		EndDate:   sunday.AddDate(0, 0, 3),
	})
	require.NoError(t, err)

	// Window spans both reservations
	end := sunday.AddDate(0, 0, 5)
	maintenance, outcomes, err := env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   &end,
		Reason:    "lens replacement",
	}, 99)
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.True(t, o.Cancelled)
		assert.Equal(t, int64(30), o.Refunded)
		assert.Empty(t, o.Error)
	}
	assert.Equal(t, 2, maintenance.CancelledReservationsCount)
	assert.Equal(t, int64(60), maintenance.RefundedCreditsTotal)

	// Both reservations end up REFUNDED with full balances restored
	for _, id := range []uint{first.ID, second.ID} {
		r, err := env.reservations.GetByID(id)
		require.NoError(t, err)
		assert.Equal(t, string(domain.ReservationRefunded), r.Status)
		assert.True(t, r.IsRefunded())
		assert.Equal(t, maintenanceCancelReason, r.CancelReason)
	}
	assert.Equal(t, int64(100), env.mustBalance(t, alice.ID))
	assert.Equal(t, int64(100), env.mustBalance(t, bob.ID))
}

func TestMaintenanceCascadeContinuesPastUncancellable(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)
	alice := env.createUser(t, 100)
	bob := env.createUser(t, 100)

	confirmed, err := env.reservations.Create(alice.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   sunday,
	})
	require.NoError(t, err)

	// Bob's gear is already out the door: CHECKED_OUT cannot be cancelled
	checkedOut, err := env.reservations.Create(bob.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: sunday.AddDate(0, 0, 1),
		EndDate:   sunday.AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	_, err = env.reservations.Checkout(checkedOut.ID, domain.Actor{UserID: 99, Facility: true}, "")
	require.NoError(t, err)

	end := sunday.AddDate(0, 0, 5)
	maintenance, outcomes, err := env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   &end,
		Reason:    "lens replacement",
	}, 99)
	require.NoError(t, err)

	// One failure does not abort the cascade
	require.Len(t, outcomes, 2)
	byReservation := map[uint]domain.CascadeOutcome{}
	for _, o := range outcomes {
		byReservation[o.ReservationID] = o
	}
	assert.True(t, byReservation[confirmed.ID].Cancelled)
	assert.Equal(t, int64(30), byReservation[confirmed.ID].Refunded)
	assert.Empty(t, byReservation[confirmed.ID].Error)
	assert.False(t, byReservation[checkedOut.ID].Cancelled)
	assert.NotEmpty(t, byReservation[checkedOut.ID].Error)

	// Aggregates fold over the single success
	assert.Equal(t, 1, maintenance.CancelledReservationsCount)
	assert.Equal(t, int64(30), maintenance.RefundedCreditsTotal)

	r, err := env.reservations.GetByID(checkedOut.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationCheckedOut), r.Status)
	assert.Equal(t, int64(100), env.mustBalance(t, alice.ID))
	assert.Equal(t, int64(70), env.mustBalance(t, bob.ID))
}

func TestMaintenanceOverlapRejected(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)

	end := sunday
	_, _, err := env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   &end,
		Reason:    "inspection",
	}, 99)
	require.NoError(t, err)

	// Overlapping window on the same product is rejected, not merged
	laterEnd := sunday.AddDate(0, 0, 3)
	_, _, err = env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: sunday,
		EndDate:   &laterEnd,
		Reason:    "second inspection",
	}, 99)
	assert.ErrorIs(t, err, domain.ErrMaintenanceOverlap)
}

func TestMaintenanceRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)

	_, _, err := env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: friday,
	}, 99)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIndefiniteMaintenanceBlocksFarFuture(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 0, 10, domain.PeriodDay)
	user := env.createUser(t, 1000)

	// No end date: the window is open-ended
	_, _, err := env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: friday,
		Reason:    "waiting for parts",
	}, 99)
	require.NoError(t, err)

	_, err = env.reservations.Create(user.ID, &CreateReservationInput{
		ProductID: product.ID,
		StartDate: friday.AddDate(1, 0, 0),
		EndDate:   sunday.AddDate(1, 0, 0),
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMaintenanceProductStatusLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(friday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)

	// Window active right now flips the product to MAINTENANCE
	end := sunday
	maintenance, _, err := env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   &end,
		Reason:    "inspection",
	}, 99)
	require.NoError(t, err)

	var current models.Product
	require.NoError(t, env.db.First(&current, product.ID).Error)
	assert.Equal(t, string(domain.ProductMaintenance), current.Status)

	// Ending the only window restores AVAILABLE
	ended, err := env.maintenance.End(maintenance.ID, 99)
	require.NoError(t, err)
	require.NotNil(t, ended.EndedAt)
	require.NotNil(t, ended.EndedBy)
	assert.Equal(t, uint(99), *ended.EndedBy)

	require.NoError(t, env.db.First(&current, product.ID).Error)
	assert.Equal(t, string(domain.ProductAvailable), current.Status)

	// Ending twice is illegal
	_, err = env.maintenance.End(maintenance.ID, 99)
	assert.ErrorIs(t, err, domain.ErrMaintenanceEnded)
}

func TestMaintenanceEndRestoreIgnoresScheduledWindow(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(friday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)

	end := sunday
	first, _, err := env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   &end,
		Reason:    "inspection",
	}, 99)
	require.NoError(t, err)

	// Second active window on a disjoint span
	secondStart := sunday.AddDate(0, 0, 1)
	secondEnd := sunday.AddDate(0, 0, 5)
	_, _, err = env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: secondStart,
		EndDate:   &secondEnd,
		Reason:    "repaint",
	}, 99)
	require.NoError(t, err)

	// The second window is not active yet at "friday", so ending the first
	// restores the product
	_, err = env.maintenance.End(first.ID, 99)
	require.NoError(t, err)

	var current models.Product
	require.NoError(t, env.db.First(&current, product.ID).Error)
	assert.Equal(t, string(domain.ProductAvailable), current.Status)
}

func TestCancelScheduledIsFutureOnly(t *testing.T) {
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

	end := sunday
	scheduled, _, err := env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   &end,
		Reason:    "inspection",
	}, 99)
	require.NoError(t, err)

	cancelled, err := env.maintenance.CancelScheduled(scheduled.ID, 99)
	require.NoError(t, err)
	require.NotNil(t, cancelled.EndedAt)

	// The creation cascade is a one-way door: the reservation it cancelled
	// stays cancelled and refunded
	r, err := env.reservations.GetByID(reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationRefunded), r.Status)

	// A window that has already started cannot be cancelled, only ended
	env.setNow(friday)
	activeEnd := sunday.AddDate(0, 0, 7)
	active, _, err := env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   &activeEnd,
		Reason:    "repaint",
	}, 99)
	require.NoError(t, err)

	_, err = env.maintenance.CancelScheduled(active.ID, 99)
	assert.ErrorIs(t, err, domain.ErrMaintenanceStarted)
}

func TestMaintenanceDerivedStatus(t *testing.T) {
	end := sunday
	m := &models.Maintenance{StartDate: friday, EndDate: &end}

	assert.Equal(t, domain.MaintenanceScheduled, m.Status(monday))
	assert.Equal(t, domain.MaintenanceActive, m.Status(friday))
	assert.Equal(t, domain.MaintenanceActive, m.Status(sunday))
	assert.Equal(t, domain.MaintenanceEnded, m.Status(sunday.AddDate(0, 0, 1)))

	// Indefinite window never lapses on its own
	open := &models.Maintenance{StartDate: friday}
	assert.Equal(t, domain.MaintenanceActive, open.Status(sunday.AddDate(10, 0, 0)))

	endedAt := friday
	closed := &models.Maintenance{StartDate: friday, EndedAt: &endedAt}
	assert.Equal(t, domain.MaintenanceEnded, closed.Status(friday))
}

func TestExpireDue(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)

	end := sunday
	_, _, err := env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   &end,
		Reason:    "inspection",
	}, 99)
	require.NoError(t, err)

	// Still running on its last day
	env.setNow(sunday)
	expired, err := env.maintenance.ExpireDue()
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	// Past the end date the sweep closes it with the system actor
	env.setNow(sunday.AddDate(0, 0, 1))
	expired, err = env.maintenance.ExpireDue()
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	maintenances, err := env.maintenance.ListByProduct(product.ID)
	require.NoError(t, err)
	require.Len(t, maintenances, 1)
	require.NotNil(t, maintenances[0].EndedAt)
	require.NotNil(t, maintenances[0].EndedBy)
	assert.Equal(t, domain.SystemActor, *maintenances[0].EndedBy)

	// Idempotent: nothing left to expire
	expired, err = env.maintenance.ExpireDue()
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
}

func TestMaintenanceNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	_, err := env.maintenance.GetByID(12345)
	assert.ErrorIs(t, err, ErrMaintenanceNotFound)

	_, err = env.maintenance.End(12345, 1)
	assert.ErrorIs(t, err, ErrMaintenanceNotFound)
}

func TestMaintenanceEndBeforeStartRejected(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(monday)

	section := env.createSection(t, allDays(), allDays())
	product := env.createProduct(t, section.ID, 1, 14, 10, domain.PeriodDay)

	end := monday
	_, _, err := env.maintenance.Create(&MaintenanceInput{
		ProductID: product.ID,
		StartDate: friday,
		EndDate:   &end,
		Reason:    "inspection",
	}, 99)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
