package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendhub/internal/core/domain"
)

func TestCreditDebitGuard(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 50)

	err := env.credits.Debit(nil, user.ID, 30, domain.EntryAdminAdjustment, nil, "covered")
	require.NoError(t, err)
	assert.Equal(t, int64(20), env.mustBalance(t, user.ID))

	// The guard rejects a debit the balance cannot cover, leaving it intact
	err = env.credits.Debit(nil, user.ID, 21, domain.EntryAdminAdjustment, nil, "too much")
	assert.ErrorIs(t, err, domain.ErrInsufficientCredits)
	assert.Equal(t, int64(20), env.mustBalance(t, user.ID))

	// Draining to exactly zero is legal
	err = env.credits.Debit(nil, user.ID, 20, domain.EntryAdminAdjustment, nil, "drained")
	require.NoError(t, err)
	assert.Equal(t, int64(0), env.mustBalance(t, user.ID))
}

func TestCreditLedgerIsSigned(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 0)

	require.NoError(t, env.credits.TopUp(user.ID, 100, "starter pack"))
	require.NoError(t, env.credits.Debit(nil, user.ID, 40, domain.EntryAdminAdjustment, nil, "penalty"))

	entries, total, err := env.credits.History(user.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 2)

	// Newest first: the debit, then the top-up
	assert.Equal(t, int64(-40), entries[0].Amount)
	assert.Equal(t, string(domain.EntryAdminAdjustment), entries[0].Type)
	assert.Equal(t, int64(100), entries[1].Amount)
	assert.Equal(t, string(domain.EntryTopUp), entries[1].Type)

	assert.Equal(t, int64(60), env.mustBalance(t, user.ID))
}

func TestTopUpRejectsNonPositive(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 0)

	assert.ErrorIs(t, env.credits.TopUp(user.ID, 0, "nothing"), domain.ErrInvalidAmount)
	assert.ErrorIs(t, env.credits.TopUp(user.ID, -5, "negative"), domain.ErrInvalidAmount)
}

func TestAdjustIsSignedAndGuarded(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 10)

	require.NoError(t, env.credits.Adjust(user.ID, 15, "goodwill"))
	assert.Equal(t, int64(25), env.mustBalance(t, user.ID))

	require.NoError(t, env.credits.Adjust(user.ID, -5, "correction"))
	assert.Equal(t, int64(20), env.mustBalance(t, user.ID))

	// Adjustments go through the same guard; the balance never goes negative
	err := env.credits.Adjust(user.ID, -21, "overdraft")
	assert.ErrorIs(t, err, domain.ErrInsufficientCredits)
	assert.Equal(t, int64(20), env.mustBalance(t, user.ID))

	assert.ErrorIs(t, env.credits.Adjust(user.ID, 0, "noop"), domain.ErrInvalidAmount)
}

func TestCreditUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.credits.Balance(12345)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = env.credits.Credit(nil, 12345, 10, domain.EntryTopUp, nil, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
