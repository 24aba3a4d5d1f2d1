package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/txengine/internal/model"
)

func TestGetOrCreate(t *testing.T) {
	l := New()
	assert.Equal(t, 0, l.Len())

	acct := l.GetOrCreate(1)
	require.NotNil(t, acct)
	assert.True(t, acct.Available.IsZero())
	assert.True(t, acct.Held.IsZero())
	assert.True(t, acct.Total.IsZero())
	assert.False(t, acct.Locked)

	// Idempotent: same pointer on the second call.
	acct.Available = decimal.NewFromInt(5)
	again := l.GetOrCreate(1)
	assert.Same(t, acct, again)
	assert.Equal(t, 1, l.Len())
}

func TestGetDoesNotCreate(t *testing.T) {
	l := New()
	_, ok := l.Get(42)
	assert.False(t, ok)
	assert.Equal(t, 0, l.Len())

	l.GetOrCreate(42)
	acct, ok := l.Get(42)
	assert.True(t, ok)
	assert.NotNil(t, acct)
}

func TestClientsSorted(t *testing.T) {
	l := New()
	for _, id := range []uint16{9, 2, 65535, 0, 7} {
		l.GetOrCreate(id)
	}
	assert.Equal(t, []uint16{0, 2, 7, 9, 65535}, l.Clients())

	var seen []uint16
	l.Each(func(client uint16, _ *model.ClientAccount) {
		seen = append(seen, client)
	})
	assert.Equal(t, l.Clients(), seen)
}

func TestValidate_Clean(t *testing.T) {
	l := New()
	acct := l.GetOrCreate(1)
	acct.Available = decimal.NewFromInt(-75)
	acct.Total = decimal.NewFromInt(-75)
	acct.Locked = true
	acct.Insert(1, &model.Deposit{Amount: decimal.NewFromInt(100), State: model.StateChargeback})

	assert.Empty(t, Validate(l), "negative balances are valid")
}

func TestValidate_TotalMismatch(t *testing.T) {
	l := New()
	acct := l.GetOrCreate(3)
	acct.Available = decimal.NewFromInt(10)
	acct.Held = decimal.NewFromInt(5)
	acct.Total = decimal.NewFromInt(16)

	errs := Validate(l)
	require.Len(t, errs, 1)
	assert.Equal(t, InvariantTotal, errs[0].Invariant)
	assert.Equal(t, uint16(3), errs[0].Client)
	assert.Contains(t, errs[0].Error(), "invariant 1 [client 3]")
}

func TestValidate_NegativeHeld(t *testing.T) {
	l := New()
	acct := l.GetOrCreate(1)
	acct.Available = decimal.NewFromInt(10)
	acct.Held = decimal.NewFromInt(-10)

	errs := Validate(l)
	require.Len(t, errs, 1)
	assert.Equal(t, InvariantHeld, errs[0].Invariant)
}

func TestValidate_LockedWithoutChargeback(t *testing.T) {
	l := New()
	l.GetOrCreate(1).Locked = true

	errs := Validate(l)
	require.Len(t, errs, 1)
	assert.Equal(t, InvariantLockedHistory, errs[0].Invariant)
}
