package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/txengine/internal/ledger"
	"github.com/cleared-dev/txengine/internal/model"
	"github.com/cleared-dev/txengine/internal/money"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPrecision4dp(t *testing.T) {
	l := ledger.New()
	acct := l.GetOrCreate(1)
	acct.Available = dec("74.44455")
	acct.Total = dec("74.44455")

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, Rows(l, money.DefaultPrecision)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, "1,74.4446,0,74.4446,false", lines[1])

	// Rounding happens on output only.
	assert.True(t, acct.Available.Equal(dec("74.44455")))
}

func TestRowsOrderedByClient(t *testing.T) {
	l := ledger.New()
	for _, id := range []uint16{30, 1, 7} {
		l.GetOrCreate(id)
	}
	rows := Rows(l, money.DefaultPrecision)
	require.Len(t, rows, 3)
	assert.Equal(t, uint16(1), rows[0].Client)
	assert.Equal(t, uint16(7), rows[1].Client)
	assert.Equal(t, uint16(30), rows[2].Client)
}

func TestNegativeAndLocked(t *testing.T) {
	acct := model.NewClientAccount()
	acct.Available = dec("-75")
	acct.Total = dec("-75")
	acct.Locked = true

	rec := MarshalRow(NewRow(2, acct, money.DefaultPrecision))
	assert.Equal(t, []string{"2", "-75", "0", "-75", "true"}, rec)
}

func TestCustomPrecision(t *testing.T) {
	acct := model.NewClientAccount()
	acct.Available = dec("1.23456")
	acct.Held = dec("0.005")
	acct.Total = dec("1.23956")

	row := NewRow(1, acct, 2)
	assert.Equal(t, "1.23", row.Available.String())
	assert.Equal(t, "0", row.Held.String(), "half to even")
	assert.Equal(t, "1.24", row.Total.String())
}

func TestRoundTrip(t *testing.T) {
	rows := []Row{
		{Client: 1, Available: dec("1.5"), Held: dec("0"), Total: dec("1.5")},
		{Client: 65535, Available: dec("-10.1234"), Held: dec("20"), Total: dec("9.8766"), Locked: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, rows))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range rows {
		assert.Equal(t, rows[i].Client, got[i].Client)
		assert.True(t, rows[i].Available.Equal(got[i].Available))
		assert.True(t, rows[i].Held.Equal(got[i].Held))
		assert.True(t, rows[i].Total.Equal(got[i].Total))
		assert.Equal(t, rows[i].Locked, got[i].Locked)
	}
}

func TestEmptyLedger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, Rows(ledger.New(), money.DefaultPrecision)))
	assert.Equal(t, Header+"\n", buf.String())
}

func TestUnmarshalRow_Errors(t *testing.T) {
	_, err := UnmarshalRow([]string{"1", "2"})
	assert.Error(t, err)

	_, err = UnmarshalRow([]string{"x", "0", "0", "0", "false"})
	assert.Contains(t, err.Error(), "parsing client")

	_, err = UnmarshalRow([]string{"1", "0", "zero", "0", "false"})
	assert.Contains(t, err.Error(), "parsing amount")

	_, err = UnmarshalRow([]string{"1", "0", "0", "0", "maybe"})
	assert.Contains(t, err.Error(), "parsing locked")
}
