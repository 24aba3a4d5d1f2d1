package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/txengine/internal/ledger"
	"github.com/cleared-dev/txengine/internal/model"
	"github.com/cleared-dev/txengine/internal/money"
)

// Header is the CSV header of the balance snapshot.
const Header = "client,available,held,total,locked"

const (
	numFields    = 5
	colClient    = 0
	colAvailable = 1
	colHeld      = 2
	colTotal     = 3
	colLocked    = 4
)

// Row is one account of the final snapshot, already rounded for output.
type Row struct {
	Client    uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

// NewRow rounds an account's balances to precision fractional digits.
// The account itself is not modified.
func NewRow(client uint16, acct *model.ClientAccount, precision int32) Row {
	return Row{
		Client:    client,
		Available: money.Round(acct.Available, precision),
		Held:      money.Round(acct.Held, precision),
		Total:     money.Round(acct.Total, precision),
		Locked:    acct.Locked,
	}
}

// Rows builds the snapshot rows for every account, in ascending client order.
func Rows(l *ledger.Ledger, precision int32) []Row {
	rows := make([]Row, 0, l.Len())
	l.Each(func(client uint16, acct *model.ClientAccount) {
		rows = append(rows, NewRow(client, acct, precision))
	})
	return rows
}

// WriteAccounts writes the snapshot CSV (including header).
func WriteAccounts(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(row Row) []string {
	rec := make([]string, numFields)
	rec[colClient] = strconv.FormatUint(uint64(row.Client), 10)
	rec[colAvailable] = row.Available.String()
	rec[colHeld] = row.Held.String()
	rec[colTotal] = row.Total.String()
	rec[colLocked] = strconv.FormatBool(row.Locked)
	return rec
}

// ReadAccounts parses a snapshot CSV written by WriteAccounts.
func ReadAccounts(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var rows []Row
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// UnmarshalRow converts a CSV record to a Row.
func UnmarshalRow(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	client, err := strconv.ParseUint(record[colClient], 10, 16)
	if err != nil {
		return Row{}, fmt.Errorf("parsing client %q: %w", record[colClient], err)
	}

	var amounts [3]decimal.Decimal
	for i, col := range []int{colAvailable, colHeld, colTotal} {
		amounts[i], err = decimal.NewFromString(record[col])
		if err != nil {
			return Row{}, fmt.Errorf("parsing amount %q: %w", record[col], err)
		}
	}

	locked, err := strconv.ParseBool(record[colLocked])
	if err != nil {
		return Row{}, fmt.Errorf("parsing locked %q: %w", record[colLocked], err)
	}

	return Row{
		Client:    uint16(client),
		Available: amounts[0],
		Held:      amounts[1],
		Total:     amounts[2],
		Locked:    locked,
	}, nil
}
