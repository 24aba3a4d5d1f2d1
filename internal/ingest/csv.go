package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/txengine/internal/model"
	"github.com/cleared-dev/txengine/internal/money"
)

// Header is the canonical CSV header for transaction files.
const Header = "type,client,tx,amount"

const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

var (
	// ErrMissingAmount marks a deposit or withdrawal row without an amount.
	ErrMissingAmount = errors.New("missing amount")
	// ErrNegativeAmount marks a row whose amount is below zero.
	ErrNegativeAmount = errors.New("negative amount")
	// ErrAmountOutOfRange marks an amount whose magnitude exceeds money.Max.
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// Columns holds the position of each known column in a record. Amount is -1
// when the file has no amount column.
type Columns struct {
	Type   int
	Client int
	Tx     int
	Amount int
}

// DefaultColumns matches Header.
var DefaultColumns = Columns{Type: 0, Client: 1, Tx: 2, Amount: 3}

// ParseHeader locates the known columns in a header record. Column names are
// matched case-insensitively after trimming; unknown columns are ignored.
func ParseHeader(record []string) (Columns, error) {
	cols := Columns{Type: -1, Client: -1, Tx: -1, Amount: -1}
	for i, name := range record {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case colType:
			cols.Type = i
		case colClient:
			cols.Client = i
		case colTx:
			cols.Tx = i
		case colAmount:
			cols.Amount = i
		}
	}

	var missing []string
	if cols.Type < 0 {
		missing = append(missing, colType)
	}
	if cols.Client < 0 {
		missing = append(missing, colClient)
	}
	if cols.Tx < 0 {
		missing = append(missing, colTx)
	}
	if len(missing) > 0 {
		return Columns{}, fmt.Errorf("header missing column(s): %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// UnmarshalTransaction converts a CSV record to a typed Transaction.
func UnmarshalTransaction(record []string, cols Columns) (model.Transaction, error) {
	kind, err := model.ParseKind(field(record, cols.Type))
	if err != nil {
		return model.Transaction{}, err
	}

	client, err := strconv.ParseUint(field(record, cols.Client), 10, 16)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing client %q: %w", field(record, cols.Client), err)
	}

	tx, err := strconv.ParseUint(field(record, cols.Tx), 10, 32)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing tx %q: %w", field(record, cols.Tx), err)
	}

	var amount decimal.Decimal
	raw := field(record, cols.Amount)
	if raw != "" {
		amount, err = decimal.NewFromString(raw)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", raw, err)
		}
		if amount.Abs().GreaterThan(money.Max) {
			return model.Transaction{}, fmt.Errorf("amount %s: %w", raw, ErrAmountOutOfRange)
		}
	}

	if kind.CarriesAmount() {
		if raw == "" {
			return model.Transaction{}, fmt.Errorf("%s: %w", kind, ErrMissingAmount)
		}
		if amount.IsNegative() {
			return model.Transaction{}, fmt.Errorf("%s %s: %w", kind, raw, ErrNegativeAmount)
		}
	} else {
		amount = decimal.Zero
	}

	return model.Transaction{
		Kind:   kind,
		Client: uint16(client),
		Tx:     uint32(tx),
		Amount: amount,
	}, nil
}

// MarshalTransaction converts a Transaction to a CSV record in DefaultColumns order.
func MarshalTransaction(tx model.Transaction) []string {
	row := make([]string, 4)
	row[DefaultColumns.Type] = tx.Kind.String()
	row[DefaultColumns.Client] = strconv.FormatUint(uint64(tx.Client), 10)
	row[DefaultColumns.Tx] = strconv.FormatUint(uint64(tx.Tx), 10)
	if tx.Kind.CarriesAmount() {
		row[DefaultColumns.Amount] = tx.Amount.String()
	}
	return row
}

// WriteTransactions writes a transaction file (including header).
func WriteTransactions(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
