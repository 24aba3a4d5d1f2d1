// Package auditlog records every input row that did not change the ledger:
// malformed rows dropped at ingestion and records the engine ignored.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cleared-dev/txengine/internal/engine"
	"github.com/cleared-dev/txengine/internal/ingest"
	"github.com/cleared-dev/txengine/internal/model"
)

// Header is the CSV header of the audit log.
const Header = "line,type,client,tx,outcome,details"

// OutcomeMalformed is the outcome recorded for rows dropped at ingestion.
const OutcomeMalformed = "malformed"

const (
	numFields  = 6
	colLine    = 0
	colType    = 1
	colClient  = 2
	colTx      = 3
	colOutcome = 4
	colDetails = 5
)

// Entry is one row in the audit log. Type, Client and Tx are kept as text
// because malformed rows may not parse.
type Entry struct {
	Line    int
	Type    string
	Client  string
	Tx      string
	Outcome string
	Details string
}

// FromTransaction builds the entry for a record the engine ignored.
func FromTransaction(line int, tx model.Transaction, outcome engine.Outcome) Entry {
	e := Entry{
		Line:    line,
		Type:    tx.Kind.String(),
		Client:  strconv.FormatUint(uint64(tx.Client), 10),
		Tx:      strconv.FormatUint(uint64(tx.Tx), 10),
		Outcome: outcome.String(),
	}
	if tx.Kind.CarriesAmount() {
		e.Details = "amount " + tx.Amount.String()
	}
	return e
}

// FromSkip builds the entry for a row dropped at ingestion.
func FromSkip(s ingest.Skip) Entry {
	e := Entry{Line: s.Line, Outcome: OutcomeMalformed}
	if s.Err != nil {
		e.Details = s.Err.Error()
	}
	if s.Record != nil {
		e.Type = s.Value(s.Columns.Type)
		e.Client = s.Value(s.Columns.Client)
		e.Tx = s.Value(s.Columns.Tx)
	}
	return e
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colLine] = strconv.Itoa(e.Line)
	row[colType] = e.Type
	row[colClient] = e.Client
	row[colTx] = e.Tx
	row[colOutcome] = e.Outcome
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	line, err := strconv.Atoi(record[colLine])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing line %q: %w", record[colLine], err)
	}

	return Entry{
		Line:    line,
		Type:    record[colType],
		Client:  record[colClient],
		Tx:      record[colTx],
		Outcome: record[colOutcome],
		Details: record[colDetails],
	}, nil
}

// Writer streams entries to a CSV audit log.
type Writer struct {
	cw      *csv.Writer
	closer  io.Closer
	entries int
}

// NewWriter writes the header to w and returns a Writer.
func NewWriter(w io.Writer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &Writer{cw: cw}, nil
}

// Create truncates or creates the audit log at path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating audit log: %w", err)
	}
	w, err := NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// Record appends one entry.
func (w *Writer) Record(e Entry) error {
	if err := w.cw.Write(MarshalEntry(e)); err != nil {
		return fmt.Errorf("writing entry %d: %w", w.entries, err)
	}
	w.entries++
	return nil
}

// Entries returns the number of entries recorded.
func (w *Writer) Entries() int {
	return w.entries
}

// Close flushes buffered entries and closes the underlying file, if any.
// Closing twice is a no-op.
func (w *Writer) Close() error {
	w.cw.Flush()
	err := w.cw.Error()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
		w.closer = nil
	}
	if err != nil {
		return fmt.Errorf("closing audit log: %w", err)
	}
	return nil
}

// Read returns all entries of the audit log at path.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
