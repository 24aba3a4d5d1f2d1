// Package ingest turns a transaction CSV stream into typed records.
//
// Rows are read one at a time; a malformed row is skipped and reported
// through OnSkip without stopping the stream.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/cleared-dev/txengine/internal/model"
)

// Skip describes an input row that was dropped.
type Skip struct {
	Line    int
	Record  []string // nil when the row could not be split into fields
	Columns Columns
	Err     error
}

// Value returns the trimmed field at column index col, or "" if absent.
func (s Skip) Value(col int) string {
	return field(s.Record, col)
}

// Reader streams transactions from CSV input.
type Reader struct {
	cr      *csv.Reader
	cols    Columns
	started bool
	line    int
	skipped int
	onSkip  func(Skip)
	err     error
}

// NewReader creates a Reader. The first record of r must be the header.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &Reader{cr: cr}
}

// OnSkip registers fn to be called for every dropped row.
func (r *Reader) OnSkip(fn func(Skip)) {
	r.onSkip = fn
}

// Skipped returns how many rows were dropped so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Line returns the input line of the most recently returned transaction.
func (r *Reader) Line() int {
	return r.line
}

// Err returns the first fatal error encountered, if any. io.EOF is not an error.
func (r *Reader) Err() error {
	return r.err
}

// Next returns the next well-formed transaction, or io.EOF at end of input.
// Any other error is fatal and is also reported by Err.
func (r *Reader) Next() (model.Transaction, error) {
	if r.err != nil {
		return model.Transaction{}, r.err
	}
	if !r.started {
		if err := r.readHeader(); err != nil {
			return model.Transaction{}, err
		}
	}

	for {
		rec, err := r.cr.Read()
		if errors.Is(err, io.EOF) {
			return model.Transaction{}, io.EOF
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				r.skip(Skip{Line: perr.Line, Err: err})
				continue
			}
			return model.Transaction{}, r.fail(fmt.Errorf("reading transactions CSV: %w", err))
		}

		line, _ := r.cr.FieldPos(0)
		tx, err := UnmarshalTransaction(rec, r.cols)
		if err != nil {
			r.skip(Skip{Line: line, Record: slices.Clone(rec), Columns: r.cols, Err: err})
			continue
		}
		r.line = line
		return tx, nil
	}
}

// All returns a single-use sequence over the remaining transactions. It stops
// at end of input or at the first fatal error; check Err afterwards.
func (r *Reader) All() iter.Seq[model.Transaction] {
	return func(yield func(model.Transaction) bool) {
		for {
			tx, err := r.Next()
			if err != nil {
				return
			}
			if !yield(tx) {
				return
			}
		}
	}
}

func (r *Reader) readHeader() error {
	r.started = true
	rec, err := r.cr.Read()
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	if err != nil {
		return r.fail(fmt.Errorf("reading header: %w", err))
	}
	cols, err := ParseHeader(rec)
	if err != nil {
		return r.fail(err)
	}
	r.cols = cols
	return nil
}

func (r *Reader) skip(s Skip) {
	r.skipped++
	if r.onSkip != nil {
		r.onSkip(s)
	}
}

func (r *Reader) fail(err error) error {
	r.err = err
	return err
}
