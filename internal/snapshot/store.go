// Package snapshot exports the final balance snapshot to a SQLite database.
//
// Each Save replaces the accounts table with the rows of one run and appends a
// row to runs, so runs is a history of exports while accounts only ever holds
// the latest snapshot. Nothing is read back during processing.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/txengine/internal/report"
)

// Run describes the batch that produced a snapshot.
type Run struct {
	Source     string
	Processed  int
	Applied    int
	Ignored    int
	Skipped    int
	FinishedAt time.Time
}

// Store is an open snapshot database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the snapshot database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}

	dsn, err := dataSourceName(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging snapshot db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing snapshot schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// dataSourceName builds a file: URI for path. The path is made absolute and
// escaped so that '?', '#' and '%' in file names are not read as URI syntax.
func dataSourceName(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving snapshot path: %w", err)
	}
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: url.Values{"_journal_mode": {"WAL"}}.Encode(),
	}
	return u.String(), nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save replaces the stored accounts with rows and records run, atomically.
func (s *Store) Save(ctx context.Context, rows []report.Row, run Run) error {
	return s.transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
			return fmt.Errorf("clearing accounts: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO accounts (client, available, held, total, locked) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx,
				int64(row.Client), row.Available.String(), row.Held.String(), row.Total.String(), row.Locked,
			); err != nil {
				return fmt.Errorf("inserting client %d: %w", row.Client, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (source, processed, applied, ignored, skipped, accounts, finished_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.Source, run.Processed, run.Applied, run.Ignored, run.Skipped, len(rows), run.FinishedAt.UTC(),
		); err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
		return nil
	})
}

// Accounts returns the stored rows in ascending client order.
func (s *Store) Accounts(ctx context.Context) ([]report.Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT client, available, held, total, locked FROM accounts ORDER BY client`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var out []report.Row
	for rows.Next() {
		var (
			client                 int64
			available, held, total string
			locked                 bool
		)
		if err := rows.Scan(&client, &available, &held, &total, &locked); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}

		row := report.Row{Client: uint16(client), Locked: locked}
		if row.Available, err = parseAmount(available); err != nil {
			return nil, fmt.Errorf("client %d: %w", client, err)
		}
		if row.Held, err = parseAmount(held); err != nil {
			return nil, fmt.Errorf("client %d: %w", client, err)
		}
		if row.Total, err = parseAmount(total); err != nil {
			return nil, fmt.Errorf("client %d: %w", client, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return out, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing stored amount %q: %w", s, err)
	}
	return d, nil
}

// Runs returns the number of recorded runs.
func (s *Store) Runs(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return n, nil
}

func (s *Store) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%v (rollback: %w)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
