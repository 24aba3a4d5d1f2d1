package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/txengine/internal/auditlog"
	"github.com/cleared-dev/txengine/internal/config"
	"github.com/cleared-dev/txengine/internal/engine"
	"github.com/cleared-dev/txengine/internal/ingest"
	"github.com/cleared-dev/txengine/internal/ledger"
	"github.com/cleared-dev/txengine/internal/logging"
	"github.com/cleared-dev/txengine/internal/metrics"
	"github.com/cleared-dev/txengine/internal/model"
	"github.com/cleared-dev/txengine/internal/report"
	"github.com/cleared-dev/txengine/internal/snapshot"
)

type processOptions struct {
	input       string
	configPath  string
	auditPath   string
	snapshotDB  string
	logLevel    string
	logLevelSet bool
}

// loadConfig resolves settings: flags over env over file over defaults.
func loadConfig(opts processOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.LoadEnv(cfg, ""); err != nil {
		return nil, err
	}
	if opts.logLevelSet {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runProcess(cmd *cobra.Command, opts processOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	log := logging.New(cmd.ErrOrStderr(), "txengine", cfg.Log.Level)

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	var audit *auditlog.Writer
	var auditErr error
	if opts.auditPath != "" {
		audit, err = auditlog.Create(opts.auditPath)
		if err != nil {
			return err
		}
		defer audit.Close()
	}
	record := func(e auditlog.Entry) {
		if audit == nil || auditErr != nil {
			return
		}
		auditErr = audit.Record(e)
	}

	counters := metrics.New()
	reader := ingest.NewReader(f)
	reader.OnSkip(func(s ingest.Skip) {
		counters.Skipped()
		log.Debug().Int("line", s.Line).Err(s.Err).Msg("skipping malformed row")
		record(auditlog.FromSkip(s))
	})

	eng := engine.New(ledger.New(),
		engine.WithDuplicateDeposits(cfg.DuplicatePolicy()),
		engine.WithMetrics(counters),
		engine.WithObserver(func(tx model.Transaction, outcome engine.Outcome) {
			if !outcome.Ignored() {
				return
			}
			log.Debug().
				Int("line", reader.Line()).
				Stringer("type", tx.Kind).
				Uint16("client", tx.Client).
				Uint32("tx", tx.Tx).
				Stringer("outcome", outcome).
				Msg("transaction ignored")
			record(auditlog.FromTransaction(reader.Line(), tx, outcome))
		}),
	)

	stats, err := eng.Run(reader.All())
	if err != nil {
		return err
	}
	if err := reader.Err(); err != nil {
		return err
	}
	if auditErr != nil {
		return auditErr
	}

	// Saturation at the balance bounds can break total == available + held.
	// Those accounts are reported, not dropped.
	for _, v := range ledger.Validate(eng.Ledger()) {
		log.Error().Int("invariant", v.Invariant).Uint16("client", v.Client).Msg(v.Description)
	}

	rows := report.Rows(eng.Ledger(), cfg.Output.Precision)
	if err := report.WriteAccounts(cmd.OutOrStdout(), rows); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	audited := 0
	if audit != nil {
		audited = audit.Entries()
		if err := audit.Close(); err != nil {
			return err
		}
	}

	if opts.snapshotDB != "" {
		if err := exportSnapshot(cmd, log, opts, rows, stats); err != nil {
			return err
		}
	}

	logSummary(log, opts.input, stats, len(rows), audited)
	return nil
}

func exportSnapshot(cmd *cobra.Command, log zerolog.Logger, opts processOptions, rows []report.Row, stats engine.Stats) error {
	ctx := cmd.Context()
	store, err := snapshot.Open(ctx, opts.snapshotDB)
	if err != nil {
		return err
	}
	run := snapshot.Run{
		Source:     opts.input,
		Processed:  stats.Processed,
		Applied:    stats.Applied,
		Ignored:    stats.Ignored,
		Skipped:    stats.Skipped,
		FinishedAt: time.Now(),
	}
	if err := store.Save(ctx, rows, run); err != nil {
		return errors.Join(fmt.Errorf("saving snapshot: %w", err), store.Close())
	}
	runs, err := store.Runs(ctx)
	if err != nil {
		return errors.Join(err, store.Close())
	}
	log.Info().Str("path", store.Path()).Int("runs", runs).Msg("snapshot exported")
	return store.Close()
}

func logSummary(log zerolog.Logger, input string, stats engine.Stats, accounts, audited int) {
	ev := log.Info().
		Str("input", input).
		Int("processed", stats.Processed).
		Int("applied", stats.Applied).
		Int("ignored", stats.Ignored).
		Int("skipped", stats.Skipped).
		Int("accounts", accounts).
		Int("audited", audited)
	for outcome, n := range stats.ByOutcome {
		if outcome.Ignored() {
			ev = ev.Int(outcome.String(), n)
		}
	}
	ev.Msg("run complete")
}
