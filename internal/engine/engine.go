// Package engine applies transaction records to a ledger.
//
// Each record is applied in input order. Rule violations (locked account,
// insufficient funds, unknown deposit, illegal dispute transition) are never
// errors: the record is skipped and the reason is reported as an Outcome.
package engine

import (
	"fmt"
	"iter"

	"github.com/cleared-dev/txengine/internal/ledger"
	"github.com/cleared-dev/txengine/internal/metrics"
	"github.com/cleared-dev/txengine/internal/model"
	"github.com/cleared-dev/txengine/internal/money"
)

// DuplicatePolicy decides what a deposit reusing a registered tx id does.
type DuplicatePolicy string

const (
	// DuplicateOverwrite applies the deposit and replaces the registry entry.
	DuplicateOverwrite DuplicatePolicy = "overwrite"
	// DuplicateIgnore keeps the first deposit and skips the later one.
	DuplicateIgnore DuplicatePolicy = "ignore"
)

// ParseDuplicatePolicy validates a policy name. An empty name selects DuplicateOverwrite.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case "", DuplicateOverwrite:
		return DuplicateOverwrite, nil
	case DuplicateIgnore:
		return DuplicateIgnore, nil
	default:
		return "", fmt.Errorf("unknown duplicate deposit policy %q (want %q or %q)", s, DuplicateOverwrite, DuplicateIgnore)
	}
}

// Observer is called after every applied or ignored transaction.
type Observer func(tx model.Transaction, outcome Outcome)

// Option configures an Engine.
type Option func(*Engine)

// WithDuplicateDeposits sets the duplicate deposit policy.
func WithDuplicateDeposits(p DuplicatePolicy) Option {
	return func(e *Engine) { e.duplicates = p }
}

// WithMetrics records outcomes on m instead of a private set of counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithObserver registers fn to receive every (transaction, outcome) pair.
func WithObserver(fn Observer) Option {
	return func(e *Engine) { e.observe = fn }
}

// Engine is the transaction dispatcher bound to one ledger.
type Engine struct {
	ledger     *ledger.Ledger
	duplicates DuplicatePolicy
	observe    Observer
	metrics    *metrics.Metrics
}

// New creates an Engine that mutates l.
func New(l *ledger.Ledger, opts ...Option) *Engine {
	e := &Engine{ledger: l, duplicates: DuplicateOverwrite}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.New()
	}
	return e
}

// Apply applies tx to l with the default options.
func Apply(tx model.Transaction, l *ledger.Ledger) Outcome {
	return New(l).Apply(tx)
}

// Ledger returns the ledger the engine mutates.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Apply applies a single transaction and reports its outcome.
func (e *Engine) Apply(tx model.Transaction) Outcome {
	outcome := e.dispatch(tx)
	if outcome.Ignored() {
		e.metrics.Ignored(tx.Kind.String(), outcome.String())
	} else {
		e.metrics.Applied(tx.Kind.String())
	}
	if e.observe != nil {
		e.observe(tx, outcome)
	}
	return outcome
}

// Run applies every transaction of txs in order and returns the engine's
// accumulated Stats.
func (e *Engine) Run(txs iter.Seq[model.Transaction]) (Stats, error) {
	for tx := range txs {
		e.Apply(tx)
	}
	return e.Stats()
}

// Stats reads the counters the engine records into.
func (e *Engine) Stats() (Stats, error) {
	totals, err := e.metrics.Totals()
	if err != nil {
		return Stats{}, err
	}
	return statsFromTotals(totals), nil
}

func (e *Engine) dispatch(tx model.Transaction) Outcome {
	switch tx.Kind {
	case model.KindDeposit:
		return e.deposit(tx)
	case model.KindWithdrawal:
		return e.withdrawal(tx)
	case model.KindDispute:
		return e.dispute(tx)
	case model.KindResolve:
		return e.resolve(tx)
	case model.KindChargeback:
		return e.chargeback(tx)
	default:
		return IgnoredUnknownKind
	}
}

func (e *Engine) deposit(tx model.Transaction) Outcome {
	acct := e.ledger.GetOrCreate(tx.Client)
	if acct.Locked {
		return IgnoredLocked
	}
	if e.duplicates == DuplicateIgnore {
		if _, exists := acct.Deposit(tx.Tx); exists {
			return IgnoredDuplicateDeposit
		}
	}

	acct.Available = money.SaturatingAdd(acct.Available, tx.Amount)
	acct.Total = money.SaturatingAdd(acct.Total, tx.Amount)
	acct.Insert(tx.Tx, &model.Deposit{Amount: tx.Amount, State: model.StateNone})
	return Applied
}

func (e *Engine) withdrawal(tx model.Transaction) Outcome {
	acct := e.ledger.GetOrCreate(tx.Client)
	if acct.Locked {
		return IgnoredLocked
	}
	if acct.Available.LessThan(tx.Amount) {
		return IgnoredInsufficientFunds
	}

	acct.Available = money.SaturatingSub(acct.Available, tx.Amount)
	acct.Total = money.SaturatingSub(acct.Total, tx.Amount)
	return Applied
}

// lookup finds the deposit a dispute-lifecycle record refers to. The lookup is
// scoped to the record's own client, so a record naming the wrong client finds
// nothing. When ok is false, miss says why.
func (e *Engine) lookup(tx model.Transaction) (acct *model.ClientAccount, dep *model.Deposit, miss Outcome, ok bool) {
	acct, ok = e.ledger.Get(tx.Client)
	if !ok {
		return nil, nil, IgnoredUnknownAccount, false
	}
	dep, ok = acct.Deposit(tx.Tx)
	if !ok {
		return nil, nil, IgnoredUnknownDeposit, false
	}
	return acct, dep, 0, true
}

func (e *Engine) dispute(tx model.Transaction) Outcome {
	acct, dep, miss, ok := e.lookup(tx)
	if !ok {
		return miss
	}
	if dep.State != model.StateNone {
		return IgnoredNotDisputable
	}

	// The recorded amount is held even if it has since been withdrawn, which
	// can leave available negative.
	acct.Held = money.SaturatingAdd(acct.Held, dep.Amount)
	acct.Available = money.SaturatingSub(acct.Available, dep.Amount)
	dep.State = model.StateDisputed
	return Applied
}

func (e *Engine) resolve(tx model.Transaction) Outcome {
	acct, dep, miss, ok := e.lookup(tx)
	if !ok {
		return miss
	}
	if dep.State != model.StateDisputed {
		return IgnoredNotDisputed
	}

	acct.Held = money.SaturatingSub(acct.Held, dep.Amount)
	acct.Available = money.SaturatingAdd(acct.Available, dep.Amount)
	dep.State = model.StateNone
	return Applied
}

func (e *Engine) chargeback(tx model.Transaction) Outcome {
	acct, dep, miss, ok := e.lookup(tx)
	if !ok {
		return miss
	}
	if dep.State != model.StateDisputed {
		return IgnoredNotDisputed
	}

	acct.Held = money.SaturatingSub(acct.Held, dep.Amount)
	acct.Total = money.SaturatingSub(acct.Total, dep.Amount)
	dep.State = model.StateChargeback
	acct.Locked = true
	return Applied
}
