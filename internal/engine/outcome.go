package engine

import (
	"fmt"

	"github.com/cleared-dev/txengine/internal/metrics"
)

// Outcome reports what applying a single transaction did. Every outcome other
// than Applied is a no-op on the ledger.
type Outcome uint8

const (
	Applied Outcome = iota
	IgnoredLocked
	IgnoredInsufficientFunds
	IgnoredUnknownAccount
	IgnoredUnknownDeposit
	IgnoredNotDisputable // deposit is already disputed or charged back
	IgnoredNotDisputed   // resolve/chargeback on a deposit that is not disputed
	IgnoredDuplicateDeposit
	IgnoredUnknownKind
)

var outcomeNames = [...]string{
	Applied:                  "applied",
	IgnoredLocked:            "account_locked",
	IgnoredInsufficientFunds: "insufficient_funds",
	IgnoredUnknownAccount:    "unknown_account",
	IgnoredUnknownDeposit:    "unknown_deposit",
	IgnoredNotDisputable:     "not_disputable",
	IgnoredNotDisputed:       "not_disputed",
	IgnoredDuplicateDeposit:  "duplicate_deposit",
	IgnoredUnknownKind:       "unknown_kind",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

// Ignored reports whether the transaction left the ledger unchanged.
func (o Outcome) Ignored() bool {
	return o != Applied
}

// Stats summarizes the records an engine has seen. Skipped counts malformed
// rows recorded on the same metrics by the ingestion side.
type Stats struct {
	Processed int
	Applied   int
	Ignored   int
	Skipped   int
	ByOutcome map[Outcome]int
}

func statsFromTotals(t metrics.Totals) Stats {
	s := Stats{
		Processed: t.Applied + t.Ignored,
		Applied:   t.Applied,
		Ignored:   t.Ignored,
		Skipped:   t.Skipped,
		ByOutcome: make(map[Outcome]int),
	}
	if t.Applied > 0 {
		s.ByOutcome[Applied] = t.Applied
	}
	for reason, n := range t.ByReason {
		if o, ok := parseOutcome(reason); ok {
			s.ByOutcome[o] += n
		}
	}
	return s
}

func parseOutcome(name string) (Outcome, bool) {
	for i, n := range outcomeNames {
		if n == name {
			return Outcome(i), true
		}
	}
	return 0, false
}
