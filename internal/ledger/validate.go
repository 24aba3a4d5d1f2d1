package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/txengine/internal/model"
)

// Invariant numbers reported in ValidationError.
const (
	InvariantTotal         = 1 // total == available + held
	InvariantHeld          = 2 // held >= 0
	InvariantLockedHistory = 5 // locked implies a charged-back deposit
)

// ValidationError describes a single invariant violation on one account.
type ValidationError struct {
	Invariant   int
	Client      uint16
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [client %d]: %s", e.Invariant, e.Client, e.Description)
}

// Validate checks the account invariants over every account in l.
func Validate(l *Ledger) []ValidationError {
	var errs []ValidationError
	l.Each(func(client uint16, acct *model.ClientAccount) {
		errs = append(errs, ValidateAccount(client, acct)...)
	})
	return errs
}

// ValidateAccount checks the invariants of a single account.
func ValidateAccount(client uint16, acct *model.ClientAccount) []ValidationError {
	var errs []ValidationError

	if sum := acct.Available.Add(acct.Held); !acct.Total.Equal(sum) {
		errs = append(errs, ValidationError{
			Invariant:   InvariantTotal,
			Client:      client,
			Description: fmt.Sprintf("total (%s) != available (%s) + held (%s)", acct.Total, acct.Available, acct.Held),
		})
	}

	if acct.Held.LessThan(decimal.Zero) {
		errs = append(errs, ValidationError{
			Invariant:   InvariantHeld,
			Client:      client,
			Description: fmt.Sprintf("held is negative: %s", acct.Held),
		})
	}

	if acct.Locked && !acct.HasChargeback() {
		errs = append(errs, ValidationError{
			Invariant:   InvariantLockedHistory,
			Client:      client,
			Description: "account is locked but has no charged-back deposit",
		})
	}

	return errs
}
