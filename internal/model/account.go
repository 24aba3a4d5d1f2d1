package model

import "github.com/shopspring/decimal"

// DisputeState is the dispute lifecycle position of a single deposit.
type DisputeState uint8

const (
	// StateNone is an undisputed deposit. A resolved dispute returns here.
	StateNone DisputeState = iota
	// StateDisputed holds the deposit amount until a resolve or chargeback.
	StateDisputed
	// StateChargeback is terminal: the amount was removed and the account locked.
	StateChargeback
)

func (s DisputeState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateDisputed:
		return "disputed"
	case StateChargeback:
		return "chargeback"
	default:
		return "unknown"
	}
}

// Deposit is a registered deposit that disputes can later refer to.
type Deposit struct {
	Amount decimal.Decimal
	State  DisputeState
}

// ClientAccount is the balance state of one client.
type ClientAccount struct {
	Available decimal.Decimal // usable for withdrawal
	Held      decimal.Decimal // frozen by open disputes
	Total     decimal.Decimal // Available + Held
	Locked    bool            // set by the first chargeback, never cleared

	deposits map[uint32]*Deposit
}

// NewClientAccount returns an empty, unlocked account.
func NewClientAccount() *ClientAccount {
	return &ClientAccount{deposits: make(map[uint32]*Deposit)}
}

// Insert registers a deposit under tx. An existing entry is overwritten.
func (a *ClientAccount) Insert(tx uint32, d *Deposit) {
	if a.deposits == nil {
		a.deposits = make(map[uint32]*Deposit)
	}
	a.deposits[tx] = d
}

// Deposit looks up a registered deposit. The returned pointer is live.
func (a *ClientAccount) Deposit(tx uint32) (*Deposit, bool) {
	d, ok := a.deposits[tx]
	return d, ok
}

// Deposits returns the number of registered deposits.
func (a *ClientAccount) Deposits() int {
	return len(a.deposits)
}

// HasChargeback reports whether any registered deposit was charged back.
func (a *ClientAccount) HasChargeback() bool {
	for _, d := range a.deposits {
		if d.State == StateChargeback {
			return true
		}
	}
	return false
}
