package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind identifies one of the five transaction types.
type Kind uint8

const (
	KindDeposit Kind = iota + 1
	KindWithdrawal
	KindDispute
	KindResolve
	KindChargeback
)

// ErrUnknownKind is returned by ParseKind for an unrecognized type name.
var ErrUnknownKind = errors.New("unknown transaction type")

var kindNames = map[Kind]string{
	KindDeposit:    "deposit",
	KindWithdrawal: "withdrawal",
	KindDispute:    "dispute",
	KindResolve:    "resolve",
	KindChargeback: "chargeback",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a type column value ("deposit", "withdrawal", ...) to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// CarriesAmount reports whether transactions of this kind move funds themselves.
// Disputes, resolves and chargebacks act on the amount of a prior deposit.
func (k Kind) CarriesAmount() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// Transaction is one typed input record.
type Transaction struct {
	Kind   Kind
	Client uint16
	Tx     uint32
	Amount decimal.Decimal // zero unless Kind.CarriesAmount()
}

// DepositTx builds a deposit record.
func DepositTx(client uint16, tx uint32, amount decimal.Decimal) Transaction {
	return Transaction{Kind: KindDeposit, Client: client, Tx: tx, Amount: amount}
}

// WithdrawalTx builds a withdrawal record.
func WithdrawalTx(client uint16, tx uint32, amount decimal.Decimal) Transaction {
	return Transaction{Kind: KindWithdrawal, Client: client, Tx: tx, Amount: amount}
}

// DisputeTx builds a dispute record referencing deposit tx of client.
func DisputeTx(client uint16, tx uint32) Transaction {
	return Transaction{Kind: KindDispute, Client: client, Tx: tx}
}

// ResolveTx builds a resolve record.
func ResolveTx(client uint16, tx uint32) Transaction {
	return Transaction{Kind: KindResolve, Client: client, Tx: tx}
}

// ChargebackTx builds a chargeback record.
func ChargebackTx(client uint16, tx uint32) Transaction {
	return Transaction{Kind: KindChargeback, Client: client, Tx: tx}
}
