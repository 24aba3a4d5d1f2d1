package ledger

import (
	"slices"

	"github.com/cleared-dev/txengine/internal/model"
)

// Ledger maps client ids to their accounts. Accounts are created on first
// reference and never removed.
type Ledger struct {
	byClient map[uint16]*model.ClientAccount
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{byClient: make(map[uint16]*model.ClientAccount)}
}

// GetOrCreate returns the account for client, creating an empty one if needed.
func (l *Ledger) GetOrCreate(client uint16) *model.ClientAccount {
	acct, ok := l.byClient[client]
	if !ok {
		acct = model.NewClientAccount()
		l.byClient[client] = acct
	}
	return acct
}

// Get returns the account for client without creating it.
func (l *Ledger) Get(client uint16) (*model.ClientAccount, bool) {
	acct, ok := l.byClient[client]
	return acct, ok
}

// Len returns the number of accounts.
func (l *Ledger) Len() int {
	return len(l.byClient)
}

// Clients returns all client ids in ascending order.
func (l *Ledger) Clients() []uint16 {
	ids := make([]uint16, 0, len(l.byClient))
	for id := range l.byClient {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Each calls fn for every account in ascending client order.
func (l *Ledger) Each(fn func(client uint16, acct *model.ClientAccount)) {
	for _, id := range l.Clients() {
		fn(id, l.byClient[id])
	}
}
