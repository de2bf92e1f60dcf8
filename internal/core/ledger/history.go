package ledger

import (
	"fmt"
	"time"

	"github.com/provly/provenance/internal/core/domain"
)

// Append adds one entry to the end of the item's history and returns it.
// Entries are never mutated in place.
func (l *Ledger) Append(id uint64, from, to string, kind domain.TransactionKind, price int64, at time.Time) domain.Transaction {
	entry := domain.Transaction{
		From:  from,
		To:    to,
		At:    at,
		Kind:  kind,
		Price: price,
	}
	l.history[id] = append(l.history[id], entry)
	return entry
}

// DropLast discards the most recent history entry for the item. Used only to
// unwind a mutation whose settlement failed before commit; committed history
// is append-only.
func (l *Ledger) DropLast(id uint64) {
	entries := l.history[id]
	if len(entries) == 0 {
		return
	}
	l.history[id] = entries[:len(entries)-1]
}

// History returns a copy of the item's ordered transaction history. An
// identifier that was never assigned has no history.
func (l *Ledger) History(id uint64) ([]domain.Transaction, error) {
	if id == 0 || id > l.lastID {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	return append([]domain.Transaction{}, l.history[id]...), nil
}
