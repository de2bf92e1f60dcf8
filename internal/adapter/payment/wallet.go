// Package payment provides the default in-process payment rail. The spec
// treats the rail as an external collaborator; this implementation keeps
// per-account balances in memory so the system runs end to end without an
// outside processor.
package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/provly/provenance/internal/core/domain"
	"github.com/provly/provenance/internal/port"
)

var ErrInsufficientFunds = fmt.Errorf("insufficient funds: %w", domain.ErrInvalidState)

type Wallet struct {
	mu       sync.Mutex
	balances map[string]int64
}

func NewWallet() *Wallet {
	return &Wallet{balances: make(map[string]int64)}
}

func (w *Wallet) Deposit(account string, amount int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[account] += amount
}

func (w *Wallet) Balance(account string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[account]
}

// Settle applies the whole settlement under one lock: the payer is debited
// the payment and the three splits are credited, or nothing happens. The
// payer's net debit is Payment - Refund, i.e. the sale price.
func (w *Wallet) Settle(_ context.Context, s port.Settlement) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.balances[s.Payer] < s.Payment {
		return fmt.Errorf("account %q holds %d, needs %d: %w", s.Payer, w.balances[s.Payer], s.Payment, ErrInsufficientFunds)
	}

	w.balances[s.Payer] -= s.Payment
	w.balances[s.Seller] += s.SellerAmount
	w.balances[s.Platform] += s.Fee
	if s.Refund > 0 {
		w.balances[s.Payer] += s.Refund
	}
	return nil
}
