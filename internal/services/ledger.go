package services

import (
	"fmt"

	"xmr-arcade-backend/internal/store"
)

// Ledger is the single mutator of player balances. Spot purchases, prize
// payouts, deposit credits and withdrawals all go through Debit/Credit; the
// store guarantees both are atomic per player.
type Ledger struct {
	store store.Store
}

func NewLedger(s store.Store) *Ledger {
	return &Ledger{store: s}
}

// Debit subtracts amount from the player's balance. Returns
// ErrInsufficientBalance, with no mutation, when the balance would go
// negative.
func (l *Ledger) Debit(playerID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative debit amount %d", amount)
	}
	return l.store.DebitPlayer(playerID, amount)
}

// Credit adds amount to the player's balance.
func (l *Ledger) Credit(playerID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative credit amount %d", amount)
	}
	return l.store.CreditPlayer(playerID, amount)
}

// Balance reads the current balance without mutating it.
func (l *Ledger) Balance(playerID string) (int64, error) {
	p, err := l.store.GetPlayer(playerID)
	if err != nil {
		return 0, err
	}
	return p.Balance, nil
}
