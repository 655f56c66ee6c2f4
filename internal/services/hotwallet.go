package services

import (
	"log"
	"sync"
	"time"

	"xmr-arcade-backend/internal/wallet"
)

// HotWalletStatus caches the custodial wallet balance with the same lazy
// leeway scheme as the rate cache. The values are display-only; nothing in
// the core depends on them.
type HotWalletStatus struct {
	mu        sync.Mutex
	leeway    time.Duration
	wallet    wallet.Client
	balance   wallet.Balance
	updatedAt time.Time
}

func NewHotWalletStatus(w wallet.Client, leeway time.Duration) *HotWalletStatus {
	return &HotWalletStatus{wallet: w, leeway: leeway}
}

func (h *HotWalletStatus) Check() wallet.Balance {
	h.mu.Lock()
	defer h.mu.Unlock()

	if time.Since(h.updatedAt) > h.leeway {
		bal, err := h.wallet.GetBalance()
		if err != nil {
			log.Printf("failed to get hotwallet balance: %v", err)
		} else {
			h.balance = bal
			h.updatedAt = time.Now()
		}
	}
	return h.balance
}
