package services_test

import (
	"errors"
	"testing"
	"time"

	"xmr-arcade-backend/internal/models"
	"xmr-arcade-backend/internal/services"
	"xmr-arcade-backend/internal/store"
	"xmr-arcade-backend/internal/wallet"
)

func TestWithdrawCreateDebitsUpfront(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := services.NewLedger(s)
	withdraws := services.NewWithdrawService(s, ledger, &stubWallet{}, time.Minute)

	alice := s.Seed("alice", "alice", 150)

	req, err := withdraws.Create(alice.ID, 100, "dest-address")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if req.Status != models.WithdrawStatusInitiated {
		t.Errorf("New request should be initiated, got %s", req.Status)
	}

	bal, _ := ledger.Balance(alice.ID)
	if bal != 50 {
		t.Errorf("Amount should be reserved at creation, balance %d", bal)
	}
}

func TestWithdrawCreateInsufficientBalance(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := services.NewLedger(s)
	withdraws := services.NewWithdrawService(s, ledger, &stubWallet{}, time.Minute)

	alice := s.Seed("alice", "alice", 50)

	if _, err := withdraws.Create(alice.ID, 100, "dest-address"); err != services.ErrInsufficientBalance {
		t.Errorf("Expected insufficient balance, got %v", err)
	}

	bal, _ := ledger.Balance(alice.ID)
	if bal != 50 {
		t.Errorf("Failed create must not move balance, got %d", bal)
	}
}

func TestWithdrawProcessSuccess(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := services.NewLedger(s)
	withdraws := services.NewWithdrawService(s, ledger, &stubWallet{}, time.Minute)

	alice := s.Seed("alice", "alice", 150)

	req, err := withdraws.Create(alice.ID, 100, "dest-address")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	withdraws.Process(req)

	got, _ := withdraws.Get(req.ID)
	if got.Status != models.WithdrawStatusSent {
		t.Fatalf("Expected sent, got %s", got.Status)
	}
	if got.TxHash != "txhash" || got.Fee != 30_000_000 {
		t.Errorf("Transfer result not recorded: %s / %d", got.TxHash, got.Fee)
	}

	// terminal requests reject a second success and ignore refunds
	if err := withdraws.Succeed(req.ID, 0, "other"); !errors.Is(err, services.ErrAlreadyTerminal) {
		t.Errorf("Second success should fail, got %v", err)
	}
	if err := withdraws.Refund(req.ID); err != nil {
		t.Errorf("Refund on sent request should be a silent no-op, got %v", err)
	}

	bal, _ := ledger.Balance(alice.ID)
	if bal != 50 {
		t.Errorf("Sent withdrawal must stay debited, balance %d", bal)
	}
}

func TestWithdrawProcessFailureRefunds(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := services.NewLedger(s)
	w := &stubWallet{
		transferFn: func(address string, amount int64) (wallet.TransferResult, error) {
			return wallet.TransferResult{}, errors.New("wallet rpc down")
		},
	}
	withdraws := services.NewWithdrawService(s, ledger, w, time.Minute)

	alice := s.Seed("alice", "alice", 150)

	req, err := withdraws.Create(alice.ID, 100, "dest-address")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	withdraws.Process(req)

	got, _ := withdraws.Get(req.ID)
	if got.Status != models.WithdrawStatusRefunded {
		t.Fatalf("Expected refunded, got %s", got.Status)
	}

	bal, _ := ledger.Balance(alice.ID)
	if bal != 150 {
		t.Errorf("Refund should restore the full balance, got %d", bal)
	}

	// refunding again must not pay twice
	if err := withdraws.Refund(req.ID); err != nil {
		t.Fatalf("Second refund errored: %v", err)
	}
	bal, _ = ledger.Balance(alice.ID)
	if bal != 150 {
		t.Errorf("Double refund detected, balance %d", bal)
	}
}

func TestWithdrawStale(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := services.NewLedger(s)
	withdraws := services.NewWithdrawService(s, ledger, &stubWallet{}, time.Minute)

	alice := s.Seed("alice", "alice", 300)

	stuck, err := withdraws.Create(alice.ID, 100, "dest-address")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	done, err := withdraws.Create(alice.ID, 100, "dest-address")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	withdraws.Process(done)

	stale, err := withdraws.Stale()
	if err != nil {
		t.Fatalf("Stale failed: %v", err)
	}
	// nothing is a minute old yet
	if len(stale) != 0 {
		t.Errorf("Expected no stale requests, got %d", len(stale))
	}

	instant := services.NewWithdrawService(s, ledger, &stubWallet{}, -time.Second)
	stale, err = instant.Stale()
	if err != nil {
		t.Fatalf("Stale failed: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != stuck.ID {
		t.Errorf("Only the unresolved request should be stale, got %d", len(stale))
	}
}
