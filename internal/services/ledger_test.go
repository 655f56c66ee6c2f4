package services_test

import (
	"sync"
	"testing"

	"xmr-arcade-backend/internal/services"
	"xmr-arcade-backend/internal/store"
)

func TestLedgerDebitCredit(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := services.NewLedger(s)
	s.Seed("alice", "alice", 100)

	if err := ledger.Debit("alice", 40); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if err := ledger.Credit("alice", 15); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	bal, err := ledger.Balance("alice")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if bal != 75 {
		t.Errorf("Expected balance 75, got %d", bal)
	}
}

func TestLedgerNoOverdraft(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := services.NewLedger(s)
	s.Seed("alice", "alice", 100)

	if err := ledger.Debit("alice", 101); err != services.ErrInsufficientBalance {
		t.Errorf("Expected insufficient balance, got %v", err)
	}

	bal, _ := ledger.Balance("alice")
	if bal != 100 {
		t.Errorf("Failed debit must not move balance, got %d", bal)
	}

	// boundary: debiting the exact balance is allowed
	if err := ledger.Debit("alice", 100); err != nil {
		t.Errorf("Debit to zero should succeed: %v", err)
	}
}

func TestLedgerRejectsNegativeAmounts(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := services.NewLedger(s)
	s.Seed("alice", "alice", 100)

	if err := ledger.Debit("alice", -1); err == nil {
		t.Error("Negative debit should be rejected")
	}
	if err := ledger.Credit("alice", -1); err == nil {
		t.Error("Negative credit should be rejected")
	}

	bal, _ := ledger.Balance("alice")
	if bal != 100 {
		t.Errorf("Rejected amounts must not move balance, got %d", bal)
	}
}

func TestLedgerConcurrentDebits(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := services.NewLedger(s)
	s.Seed("alice", "alice", 100)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ledger.Debit("alice", 30)
		}()
	}
	wg.Wait()
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
		} else if err != services.ErrInsufficientBalance {
			t.Errorf("Unexpected debit error: %v", err)
		}
	}
	if ok != 3 {
		t.Errorf("Expected exactly 3 debits of 30 from 100, got %d", ok)
	}

	bal, _ := ledger.Balance("alice")
	if bal != 10 {
		t.Errorf("Expected final balance 10, got %d", bal)
	}
}
