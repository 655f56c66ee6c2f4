package services_test

import (
	"errors"
	"testing"

	"xmr-arcade-backend/internal/services"
	"xmr-arcade-backend/internal/store"
	"xmr-arcade-backend/internal/wallet"
)

// stubWallet satisfies wallet.Client without a running monero-wallet-rpc.
type stubWallet struct {
	balance    wallet.Balance
	transfers  []wallet.IncomingTransfer
	transferFn func(address string, amount int64) (wallet.TransferResult, error)
	nextIndex  uint64
}

func (w *stubWallet) GetBalance() (wallet.Balance, error) {
	return w.balance, nil
}

func (w *stubWallet) CreateAddress() (wallet.Address, error) {
	w.nextIndex++
	return wallet.Address{Address: "sub-address", AddressIndex: w.nextIndex}, nil
}

func (w *stubWallet) IncomingTransfers(minHeight int64) ([]wallet.IncomingTransfer, error) {
	var out []wallet.IncomingTransfer
	for _, t := range w.transfers {
		if t.BlockHeight >= minHeight {
			out = append(out, t)
		}
	}
	return out, nil
}

func (w *stubWallet) Transfer(address string, amount int64) (wallet.TransferResult, error) {
	if w.transferFn != nil {
		return w.transferFn(address, amount)
	}
	return wallet.TransferResult{TxHash: "txhash", Fee: 30_000_000}, nil
}

func TestDepositCreditOnce(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := services.NewLedger(s)
	w := &stubWallet{}
	deposits := services.NewDepositService(s, ledger, w, 0)

	alice := s.Seed("alice", "alice", 0)
	if err := s.SetDepositAddress(alice.ID, "sub-address", 7); err != nil {
		t.Fatalf("Failed to set deposit address: %v", err)
	}

	transfer := wallet.IncomingTransfer{
		TxHash:       "aaa111",
		AddressIndex: 7,
		Amount:       50_000_000_000,
		BlockHeight:  100,
		Unlocked:     true,
	}

	if err := deposits.Ingest([]wallet.IncomingTransfer{transfer}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	// seeing the same transaction again is normal during rescans
	if err := deposits.Ingest([]wallet.IncomingTransfer{transfer}); err != nil {
		t.Fatalf("Re-ingest should be silent: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := deposits.Credit("aaa111"); err != nil {
			t.Fatalf("Credit %d failed: %v", i, err)
		}
	}

	bal, _ := ledger.Balance(alice.ID)
	if bal != 50_000_000_000 {
		t.Errorf("Deposit should credit exactly once, balance %d", bal)
	}
}

func TestDepositCreditUnknownTx(t *testing.T) {
	s := store.NewMemoryStore()
	deposits := services.NewDepositService(s, services.NewLedger(s), &stubWallet{}, 0)

	if err := deposits.Credit("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Crediting an unknown tx should fail with not found, got %v", err)
	}
}

func TestDepositCreditUnmatchedAddress(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := services.NewLedger(s)
	deposits := services.NewDepositService(s, ledger, &stubWallet{}, 0)

	transfer := wallet.IncomingTransfer{
		TxHash:       "bbb222",
		AddressIndex: 99,
		Amount:       10_000_000_000,
		BlockHeight:  100,
		Unlocked:     true,
	}
	if err := deposits.Ingest([]wallet.IncomingTransfer{transfer}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	// no player owns index 99: the claim is consumed, no error surfaces
	if err := deposits.Credit("bbb222"); err != nil {
		t.Errorf("Unmatched deposit should not error, got %v", err)
	}
}

func TestDepositSweep(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := services.NewLedger(s)
	w := &stubWallet{
		transfers: []wallet.IncomingTransfer{
			{TxHash: "ccc333", AddressIndex: 3, Amount: 25_000_000_000, BlockHeight: 50, Unlocked: true},
			{TxHash: "ddd444", AddressIndex: 3, Amount: 10_000_000_000, BlockHeight: 60, Unlocked: false},
		},
	}
	deposits := services.NewDepositService(s, ledger, w, 0)

	alice := s.Seed("alice", "alice", 0)
	if err := s.SetDepositAddress(alice.ID, "sub-address", 3); err != nil {
		t.Fatalf("Failed to set deposit address: %v", err)
	}

	if err := deposits.Sweep(); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	bal, _ := ledger.Balance(alice.ID)
	if bal != 25_000_000_000 {
		t.Errorf("Only the unlocked transfer should credit, balance %d", bal)
	}

	// the locked transfer unlocks and the next sweep picks it up
	w.transfers[1].Unlocked = true
	if err := deposits.Sweep(); err != nil {
		t.Fatalf("Second sweep failed: %v", err)
	}

	bal, _ = ledger.Balance(alice.ID)
	if bal != 35_000_000_000 {
		t.Errorf("Expected both transfers credited once each, balance %d", bal)
	}
}
