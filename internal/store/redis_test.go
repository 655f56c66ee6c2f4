package store_test

import (
	"testing"
	"time"

	"xmr-arcade-backend/internal/config"
	"xmr-arcade-backend/internal/models"
	"xmr-arcade-backend/internal/store"
)

func setupTestRedis(t *testing.T) *store.RedisStore {
	t.Helper()

	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   1,
	}

	s, err := store.NewRedisStore(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRedisBalanceOperations(t *testing.T) {
	s := setupTestRedis(t)

	p := &models.Player{
		ID:          models.NewID(),
		Display:     "redis-balance-" + models.NewID(),
		Fingerprint: models.NewID(),
		Balance:     100,
		CreatedAt:   models.Now(),
	}
	if err := s.CreatePlayer(p); err != nil {
		t.Fatalf("Failed to create player: %v", err)
	}

	if err := s.DebitPlayer(p.ID, 101); err != store.ErrInsufficientBalance {
		t.Errorf("Overdraft should fail, got %v", err)
	}
	if err := s.DebitPlayer(p.ID, 60); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if err := s.CreditPlayer(p.ID, 10); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	got, err := s.GetPlayer(p.ID)
	if err != nil {
		t.Fatalf("Failed to get player: %v", err)
	}
	if got.Balance != 50 {
		t.Errorf("Expected balance 50, got %d", got.Balance)
	}
}

func TestRedisSpotExclusivity(t *testing.T) {
	s := setupTestRedis(t)

	roundID := models.NewID()
	first := &models.Spot{ID: models.NewID(), RoundID: roundID, SpotNum: 1, PlayerID: "p1"}
	second := &models.Spot{ID: models.NewID(), RoundID: roundID, SpotNum: 1, PlayerID: "p2"}

	if err := s.CreateSpot(first); err != nil {
		t.Fatalf("Failed to create spot: %v", err)
	}
	if err := s.CreateSpot(second); err != store.ErrSpotTaken {
		t.Errorf("Duplicate spot should be rejected, got %v", err)
	}

	got, err := s.GetSpot(roundID, 1)
	if err != nil {
		t.Fatalf("Failed to get spot: %v", err)
	}
	if got.PlayerID != "p1" {
		t.Errorf("First writer should own the spot, got %s", got.PlayerID)
	}
}

func TestRedisWithdrawStatusClaim(t *testing.T) {
	s := setupTestRedis(t)

	w := &models.WithdrawRequest{
		ID:        models.NewID(),
		PlayerID:  "p1",
		Amount:    100,
		Status:    models.WithdrawStatusInitiated,
		CreatedAt: models.Now(),
	}
	if err := s.CreateWithdraw(w); err != nil {
		t.Fatalf("Failed to create withdraw: %v", err)
	}

	won, err := s.MarkWithdrawSent(w.ID, 5, "txhash")
	if err != nil {
		t.Fatalf("MarkWithdrawSent failed: %v", err)
	}
	if !won {
		t.Fatal("First claim should win")
	}

	if won, _ := s.MarkWithdrawSent(w.ID, 5, "other"); won {
		t.Error("Second sent claim should lose")
	}
	if won, _ := s.MarkWithdrawRefunded(w.ID); won {
		t.Error("Refund claim on a sent request should lose")
	}

	got, err := s.GetWithdraw(w.ID)
	if err != nil {
		t.Fatalf("Failed to get withdraw: %v", err)
	}
	if got.Status != models.WithdrawStatusSent || got.TxHash != "txhash" {
		t.Errorf("Claim result not recorded: %s / %s", got.Status, got.TxHash)
	}
}

func TestRedisTransactionClaim(t *testing.T) {
	s := setupTestRedis(t)

	txHash := models.NewID()
	tx := &models.DepositTransaction{
		ID:           models.NewID(),
		TxHash:       txHash,
		AddressIndex: 1,
		Amount:       100,
		CreatedAt:    models.Now(),
	}
	if err := s.InsertTransactions([]*models.DepositTransaction{tx}); err != nil {
		t.Fatalf("Failed to insert transaction: %v", err)
	}
	// re-ingest of a known hash is silent
	if err := s.InsertTransactions([]*models.DepositTransaction{tx}); err != nil {
		t.Fatalf("Re-insert failed: %v", err)
	}

	won, err := s.ClaimTransactionCredit(txHash)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if !won {
		t.Fatal("First credit claim should win")
	}
	if won, _ := s.ClaimTransactionCredit(txHash); won {
		t.Error("Second credit claim should lose")
	}

	if _, err := s.ClaimTransactionCredit("unknown-" + models.NewID()); err != store.ErrNotFound {
		t.Errorf("Claiming an unknown tx should fail with not found, got %v", err)
	}
}

func TestRedisRateLimit(t *testing.T) {
	s := setupTestRedis(t)

	key := "test:" + models.NewID()
	for i := 0; i < 3; i++ {
		allowed, err := s.CheckRateLimit(key, 3, time.Minute)
		if err != nil {
			t.Fatalf("Rate limit check failed: %v", err)
		}
		if !allowed {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}

	allowed, err := s.CheckRateLimit(key, 3, time.Minute)
	if err != nil {
		t.Fatalf("Rate limit check failed: %v", err)
	}
	if allowed {
		t.Error("Fourth request should exceed the limit")
	}
}
