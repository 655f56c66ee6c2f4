package services_test

import (
	"strings"
	"testing"

	"xmr-arcade-backend/internal/services"
	"xmr-arcade-backend/internal/store"
)

func TestLoginOrCreate(t *testing.T) {
	s := store.NewMemoryStore()
	players := services.NewPlayerService(s, &stubWallet{})

	p, err := players.LoginOrCreate("satoshi", "FP-1")
	if err != nil {
		t.Fatalf("First login failed: %v", err)
	}
	if p.Display != "satoshi" {
		t.Errorf("Expected display satoshi, got %s", p.Display)
	}

	again, err := players.LoginOrCreate("satoshi", "FP-1")
	if err != nil {
		t.Fatalf("Repeat login failed: %v", err)
	}
	if again.ID != p.ID {
		t.Error("Same fingerprint should return the same player")
	}

	// a second identity wanting the same display gets digits appended
	other, err := players.LoginOrCreate("satoshi", "FP-2")
	if err != nil {
		t.Fatalf("Colliding login failed: %v", err)
	}
	if other.ID == p.ID {
		t.Fatal("Different fingerprints must be different players")
	}
	if other.Display == "satoshi" || !strings.HasPrefix(other.Display, "satoshi") {
		t.Errorf("Colliding display should be suffixed, got %s", other.Display)
	}
}

func TestEnsureDepositAddress(t *testing.T) {
	s := store.NewMemoryStore()
	players := services.NewPlayerService(s, &stubWallet{})

	p, err := players.LoginOrCreate("alice", "FP-1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if p.HasDepositAddress() {
		t.Fatal("New player should have no deposit address")
	}

	first, err := players.EnsureDepositAddress(p.ID)
	if err != nil {
		t.Fatalf("Failed to issue address: %v", err)
	}
	if !first.HasDepositAddress() {
		t.Fatal("Address should be set after issuance")
	}

	second, err := players.EnsureDepositAddress(p.ID)
	if err != nil {
		t.Fatalf("Repeat call failed: %v", err)
	}
	if second.Address != first.Address || second.AddressIndex != first.AddressIndex {
		t.Error("Repeat calls must return the same address")
	}

	// the player is findable by the issued subaddress index
	byIndex, err := s.GetPlayerByAddressIndex(first.AddressIndex)
	if err != nil {
		t.Fatalf("Lookup by address index failed: %v", err)
	}
	if byIndex.ID != p.ID {
		t.Error("Address index should map back to its player")
	}
}
