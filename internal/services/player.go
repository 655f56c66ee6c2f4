package services

import (
	"fmt"
	"math/rand"

	"xmr-arcade-backend/internal/models"
	"xmr-arcade-backend/internal/store"
	"xmr-arcade-backend/internal/wallet"
)

// PlayerService handles account creation and deposit-address issuance. The
// PGP challenge flow itself lives outside the core; it calls LoginOrCreate
// once a fingerprint is verified.
type PlayerService struct {
	store  store.Store
	wallet wallet.Client
}

func NewPlayerService(s store.Store, w wallet.Client) *PlayerService {
	return &PlayerService{store: s, wallet: w}
}

func (ps *PlayerService) Get(playerID string) (*models.Player, error) {
	return ps.store.GetPlayer(playerID)
}

// LoginOrCreate returns the player for a verified fingerprint, creating one
// on first login. A taken display name gets random digits appended until it
// is free.
func (ps *PlayerService) LoginOrCreate(display, fingerprint string) (*models.Player, error) {
	if p, err := ps.store.GetPlayerByFingerprint(fingerprint); err == nil {
		return p, nil
	} else if err != store.ErrNotFound {
		return nil, err
	}

	for {
		if _, err := ps.store.GetPlayerByDisplay(display); err == store.ErrNotFound {
			break
		} else if err != nil {
			return nil, err
		}
		display += fmt.Sprintf("%d", rand.Intn(10))
	}

	p := &models.Player{
		ID:          models.NewID(),
		Display:     display,
		Fingerprint: fingerprint,
		TimeActive:  models.Now(),
		CreatedAt:   models.Now(),
	}
	if err := ps.store.CreatePlayer(p); err != nil {
		return nil, err
	}
	return p, nil
}

// EnsureDepositAddress issues a wallet subaddress for the player if they
// have none yet.
func (ps *PlayerService) EnsureDepositAddress(playerID string) (*models.Player, error) {
	p, err := ps.store.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}
	if p.HasDepositAddress() {
		return p, nil
	}

	addr, err := ps.wallet.CreateAddress()
	if err != nil {
		return nil, fmt.Errorf("failed to create deposit address: %v", err)
	}
	if err := ps.store.SetDepositAddress(p.ID, addr.Address, addr.AddressIndex); err != nil {
		return nil, err
	}

	p.Address = addr.Address
	p.AddressIndex = addr.AddressIndex
	return p, nil
}
