package models

// Normalizer converts whole XMR to piconero, the smallest unit. Every
// amount stored anywhere in the system is an int64 piconero value.
const Normalizer int64 = 1_000_000_000_000

type Player struct {
	ID          string `json:"id" redis:"id"`
	Display     string `json:"display" redis:"display"`
	Fingerprint string `json:"fingerprint" redis:"fingerprint"`

	Balance int64 `json:"balance" redis:"balance"`

	// XMR deposit subaddress issued by the wallet transport. Empty until the
	// player first visits the deposit page.
	Address      string `json:"address" redis:"address"`
	AddressIndex uint64 `json:"address_index" redis:"address_index"`

	TimeActive int64 `json:"time_active" redis:"time_active"`
	CreatedAt  int64 `json:"created_at" redis:"created_at"`
}

// HasDepositAddress reports whether the wallet transport has already issued
// a subaddress for this player.
func (p *Player) HasDepositAddress() bool {
	return p.Address != ""
}
