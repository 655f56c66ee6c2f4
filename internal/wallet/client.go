// Package wallet defines the narrow contract the core consumes from the
// custodial hot wallet. The core never reaches around it: address issuance,
// transaction scanning and outbound transfers all come through Client.
package wallet

type Balance struct {
	Balance         int64  `json:"balance"`
	UnlockedBalance int64  `json:"unlocked_balance"`
	BlocksToUnlock  uint64 `json:"blocks_to_unlock"`
}

type Address struct {
	Address      string `json:"address"`
	AddressIndex uint64 `json:"address_index"`
}

// IncomingTransfer is one observed inbound transaction. AddressIndex is the
// subaddress minor index, which maps back to a player.
type IncomingTransfer struct {
	TxHash       string
	AddressIndex uint64
	Amount       int64
	BlockHeight  int64
	Unlocked     bool
}

type TransferResult struct {
	TxHash string
	Fee    int64
}

type Client interface {
	GetBalance() (Balance, error)
	CreateAddress() (Address, error)
	IncomingTransfers(minHeight int64) ([]IncomingTransfer, error)
	Transfer(address string, amount int64) (TransferResult, error)
}
