package models

// DepositTransaction is one externally-observed incoming transfer, keyed
// globally by TxHash. Credited flips false to true exactly once.
type DepositTransaction struct {
	ID           string `json:"id" redis:"id"`
	TxHash       string `json:"tx_hash" redis:"tx_hash"`
	AddressIndex uint64 `json:"address_index" redis:"address_index"`
	Amount       int64  `json:"amount" redis:"amount"`
	BlockHeight  int64  `json:"block_height" redis:"block_height"`
	Unlocked     bool   `json:"unlocked" redis:"unlocked"`
	Credited     bool   `json:"credited" redis:"credited"`
	CreatedAt    int64  `json:"created_at" redis:"created_at"`
}
