package models

type WithdrawStatus string

const (
	WithdrawStatusInitiated WithdrawStatus = "initiated"
	WithdrawStatusSent      WithdrawStatus = "sent"
	WithdrawStatusRefunded  WithdrawStatus = "refunded"
)

// WithdrawRequest tracks an outbound transfer from creation to its single
// terminal state. Status starts at initiated and moves to exactly one of
// sent or refunded, never both and never back. A request stuck in initiated
// means the transfer processor died mid-call and has to reconcile against
// the wallet transport.
type WithdrawRequest struct {
	ID           string `json:"id" redis:"id"`
	PlayerID     string `json:"player_id" redis:"player_id"`
	AddressIndex uint64 `json:"address_index" redis:"address_index"`
	Address      string `json:"address" redis:"address"`
	Amount       int64  `json:"amount" redis:"amount"`
	Fee          int64  `json:"fee" redis:"fee"`
	TxHash       string `json:"tx_hash,omitempty" redis:"tx_hash"`

	Status   WithdrawStatus `json:"status" redis:"status"`
	Success  bool           `json:"success" redis:"success"`
	Refunded bool           `json:"refunded" redis:"refunded"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
}

// Terminal reports whether the request has reached sent or refunded.
func (w *WithdrawRequest) Terminal() bool {
	return w.Status != WithdrawStatusInitiated
}
