package models

import "fmt"

type ReserveSpotRequest struct {
	SpotNum int `json:"spot_num" binding:"required"`
}

type WithdrawCreateRequest struct {
	Address string  `json:"address" binding:"required"`
	Amount  float64 `json:"amount" binding:"required"` // XMR
}

// MinWithdrawXMR is the smallest withdrawal the hot wallet will bother
// broadcasting.
const MinWithdrawXMR = 0.0001

func (r *WithdrawCreateRequest) Validate() error {
	if r.Address == "" {
		return fmt.Errorf("destination address required")
	}
	if r.Amount < MinWithdrawXMR {
		return fmt.Errorf("amount has to be greater than %v", MinWithdrawXMR)
	}
	return nil
}

// AmountPiconero converts the requested XMR amount to the stored unit.
func (r *WithdrawCreateRequest) AmountPiconero() int64 {
	return int64(r.Amount * float64(Normalizer))
}
