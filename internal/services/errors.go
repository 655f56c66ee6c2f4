package services

import (
	"errors"

	"xmr-arcade-backend/internal/store"
)

var (
	// ErrInsufficientBalance re-exports the ledger failure so handlers only
	// import the services package.
	ErrInsufficientBalance = store.ErrInsufficientBalance

	// ErrInvalidSpot covers a spot number outside 1..spotCount or one that
	// is already taken.
	ErrInvalidSpot = errors.New("invalid spot")

	// ErrRoundClosed means the round is no longer accepting reservations.
	ErrRoundClosed = errors.New("round not open for purchase")

	// ErrSelfSweepDenied is the last-spot rule: one player may not own every
	// spot in a round.
	ErrSelfSweepDenied = errors.New("cannot buy every spot in a round")

	// ErrAlreadyTerminal guards succeed/refund against double invocation.
	ErrAlreadyTerminal = errors.New("withdraw request already terminal")
)
