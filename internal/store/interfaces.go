package store

import (
	"errors"
	"time"

	"xmr-arcade-backend/internal/models"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSpotTaken           = errors.New("spot already taken")
	ErrDuplicate           = errors.New("duplicate record")
)

// Store is the persistence boundary shared by the game engine, the ledger
// and the background workers.
//
// Implementations must guarantee:
//   - DebitPlayer and CreditPlayer are atomic per player across all callers
//     (no lost updates, no intermediate balance ever observable), and
//     DebitPlayer leaves the balance untouched when it would go negative.
//   - CreateSpot enforces at most one spot per (roundID, spotNum).
//   - InsertTransactions is idempotent on TxHash.
//   - ClaimTransactionCredit, MarkWithdrawSent and MarkWithdrawRefunded are
//     one-shot: they return true for exactly one caller, false ever after.
type Store interface {
	CreatePlayer(p *models.Player) error
	GetPlayer(id string) (*models.Player, error)
	GetPlayerByDisplay(display string) (*models.Player, error)
	GetPlayerByFingerprint(fingerprint string) (*models.Player, error)
	GetPlayerByAddressIndex(index uint64) (*models.Player, error)
	SetDepositAddress(playerID, address string, index uint64) error
	DebitPlayer(playerID string, amount int64) error
	CreditPlayer(playerID string, amount int64) error

	SaveRound(r *models.Round) error
	GetRound(id string) (*models.Round, error)
	GetRoundByLane(lane int) (*models.Round, error)
	CurrentRounds() ([]*models.Round, error) // active rounds, one per lane, lane order
	ActiveRounds() ([]*models.Round, error)  // current rounds past the waiting phase

	CreateSpot(s *models.Spot) error
	GetSpots(roundID string) ([]*models.Spot, error)
	GetSpot(roundID string, spotNum int) (*models.Spot, error)

	InsertTransactions(txs []*models.DepositTransaction) error
	GetTransaction(txHash string) (*models.DepositTransaction, error)
	ClaimTransactionCredit(txHash string) (bool, error)

	CreateWithdraw(w *models.WithdrawRequest) error
	GetWithdraw(id string) (*models.WithdrawRequest, error)
	MarkWithdrawSent(id string, fee int64, txHash string) (bool, error)
	MarkWithdrawRefunded(id string) (bool, error)
	StaleWithdrawals(olderThan time.Duration) ([]*models.WithdrawRequest, error)

	CheckRateLimit(key string, limit int, window time.Duration) (bool, error)

	Close() error
}
