package services

import (
	"log"
	"time"

	"xmr-arcade-backend/internal/models"
	"xmr-arcade-backend/internal/store"
	"xmr-arcade-backend/internal/wallet"
)

// WithdrawService manages outbound transfers. Funds are reserved with an
// upfront debit at creation, before any wallet call, so the balance can
// never be spent twice while a transfer is in flight.
type WithdrawService struct {
	store  store.Store
	ledger *Ledger
	wallet wallet.Client

	staleAfter time.Duration
	stop       chan struct{}
}

func NewWithdrawService(s store.Store, ledger *Ledger, w wallet.Client, staleAfter time.Duration) *WithdrawService {
	return &WithdrawService{
		store:      s,
		ledger:     ledger,
		wallet:     w,
		staleAfter: staleAfter,
		stop:       make(chan struct{}),
	}
}

// Create debits the player upfront and records an initiated request.
// Returns ErrInsufficientBalance, with nothing recorded, if the player
// cannot cover the amount.
func (ws *WithdrawService) Create(playerID string, amount int64, address string) (*models.WithdrawRequest, error) {
	player, err := ws.store.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}

	if err := ws.ledger.Debit(playerID, amount); err != nil {
		return nil, err
	}

	req := &models.WithdrawRequest{
		ID:           models.NewID(),
		PlayerID:     playerID,
		AddressIndex: player.AddressIndex,
		Address:      address,
		Amount:       amount,
		Status:       models.WithdrawStatusInitiated,
		CreatedAt:    models.Now(),
	}
	if err := ws.store.CreateWithdraw(req); err != nil {
		if cerr := ws.ledger.Credit(playerID, amount); cerr != nil {
			log.Printf("failed to refund player %s after withdraw create error: %v", playerID, cerr)
		}
		return nil, err
	}

	log.Printf("%s created withdraw request for %s XMR", player.Display, models.FormatXMR(amount))
	return req, nil
}

// Succeed records the broadcast transfer. One-shot: a request that already
// reached a terminal state returns ErrAlreadyTerminal and nothing changes.
func (ws *WithdrawService) Succeed(id string, fee int64, txHash string) error {
	won, err := ws.store.MarkWithdrawSent(id, fee, txHash)
	if err != nil {
		return err
	}
	if !won {
		return ErrAlreadyTerminal
	}
	log.Printf("withdraw request %s sent (tx %s)", id, txHash)
	return nil
}

// Refund returns the reserved amount to the player. A no-op on a request
// already sent or already refunded.
func (ws *WithdrawService) Refund(id string) error {
	won, err := ws.store.MarkWithdrawRefunded(id)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	req, err := ws.store.GetWithdraw(id)
	if err != nil {
		return err
	}
	if err := ws.ledger.Credit(req.PlayerID, req.Amount); err != nil {
		return err
	}
	log.Printf("withdraw request %s failed, player refunded", id)
	return nil
}

// Process drives one request through the wallet transport and into its
// terminal state. Run in its own goroutine from the request path.
func (ws *WithdrawService) Process(req *models.WithdrawRequest) {
	result, err := ws.wallet.Transfer(req.Address, req.Amount)
	if err != nil {
		log.Printf("withdraw request %s transfer failed: %v", req.ID, err)
		if rerr := ws.Refund(req.ID); rerr != nil {
			log.Printf("withdraw request %s refund failed: %v", req.ID, rerr)
		}
		return
	}
	if err := ws.Succeed(req.ID, result.Fee, result.TxHash); err != nil {
		log.Printf("withdraw request %s: %v", req.ID, err)
	}
}

func (ws *WithdrawService) Get(id string) (*models.WithdrawRequest, error) {
	return ws.store.GetWithdraw(id)
}

// Stale lists requests stuck in initiated longer than the operational
// threshold. These mean the process died mid-transfer; an operator has to
// check the wallet history and call Succeed or Refund.
func (ws *WithdrawService) Stale() ([]*models.WithdrawRequest, error) {
	return ws.store.StaleWithdrawals(ws.staleAfter)
}

// Run periodically surfaces stuck requests in the log.
func (ws *WithdrawService) Run() {
	ticker := time.NewTicker(ws.staleAfter)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stale, err := ws.Stale()
			if err != nil {
				log.Printf("withdraw monitor: %v", err)
				continue
			}
			for _, req := range stale {
				log.Printf("withdraw request %s stuck in initiated since %d, reconcile against wallet history",
					req.ID, req.CreatedAt)
			}
		case <-ws.stop:
			return
		}
	}
}

func (ws *WithdrawService) Stop() {
	close(ws.stop)
}
