package services

import (
	"log"
	"time"

	"xmr-arcade-backend/internal/models"
	"xmr-arcade-backend/internal/store"
	"xmr-arcade-backend/internal/wallet"
)

// rescanDepth re-reads this many recent blocks on every sweep so transfers
// that were still locked last time are seen again once they unlock.
const rescanDepth = 20

// DepositService turns externally-observed incoming transfers into player
// balance. Ingestion is idempotent on txHash and crediting is exactly-once,
// so the sweep loop can overlap previous scans freely.
type DepositService struct {
	store  store.Store
	ledger *Ledger
	wallet wallet.Client

	interval   time.Duration
	scanHeight int64
	stop       chan struct{}
}

func NewDepositService(s store.Store, ledger *Ledger, w wallet.Client, interval time.Duration) *DepositService {
	return &DepositService{
		store:    s,
		ledger:   ledger,
		wallet:   w,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Ingest records a batch of observed transactions. A txHash seen before is
// skipped silently; re-ingestion is not an error.
func (d *DepositService) Ingest(transfers []wallet.IncomingTransfer) error {
	txs := make([]*models.DepositTransaction, 0, len(transfers))
	for _, t := range transfers {
		txs = append(txs, &models.DepositTransaction{
			ID:           models.NewID(),
			TxHash:       t.TxHash,
			AddressIndex: t.AddressIndex,
			Amount:       t.Amount,
			BlockHeight:  t.BlockHeight,
			Unlocked:     t.Unlocked,
			CreatedAt:    models.Now(),
		})
	}
	return d.store.InsertTransactions(txs)
}

// Credit pays a transaction's amount to its player exactly once. The caller
// decides when the transfer is confirmed unlocked; this only provides the
// idempotent guard. A transaction whose address index maps to no player
// still consumes its credit claim, matching ingest-before-signup edge
// handling upstream.
func (d *DepositService) Credit(txHash string) error {
	tx, err := d.store.GetTransaction(txHash)
	if err != nil {
		return err
	}

	won, err := d.store.ClaimTransactionCredit(txHash)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	player, err := d.store.GetPlayerByAddressIndex(tx.AddressIndex)
	if err == store.ErrNotFound {
		log.Printf("deposit %s: no player for address index %d", txHash, tx.AddressIndex)
		return nil
	}
	if err != nil {
		return err
	}

	if err := d.ledger.Credit(player.ID, tx.Amount); err != nil {
		return err
	}
	log.Printf("%s XMR credited to %s", models.FormatXMR(tx.Amount), player.Display)
	return nil
}

// Sweep pulls the transfer feed once: ingest everything new, credit
// whatever the wallet reports unlocked.
func (d *DepositService) Sweep() error {
	transfers, err := d.wallet.IncomingTransfers(d.scanHeight)
	if err != nil {
		return err
	}
	if len(transfers) == 0 {
		return nil
	}

	if err := d.Ingest(transfers); err != nil {
		return err
	}

	var maxHeight int64
	for _, t := range transfers {
		if t.BlockHeight > maxHeight {
			maxHeight = t.BlockHeight
		}
		if t.Unlocked {
			if err := d.Credit(t.TxHash); err != nil {
				log.Printf("failed to credit deposit %s: %v", t.TxHash, err)
			}
		}
	}

	if maxHeight-rescanDepth > d.scanHeight {
		d.scanHeight = maxHeight - rescanDepth
	}
	return nil
}

// Run sweeps on a fixed period for the process lifetime; a failed sweep is
// logged and retried next period.
func (d *DepositService) Run() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := d.Sweep(); err != nil {
				log.Printf("deposit sweep: %v", err)
			}
		case <-d.stop:
			return
		}
	}
}

func (d *DepositService) Stop() {
	close(d.stop)
}
