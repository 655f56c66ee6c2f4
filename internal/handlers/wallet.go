package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"xmr-arcade-backend/internal/models"
	"xmr-arcade-backend/internal/services"
)

type WalletHandler struct {
	ledger    *services.Ledger
	players   *services.PlayerService
	withdraws *services.WithdrawService
	rate      *services.XMRRate
	hotwallet *services.HotWalletStatus
}

func NewWalletHandler(
	ledger *services.Ledger,
	players *services.PlayerService,
	withdraws *services.WithdrawService,
	rate *services.XMRRate,
	hotwallet *services.HotWalletStatus,
) *WalletHandler {
	return &WalletHandler{
		ledger:    ledger,
		players:   players,
		withdraws: withdraws,
		rate:      rate,
		hotwallet: hotwallet,
	}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	playerID := c.GetString("player_id")

	balance, err := h.ledger.Balance(playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load balance"})
		return
	}

	rate := h.rate.Check()
	c.JSON(http.StatusOK, gin.H{
		"balance":     balance,
		"balance_xmr": models.FormatXMR(balance),
		"balance_usd": models.ToUSD(balance, rate),
		"xmr_rate":    rate,
	})
}

// GetDepositAddress creates the player's subaddress on first use and returns
// the same one on every call after that.
func (h *WalletHandler) GetDepositAddress(c *gin.Context) {
	playerID := c.GetString("player_id")

	player, err := h.players.EnsureDepositAddress(playerID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Deposit address unavailable, try again shortly"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":       player.Address,
		"address_index": player.AddressIndex,
	})
}

func (h *WalletHandler) CreateWithdraw(c *gin.Context) {
	playerID := c.GetString("player_id")

	var req models.WithdrawCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wr, err := h.withdraws.Create(playerID, req.AmountPiconero(), req.Address)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientBalance) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient balance"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create withdrawal"})
		return
	}

	// Wallet RPC transfers can take seconds, resolve off the request path.
	go h.withdraws.Process(wr)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"withdraw": gin.H{
			"id":      wr.ID,
			"amount":  wr.Amount,
			"address": wr.Address,
			"status":  wr.Status,
		},
	})
}

func (h *WalletHandler) GetWithdraw(c *gin.Context) {
	playerID := c.GetString("player_id")

	wr, err := h.withdraws.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Withdrawal not found"})
		return
	}
	if wr.PlayerID != playerID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Withdrawal not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"withdraw": gin.H{
			"id":      wr.ID,
			"amount":  wr.Amount,
			"fee":     wr.Fee,
			"address": wr.Address,
			"status":  wr.Status,
			"tx_hash": wr.TxHash,
		},
	})
}

func (h *WalletHandler) GetRate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"xmr_usd": h.rate.Check()})
}

func (h *WalletHandler) GetHotWalletStatus(c *gin.Context) {
	bal := h.hotwallet.Check()
	c.JSON(http.StatusOK, gin.H{
		"balance":          bal.Balance,
		"unlocked_balance": bal.UnlockedBalance,
		"blocks_to_unlock": bal.BlocksToUnlock,
	})
}
