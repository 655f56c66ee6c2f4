package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"xmr-arcade-backend/internal/models"
	"xmr-arcade-backend/internal/services"
)

type PlayerHandler struct {
	players    *services.PlayerService
	jwtService *services.JWTService
	ledger     *services.Ledger
}

func NewPlayerHandler(players *services.PlayerService, jwtService *services.JWTService, ledger *services.Ledger) *PlayerHandler {
	return &PlayerHandler{
		players:    players,
		jwtService: jwtService,
		ledger:     ledger,
	}
}

type loginRequest struct {
	Display     string `json:"display" binding:"required"`
	Fingerprint string `json:"fingerprint" binding:"required"`
}

// Login exchanges a verified identity for a token. Identity verification
// (the PGP challenge) happens upstream; this endpoint trusts its caller.
func (h *PlayerHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	player, err := h.players.LoginOrCreate(req.Display, req.Fingerprint)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	token, err := h.jwtService.GenerateToken(player.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.SetCookie("auth", token, 365*24*3600, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"player": gin.H{
			"id":      player.ID,
			"display": player.Display,
		},
	})
}

func (h *PlayerHandler) GetCurrentPlayer(c *gin.Context) {
	playerID := c.GetString("player_id")

	player, err := h.players.Get(playerID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Player not found"})
		return
	}

	balance, err := h.ledger.Balance(playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player": gin.H{
			"id":          player.ID,
			"display":     player.Display,
			"balance":     balance,
			"balance_xmr": models.FormatXMR(balance),
		},
	})
}
