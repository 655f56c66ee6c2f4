package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"xmr-arcade-backend/internal/models"
	"xmr-arcade-backend/internal/services"
	"xmr-arcade-backend/internal/store"
)

type ArcadeHandler struct {
	gameEngine *services.GameEngine
	store      store.Store
	rate       *services.XMRRate
}

func NewArcadeHandler(gameEngine *services.GameEngine, s store.Store, rate *services.XMRRate) *ArcadeHandler {
	return &ArcadeHandler{
		gameEngine: gameEngine,
		store:      s,
		rate:       rate,
	}
}

// roundView is the public projection of a round. The round secret stays
// hidden until the round settles, only its hash is published before that.
func roundView(r *models.Round, spots []*models.Spot) gin.H {
	taken := make([]gin.H, 0, len(spots))
	for _, s := range spots {
		taken = append(taken, gin.H{
			"spot_num":  s.SpotNum,
			"player_id": s.PlayerID,
		})
	}

	view := gin.H{
		"id":          r.ID,
		"lane":        r.Lane,
		"state":       r.State,
		"spot_count":  r.SpotCount,
		"spot_cost":   r.SpotCost,
		"prize":       r.Prize,
		"secret_hash": r.SecretHash(),
		"spots":       taken,
		"created_at":  r.CreatedAt,
	}
	if r.State.Phase == models.PhaseSettled {
		view["secret"] = r.Secret
		view["spot_secret"] = r.SpotSecret
	}
	if r.PrevRoundID != "" {
		view["prev_round_id"] = r.PrevRoundID
	}
	return view
}

func (h *ArcadeHandler) ListRounds(c *gin.Context) {
	rounds, err := h.store.CurrentRounds()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rounds"})
		return
	}

	views := make([]gin.H, 0, len(rounds))
	for _, r := range rounds {
		spots, err := h.store.GetSpots(r.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load spots"})
			return
		}
		views = append(views, roundView(r, spots))
	}

	c.JSON(http.StatusOK, gin.H{
		"rounds":   views,
		"xmr_rate": h.rate.Check(),
	})
}

func (h *ArcadeHandler) GetRound(c *gin.Context) {
	roundID := c.Param("id")

	r, err := h.store.GetRound(roundID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Round not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load round"})
		return
	}

	spots, err := h.store.GetSpots(r.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load spots"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"round": roundView(r, spots)})
}

func (h *ArcadeHandler) ReserveSpot(c *gin.Context) {
	playerID := c.GetString("player_id")
	roundID := c.Param("id")

	var req models.ReserveSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	spot, err := h.gameEngine.ReserveSpot(roundID, req.SpotNum, playerID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Round not found"})
		case errors.Is(err, services.ErrInsufficientBalance):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient balance"})
		case errors.Is(err, services.ErrInvalidSpot):
			c.JSON(http.StatusConflict, gin.H{"error": "Spot unavailable"})
		case errors.Is(err, services.ErrRoundClosed):
			c.JSON(http.StatusConflict, gin.H{"error": "Round no longer accepting purchases"})
		case errors.Is(err, services.ErrSelfSweepDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "Cannot buy the last remaining spot in your own round"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reserve spot"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"spot": gin.H{
			"id":          spot.ID,
			"round_id":    spot.RoundID,
			"spot_num":    spot.SpotNum,
			"cost":        spot.Cost,
			"secret":      spot.Secret,
			"secret_time": spot.SecretTime,
		},
	})
}

// VerifyRound exposes everything needed to recompute a settled round's
// outcome client side.
func (h *ArcadeHandler) VerifyRound(c *gin.Context) {
	roundID := c.Param("id")

	r, err := h.store.GetRound(roundID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Round not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load round"})
		return
	}

	if r.State.Phase != models.PhaseSettled {
		c.JSON(http.StatusOK, gin.H{
			"round_id":    r.ID,
			"settled":     false,
			"secret_hash": r.SecretHash(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"round_id":     r.ID,
		"settled":      true,
		"secret":       r.Secret,
		"secret_hash":  r.SecretHash(),
		"spot_secret":  r.SpotSecret,
		"spot_count":   r.SpotCount,
		"winning_spot": services.WinningSpot(r.Secret, r.SpotSecret, r.SpotCount),
	})
}
