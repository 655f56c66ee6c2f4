package services

import "xmr-arcade-backend/internal/models"

type Broadcaster interface {
	BroadcastRound(r *models.Round)
	BroadcastBalance(playerID string, balance int64)
}
