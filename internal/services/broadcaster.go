package services

import "fairbet-backend/internal/models"

// Broadcaster pushes settlement events to connected clients.
type Broadcaster interface {
	BroadcastBetSettled(userID int64, result *models.PlayResult)
	BroadcastBalance(userID int64, wallet *models.Wallet)
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastBetSettled(int64, *models.PlayResult) {}

func (noopBroadcaster) BroadcastBalance(int64, *models.Wallet) {}
