package services

import (
	"context"
	"time"

	"fairbet-backend/internal/models"
)

type ConfigStore interface {
	GetGameConfig(ctx context.Context, gameType models.GameType) (*models.GameConfig, error)
}

type BalanceStore interface {
	GetBalance(ctx context.Context, userID int64) (*models.Wallet, error)
	ApplyDelta(ctx context.Context, userID int64, delta float64, expectedVersion *int64) (*models.Wallet, error)
}

// LedgerStore is the read side of the bet ledger. Bets are appended only by
// SettlementStore.Settle, together with their balance effect.
type LedgerStore interface {
	GetBet(ctx context.Context, userID int64, betID string) (*models.Bet, error)
	ListBets(ctx context.Context, userID int64, limit int64) ([]*models.Bet, error)
}

// SessionStore holds rounds in progress. Sessions are created by
// SettlementStore.Reserve and closed by SettlementStore.Settle.
type SessionStore interface {
	GetSession(ctx context.Context, sessionID string, userID int64) (*models.GameSession, error)
	UpdateSession(ctx context.Context, session *models.GameSession, expectedVersion int64) (int64, error)
	ListActiveSessions(ctx context.Context, userID int64) ([]*models.GameSession, error)
}

type SettlementStore interface {
	Reserve(ctx context.Context, hold *Hold) (*models.Reservation, *models.Wallet, error)
	Settle(ctx context.Context, settlement *Settlement) (*models.Wallet, error)
	GetReservation(ctx context.Context, userID int64, betID string) (*ReservationRecord, error)
	ListStaleReservations(ctx context.Context, olderThan time.Time, limit int64) ([]*ReservationRecord, error)
}

// Store is everything the engine needs from persistence.
type Store interface {
	ConfigStore
	BalanceStore
	LedgerStore
	SessionStore
	SettlementStore
}

var _ Store = (*RedisService)(nil)
