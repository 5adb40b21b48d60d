package services

import (
	"context"
	"fmt"
	"log/slog"

	"fairbet-backend/internal/models"
)

// SettlementCoordinator is the only code path that changes a balance or
// appends to the ledger. A bet is reserved once and settled once; the store
// rejects a second reservation or settlement for the same bet id.
type SettlementCoordinator struct {
	store  SettlementStore
	logger *slog.Logger
}

func NewSettlementCoordinator(store SettlementStore, logger *slog.Logger) *SettlementCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettlementCoordinator{
		store:  store,
		logger: logger,
	}
}

// PlaceBet checks the stake against cfg and debits it. The balance check
// and the debit happen in one store operation.
func (c *SettlementCoordinator) PlaceBet(ctx context.Context, cfg *models.GameConfig, hold *Hold) (*models.Reservation, *models.Wallet, error) {
	if hold.GameType != cfg.GameType {
		return nil, nil, fmt.Errorf("hold for %s checked against %s config", hold.GameType, cfg.GameType)
	}
	if err := models.ValidateStake(hold.Amount); err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateAmount(hold.Amount); err != nil {
		return nil, nil, err
	}

	reservation, wallet, err := c.store.Reserve(ctx, hold)
	if err != nil {
		return nil, nil, err
	}

	c.logger.Debug("bet reserved",
		slog.Int64("user_id", hold.UserID),
		slog.String("bet_id", hold.BetID),
		slog.String("game_type", string(hold.GameType)),
		slog.Float64("amount", hold.Amount))

	return reservation, wallet, nil
}

// Settle credits payout (possibly zero) and appends bet in one step.
func (c *SettlementCoordinator) Settle(ctx context.Context, reservation *models.Reservation, payout float64, bet *models.Bet) (*models.Wallet, error) {
	return c.settle(ctx, reservation, &Settlement{
		UserID: reservation.UserID,
		BetID:  reservation.ID,
		Payout: payout,
		Bet:    bet,
	})
}

// SettleSession is Settle plus the terminal write of session, applied only
// if the session is still at expectedVersion.
func (c *SettlementCoordinator) SettleSession(ctx context.Context, reservation *models.Reservation, payout float64, bet *models.Bet, session *models.GameSession, expectedVersion int64) (*models.Wallet, error) {
	if session.IsActive() {
		return nil, fmt.Errorf("session %s settled while still active", session.ID)
	}
	return c.settle(ctx, reservation, &Settlement{
		UserID:          reservation.UserID,
		BetID:           reservation.ID,
		Payout:          payout,
		Bet:             bet,
		Session:         session,
		ExpectedVersion: expectedVersion,
	})
}

func (c *SettlementCoordinator) settle(ctx context.Context, reservation *models.Reservation, st *Settlement) (*models.Wallet, error) {
	if st.Payout < 0 {
		return nil, fmt.Errorf("negative payout %.2f for bet %s", st.Payout, reservation.ID)
	}
	if st.Bet == nil || st.Bet.ID != reservation.ID || st.Bet.UserID != reservation.UserID {
		return nil, fmt.Errorf("bet record does not match reservation %s", reservation.ID)
	}

	wallet, err := c.store.Settle(ctx, st)
	if err != nil {
		return nil, err
	}

	c.logger.Info("bet settled",
		slog.Int64("user_id", reservation.UserID),
		slog.String("bet_id", reservation.ID),
		slog.String("game_type", string(st.Bet.GameType)),
		slog.String("result", string(st.Bet.Result)),
		slog.Float64("amount", st.Bet.Amount),
		slog.Float64("payout", st.Payout))

	return wallet, nil
}

// reservationFor rebuilds the reservation a session was opened with.
func reservationFor(session *models.GameSession) *models.Reservation {
	return &models.Reservation{
		ID:        session.BetID,
		UserID:    session.UserID,
		GameType:  session.GameType,
		Amount:    session.Amount,
		Status:    models.ReservationOpen,
		SessionID: session.ID,
		CreatedAt: session.CreatedAt,
	}
}
