package services

import (
	"fmt"
	"time"

	"fairbet-backend/internal/models"
	"fairbet-backend/internal/provablyfair"
)

// revealTile applies one reveal to a copy of session. The returned result is
// ResultSafe while the round goes on, ResultMine when it is lost and
// ResultCashout when the last safe tile ends it.
func revealTile(session *models.GameSession, tile int, now time.Time) (*models.GameSession, models.Result, error) {
	if !session.IsActive() {
		return nil, "", models.ErrSessionNotActive
	}
	if tile < 0 || tile >= session.GridSize {
		return nil, "", models.NewValidationError("tile", "must be between 0 and %d", session.GridSize-1)
	}
	if session.HasRevealed(tile) {
		return nil, "", models.ErrAlreadyRevealed
	}

	next := session.Clone()
	next.UpdatedAt = now

	if next.IsMine(tile) {
		next.Status = models.SessionStatusLost
		next.Multiplier = 0
		next.Payout = 0
		next.HitTile = &tile
		next.EndedAt = &now
		return next, models.ResultMine, nil
	}

	next.Revealed = append(next.Revealed, tile)
	multiplier, err := provablyfair.MinesMultiplier(len(next.Revealed), next.MinesCount, next.GridSize)
	if err != nil {
		return nil, "", fmt.Errorf("pricing reveal %d of session %s: %w", len(next.Revealed), next.ID, err)
	}
	next.Multiplier = multiplier

	if len(next.Revealed) == next.SafeTiles() {
		next.Status = models.SessionStatusWon
		next.Payout = provablyfair.Payout(next.Amount, multiplier)
		next.EndedAt = &now
		return next, models.ResultCashout, nil
	}

	return next, models.ResultSafe, nil
}

// cashoutSession closes an active round at its current multiplier.
func cashoutSession(session *models.GameSession, now time.Time) (*models.GameSession, error) {
	if !session.IsActive() {
		return nil, models.ErrSessionNotActive
	}
	if len(session.Revealed) == 0 {
		return nil, models.ErrNoTilesRevealed
	}
	return closeWon(session, now), nil
}

// expireSession closes an abandoned mines round at its current multiplier,
// which is 1.00 and so a refund when nothing was revealed.
func expireSession(session *models.GameSession, now time.Time) (*models.GameSession, error) {
	if !session.IsActive() {
		return nil, models.ErrSessionNotActive
	}
	return closeWon(session, now), nil
}

func closeWon(session *models.GameSession, now time.Time) *models.GameSession {
	next := session.Clone()
	next.Status = models.SessionStatusWon
	next.Payout = provablyfair.Payout(next.Amount, next.Multiplier)
	next.UpdatedAt = now
	next.EndedAt = &now
	return next
}

// minesBet is the ledger entry for a terminal mines session.
func minesBet(session *models.GameSession) *models.Bet {
	result := models.ResultCashout
	if session.Status == models.SessionStatusLost {
		result = models.ResultLoss
	}

	return &models.Bet{
		ID:         session.BetID,
		UserID:     session.UserID,
		GameType:   models.GameTypeMines,
		SessionID:  session.ID,
		Amount:     session.Amount,
		Multiplier: session.Multiplier,
		Result:     result,
		Payout:     session.Payout,
		Commitment: session.Commitment,
		Seed:       session.Seed,
		Mines: &models.MinesOutcome{
			MinesCount:    session.MinesCount,
			GridSize:      session.GridSize,
			MinePositions: session.MinePositions,
			Revealed:      session.Revealed,
			HitTile:       session.HitTile,
		},
		CreatedAt: *session.EndedAt,
	}
}
