package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"fairbet-backend/internal/models"
)

func (s *RedisService) GetBet(ctx context.Context, userID int64, betID string) (*models.Bet, error) {
	data, err := s.client.Get(ctx, betKey(userID, betID)).Result()
	if isNil(err) {
		return nil, models.ErrBetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}

	var bet models.Bet
	if err := json.Unmarshal([]byte(data), &bet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bet: %w", err)
	}
	return &bet, nil
}

// ListBets returns the user's most recent bets, newest first.
func (s *RedisService) ListBets(ctx context.Context, userID int64, limit int64) ([]*models.Bet, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = DefaultHistoryLimit
	}

	betIDs, err := s.client.ZRevRange(ctx, userBetsKey(userID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bet ids: %w", err)
	}
	if len(betIDs) == 0 {
		return []*models.Bet{}, nil
	}

	keys := make([]string, len(betIDs))
	for i, id := range betIDs {
		keys[i] = betKey(userID, id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}

	bets := make([]*models.Bet, 0, len(values))
	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			// expired
			continue
		}

		var bet models.Bet
		if err := json.Unmarshal([]byte(data), &bet); err != nil {
			s.logger.Warn("skipping unreadable bet",
				slog.Int64("user_id", userID),
				slog.String("bet_id", betIDs[i]),
				slog.Any("error", err))
			continue
		}
		bets = append(bets, &bet)
	}

	return bets, nil
}
