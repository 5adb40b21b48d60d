package services

import (
	"context"
	"fmt"
	"strconv"

	"fairbet-backend/internal/models"
)

// GetBalance returns the wallet, creating it with the starting balance on
// first access.
func (s *RedisService) GetBalance(ctx context.Context, userID int64) (*models.Wallet, error) {
	reply, err := ensureWalletScript.Run(ctx, s.client,
		[]string{walletKey(userID)},
		centsArg(s.opts.StartingBalance),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return walletFromReply(userID, reply)
}

// ApplyDelta adds delta to the spendable balance. With expectedVersion set
// the write only happens if the wallet has not changed since it was read.
func (s *RedisService) ApplyDelta(ctx context.Context, userID int64, delta float64, expectedVersion *int64) (*models.Wallet, error) {
	expected := ""
	if expectedVersion != nil {
		expected = strconv.FormatInt(*expectedVersion, 10)
	}

	reply, err := applyDeltaScript.Run(ctx, s.client,
		[]string{walletKey(userID)},
		centsArg(delta),
		expected,
		centsArg(s.opts.StartingBalance),
	).Result()
	if err != nil {
		return nil, scriptError(err)
	}
	return walletFromReply(userID, reply)
}
