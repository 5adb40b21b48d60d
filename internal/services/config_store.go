package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"fairbet-backend/internal/models"
)

// GetGameConfig reads the configuration for a game type. Stored configs are
// validated on the way out; an absent or invalid one is ErrConfigMissing.
func (s *RedisService) GetGameConfig(ctx context.Context, gameType models.GameType) (*models.GameConfig, error) {
	data, err := s.client.Get(ctx, gameConfigKey(gameType)).Result()
	if isNil(err) {
		return nil, fmt.Errorf("%w: %s", models.ErrConfigMissing, gameType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game config: %w", err)
	}

	var cfg models.GameConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrConfigMissing, gameType, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrConfigMissing, gameType, err)
	}
	if cfg.GameType != gameType {
		return nil, fmt.Errorf("%w: %s: stored config is for %s", models.ErrConfigMissing, gameType, cfg.GameType)
	}
	return &cfg, nil
}

// SeedDefaultGameConfigs stores DefaultGameConfigs for every game type that
// has no configuration yet. Existing entries are left alone.
func (s *RedisService) SeedDefaultGameConfigs(ctx context.Context) error {
	for gameType, cfg := range models.DefaultGameConfigs() {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal default config: %w", err)
		}
		created, err := s.client.SetNX(ctx, gameConfigKey(gameType), raw, 0).Result()
		if err != nil {
			return fmt.Errorf("failed to seed game config: %w", err)
		}
		if created {
			s.logger.Info("seeded default game config", slog.String("game_type", string(gameType)))
		}
	}
	return nil
}

// SaveGameConfig validates and stores a configuration.
func (s *RedisService) SaveGameConfig(ctx context.Context, cfg *models.GameConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal game config: %w", err)
	}
	if err := s.client.Set(ctx, gameConfigKey(cfg.GameType), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save game config: %w", err)
	}
	return nil
}

// DeleteGameConfig removes a stored configuration. Plays of that game fail
// with ErrConfigMissing until a configuration is saved or seeded again.
func (s *RedisService) DeleteGameConfig(ctx context.Context, gameType models.GameType) error {
	return s.client.Del(ctx, gameConfigKey(gameType)).Err()
}
