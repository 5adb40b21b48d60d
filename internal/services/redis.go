package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"fairbet-backend/internal/config"
	"fairbet-backend/internal/models"
)

type StoreOptions struct {
	StartingBalance float64
	BetTTL          time.Duration
	SessionTTL      time.Duration
}

func DefaultStoreOptions() StoreOptions {
	return StoreOptions{
		StartingBalance: 100,
		BetTTL:          TTLBet,
		SessionTTL:      TTLGameSession,
	}
}

// RedisService implements every store the engine depends on. Anything that
// moves money runs as a single Lua script so it is atomic per call.
type RedisService struct {
	client *redis.Client
	opts   StoreOptions
	logger *slog.Logger
}

func NewRedisService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	opts := DefaultStoreOptions()
	opts.StartingBalance = cfg.StartingBalance

	return NewRedisServiceWithClient(client, opts, logger), nil
}

func NewRedisServiceWithClient(client *redis.Client, opts StoreOptions, logger *slog.Logger) *RedisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisService{
		client: client,
		opts:   opts,
		logger: logger,
	}
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// CheckRateLimit counts one hit in a fixed window and reports whether the
// caller is still within limit.
func (s *RedisService) CheckRateLimit(ctx context.Context, userID int64, action string, limit int, window time.Duration) (bool, error) {
	key := rateLimitKey(userID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(limit), nil
}

func toCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

func fromCents(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

func centsArg(amount float64) string {
	return strconv.FormatInt(toCents(amount), 10)
}

func ttlSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10)
}

// scriptError maps error replies raised by the Lua scripts onto the model
// error taxonomy.
func scriptError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "INSUFFICIENT_BALANCE"):
		return models.ErrInsufficientBalance
	case strings.Contains(msg, "DUPLICATE_BET"), strings.Contains(msg, "DUPLICATE_SESSION"):
		return models.ErrDuplicateBet
	case strings.Contains(msg, "ALREADY_SETTLED"):
		return models.ErrAlreadySettled
	case strings.Contains(msg, "VERSION_CONFLICT"):
		return models.ErrConcurrencyConflict
	case strings.Contains(msg, "SESSION_NOT_FOUND"):
		return models.ErrSessionNotFound
	case strings.Contains(msg, "RESERVATION_NOT_FOUND"):
		return models.ErrBetNotFound
	}
	return err
}

// walletFromReply decodes the HMGET reply every wallet script returns.
func walletFromReply(userID int64, reply any) (*models.Wallet, error) {
	fields, ok := reply.([]any)
	if !ok || len(fields) != 5 {
		return nil, fmt.Errorf("unexpected wallet reply %T", reply)
	}

	values := make([]int64, len(fields))
	for i, f := range fields {
		str, ok := f.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected wallet field %d: %T", i, f)
		}
		v, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid wallet field %d: %w", i, err)
		}
		values[i] = v
	}

	return &models.Wallet{
		UserID:        userID,
		Balance:       fromCents(values[0]),
		LockedBalance: fromCents(values[1]),
		TotalWagered:  fromCents(values[2]),
		TotalWon:      fromCents(values[3]),
		Version:       values[4],
	}, nil
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
