package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fairbet-backend/internal/models"
)

// Hold is the stake to reserve for one bet.
type Hold struct {
	UserID    int64
	BetID     string
	GameType  models.GameType
	Amount    float64
	CreatedAt time.Time

	// Session, when set, is created in the same atomic step.
	Session *models.GameSession

	// Pending is the already-decided ledger entry for single-step games. It lets
	// the sweeper finish a settlement whose caller went away.
	Pending       *models.Bet
	PendingPayout float64
}

// Settlement closes one reservation.
type Settlement struct {
	UserID int64
	BetID  string
	Payout float64
	Bet    *models.Bet

	// Session, when set, is written as the terminal state of the round
	// provided its stored version equals ExpectedVersion.
	Session         *models.GameSession
	ExpectedVersion int64
}

// ReservationRecord is a stored reservation plus what is needed to finish it.
type ReservationRecord struct {
	models.Reservation
	Pending       *models.Bet
	PendingPayout float64
}

func (s *RedisService) Reserve(ctx context.Context, h *Hold) (*models.Reservation, *models.Wallet, error) {
	created := h.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	pendingJSON := ""
	pendingPayout := ""
	if h.Pending != nil {
		data, err := json.Marshal(h.Pending)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal pending bet: %w", err)
		}
		pendingJSON = string(data)
		pendingPayout = centsArg(h.PendingPayout)
	}

	sessionID := ""
	sessionJSON := ""
	if h.Session != nil {
		h.Session.Version = 1
		data, err := json.Marshal(h.Session)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal game session: %w", err)
		}
		sessionID = h.Session.ID
		sessionJSON = string(data)
	}

	reply, err := reserveScript.Run(ctx, s.client,
		[]string{
			walletKey(h.UserID),
			reservationKey(h.UserID, h.BetID),
			KeyOpenReservations,
			gameSessionKey(sessionID),
			userActiveGamesKey(h.UserID),
		},
		centsArg(h.Amount),
		centsArg(s.opts.StartingBalance),
		h.UserID,
		string(h.GameType),
		created.UnixMilli(),
		openReservationMember(h.UserID, h.BetID),
		pendingJSON,
		pendingPayout,
		sessionID,
		sessionJSON,
		ttlSeconds(s.opts.SessionTTL),
	).Result()
	if err != nil {
		return nil, nil, scriptError(err)
	}

	wallet, err := walletFromReply(h.UserID, reply)
	if err != nil {
		return nil, nil, err
	}

	return &models.Reservation{
		ID:        h.BetID,
		UserID:    h.UserID,
		GameType:  h.GameType,
		Amount:    h.Amount,
		Status:    models.ReservationOpen,
		SessionID: sessionID,
		CreatedAt: created,
	}, wallet, nil
}

func (s *RedisService) Settle(ctx context.Context, st *Settlement) (*models.Wallet, error) {
	betJSON, err := json.Marshal(st.Bet)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bet: %w", err)
	}

	sessionID := ""
	sessionJSON := ""
	expected := ""
	if st.Session != nil {
		st.Session.Version = st.ExpectedVersion + 1
		data, err := json.Marshal(st.Session)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal game session: %w", err)
		}
		sessionID = st.Session.ID
		sessionJSON = string(data)
		expected = strconv.FormatInt(st.ExpectedVersion, 10)
	}

	reply, err := settleScript.Run(ctx, s.client,
		[]string{
			walletKey(st.UserID),
			reservationKey(st.UserID, st.BetID),
			betKey(st.UserID, st.BetID),
			userBetsKey(st.UserID),
			KeyOpenReservations,
			gameSessionKey(sessionID),
			userActiveGamesKey(st.UserID),
		},
		centsArg(st.Payout),
		string(betJSON),
		st.Bet.CreatedAt.UnixMilli(),
		ttlSeconds(s.opts.BetTTL),
		st.BetID,
		openReservationMember(st.UserID, st.BetID),
		MaxUserBets,
		sessionID,
		sessionJSON,
		expected,
		ttlSeconds(s.opts.SessionTTL),
	).Result()
	if err != nil {
		if st.Session != nil {
			st.Session.Version = st.ExpectedVersion
		}
		return nil, scriptError(err)
	}

	return walletFromReply(st.UserID, reply)
}

func (s *RedisService) GetReservation(ctx context.Context, userID int64, betID string) (*ReservationRecord, error) {
	fields, err := s.client.HGetAll(ctx, reservationKey(userID, betID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if len(fields) == 0 {
		return nil, models.ErrBetNotFound
	}
	return reservationFromHash(userID, betID, fields)
}

// ListStaleReservations returns open reservations created before olderThan,
// oldest first.
func (s *RedisService) ListStaleReservations(ctx context.Context, olderThan time.Time, limit int64) ([]*ReservationRecord, error) {
	members, err := s.client.ZRangeByScore(ctx, KeyOpenReservations, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(olderThan.UnixMilli(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list open reservations: %w", err)
	}

	records := make([]*ReservationRecord, 0, len(members))
	for _, member := range members {
		userPart, betID, ok := strings.Cut(member, ":")
		if !ok {
			s.logger.Warn("malformed open reservation member", slog.String("member", member))
			continue
		}
		userID, err := strconv.ParseInt(userPart, 10, 64)
		if err != nil {
			s.logger.Warn("malformed open reservation member", slog.String("member", member))
			continue
		}

		rec, err := s.GetReservation(ctx, userID, betID)
		if err != nil {
			s.logger.Warn("open reservation without record",
				slog.Int64("user_id", userID),
				slog.String("bet_id", betID),
				slog.Any("error", err))
			continue
		}
		if rec.Status == models.ReservationOpen {
			records = append(records, rec)
		}
	}

	return records, nil
}

func reservationFromHash(userID int64, betID string, fields map[string]string) (*ReservationRecord, error) {
	amount, err := strconv.ParseInt(fields["amount"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid reservation amount: %w", err)
	}
	createdMs, _ := strconv.ParseInt(fields["created_at"], 10, 64)

	rec := &ReservationRecord{
		Reservation: models.Reservation{
			ID:        betID,
			UserID:    userID,
			GameType:  models.GameType(fields["game_type"]),
			Amount:    fromCents(amount),
			Status:    models.ReservationStatus(fields["status"]),
			SessionID: fields["session_id"],
			CreatedAt: time.UnixMilli(createdMs),
		},
	}

	if raw := fields["pending_bet"]; raw != "" {
		var bet models.Bet
		if err := json.Unmarshal([]byte(raw), &bet); err != nil {
			return nil, fmt.Errorf("invalid pending bet: %w", err)
		}
		payout, err := strconv.ParseInt(fields["pending_payout"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid pending payout: %w", err)
		}
		rec.Pending = &bet
		rec.PendingPayout = fromCents(payout)
	}

	return rec, nil
}
