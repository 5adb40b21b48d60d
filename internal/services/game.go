package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fairbet-backend/internal/models"
	"fairbet-backend/internal/provablyfair"
)

// staleSweepBatch bounds how many reservations one cleanup pass settles.
const staleSweepBatch = 100

type SeedSource func() (provablyfair.Seed, provablyfair.Commitment, error)

type GameEngine struct {
	store       Store
	settlement  *SettlementCoordinator
	broadcaster Broadcaster
	logger      *slog.Logger
	issueSeed   SeedSource
	now         func() time.Time
}

type EngineOption func(*GameEngine)

func WithBroadcaster(b Broadcaster) EngineOption {
	return func(ge *GameEngine) { ge.broadcaster = b }
}

func WithSeedSource(src SeedSource) EngineOption {
	return func(ge *GameEngine) { ge.issueSeed = src }
}

func WithClock(now func() time.Time) EngineOption {
	return func(ge *GameEngine) { ge.now = now }
}

func NewGameEngine(store Store, logger *slog.Logger, opts ...EngineOption) *GameEngine {
	if logger == nil {
		logger = slog.Default()
	}
	ge := &GameEngine{
		store:       store,
		settlement:  NewSettlementCoordinator(store, logger),
		broadcaster: noopBroadcaster{},
		logger:      logger,
		issueSeed:   provablyfair.IssueSeed,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(ge)
	}
	return ge
}

func (ge *GameEngine) PlayDice(ctx context.Context, userID int64, req *models.DicePlayRequest) (*models.PlayResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	betID, replayed, err := ge.claimBetID(ctx, userID, req.BetID, models.GameTypeDice)
	if replayed != nil || err != nil {
		return replayed, err
	}

	cfg, err := ge.store.GetGameConfig(ctx, models.GameTypeDice)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}

	winMultiplier, err := provablyfair.DiceTargetMultiplier(req.Target, req.Over, cfg.HouseEdge)
	if err != nil {
		return nil, models.NewValidationError("target", "has no winning rolls")
	}
	if winMultiplier > cfg.Dice.MaxMultiplier {
		return nil, models.NewValidationError("target", "pays %.4fx, above the %.2fx maximum", winMultiplier, cfg.Dice.MaxMultiplier)
	}

	seed, commitment, err := ge.issueSeed()
	if err != nil {
		return nil, fmt.Errorf("issue seed: %w", err)
	}

	roll := provablyfair.DiceRoll(seed)
	win := provablyfair.DiceWins(roll, req.Target, req.Over)
	multiplier, err := provablyfair.DiceMultiplier(win, req.Target, req.Over, cfg.HouseEdge)
	if err != nil {
		return nil, err
	}
	payout := provablyfair.Payout(req.Amount, multiplier)

	result := models.ResultLoss
	if win {
		result = models.ResultWin
	}

	bet := &models.Bet{
		ID:         betID,
		UserID:     userID,
		GameType:   models.GameTypeDice,
		Amount:     req.Amount,
		Multiplier: multiplier,
		Result:     result,
		Payout:     payout,
		Commitment: string(commitment),
		Seed:       string(seed),
		Dice:       &models.DiceOutcome{Roll: roll, Target: req.Target, Over: req.Over},
		CreatedAt:  ge.now(),
	}

	return ge.playSingleStep(ctx, cfg, bet)
}

// PlayCrash resolves a crash round. With an auto cash-out target the round is
// settled immediately; without one the stake stays reserved in an active
// session until ResolveCrash reports what happened in the live round.
func (ge *GameEngine) PlayCrash(ctx context.Context, userID int64, req *models.CrashPlayRequest) (*models.PlayResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	betID, replayed, err := ge.claimBetID(ctx, userID, req.BetID, models.GameTypeCrash)
	if replayed != nil || err != nil {
		return replayed, err
	}

	cfg, err := ge.store.GetGameConfig(ctx, models.GameTypeCrash)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}

	var target float64
	if req.AutoCashout != nil {
		target = *req.AutoCashout
		if target > cfg.Crash.MaxMultiplier {
			return nil, models.NewValidationError("auto_cashout", "must not exceed %.2f", cfg.Crash.MaxMultiplier)
		}
		if provablyfair.RoundMultiplier(target, provablyfair.CrashMultiplierPlaces) != target {
			return nil, models.NewValidationError("auto_cashout", "must not have more than 2 decimal places")
		}
	}

	seed, commitment, err := ge.issueSeed()
	if err != nil {
		return nil, fmt.Errorf("issue seed: %w", err)
	}
	crashPoint := provablyfair.CrashPoint(seed)
	now := ge.now()

	if req.AutoCashout == nil {
		return ge.startManualCrash(ctx, cfg, &models.GameSession{
			ID:         models.GenerateSessionID(),
			UserID:     userID,
			GameType:   models.GameTypeCrash,
			BetID:      betID,
			Amount:     req.Amount,
			Status:     models.SessionStatusActive,
			Commitment: string(commitment),
			Seed:       string(seed),
			CrashPoint: crashPoint,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	win, multiplier := provablyfair.CrashAutoCashout(target, crashPoint)
	result := models.ResultLoss
	if win {
		result = models.ResultCashout
	}

	bet := &models.Bet{
		ID:         betID,
		UserID:     userID,
		GameType:   models.GameTypeCrash,
		Amount:     req.Amount,
		Multiplier: multiplier,
		Result:     result,
		Payout:     provablyfair.Payout(req.Amount, multiplier),
		Commitment: string(commitment),
		Seed:       string(seed),
		Crash:      &models.CrashOutcome{CrashPoint: crashPoint, AutoCashout: target},
		CreatedAt:  now,
	}

	return ge.playSingleStep(ctx, cfg, bet)
}

func (ge *GameEngine) startManualCrash(ctx context.Context, cfg *models.GameConfig, session *models.GameSession) (*models.PlayResult, error) {
	reservation, wallet, err := ge.settlement.PlaceBet(ctx, cfg, &Hold{
		UserID:    session.UserID,
		BetID:     session.BetID,
		GameType:  models.GameTypeCrash,
		Amount:    session.Amount,
		CreatedAt: session.CreatedAt,
		Session:   session,
	})
	if errors.Is(err, models.ErrDuplicateBet) {
		return ge.replay(ctx, session.UserID, session.BetID, models.GameTypeCrash)
	}
	if err != nil {
		return nil, err
	}

	ge.broadcaster.BroadcastBalance(session.UserID, wallet)

	return &models.PlayResult{
		BetID:      reservation.ID,
		SessionID:  session.ID,
		GameType:   models.GameTypeCrash,
		Result:     models.ResultManual,
		Status:     models.SessionStatusActive,
		Amount:     session.Amount,
		NewBalance: wallet.Balance,
		Commitment: session.Commitment,
	}, nil
}

// CrashRound exposes an active manual round, crash point included, to the
// live crash layer that races the player's cash-out against it.
func (ge *GameEngine) CrashRound(ctx context.Context, userID int64, sessionID string) (*models.CrashRound, error) {
	session, err := ge.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.GameType != models.GameTypeCrash {
		return nil, models.NewValidationError("session_id", "is not a crash round")
	}
	if !session.IsActive() {
		return nil, models.ErrSessionNotActive
	}

	return &models.CrashRound{
		SessionID:  session.ID,
		UserID:     session.UserID,
		BetID:      session.BetID,
		Amount:     session.Amount,
		Commitment: session.Commitment,
		CrashPoint: session.CrashPoint,
	}, nil
}

// ResolveCrash settles a manual crash round. cashoutAt is the multiplier at
// which the player cashed out in the live round, or 0 if they never did.
func (ge *GameEngine) ResolveCrash(ctx context.Context, userID int64, sessionID string, cashoutAt float64) (*models.PlayResult, error) {
	if cashoutAt < 0 || (cashoutAt > 0 && cashoutAt < models.MinCrashCashout) {
		return nil, models.NewValidationError("cashout_at", "must be 0 or at least %.2f", models.MinCrashCashout)
	}

	session, err := ge.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.GameType != models.GameTypeCrash {
		return nil, models.NewValidationError("session_id", "is not a crash round")
	}
	if !session.IsActive() {
		return nil, models.ErrSessionNotActive
	}

	now := ge.now()
	next := session.Clone()
	next.UpdatedAt = now
	next.EndedAt = &now
	next.Status = models.SessionStatusLost

	result := models.ResultLoss
	if cashoutAt > 0 {
		at := provablyfair.RoundMultiplier(cashoutAt, provablyfair.CrashMultiplierPlaces)
		if win, multiplier := provablyfair.CrashAutoCashout(at, session.CrashPoint); win {
			next.Status = models.SessionStatusWon
			next.CashoutAt = at
			next.Multiplier = multiplier
			next.Payout = provablyfair.Payout(session.Amount, multiplier)
			result = models.ResultCashout
		}
	}

	bet := &models.Bet{
		ID:         next.BetID,
		UserID:     next.UserID,
		GameType:   models.GameTypeCrash,
		SessionID:  next.ID,
		Amount:     next.Amount,
		Multiplier: next.Multiplier,
		Result:     result,
		Payout:     next.Payout,
		Commitment: next.Commitment,
		Seed:       next.Seed,
		Crash:      &models.CrashOutcome{CrashPoint: next.CrashPoint, CashoutAt: next.CashoutAt},
		CreatedAt:  now,
	}

	return ge.settleSession(ctx, session, next, bet, result)
}

func (ge *GameEngine) StartMines(ctx context.Context, userID int64, req *models.MinesStartRequest) (*models.PlayResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	betID, replayed, err := ge.claimBetID(ctx, userID, req.BetID, models.GameTypeMines)
	if replayed != nil || err != nil {
		return replayed, err
	}

	cfg, err := ge.store.GetGameConfig(ctx, models.GameTypeMines)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.MinesCount < cfg.Mines.MinMines || req.MinesCount > cfg.Mines.MaxMines {
		return nil, models.NewValidationError("mines_count", "must be between %d and %d", cfg.Mines.MinMines, cfg.Mines.MaxMines)
	}

	seed, commitment, err := ge.issueSeed()
	if err != nil {
		return nil, fmt.Errorf("issue seed: %w", err)
	}
	positions, err := provablyfair.MinePositions(seed, req.MinesCount, cfg.Mines.GridSize)
	if err != nil {
		return nil, fmt.Errorf("derive mines: %w", err)
	}

	now := ge.now()
	session := &models.GameSession{
		ID:            models.GenerateSessionID(),
		UserID:        userID,
		GameType:      models.GameTypeMines,
		BetID:         betID,
		Amount:        req.Amount,
		Status:        models.SessionStatusActive,
		Multiplier:    1.0,
		Commitment:    string(commitment),
		Seed:          string(seed),
		MinesCount:    req.MinesCount,
		GridSize:      cfg.Mines.GridSize,
		MinePositions: positions,
		Revealed:      []int{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, wallet, err := ge.settlement.PlaceBet(ctx, cfg, &Hold{
		UserID:    userID,
		BetID:     betID,
		GameType:  models.GameTypeMines,
		Amount:    req.Amount,
		CreatedAt: now,
		Session:   session,
	})
	if errors.Is(err, models.ErrDuplicateBet) {
		return ge.replay(ctx, userID, betID, models.GameTypeMines)
	}
	if err != nil {
		return nil, err
	}

	ge.logger.Info("mines session started",
		slog.Int64("user_id", userID),
		slog.String("session_id", session.ID),
		slog.String("bet_id", betID),
		slog.Int("mines_count", req.MinesCount))
	ge.broadcaster.BroadcastBalance(userID, wallet)

	return sessionResult(session, "", wallet.Balance), nil
}

func (ge *GameEngine) RevealMine(ctx context.Context, userID int64, sessionID string, tile int) (*models.PlayResult, error) {
	session, err := ge.minesSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	next, outcome, err := revealTile(session, tile, ge.now())
	if err != nil {
		return nil, err
	}

	if next.IsActive() {
		version, err := ge.store.UpdateSession(ctx, next, session.Version)
		if err != nil {
			return nil, err
		}
		next.Version = version

		wallet, err := ge.store.GetBalance(ctx, userID)
		if err != nil {
			return nil, err
		}

		res := sessionResult(next, outcome, wallet.Balance)
		res.Tile = &tile
		return res, nil
	}

	res, err := ge.settleSession(ctx, session, next, minesBet(next), outcome)
	if err != nil {
		return nil, err
	}
	res.Tile = &tile
	return res, nil
}

func (ge *GameEngine) CashoutMines(ctx context.Context, userID int64, sessionID string) (*models.PlayResult, error) {
	session, err := ge.minesSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	next, err := cashoutSession(session, ge.now())
	if err != nil {
		return nil, err
	}

	return ge.settleSession(ctx, session, next, minesBet(next), models.ResultCashout)
}

func (ge *GameEngine) minesSession(ctx context.Context, userID int64, sessionID string) (*models.GameSession, error) {
	session, err := ge.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.GameType != models.GameTypeMines {
		return nil, models.NewValidationError("session_id", "is not a mines session")
	}
	return session, nil
}

// playSingleStep reserves and settles a bet whose outcome is already known.
func (ge *GameEngine) playSingleStep(ctx context.Context, cfg *models.GameConfig, bet *models.Bet) (*models.PlayResult, error) {
	reservation, _, err := ge.settlement.PlaceBet(ctx, cfg, &Hold{
		UserID:        bet.UserID,
		BetID:         bet.ID,
		GameType:      bet.GameType,
		Amount:        bet.Amount,
		CreatedAt:     bet.CreatedAt,
		Pending:       bet,
		PendingPayout: bet.Payout,
	})
	if errors.Is(err, models.ErrDuplicateBet) {
		return ge.replay(ctx, bet.UserID, bet.ID, bet.GameType)
	}
	if err != nil {
		return nil, err
	}

	wallet, err := ge.settlement.Settle(ctx, reservation, bet.Payout, bet)
	if errors.Is(err, models.ErrAlreadySettled) {
		return ge.replay(ctx, bet.UserID, bet.ID, bet.GameType)
	}
	if err != nil {
		ge.logger.Error("settlement failed after reservation",
			slog.Int64("user_id", bet.UserID),
			slog.String("bet_id", bet.ID),
			slog.Any("error", err))
		return nil, err
	}

	res := models.PlayResultFromBet(bet, wallet.Balance)
	ge.broadcaster.BroadcastBetSettled(bet.UserID, res)
	ge.broadcaster.BroadcastBalance(bet.UserID, wallet)
	return res, nil
}

// settleSession writes the terminal state of a session together with its
// balance effect. Concurrent transitions on the same session lose with
// ErrConcurrencyConflict and change nothing.
func (ge *GameEngine) settleSession(ctx context.Context, current, next *models.GameSession, bet *models.Bet, outcome models.Result) (*models.PlayResult, error) {
	wallet, err := ge.settlement.SettleSession(ctx, reservationFor(current), next.Payout, bet, next, current.Version)
	if errors.Is(err, models.ErrAlreadySettled) {
		return nil, models.ErrSessionNotActive
	}
	if err != nil {
		return nil, err
	}

	res := sessionResult(next, outcome, wallet.Balance)
	ge.broadcaster.BroadcastBetSettled(next.UserID, res)
	ge.broadcaster.BroadcastBalance(next.UserID, wallet)
	return res, nil
}

// claimBetID returns the bet id to use. A client-supplied id that was
// already settled short-circuits into a replay of the stored result.
func (ge *GameEngine) claimBetID(ctx context.Context, userID int64, clientID string, gameType models.GameType) (string, *models.PlayResult, error) {
	if clientID == "" {
		return models.GenerateBetID(), nil, nil
	}

	_, err := ge.store.GetReservation(ctx, userID, clientID)
	if errors.Is(err, models.ErrBetNotFound) {
		return clientID, nil, nil
	}
	if err != nil {
		return "", nil, err
	}

	res, err := ge.replay(ctx, userID, clientID, gameType)
	return "", res, err
}

// replay reports the current state of an existing bet id: its ledger entry
// once settled, or its session while one is in progress.
func (ge *GameEngine) replay(ctx context.Context, userID int64, betID string, gameType models.GameType) (*models.PlayResult, error) {
	bet, err := ge.store.GetBet(ctx, userID, betID)
	switch {
	case err == nil:
		if bet.GameType != gameType {
			return nil, models.NewValidationError("bet_id", "already used for %s", bet.GameType)
		}
		wallet, err := ge.store.GetBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
		res := models.PlayResultFromBet(bet, wallet.Balance)
		res.Replayed = true
		return res, nil
	case !errors.Is(err, models.ErrBetNotFound):
		return nil, err
	}

	rec, err := ge.store.GetReservation(ctx, userID, betID)
	if errors.Is(err, models.ErrBetNotFound) {
		return nil, models.ErrBetInProgress
	}
	if err != nil {
		return nil, err
	}
	if rec.GameType != gameType {
		return nil, models.NewValidationError("bet_id", "already used for %s", rec.GameType)
	}
	if rec.SessionID == "" {
		return nil, models.ErrBetInProgress
	}

	session, err := ge.store.GetSession(ctx, rec.SessionID, userID)
	if err != nil {
		return nil, err
	}
	wallet, err := ge.store.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := sessionResult(session, "", wallet.Balance)
	res.Replayed = true
	return res, nil
}

// sessionResult reports a session to the caller. Seed and mine positions
// are included only once the session is terminal.
func sessionResult(session *models.GameSession, outcome models.Result, balance float64) *models.PlayResult {
	s := session.Redacted()

	res := &models.PlayResult{
		BetID:      s.BetID,
		SessionID:  s.ID,
		GameType:   s.GameType,
		Result:     outcome,
		Status:     s.Status,
		Amount:     s.Amount,
		Multiplier: s.Multiplier,
		Payout:     s.Payout,
		NewBalance: balance,
		Commitment: s.Commitment,
		Seed:       s.Seed,
	}

	switch s.GameType {
	case models.GameTypeMines:
		res.Mines = &models.MinesOutcome{
			MinesCount:    s.MinesCount,
			GridSize:      s.GridSize,
			MinePositions: s.MinePositions,
			Revealed:      s.Revealed,
			HitTile:       s.HitTile,
		}
	case models.GameTypeCrash:
		if outcome == "" && s.IsActive() {
			res.Result = models.ResultManual
		}
		if !s.IsActive() {
			res.Crash = &models.CrashOutcome{CrashPoint: s.CrashPoint, CashoutAt: s.CashoutAt}
		}
	}

	return res
}

// VerificationResult is the recomputed outcome for a disclosed seed.
type VerificationResult struct {
	GameType        models.GameType                 `json:"game_type"`
	Seed            string                          `json:"seed"`
	Commitment      string                          `json:"commitment"`
	CommitmentValid bool                            `json:"commitment_valid"`
	Dice            *provablyfair.DiceVerification  `json:"dice,omitempty"`
	Mines           *provablyfair.MinesVerification `json:"mines,omitempty"`
	Crash           *provablyfair.CrashVerification `json:"crash,omitempty"`
}

// Verify recomputes an outcome from a disclosed seed so a player can check it
// against the commitment and the result they were given.
func (ge *GameEngine) Verify(req *models.VerifyRequest) (*VerificationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	seed, err := provablyfair.ParseSeed(req.Seed)
	if err != nil {
		return nil, models.NewValidationError("seed", "must be 64 lowercase hex characters")
	}
	commitment := provablyfair.Commitment(req.Commitment)

	out := &VerificationResult{
		GameType:   req.GameType,
		Seed:       req.Seed,
		Commitment: req.Commitment,
	}

	switch req.GameType {
	case models.GameTypeDice:
		v := provablyfair.VerifyDice(seed, commitment, req.Target, req.Over)
		out.Dice = &v
		out.CommitmentValid = v.CommitmentValid
	case models.GameTypeMines:
		v, err := provablyfair.VerifyMines(seed, commitment, req.MinesCount, req.GridSize)
		if err != nil {
			return nil, models.NewValidationError("mines_count", "%v", err)
		}
		out.Mines = &v
		out.CommitmentValid = v.CommitmentValid
	case models.GameTypeCrash:
		v := provablyfair.VerifyCrash(seed, commitment)
		out.Crash = &v
		out.CommitmentValid = v.CommitmentValid
	}

	return out, nil
}

func (ge *GameEngine) GetBalance(ctx context.Context, userID int64) (*models.Wallet, error) {
	return ge.store.GetBalance(ctx, userID)
}

// GetActiveSessions lists the user's rounds in progress, redacted.
func (ge *GameEngine) GetActiveSessions(ctx context.Context, userID int64) ([]*models.GameSession, error) {
	sessions, err := ge.store.ListActiveSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.GameSession, len(sessions))
	for i, s := range sessions {
		out[i] = s.Redacted()
	}
	return out, nil
}

func (ge *GameEngine) GetSession(ctx context.Context, userID int64, sessionID string) (*models.GameSession, error) {
	session, err := ge.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return session.Redacted(), nil
}

func (ge *GameEngine) GetBetHistory(ctx context.Context, userID int64, limit int64) ([]*models.Bet, error) {
	return ge.store.ListBets(ctx, userID, limit)
}

// CleanupStaleRounds settles reservations left open for longer than maxAge:
// manual crash rounds with no reported cash-out are lost, abandoned mines
// rounds are cashed out at their current multiplier, and single-step bets
// whose caller went away are settled with their recorded outcome.
func (ge *GameEngine) CleanupStaleRounds(ctx context.Context, maxAge time.Duration) (int, error) {
	records, err := ge.store.ListStaleReservations(ctx, ge.now().Add(-maxAge), staleSweepBatch)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, rec := range records {
		err := ge.settleStale(ctx, rec)
		switch {
		case err == nil:
			settled++
		case errors.Is(err, models.ErrAlreadySettled), models.IsRetryable(err), models.IsSessionState(err):
			ge.logger.Debug("stale round settled elsewhere",
				slog.Int64("user_id", rec.UserID),
				slog.String("bet_id", rec.ID))
		default:
			ge.logger.Error("failed to settle stale round",
				slog.Int64("user_id", rec.UserID),
				slog.String("bet_id", rec.ID),
				slog.Any("error", err))
		}
	}

	if settled > 0 {
		ge.logger.Info("stale rounds settled", slog.Int("count", settled))
	}
	return settled, nil
}

func (ge *GameEngine) settleStale(ctx context.Context, rec *ReservationRecord) error {
	if rec.SessionID == "" {
		if rec.Pending == nil {
			return fmt.Errorf("open reservation %s has neither session nor outcome", rec.ID)
		}
		wallet, err := ge.settlement.Settle(ctx, &rec.Reservation, rec.PendingPayout, rec.Pending)
		if err != nil {
			return err
		}
		ge.broadcaster.BroadcastBetSettled(rec.UserID, models.PlayResultFromBet(rec.Pending, wallet.Balance))
		ge.broadcaster.BroadcastBalance(rec.UserID, wallet)
		return nil
	}

	session, err := ge.store.GetSession(ctx, rec.SessionID, rec.UserID)
	if err != nil {
		return err
	}

	switch session.GameType {
	case models.GameTypeCrash:
		_, err = ge.ResolveCrash(ctx, rec.UserID, session.ID, 0)
		return err
	case models.GameTypeMines:
		next, err := expireSession(session, ge.now())
		if err != nil {
			return err
		}
		_, err = ge.settleSession(ctx, session, next, minesBet(next), models.ResultCashout)
		return err
	}
	return fmt.Errorf("session %s has unknown game type %q", session.ID, session.GameType)
}
