package services

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fairbet-backend/internal/models"
	"fairbet-backend/internal/provablyfair"
)

const (
	zeroSeedCommitment = "60e05bd1b195af2f94112fa7197a5c88289058840ce7c6df9693756bc6250f55"

	// Seed prefix a3f1c2d4: dice roll 2.60, crash point 2.75.
	lowRollPrefix = "a3f1c2d4"
)

func seedWithPrefix(prefix string) provablyfair.Seed {
	return provablyfair.Seed(prefix + strings.Repeat("0", provablyfair.SeedHexLength-len(prefix)))
}

func fixedSeed(prefix string) SeedSource {
	seed := seedWithPrefix(prefix)
	return func() (provablyfair.Seed, provablyfair.Commitment, error) {
		return seed, provablyfair.Commit(seed), nil
	}
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	settled  []*models.PlayResult
	balances []*models.Wallet
}

func (r *recordingBroadcaster) BroadcastBetSettled(_ int64, result *models.PlayResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settled = append(r.settled, result)
}

func (r *recordingBroadcaster) BroadcastBalance(_ int64, wallet *models.Wallet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances = append(r.balances, wallet)
}

type EngineSuite struct {
	suite.Suite
	store       *RedisService
	engine      *GameEngine
	broadcaster *recordingBroadcaster
	seed        SeedSource
	now         time.Time
	ctx         context.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.store, _ = newTestStore(s.T())
	s.ctx = context.Background()
	s.Require().NoError(s.store.SeedDefaultGameConfigs(s.ctx))

	s.seed = fixedSeed("00000000")
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.broadcaster = &recordingBroadcaster{}

	s.engine = NewGameEngine(s.store, discardLogger(),
		WithBroadcaster(s.broadcaster),
		WithSeedSource(func() (provablyfair.Seed, provablyfair.Commitment, error) { return s.seed() }),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *EngineSuite) balance(userID int64) float64 {
	wallet, err := s.store.GetBalance(s.ctx, userID)
	s.Require().NoError(err)
	return wallet.Balance
}

// Dice

func (s *EngineSuite) TestDiceZeroSeedLoses() {
	res, err := s.engine.PlayDice(s.ctx, 1, &models.DicePlayRequest{Amount: 10, Target: 50, Over: true})
	s.Require().NoError(err)

	s.Equal(models.ResultLoss, res.Result)
	s.Equal(0.0, res.Dice.Roll)
	s.Equal(0.0, res.Multiplier)
	s.Equal(0.0, res.Payout)
	s.Equal(90.0, res.NewBalance)
	s.Equal(zeroSeedCommitment, res.Commitment)
	s.Equal(string(seedWithPrefix("00000000")), res.Seed)

	bet, err := s.store.GetBet(s.ctx, 1, res.BetID)
	s.Require().NoError(err)
	s.Equal(models.ResultLoss, bet.Result)
	s.Equal(res.Seed, bet.Seed)
}

func (s *EngineSuite) TestDiceWinPaysRoundedMultiplier() {
	s.seed = fixedSeed(lowRollPrefix)

	res, err := s.engine.PlayDice(s.ctx, 1, &models.DicePlayRequest{Amount: 10, Target: 50, Over: false})
	s.Require().NoError(err)

	s.Equal(models.ResultWin, res.Result)
	s.Equal(2.6, res.Dice.Roll)
	s.Equal(1.98, res.Multiplier)
	s.Equal(19.8, res.Payout)
	s.Equal(109.8, res.NewBalance)

	s.Require().Len(s.broadcaster.settled, 1)
	s.Equal(res.BetID, s.broadcaster.settled[0].BetID)
	s.Require().Len(s.broadcaster.balances, 1)
	s.Equal(109.8, s.broadcaster.balances[0].Balance)
}

func (s *EngineSuite) TestDiceRejectsTargetAboveMaxMultiplier() {
	_, err := s.engine.PlayDice(s.ctx, 1, &models.DicePlayRequest{Amount: 1, Target: 0.5, Over: false})
	s.True(models.IsValidation(err))
	s.Equal(100.0, s.balance(1))

	_, err = s.engine.PlayDice(s.ctx, 1, &models.DicePlayRequest{Amount: 1, Target: 1, Over: false})
	s.NoError(err)
}

func (s *EngineSuite) TestDiceStakeBounds() {
	for _, amount := range []float64{0.5, 1000.01, 1.234} {
		_, err := s.engine.PlayDice(s.ctx, 1, &models.DicePlayRequest{Amount: amount, Target: 50})
		s.True(models.IsValidation(err), "amount %v", amount)
	}
	s.Equal(100.0, s.balance(1))
}

func (s *EngineSuite) TestInsufficientBalance() {
	_, err := s.engine.PlayDice(s.ctx, 1, &models.DicePlayRequest{Amount: 100.01, Target: 50})
	s.ErrorIs(err, models.ErrInsufficientBalance)

	wallet, err := s.store.GetBalance(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(100.0, wallet.Balance)
	s.Equal(0.0, wallet.LockedBalance)
}

func (s *EngineSuite) TestMissingConfig() {
	s.Require().NoError(s.store.DeleteGameConfig(s.ctx, models.GameTypeDice))

	_, err := s.engine.PlayDice(s.ctx, 1, &models.DicePlayRequest{Amount: 10, Target: 50})
	s.ErrorIs(err, models.ErrConfigMissing)
}

func (s *EngineSuite) TestDiceReplayReturnsStoredResult() {
	s.seed = fixedSeed(lowRollPrefix)
	req := &models.DicePlayRequest{BetID: "client-1", Amount: 10, Target: 50}

	first, err := s.engine.PlayDice(s.ctx, 1, req)
	s.Require().NoError(err)
	s.False(first.Replayed)

	s.seed = fixedSeed("00000000")
	second, err := s.engine.PlayDice(s.ctx, 1, req)
	s.Require().NoError(err)

	s.True(second.Replayed)
	s.Equal(first.BetID, second.BetID)
	s.Equal(first.Dice.Roll, second.Dice.Roll)
	s.Equal(first.Payout, second.Payout)
	s.Equal(109.8, s.balance(1))
}

func (s *EngineSuite) TestBetIDCannotBeReusedForAnotherGame() {
	_, err := s.engine.PlayDice(s.ctx, 1, &models.DicePlayRequest{BetID: "client-1", Amount: 10, Target: 50})
	s.Require().NoError(err)

	auto := 2.0
	_, err = s.engine.PlayCrash(s.ctx, 1, &models.CrashPlayRequest{BetID: "client-1", Amount: 10, AutoCashout: &auto})
	s.True(models.IsValidation(err))
}

func (s *EngineSuite) TestBetInProgressIsRetryable() {
	_, _, err := s.store.Reserve(s.ctx, &Hold{
		UserID:    1,
		BetID:     "client-2",
		GameType:  models.GameTypeDice,
		Amount:    10,
		CreatedAt: s.now,
	})
	s.Require().NoError(err)

	_, err = s.engine.PlayDice(s.ctx, 1, &models.DicePlayRequest{BetID: "client-2", Amount: 10, Target: 50})
	s.ErrorIs(err, models.ErrBetInProgress)
	s.True(models.IsRetryable(err))
}

// Crash

func (s *EngineSuite) TestCrashAutoCashout() {
	s.seed = fixedSeed(lowRollPrefix)

	tests := []struct {
		target float64
		result models.Result
		payout float64
	}{
		{target: 2.5, result: models.ResultCashout, payout: 25},
		{target: 2.75, result: models.ResultCashout, payout: 27.5},
		{target: 2.76, result: models.ResultLoss, payout: 0},
	}

	for _, tt := range tests {
		target := tt.target
		res, err := s.engine.PlayCrash(s.ctx, 1, &models.CrashPlayRequest{Amount: 10, AutoCashout: &target})
		s.Require().NoError(err)
		s.Equal(tt.result, res.Result, "target %v", tt.target)
		s.Equal(tt.payout, res.Payout, "target %v", tt.target)
		s.Equal(2.75, res.Crash.CrashPoint)
		s.NotEmpty(res.Seed)
	}
}

func (s *EngineSuite) TestCrashZeroSeedBustsInstantly() {
	target := 1.01
	res, err := s.engine.PlayCrash(s.ctx, 1, &models.CrashPlayRequest{Amount: 10, AutoCashout: &target})
	s.Require().NoError(err)
	s.Equal(models.ResultLoss, res.Result)
	s.Equal(1.0, res.Crash.CrashPoint)
}

func (s *EngineSuite) TestCrashAutoCashoutValidation() {
	for _, target := range []float64{10000.01, 1.015, 1.0} {
		t := target
		_, err := s.engine.PlayCrash(s.ctx, 1, &models.CrashPlayRequest{Amount: 10, AutoCashout: &t})
		s.True(models.IsValidation(err), "target %v", target)
	}
	s.Equal(100.0, s.balance(1))
}

func (s *EngineSuite) TestManualCrashRound() {
	s.seed = fixedSeed(lowRollPrefix)

	res, err := s.engine.PlayCrash(s.ctx, 1, &models.CrashPlayRequest{Amount: 10})
	s.Require().NoError(err)
	s.Equal(models.ResultManual, res.Result)
	s.Equal(models.SessionStatusActive, res.Status)
	s.Nil(res.Crash)
	s.Empty(res.Seed)
	s.Equal(90.0, res.NewBalance)

	round, err := s.engine.CrashRound(s.ctx, 1, res.SessionID)
	s.Require().NoError(err)
	s.Equal(2.75, round.CrashPoint)
	s.Equal(res.BetID, round.BetID)
	s.Equal(res.Commitment, round.Commitment)

	active, err := s.engine.GetActiveSessions(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Zero(active[0].CrashPoint)
	s.Empty(active[0].Seed)

	resolved, err := s.engine.ResolveCrash(s.ctx, 1, res.SessionID, 2)
	s.Require().NoError(err)
	s.Equal(models.ResultCashout, resolved.Result)
	s.Equal(models.SessionStatusWon, resolved.Status)
	s.Equal(20.0, resolved.Payout)
	s.Equal(110.0, resolved.NewBalance)
	s.Equal(2.75, resolved.Crash.CrashPoint)
	s.NotEmpty(resolved.Seed)

	_, err = s.engine.ResolveCrash(s.ctx, 1, res.SessionID, 2)
	s.ErrorIs(err, models.ErrSessionNotActive)

	_, err = s.engine.CrashRound(s.ctx, 1, res.SessionID)
	s.ErrorIs(err, models.ErrSessionNotActive)

	bet, err := s.store.GetBet(s.ctx, 1, res.BetID)
	s.Require().NoError(err)
	s.Equal(2.0, bet.Crash.CashoutAt)
}

func (s *EngineSuite) TestManualCrashCashoutAboveCrashPointLoses() {
	s.seed = fixedSeed(lowRollPrefix)

	res, err := s.engine.PlayCrash(s.ctx, 1, &models.CrashPlayRequest{Amount: 10})
	s.Require().NoError(err)

	resolved, err := s.engine.ResolveCrash(s.ctx, 1, res.SessionID, 3)
	s.Require().NoError(err)
	s.Equal(models.ResultLoss, resolved.Result)
	s.Equal(0.0, resolved.Payout)
	s.Equal(90.0, s.balance(1))
}

func (s *EngineSuite) TestManualCrashInstantBustCannotBeCashedOut() {
	res, err := s.engine.PlayCrash(s.ctx, 1, &models.CrashPlayRequest{Amount: 10})
	s.Require().NoError(err)

	_, err = s.engine.ResolveCrash(s.ctx, 1, res.SessionID, 1)
	s.True(models.IsValidation(err))
	s.Equal(90.0, s.balance(1))

	resolved, err := s.engine.ResolveCrash(s.ctx, 1, res.SessionID, models.MinCrashCashout)
	s.Require().NoError(err)
	s.Equal(models.ResultLoss, resolved.Result)
	s.Equal(1.0, resolved.Crash.CrashPoint)
	s.Equal(0.0, resolved.Payout)
	s.Equal(90.0, s.balance(1))
}

func (s *EngineSuite) TestCrashRoundRejectsOtherRounds() {
	start := s.startMines(5, 3)

	_, err := s.engine.CrashRound(s.ctx, 1, start.SessionID)
	s.True(models.IsValidation(err))

	_, err = s.engine.CrashRound(s.ctx, 1, "game_missing")
	s.ErrorIs(err, models.ErrNotFound)
}

// Mines

func (s *EngineSuite) startMines(amount float64, minesCount int) *models.PlayResult {
	res, err := s.engine.StartMines(s.ctx, 1, &models.MinesStartRequest{Amount: amount, MinesCount: minesCount})
	s.Require().NoError(err)
	return res
}

func (s *EngineSuite) TestMinesRevealThenCashout() {
	start := s.startMines(5, 3)
	s.Equal(models.SessionStatusActive, start.Status)
	s.Equal(1.0, start.Multiplier)
	s.Equal(zeroSeedCommitment, start.Commitment)
	s.Empty(start.Seed)
	s.Nil(start.Mines.MinePositions)
	s.Equal(95.0, start.NewBalance)

	reveal, err := s.engine.RevealMine(s.ctx, 1, start.SessionID, 1)
	s.Require().NoError(err)
	s.Equal(models.ResultSafe, reveal.Result)
	s.Equal(1.12, reveal.Multiplier)
	s.Equal(1, *reveal.Tile)
	s.Nil(reveal.Mines.MinePositions)

	cashout, err := s.engine.CashoutMines(s.ctx, 1, start.SessionID)
	s.Require().NoError(err)
	s.Equal(models.ResultCashout, cashout.Result)
	s.Equal(models.SessionStatusWon, cashout.Status)
	s.Equal(5.6, cashout.Payout)
	s.Equal(100.6, cashout.NewBalance)
	s.Equal(string(seedWithPrefix("00000000")), cashout.Seed)
	s.Equal([]int{17, 2, 0}, cashout.Mines.MinePositions)

	_, err = s.engine.RevealMine(s.ctx, 1, start.SessionID, 3)
	s.True(models.IsSessionState(err))

	_, err = s.engine.CashoutMines(s.ctx, 1, start.SessionID)
	s.ErrorIs(err, models.ErrSessionNotActive)

	bet, err := s.store.GetBet(s.ctx, 1, start.BetID)
	s.Require().NoError(err)
	s.Equal(models.ResultCashout, bet.Result)
	s.Equal(5.6, bet.Payout)
	s.Equal(start.SessionID, bet.SessionID)
}

func (s *EngineSuite) TestMinesHitLosesStake() {
	start := s.startMines(5, 3)

	res, err := s.engine.RevealMine(s.ctx, 1, start.SessionID, 17)
	s.Require().NoError(err)
	s.Equal(models.ResultMine, res.Result)
	s.Equal(models.SessionStatusLost, res.Status)
	s.Equal(0.0, res.Payout)
	s.Equal(95.0, res.NewBalance)
	s.Equal([]int{17, 2, 0}, res.Mines.MinePositions)
	s.Equal(17, *res.Mines.HitTile)
	s.NotEmpty(res.Seed)

	wallet, err := s.store.GetBalance(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(0.0, wallet.LockedBalance)
}

func (s *EngineSuite) TestMinesRevealErrors() {
	start := s.startMines(5, 3)

	_, err := s.engine.CashoutMines(s.ctx, 1, start.SessionID)
	s.ErrorIs(err, models.ErrNoTilesRevealed)

	_, err = s.engine.RevealMine(s.ctx, 1, start.SessionID, 25)
	s.True(models.IsValidation(err))

	_, err = s.engine.RevealMine(s.ctx, 1, start.SessionID, 4)
	s.Require().NoError(err)
	_, err = s.engine.RevealMine(s.ctx, 1, start.SessionID, 4)
	s.ErrorIs(err, models.ErrAlreadyRevealed)

	_, err = s.engine.RevealMine(s.ctx, 2, start.SessionID, 5)
	s.ErrorIs(err, models.ErrSessionNotFound)
}

func (s *EngineSuite) TestMinesCountBounds() {
	_, err := s.engine.StartMines(s.ctx, 1, &models.MinesStartRequest{Amount: 5, MinesCount: 25})
	s.True(models.IsValidation(err))

	_, err = s.engine.StartMines(s.ctx, 1, &models.MinesStartRequest{Amount: 5, MinesCount: 0})
	s.True(models.IsValidation(err))

	s.Equal(100.0, s.balance(1))
}

func (s *EngineSuite) TestMinesLastSafeTileEndsRound() {
	start := s.startMines(5, 24)

	mines, err := provablyfair.MinePositions(seedWithPrefix("00000000"), 24, 25)
	s.Require().NoError(err)
	safe := -1
	for tile := range 25 {
		if !slices.Contains(mines, tile) {
			safe = tile
		}
	}

	res, err := s.engine.RevealMine(s.ctx, 1, start.SessionID, safe)
	s.Require().NoError(err)
	s.Equal(models.ResultCashout, res.Result)
	s.Equal(models.SessionStatusWon, res.Status)
	s.Equal(24.75, res.Multiplier)
	s.Equal(123.75, res.Payout)
}

func (s *EngineSuite) TestStaleSessionVersionCannotSettle() {
	start := s.startMines(5, 3)

	before, err := s.store.GetSession(s.ctx, start.SessionID, 1)
	s.Require().NoError(err)

	_, err = s.engine.RevealMine(s.ctx, 1, start.SessionID, 1)
	s.Require().NoError(err)

	closed := closeWon(before, s.now)
	_, err = s.engine.settlement.SettleSession(s.ctx, reservationFor(before), closed.Payout, minesBet(closed), closed, before.Version)
	s.ErrorIs(err, models.ErrConcurrencyConflict)
	s.Equal(95.0, s.balance(1))
}

func (s *EngineSuite) TestMinesStartReplay() {
	req := &models.MinesStartRequest{BetID: "client-m", Amount: 5, MinesCount: 3}

	first, err := s.engine.StartMines(s.ctx, 1, req)
	s.Require().NoError(err)

	second, err := s.engine.StartMines(s.ctx, 1, req)
	s.Require().NoError(err)
	s.True(second.Replayed)
	s.Equal(first.SessionID, second.SessionID)
	s.Nil(second.Mines.MinePositions)
	s.Equal(95.0, s.balance(1))
}

// Sweeper

func (s *EngineSuite) TestCleanupStaleRounds() {
	s.seed = fixedSeed(lowRollPrefix)
	crash, err := s.engine.PlayCrash(s.ctx, 1, &models.CrashPlayRequest{Amount: 10})
	s.Require().NoError(err)

	s.seed = fixedSeed("00000000")
	mines := s.startMines(5, 3)

	pending := &models.Bet{
		ID:         "bet_orphan",
		UserID:     1,
		GameType:   models.GameTypeDice,
		Amount:     10,
		Multiplier: 1.98,
		Result:     models.ResultWin,
		Payout:     19.8,
		CreatedAt:  s.now,
	}
	_, _, err = s.store.Reserve(s.ctx, &Hold{
		UserID:        1,
		BetID:         pending.ID,
		GameType:      models.GameTypeDice,
		Amount:        10,
		CreatedAt:     s.now,
		Pending:       pending,
		PendingPayout: pending.Payout,
	})
	s.Require().NoError(err)
	s.Equal(75.0, s.balance(1))

	settled, err := s.engine.CleanupStaleRounds(s.ctx, 10*time.Minute)
	s.Require().NoError(err)
	s.Zero(settled)

	s.now = s.now.Add(11 * time.Minute)
	settled, err = s.engine.CleanupStaleRounds(s.ctx, 10*time.Minute)
	s.Require().NoError(err)
	s.Equal(3, settled)

	// crash lost, mines refunded, orphaned dice paid
	s.Equal(99.8, s.balance(1))

	crashBet, err := s.store.GetBet(s.ctx, 1, crash.BetID)
	s.Require().NoError(err)
	s.Equal(models.ResultLoss, crashBet.Result)

	minesRecord, err := s.store.GetBet(s.ctx, 1, mines.BetID)
	s.Require().NoError(err)
	s.Equal(models.ResultCashout, minesRecord.Result)
	s.Equal(5.0, minesRecord.Payout)

	active, err := s.engine.GetActiveSessions(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(active)

	settled, err = s.engine.CleanupStaleRounds(s.ctx, 10*time.Minute)
	s.Require().NoError(err)
	s.Zero(settled)
}

// Queries

func (s *EngineSuite) TestBetHistoryNewestFirst() {
	var ids []string
	for range 3 {
		res, err := s.engine.PlayDice(s.ctx, 1, &models.DicePlayRequest{Amount: 1, Target: 50, Over: true})
		s.Require().NoError(err)
		ids = append(ids, res.BetID)
		s.now = s.now.Add(time.Second)
	}

	bets, err := s.engine.GetBetHistory(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(bets, 3)
	s.Equal(ids[2], bets[0].ID)
	s.Equal(ids[0], bets[2].ID)
}

func (s *EngineSuite) TestGetSessionRedactsActiveRound() {
	start := s.startMines(5, 3)

	session, err := s.engine.GetSession(s.ctx, 1, start.SessionID)
	s.Require().NoError(err)
	s.Empty(session.Seed)
	s.Nil(session.MinePositions)

	_, err = s.engine.GetSession(s.ctx, 2, start.SessionID)
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *EngineSuite) TestVerify() {
	seed := string(seedWithPrefix("00000000"))

	dice, err := s.engine.Verify(&models.VerifyRequest{
		GameType: models.GameTypeDice, Seed: seed, Commitment: zeroSeedCommitment, Target: 50, Over: true,
	})
	s.Require().NoError(err)
	s.True(dice.CommitmentValid)
	s.Equal(0.0, dice.Dice.Roll)
	s.False(dice.Dice.Win)

	mines, err := s.engine.Verify(&models.VerifyRequest{
		GameType: models.GameTypeMines, Seed: seed, Commitment: zeroSeedCommitment, MinesCount: 3, GridSize: 25,
	})
	s.Require().NoError(err)
	s.Equal([]int{17, 2, 0}, mines.Mines.MinePositions)

	crash, err := s.engine.Verify(&models.VerifyRequest{
		GameType: models.GameTypeCrash, Seed: seed, Commitment: strings.Repeat("0", 64),
	})
	s.Require().NoError(err)
	s.False(crash.CommitmentValid)
	s.Equal(1.0, crash.Crash.CrashPoint)

	_, err = s.engine.Verify(&models.VerifyRequest{
		GameType: models.GameTypeCrash, Seed: "not-a-seed", Commitment: zeroSeedCommitment,
	})
	s.True(models.IsValidation(err))
}
