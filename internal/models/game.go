package models

// MinCrashCashout is the lowest multiplier a crash round can be cashed out
// at, automatically or live. A round that busts at 1.00 is always lost.
const MinCrashCashout = 1.01

type DicePlayRequest struct {
	BetID  string  `json:"bet_id"`
	Amount float64 `json:"amount" binding:"required"`
	Target float64 `json:"target" binding:"required"`
	Over   bool    `json:"over"`
}

func (r *DicePlayRequest) Validate() error {
	if err := ValidateClientID("bet_id", r.BetID); err != nil {
		return err
	}
	if err := ValidateStake(r.Amount); err != nil {
		return err
	}
	if r.Target <= 0 || r.Target >= 99.99 {
		return NewValidationError("target", "must be between 0 and 99.99 exclusive")
	}
	return nil
}

type CrashPlayRequest struct {
	BetID  string  `json:"bet_id"`
	Amount float64 `json:"amount" binding:"required"`
	// AutoCashout is the multiplier to cash out at. Nil plays a manual round.
	AutoCashout *float64 `json:"auto_cashout"`
}

func (r *CrashPlayRequest) Validate() error {
	if err := ValidateClientID("bet_id", r.BetID); err != nil {
		return err
	}
	if err := ValidateStake(r.Amount); err != nil {
		return err
	}
	if r.AutoCashout != nil && *r.AutoCashout < MinCrashCashout {
		return NewValidationError("auto_cashout", "must be at least %.2f", MinCrashCashout)
	}
	return nil
}

type MinesStartRequest struct {
	BetID      string  `json:"bet_id"`
	Amount     float64 `json:"amount" binding:"required"`
	MinesCount int     `json:"mines_count" binding:"required"`
}

func (r *MinesStartRequest) Validate() error {
	if err := ValidateClientID("bet_id", r.BetID); err != nil {
		return err
	}
	if err := ValidateStake(r.Amount); err != nil {
		return err
	}
	if r.MinesCount < 1 {
		return NewValidationError("mines_count", "must be at least 1")
	}
	return nil
}

type MinesRevealRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Tile      *int   `json:"tile" binding:"required"`
}

func (r *MinesRevealRequest) Validate() error {
	if r.Tile == nil || *r.Tile < 0 {
		return NewValidationError("tile", "must be a non-negative tile index")
	}
	return nil
}

type MinesCashoutRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// CrashResolveRequest is sent by the live crash layer when a manual round
// ends. CashoutAt is 0 when the player never cashed out.
type CrashResolveRequest struct {
	UserID    int64   `json:"user_id" binding:"required"`
	SessionID string  `json:"session_id" binding:"required"`
	CashoutAt float64 `json:"cashout_at"`
}

// CrashRound is what the live crash layer needs to run a manual round.
// It carries the crash point and must never reach the player.
type CrashRound struct {
	SessionID  string  `json:"session_id"`
	UserID     int64   `json:"user_id"`
	BetID      string  `json:"bet_id"`
	Amount     float64 `json:"amount"`
	Commitment string  `json:"commitment"`
	CrashPoint float64 `json:"crash_point"`
}

// VerifyRequest recomputes an outcome from a disclosed seed.
type VerifyRequest struct {
	GameType   GameType `json:"game_type" binding:"required"`
	Seed       string   `json:"seed" binding:"required"`
	Commitment string   `json:"commitment" binding:"required"`

	Target     float64 `json:"target,omitempty"`
	Over       bool    `json:"over,omitempty"`
	MinesCount int     `json:"mines_count,omitempty"`
	GridSize   int     `json:"grid_size,omitempty"`
}

func (r *VerifyRequest) Validate() error {
	if !r.GameType.Valid() {
		return NewValidationError("game_type", "unknown game type %q", r.GameType)
	}
	switch r.GameType {
	case GameTypeDice:
		if r.Target <= 0 || r.Target >= 99.99 {
			return NewValidationError("target", "must be between 0 and 99.99 exclusive")
		}
	case GameTypeMines:
		if r.GridSize < 1 || r.MinesCount < 1 || r.MinesCount > r.GridSize {
			return NewValidationError("mines_count", "must be between 1 and grid_size")
		}
	}
	return nil
}

// PlayResult is what every play and transition reports back to the caller.
// Seed is set only once the outcome is terminal.
type PlayResult struct {
	BetID     string        `json:"bet_id"`
	SessionID string        `json:"session_id,omitempty"`
	GameType  GameType      `json:"game_type"`
	Result    Result        `json:"result,omitempty"`
	Status    SessionStatus `json:"status,omitempty"`

	Amount     float64 `json:"amount"`
	Multiplier float64 `json:"multiplier"`
	Payout     float64 `json:"payout"`
	NewBalance float64 `json:"new_balance"`

	Commitment string `json:"commitment"`
	Seed       string `json:"seed,omitempty"`

	Tile  *int          `json:"tile,omitempty"`
	Dice  *DiceOutcome  `json:"dice,omitempty"`
	Mines *MinesOutcome `json:"mines,omitempty"`
	Crash *CrashOutcome `json:"crash,omitempty"`

	// Replayed is set when an already-settled bet id was submitted again.
	Replayed bool `json:"replayed,omitempty"`
}

// PlayResultFromBet reports a stored ledger entry as a play result.
func PlayResultFromBet(b *Bet, newBalance float64) *PlayResult {
	return &PlayResult{
		BetID:      b.ID,
		SessionID:  b.SessionID,
		GameType:   b.GameType,
		Result:     b.Result,
		Amount:     b.Amount,
		Multiplier: b.Multiplier,
		Payout:     b.Payout,
		NewBalance: newBalance,
		Commitment: b.Commitment,
		Seed:       b.Seed,
		Dice:       b.Dice,
		Mines:      b.Mines,
		Crash:      b.Crash,
	}
}
