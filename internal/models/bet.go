package models

import "time"

// Result classifies what a play or transition produced. Ledger entries only
// carry win, loss or cashout; mine, safe and manual describe intermediate
// or undecided outcomes reported to the caller.
type Result string

const (
	ResultWin     Result = "win"
	ResultLoss    Result = "loss"
	ResultCashout Result = "cashout"
	ResultMine    Result = "mine"
	ResultSafe    Result = "safe"
	ResultManual  Result = "manual"
)

func (r Result) Terminal() bool {
	switch r {
	case ResultWin, ResultLoss, ResultCashout, ResultMine:
		return true
	}
	return false
}

type DiceOutcome struct {
	Roll   float64 `json:"roll"`
	Target float64 `json:"target"`
	Over   bool    `json:"over"`
}

type MinesOutcome struct {
	MinesCount    int   `json:"mines_count"`
	GridSize      int   `json:"grid_size"`
	MinePositions []int `json:"mine_positions,omitempty"`
	Revealed      []int `json:"revealed"`
	HitTile       *int  `json:"hit_tile,omitempty"`
}

type CrashOutcome struct {
	CrashPoint  float64 `json:"crash_point"`
	AutoCashout float64 `json:"auto_cashout,omitempty"`
	CashoutAt   float64 `json:"cashout_at,omitempty"`
}

// Bet is an append-only ledger record of one resolved wager.
type Bet struct {
	ID         string   `json:"id"`
	UserID     int64    `json:"user_id"`
	GameType   GameType `json:"game_type"`
	SessionID  string   `json:"session_id,omitempty"`
	Amount     float64  `json:"amount"`
	Multiplier float64  `json:"multiplier"`
	Result     Result   `json:"result"`
	Payout     float64  `json:"payout"`

	Commitment string `json:"commitment"`
	Seed       string `json:"seed,omitempty"`

	Dice  *DiceOutcome  `json:"dice,omitempty"`
	Mines *MinesOutcome `json:"mines,omitempty"`
	Crash *CrashOutcome `json:"crash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
