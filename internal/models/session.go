package models

import (
	"slices"
	"time"
)

type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusLost   SessionStatus = "lost"
	SessionStatusWon    SessionStatus = "won"
)

// GameSession is an in-progress round that outlives a single request: a mines
// board, or a crash round waiting for a manual cash-out. It is mutable while
// Active and frozen once Lost or Won.
type GameSession struct {
	ID       string        `json:"id"`
	UserID   int64         `json:"user_id"`
	GameType GameType      `json:"game_type"`
	BetID    string        `json:"bet_id"`
	Amount   float64       `json:"amount"`
	Status   SessionStatus `json:"status"`

	Multiplier float64 `json:"multiplier"`
	Payout     float64 `json:"payout"`

	Commitment string `json:"commitment"`
	Seed       string `json:"seed,omitempty"`

	MinesCount    int   `json:"mines_count,omitempty"`
	GridSize      int   `json:"grid_size,omitempty"`
	MinePositions []int `json:"mine_positions,omitempty"`
	Revealed      []int `json:"revealed,omitempty"`
	HitTile       *int  `json:"hit_tile,omitempty"`

	CrashPoint float64 `json:"crash_point,omitempty"`
	CashoutAt  float64 `json:"cashout_at,omitempty"`

	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func (s *GameSession) IsActive() bool {
	return s.Status == SessionStatusActive
}

func (s *GameSession) HasRevealed(tile int) bool {
	return slices.Contains(s.Revealed, tile)
}

func (s *GameSession) IsMine(tile int) bool {
	return slices.Contains(s.MinePositions, tile)
}

func (s *GameSession) SafeTiles() int {
	return s.GridSize - s.MinesCount
}

// Clone returns a deep copy so transitions never alias the stored slices.
func (s *GameSession) Clone() *GameSession {
	c := *s
	c.MinePositions = slices.Clone(s.MinePositions)
	c.Revealed = slices.Clone(s.Revealed)
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	if s.HitTile != nil {
		tile := *s.HitTile
		c.HitTile = &tile
	}
	return &c
}

// Redacted hides everything that would let the player predict the rest of
// an active round. Terminal sessions are returned unchanged.
func (s *GameSession) Redacted() *GameSession {
	c := s.Clone()
	if c.IsActive() {
		c.Seed = ""
		c.MinePositions = nil
		c.CrashPoint = 0
	}
	return c
}
