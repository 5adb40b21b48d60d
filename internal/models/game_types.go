package models

import "fairbet-backend/internal/provablyfair"

type GameType string

const (
	GameTypeDice  GameType = "dice"
	GameTypeMines GameType = "mines"
	GameTypeCrash GameType = "crash"
)

func (g GameType) Valid() bool {
	switch g {
	case GameTypeDice, GameTypeMines, GameTypeCrash:
		return true
	}
	return false
}

func AllGameTypes() []GameType {
	return []GameType{GameTypeDice, GameTypeMines, GameTypeCrash}
}

type DiceSettings struct {
	MaxMultiplier float64 `json:"max_multiplier"`
}

// MaxMinesGridSize bounds the board so every mine count can be priced up front.
const MaxMinesGridSize = 100

type MinesSettings struct {
	GridSize int `json:"grid_size"`
	MinMines int `json:"min_mines"`
	MaxMines int `json:"max_mines"`
}

type CrashSettings struct {
	MaxMultiplier float64 `json:"max_multiplier"`
}

// GameConfig holds the bounds shared by every game plus exactly one
// game-specific settings block matching GameType.
type GameConfig struct {
	GameType  GameType `json:"game_type"`
	MinBet    float64  `json:"min_bet"`
	MaxBet    float64  `json:"max_bet"`
	HouseEdge float64  `json:"house_edge"`

	Dice  *DiceSettings  `json:"dice,omitempty"`
	Mines *MinesSettings `json:"mines,omitempty"`
	Crash *CrashSettings `json:"crash,omitempty"`
}

func (c *GameConfig) Validate() error {
	if !c.GameType.Valid() {
		return NewValidationError("game_type", "unknown game type %q", c.GameType)
	}
	if c.MinBet <= 0 {
		return NewValidationError("min_bet", "must be positive")
	}
	if c.MaxBet < c.MinBet {
		return NewValidationError("max_bet", "must not be below min_bet")
	}
	if c.HouseEdge < 0 || c.HouseEdge >= 1 {
		return NewValidationError("house_edge", "must be in [0, 1)")
	}

	present := 0
	for _, set := range []bool{c.Dice != nil, c.Mines != nil, c.Crash != nil} {
		if set {
			present++
		}
	}
	if present != 1 {
		return NewValidationError("settings", "exactly one settings block is required, got %d", present)
	}

	switch c.GameType {
	case GameTypeDice:
		if c.Dice == nil {
			return NewValidationError("dice", "required for game type dice")
		}
		if c.Dice.MaxMultiplier <= 1 {
			return NewValidationError("dice.max_multiplier", "must be above 1")
		}
	case GameTypeMines:
		if c.Mines == nil {
			return NewValidationError("mines", "required for game type mines")
		}
		m := c.Mines
		if m.GridSize < 2 || m.GridSize > MaxMinesGridSize {
			return NewValidationError("mines.grid_size", "must be between 2 and %d", MaxMinesGridSize)
		}
		if m.MinMines < 1 || m.MaxMines < m.MinMines || m.MaxMines >= m.GridSize {
			return NewValidationError("mines", "need 1 <= min_mines <= max_mines < grid_size, got %d..%d on %d",
				m.MinMines, m.MaxMines, m.GridSize)
		}
		if err := validateMinesLadder(m); err != nil {
			return err
		}
	case GameTypeCrash:
		if c.Crash == nil {
			return NewValidationError("crash", "required for game type crash")
		}
		if c.Crash.MaxMultiplier < 1.01 {
			return NewValidationError("crash.max_multiplier", "must be at least 1.01")
		}
	}
	return nil
}

// validateMinesLadder rejects grids where a safe reveal would not raise the
// rounded multiplier for some allowed mine count.
func validateMinesLadder(m *MinesSettings) error {
	for mines := m.MinMines; mines <= m.MaxMines; mines++ {
		prev := 1.0
		for r := 1; r <= m.GridSize-mines; r++ {
			x, err := provablyfair.MinesMultiplier(r, mines, m.GridSize)
			if err != nil {
				return NewValidationError("mines", "%v", err)
			}
			if x <= prev {
				return NewValidationError("mines.grid_size",
					"%d mines on %d tiles pays %.2f after %d reveals, not above %.2f", mines, m.GridSize, x, r, prev)
			}
			prev = x
		}
	}
	return nil
}

// ValidateAmount checks a stake against the configured bounds.
func (c *GameConfig) ValidateAmount(amount float64) error {
	if amount < c.MinBet || amount > c.MaxBet {
		return NewValidationError("amount", "must be between %.2f and %.2f", c.MinBet, c.MaxBet)
	}
	return nil
}

// DefaultGameConfigs are the configurations seeded into an empty store.
func DefaultGameConfigs() map[GameType]GameConfig {
	return map[GameType]GameConfig{
		GameTypeDice: {
			GameType:  GameTypeDice,
			MinBet:    1,
			MaxBet:    1000,
			HouseEdge: 0.01,
			Dice:      &DiceSettings{MaxMultiplier: 99},
		},
		GameTypeMines: {
			GameType:  GameTypeMines,
			MinBet:    1,
			MaxBet:    1000,
			HouseEdge: 0.01,
			Mines:     &MinesSettings{GridSize: 25, MinMines: 1, MaxMines: 24},
		},
		GameTypeCrash: {
			GameType:  GameTypeCrash,
			MinBet:    1,
			MaxBet:    1000,
			HouseEdge: 0.01,
			Crash:     &CrashSettings{MaxMultiplier: 10000},
		},
	}
}
