package provablyfair

// DiceVerification is the recomputed dice outcome for a disclosed seed.
type DiceVerification struct {
	CommitmentValid bool    `json:"commitment_valid"`
	Roll            float64 `json:"roll"`
	Target          float64 `json:"target"`
	Over            bool    `json:"over"`
	Win             bool    `json:"win"`
}

type MinesVerification struct {
	CommitmentValid bool  `json:"commitment_valid"`
	MinesCount      int   `json:"mines_count"`
	GridSize        int   `json:"grid_size"`
	MinePositions   []int `json:"mine_positions"`
}

type CrashVerification struct {
	CommitmentValid bool    `json:"commitment_valid"`
	CrashPoint      float64 `json:"crash_point"`
}

func VerifyDice(seed Seed, commitment Commitment, target float64, over bool) DiceVerification {
	roll := DiceRoll(seed)
	return DiceVerification{
		CommitmentValid: VerifyCommitment(seed, commitment),
		Roll:            roll,
		Target:          target,
		Over:            over,
		Win:             DiceWins(roll, target, over),
	}
}

func VerifyMines(seed Seed, commitment Commitment, minesCount, gridSize int) (MinesVerification, error) {
	positions, err := MinePositions(seed, minesCount, gridSize)
	if err != nil {
		return MinesVerification{}, err
	}
	return MinesVerification{
		CommitmentValid: VerifyCommitment(seed, commitment),
		MinesCount:      minesCount,
		GridSize:        gridSize,
		MinePositions:   positions,
	}, nil
}

func VerifyCrash(seed Seed, commitment Commitment) CrashVerification {
	return CrashVerification{
		CommitmentValid: VerifyCommitment(seed, commitment),
		CrashPoint:      CrashPoint(seed),
	}
}
