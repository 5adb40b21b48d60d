package provablyfair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyZeroSeedScenario(t *testing.T) {
	commitment := Commit(zeroSeed)

	dice := VerifyDice(zeroSeed, commitment, 50, true)
	assert.True(t, dice.CommitmentValid)
	assert.Equal(t, 0.0, dice.Roll)
	assert.False(t, dice.Win)

	mines, err := VerifyMines(zeroSeed, commitment, 3, 25)
	require.NoError(t, err)
	assert.True(t, mines.CommitmentValid)
	assert.Equal(t, []int{17, 2, 0}, mines.MinePositions)

	crash := VerifyCrash(zeroSeed, commitment)
	assert.True(t, crash.CommitmentValid)
	assert.Equal(t, 1.00, crash.CrashPoint)
}

func TestVerifyDetectsWrongCommitment(t *testing.T) {
	seed := seedWithPrefix("a3f1c2d4")
	other := Commit(zeroSeed)

	assert.False(t, VerifyDice(seed, other, 50, false).CommitmentValid)
	assert.False(t, VerifyCrash(seed, other).CommitmentValid)

	mines, err := VerifyMines(seed, other, 5, 25)
	require.NoError(t, err)
	assert.False(t, mines.CommitmentValid)
	assert.Equal(t, []int{14, 12, 5, 16, 2}, mines.MinePositions)
}

func TestVerifyMinesRejectsBadCount(t *testing.T) {
	_, err := VerifyMines(zeroSeed, Commit(zeroSeed), 30, 25)
	assert.Error(t, err)
}
