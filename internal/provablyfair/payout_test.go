package provablyfair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundingIsHalfToEven(t *testing.T) {
	assert.Equal(t, 1.12, RoundMultiplier(1.125, 2))
	assert.Equal(t, 1.14, RoundMultiplier(1.135, 2))
	assert.Equal(t, 0.02, RoundMoney(0.025))
	assert.Equal(t, 0.04, RoundMoney(0.035))
}

func TestPayout(t *testing.T) {
	assert.Equal(t, 5.60, Payout(5, 1.12))
	assert.Equal(t, 19.80, Payout(10, 1.9804))
	assert.Equal(t, 0.0, Payout(10, 0))
}

func TestDiceWinProbabilityKeepsDirectionAsymmetry(t *testing.T) {
	assert.InDelta(t, 0.4999, DiceWinProbability(50, true), 1e-12)
	assert.InDelta(t, 0.50, DiceWinProbability(50, false), 1e-12)
}

func TestDiceMultiplier(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		over   bool
		want   float64
	}{
		{"over 50", 50, true, 1.9804},
		{"under 50", 50, false, 1.98},
		{"over 2", 2, true, 1.0103},
		{"under 98", 98, false, 1.0102},
		{"under 1", 1, false, 99},
		{"over 25.5", 25.5, true, 1.329},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiceMultiplier(true, tt.target, tt.over, 0.01)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			lost, err := DiceMultiplier(false, tt.target, tt.over, 0.01)
			require.NoError(t, err)
			assert.Zero(t, lost)
		})
	}
}

func TestDiceMultiplierRejectsZeroProbability(t *testing.T) {
	_, err := DiceTargetMultiplier(0, false, 0.01)
	assert.ErrorIs(t, err, ErrUnpriceable)

	_, err = DiceTargetMultiplier(99.99, true, 0.01)
	assert.ErrorIs(t, err, ErrUnpriceable)
}

func TestMinesMultiplierThreeMines(t *testing.T) {
	want := []float64{
		1.00, 1.12, 1.27, 1.45, 1.66, 1.92, 2.23, 2.63, 3.12, 3.75, 4.57, 5.66,
		7.13, 9.17, 12.11, 16.48, 23.31, 34.62, 54.84, 95.01, 188.12, 465.59, 1843.75,
	}

	for r, expected := range want {
		got, err := MinesMultiplier(r, 3, 25)
		require.NoError(t, err)
		assert.Equal(t, expected, got, "r=%d", r)
	}
}

func TestMinesMultiplierFiveMines(t *testing.T) {
	want := []float64{1.0, 1.24, 1.55, 1.96, 2.51, 3.26}
	for r, expected := range want {
		got, err := MinesMultiplier(r, 5, 25)
		require.NoError(t, err)
		assert.Equal(t, expected, got, "r=%d", r)
	}
}

func TestMinesMultiplierSingleSafeTile(t *testing.T) {
	got, err := MinesMultiplier(1, 24, 25)
	require.NoError(t, err)
	assert.Equal(t, 24.75, got)
}

func TestMinesMultiplierStrictlyIncreasing(t *testing.T) {
	for mines := 1; mines <= 24; mines++ {
		prev, err := MinesMultiplier(0, mines, 25)
		require.NoError(t, err)
		require.Equal(t, 1.0, prev)

		for r := 1; r <= 25-mines; r++ {
			cur, err := MinesMultiplier(r, mines, 25)
			require.NoError(t, err)
			assert.Greater(t, cur, prev, "mines=%d r=%d", mines, r)
			prev = cur
		}
	}
}

func TestMinesMultiplierRejectsUnreachableStates(t *testing.T) {
	_, err := MinesMultiplier(23, 3, 25)
	assert.ErrorIs(t, err, ErrUnpriceable)

	_, err = MinesMultiplier(-1, 3, 25)
	assert.ErrorIs(t, err, ErrUnpriceable)

	_, err = MinesMultiplier(0, 25, 25)
	assert.ErrorIs(t, err, ErrUnpriceable)
}

func TestCrashAutoCashout(t *testing.T) {
	win, m := CrashAutoCashout(2.0, 2.75)
	assert.True(t, win)
	assert.Equal(t, 2.0, m)

	win, m = CrashAutoCashout(2.75, 2.75)
	assert.True(t, win, "cashing out exactly at the crash point wins")
	assert.Equal(t, 2.75, m)

	win, m = CrashAutoCashout(3.0, 2.75)
	assert.False(t, win)
	assert.Zero(t, m)

	win, _ = CrashAutoCashout(1.01, 1.00)
	assert.False(t, win, "instant bust beats every target")
}
