package provablyfair

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	DiceMultiplierPlaces  int32 = 4
	MinesMultiplierPlaces int32 = 2
	CrashMultiplierPlaces int32 = 2
	MoneyPlaces           int32 = 2

	minesFactor = 0.99
	diceMaxRoll = 99.99
)

var ErrUnpriceable = errors.New("multiplier is not defined for these parameters")

// RoundMultiplier rounds half-to-even at the given number of places.
func RoundMultiplier(x float64, places int32) float64 {
	return decimal.NewFromFloat(x).RoundBank(places).InexactFloat64()
}

// RoundMoney rounds an amount half-to-even to cents.
func RoundMoney(x float64) float64 {
	return decimal.NewFromFloat(x).RoundBank(MoneyPlaces).InexactFloat64()
}

// Payout is amount times the multiplier reported to the player, rounded to cents.
func Payout(amount, multiplier float64) float64 {
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(multiplier)).
		RoundBank(MoneyPlaces).
		InexactFloat64()
}

// DiceWinProbability keeps the house's historical asymmetry: "over" measures
// against 99.99, "under" against zero.
func DiceWinProbability(target float64, over bool) float64 {
	t := decimal.NewFromFloat(target)
	if over {
		return decimal.NewFromFloat(diceMaxRoll).Sub(t).Div(decimal.NewFromInt(100)).InexactFloat64()
	}
	return t.Div(decimal.NewFromInt(100)).InexactFloat64()
}

// DiceTargetMultiplier is the multiplier a winning roll would pay for target
// and direction. It is what the player sees before rolling.
func DiceTargetMultiplier(target float64, over bool, houseEdge float64) (float64, error) {
	p := DiceWinProbability(target, over)
	if p <= 0 {
		return 0, fmt.Errorf("%w: win probability %.4f for target %.2f", ErrUnpriceable, p, target)
	}

	m := decimal.NewFromInt(1).
		Sub(decimal.NewFromFloat(houseEdge)).
		Div(decimal.NewFromFloat(p)).
		RoundBank(DiceMultiplierPlaces)
	return m.InexactFloat64(), nil
}

// DiceMultiplier is DiceTargetMultiplier on a win and zero otherwise.
func DiceMultiplier(win bool, target float64, over bool, houseEdge float64) (float64, error) {
	m, err := DiceTargetMultiplier(target, over, houseEdge)
	if err != nil {
		return 0, err
	}
	if !win {
		return 0, nil
	}
	return m, nil
}

// MinesMultiplier prices r safe reveals. Any r up to and including the number
// of safe tiles is defined; a board cleared of safe tiles is paid at r = safe.
func MinesMultiplier(revealed, minesCount, gridSize int) (float64, error) {
	safe := gridSize - minesCount
	if minesCount <= 0 || safe <= 0 {
		return 0, fmt.Errorf("%w: %d mines on %d tiles", ErrUnpriceable, minesCount, gridSize)
	}
	if revealed < 0 || revealed > safe {
		return 0, fmt.Errorf("%w: %d reveals with %d safe tiles", ErrUnpriceable, revealed, safe)
	}

	x := 1.0
	for i := 0; i < revealed; i++ {
		x *= minesFactor / (float64(safe-i) / float64(gridSize-i))
	}
	return RoundMultiplier(x, MinesMultiplierPlaces), nil
}

// CrashAutoCashout resolves a round whose player set target in advance.
func CrashAutoCashout(target, crashPoint float64) (win bool, multiplier float64) {
	if target <= crashPoint {
		return true, target
	}
	return false, 0
}
