package models

import (
	"fmt"
	"math"
	"regexp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func GenerateBetID() string {
	return fmt.Sprintf("bet_%s", uuid.NewString())
}

func GenerateSessionID() string {
	return fmt.Sprintf("game_%s", uuid.NewString())
}

// ValidateStake checks the shape of an amount: positive, finite, whole cents.
// Configured bounds are checked separately against the game's GameConfig.
func ValidateStake(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return NewValidationError("amount", "must be a positive number")
	}
	d := decimal.NewFromFloat(amount)
	if !d.Equal(d.Round(2)) {
		return NewValidationError("amount", "must not have more than 2 decimal places")
	}
	return nil
}

// ValidateClientID accepts an empty id, which means "generate one".
func ValidateClientID(field, id string) error {
	if id == "" || clientIDPattern.MatchString(id) {
		return nil
	}
	return NewValidationError(field, "must be 1-64 characters of letters, digits, '_' or '-'")
}
