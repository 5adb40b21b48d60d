package models

import "time"

type ReservationStatus string

const (
	ReservationOpen    ReservationStatus = "open"
	ReservationSettled ReservationStatus = "settled"
)

// Reservation is stake already debited from a wallet and held until the bet
// it belongs to is settled. Its ID is the bet id.
type Reservation struct {
	ID        string            `json:"id"`
	UserID    int64             `json:"user_id"`
	GameType  GameType          `json:"game_type"`
	Amount    float64           `json:"amount"`
	Status    ReservationStatus `json:"status"`
	SessionID string            `json:"session_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
