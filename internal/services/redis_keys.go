package services

import (
	"fmt"
	"time"

	"fairbet-backend/internal/models"
)

const (
	KeyWallet           = "wallet:%d"
	KeyReservation      = "reservation:%d:%s"
	KeyOpenReservations = "reservations:open"
	KeyBet              = "bet:%d:%s"
	KeyUserBets         = "user:%d:bets"
	KeyGameSession      = "game:session:%s"
	KeyUserActiveGames  = "user:%d:active_games"
	KeyGameConfig       = "config:game:%s"
	KeyRateLimit        = "ratelimit:%d:%s"

	TTLBet         = 30 * 24 * time.Hour
	TTLGameSession = 7 * 24 * time.Hour

	// MaxUserBets is how many ledger entries stay indexed per user.
	MaxUserBets = 1000

	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

func walletKey(userID int64) string {
	return fmt.Sprintf(KeyWallet, userID)
}

func reservationKey(userID int64, betID string) string {
	return fmt.Sprintf(KeyReservation, userID, betID)
}

// openReservationMember is the member stored in KeyOpenReservations.
func openReservationMember(userID int64, betID string) string {
	return fmt.Sprintf("%d:%s", userID, betID)
}

func betKey(userID int64, betID string) string {
	return fmt.Sprintf(KeyBet, userID, betID)
}

func userBetsKey(userID int64) string {
	return fmt.Sprintf(KeyUserBets, userID)
}

func gameSessionKey(sessionID string) string {
	return fmt.Sprintf(KeyGameSession, sessionID)
}

func userActiveGamesKey(userID int64) string {
	return fmt.Sprintf(KeyUserActiveGames, userID)
}

func gameConfigKey(gameType models.GameType) string {
	return fmt.Sprintf(KeyGameConfig, gameType)
}

func rateLimitKey(userID int64, action string) string {
	return fmt.Sprintf(KeyRateLimit, userID, action)
}
