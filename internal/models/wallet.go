package models

// Wallet is a player's balance as stored. Balance is spendable; Locked is
// stake reserved by bets that are not settled yet.
type Wallet struct {
	UserID        int64   `json:"user_id"`
	Balance       float64 `json:"balance"`
	LockedBalance float64 `json:"locked_balance"`
	TotalWagered  float64 `json:"total_wagered"`
	TotalWon      float64 `json:"total_won"`
	Version       int64   `json:"version"`
}

type BalanceResponse struct {
	Balance       float64 `json:"balance"`
	LockedBalance float64 `json:"locked_balance"`
	TotalWagered  float64 `json:"total_wagered"`
	TotalWon      float64 `json:"total_won"`
	Version       int64   `json:"version"`
}

func (w *Wallet) Response() BalanceResponse {
	return BalanceResponse{
		Balance:       w.Balance,
		LockedBalance: w.LockedBalance,
		TotalWagered:  w.TotalWagered,
		TotalWon:      w.TotalWon,
		Version:       w.Version,
	}
}
