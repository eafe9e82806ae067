package httpapi

import "github.com/radieske/responsible-gambling/internal/rg"

// BreakRequest corpo de POST /break
type BreakRequest struct {
	Hours float64 `json:"hours"`
}

// LossLimitRequest corpo de PUT /loss-limit
type LossLimitRequest struct {
	Dollars float64 `json:"dollars"`
}

// BetRequest corpo de POST /bets; id e timestamp são opcionais
type BetRequest struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Result    string  `json:"result"`
	Sport     string  `json:"sport"`
	Timestamp int64   `json:"timestamp"`
}

// BadgesResponse conquistas do usuário em ordem de catálogo
type BadgesResponse struct {
	UserID string         `json:"userId"`
	Earned []rg.BadgeID   `json:"earned"`
	Badges []rg.BadgeInfo `json:"badges"`
}

// SummaryResponse painel de bankroll
type SummaryResponse struct {
	UserID string `json:"userId"`
	rg.Summary
}
