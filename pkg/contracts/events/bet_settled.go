package events

// Evento consumido do tópico "bet_settled".
// Result: "win" | "loss" | "pending"; Sport: código livre ("NBA", "props", "NASCAR", ...)
type BetSettled struct {
	BetID    string  `json:"bet_id"`
	UserID   string  `json:"user_id"`
	Amount   float64 `json:"amount"`
	Result   string  `json:"result"`
	Sport    string  `json:"sport"`
	TsUnixMs int64   `json:"ts_unix_ms"`
}
