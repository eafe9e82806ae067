package events

import "time"

const (
	AlertChasingLosses    = "CHASING_LOSSES"
	AlertLossLimitReached = "LOSS_LIMIT_REACHED"
)

// Evento publicado no tópico "rg_alerts" após uma aposta deixar o usuário em situação de risco.
type RGAlert struct {
	UserID        string    `json:"userId"`
	Kind          string    `json:"kind"` // CHASING_LOSSES | LOSS_LIMIT_REACHED
	BetID         string    `json:"betId"`
	SessionLosses float64   `json:"sessionLosses"`
	LossLimit     float64   `json:"lossLimit"`
	Ts            time.Time `json:"ts"`
}
