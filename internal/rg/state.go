package rg

import "encoding/json"

const (
	// MaxHistory é o tamanho máximo do histórico (ring buffer por ordem de inserção).
	MaxHistory = 50

	// NoLossLimit indica que nenhum limite de perdas foi configurado.
	NoLossLimit = -1.0

	msPerHour = int64(3_600_000)
)

// SessionState é o agregado persistido de jogo responsável de um usuário.
// O JSON tem exatamente estes quatro campos.
type SessionState struct {
	BreakEndsAt   int64       `json:"breakEndsAt"`   // epoch ms; 0 = sem pausa
	LossLimit     float64     `json:"lossLimit"`     // -1 = sem limite
	SessionLosses float64     `json:"sessionLosses"` // soma das perdas desde o último reset
	BetHistory    []BetRecord `json:"betHistory"`
}

// DefaultState retorna o estado inicial.
func DefaultState() SessionState {
	return SessionState{
		BreakEndsAt:   0,
		LossLimit:     NoLossLimit,
		SessionLosses: 0,
		BetHistory:    []BetRecord{},
	}
}

// OnBreak indica se existe uma pausa ativa em nowMs.
func (s SessionState) OnBreak(nowMs int64) bool { return s.BreakEndsAt > nowMs }

// BreakRemainingMs retorna quanto falta para o fim da pausa, nunca negativo.
func (s SessionState) BreakRemainingMs(nowMs int64) int64 {
	if rem := s.BreakEndsAt - nowMs; rem > 0 {
		return rem
	}
	return 0
}

// LossLimitReached só é verdadeiro com um limite positivo configurado.
func (s SessionState) LossLimitReached() bool {
	return s.LossLimit > 0 && s.SessionLosses >= s.LossLimit
}

// ChasingLosses aplica o detector ao histórico atual.
func (s SessionState) ChasingLosses() bool { return DetectChasingLosses(s.BetHistory) }

// Clone devolve uma cópia independente do histórico.
func (s SessionState) Clone() SessionState {
	out := s
	out.BetHistory = make([]BetRecord, len(s.BetHistory))
	copy(out.BetHistory, s.BetHistory)
	return out
}

// DecodeState interpreta o blob persistido. Campos ausentes ficam com os defaults.
func DecodeState(raw []byte) (SessionState, error) {
	st := DefaultState()
	if err := json.Unmarshal(raw, &st); err != nil {
		return DefaultState(), err
	}
	if st.BetHistory == nil {
		st.BetHistory = []BetRecord{}
	}
	st.BetHistory = trimHistory(st.BetHistory)
	return st, nil
}

// EncodeState serializa o agregado completo.
func EncodeState(s SessionState) ([]byte, error) {
	if s.BetHistory == nil {
		s.BetHistory = []BetRecord{}
	}
	return json.Marshal(s)
}

// trimHistory mantém os MaxHistory registros mais recentes
func trimHistory(h []BetRecord) []BetRecord {
	if len(h) <= MaxHistory {
		return h
	}
	out := make([]BetRecord, MaxHistory)
	copy(out, h[len(h)-MaxHistory:])
	return out
}

// View é o snapshot do estado com as flags derivadas calculadas em NowMs.
type View struct {
	SessionState
	NowMs              int64 `json:"nowMs"`
	IsOnBreak          bool  `json:"isOnBreak"`
	BreakRemainingMs   int64 `json:"breakRemainingMs"`
	IsLossLimitReached bool  `json:"isLossLimitReached"`
	IsChasingLosses    bool  `json:"isChasingLosses"`
}

// ViewAt calcula as flags derivadas a partir de (state, now).
func ViewAt(s SessionState, nowMs int64) View {
	return View{
		SessionState:       s,
		NowMs:              nowMs,
		IsOnBreak:          s.OnBreak(nowMs),
		BreakRemainingMs:   s.BreakRemainingMs(nowMs),
		IsLossLimitReached: s.LossLimitReached(),
		IsChasingLosses:    s.ChasingLosses(),
	}
}
