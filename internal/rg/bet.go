package rg

// Result é o desfecho de uma aposta.
type Result string

const (
	ResultWin     Result = "win"
	ResultLoss    Result = "loss"
	ResultPending Result = "pending"
)

// Valid indica se o valor é um dos três resultados conhecidos.
func (r Result) Valid() bool {
	switch r {
	case ResultWin, ResultLoss, ResultPending:
		return true
	}
	return false
}

// BetRecord é um evento de aposta considerado pelas regras.
// Timestamp em epoch ms, não decrescente na ordem de inserção.
type BetRecord struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Result    Result  `json:"result"`
	Sport     string  `json:"sport"`
	Timestamp int64   `json:"timestamp"`
}

// Settled retorna true para win/loss.
func (b BetRecord) Settled() bool { return b.Result == ResultWin || b.Result == ResultLoss }

// settledOnly filtra as apostas liquidadas mantendo a ordem original
func settledOnly(history []BetRecord) []BetRecord {
	out := make([]BetRecord, 0, len(history))
	for _, b := range history {
		if b.Settled() {
			out = append(out, b)
		}
	}
	return out
}
