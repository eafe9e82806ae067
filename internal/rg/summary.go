package rg

import "github.com/shopspring/decimal"

// Summary agrega o histórico para o painel de bankroll.
type Summary struct {
	Settled     int     `json:"settled"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Pending     int     `json:"pending"`
	WinRate     float64 `json:"winRate"` // 0..1 sobre liquidadas
	TotalStaked float64 `json:"totalStaked"`
	AmountWon   float64 `json:"amountWon"`
	AmountLost  float64 `json:"amountLost"`
	Net         float64 `json:"net"`
	ROI         float64 `json:"roi"` // net / staked
}

// Summarize calcula contagens e valores. Pendentes só entram em Pending.
func Summarize(history []BetRecord) Summary {
	var out Summary
	staked, won, lost := decimal.Zero, decimal.Zero, decimal.Zero
	for _, b := range history {
		amt := decimal.NewFromFloat(b.Amount)
		switch b.Result {
		case ResultWin:
			out.Wins++
			won = won.Add(amt)
			staked = staked.Add(amt)
		case ResultLoss:
			out.Losses++
			lost = lost.Add(amt)
			staked = staked.Add(amt)
		case ResultPending:
			out.Pending++
		}
	}
	out.Settled = out.Wins + out.Losses
	if out.Settled > 0 {
		out.WinRate = float64(out.Wins) / float64(out.Settled)
	}
	net := won.Sub(lost)
	out.TotalStaked = staked.InexactFloat64()
	out.AmountWon = won.InexactFloat64()
	out.AmountLost = lost.InexactFloat64()
	out.Net = net.InexactFloat64()
	if staked.IsPositive() {
		out.ROI = net.Div(staked).Round(4).InexactFloat64()
	}
	return out
}
