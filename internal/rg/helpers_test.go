package rg

import "fmt"

func bet(i int, amount float64, result Result, sport string, ts int64) BetRecord {
	return BetRecord{ID: fmt.Sprintf("b%d", i), Amount: amount, Result: result, Sport: sport, Timestamp: ts}
}

// seq monta um histórico com stake 10 e timestamps crescentes a partir dos resultados.
func seq(sport string, results ...Result) []BetRecord {
	out := make([]BetRecord, len(results))
	for i, r := range results {
		out[i] = bet(i, 10, r, sport, int64(i))
	}
	return out
}

func repeat(r Result, n int) []Result {
	out := make([]Result, n)
	for i := range out {
		out[i] = r
	}
	return out
}
