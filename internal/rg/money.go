package rg

import "github.com/shopspring/decimal"

// addMoney soma valores monetários sem o drift de float (0.1+0.2 == 0.3).
func addMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

// exceedsMultiple retorna true quando amount > base*mult, comparado em decimal
func exceedsMultiple(amount, base, mult float64) bool {
	limit := decimal.NewFromFloat(base).Mul(decimal.NewFromFloat(mult))
	return decimal.NewFromFloat(amount).GreaterThan(limit)
}

func sumMoney(values ...float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}
