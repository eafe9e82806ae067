package rg

import "sort"

// BadgeID identifica uma conquista.
type BadgeID string

const (
	BadgeFirstWin     BadgeID = "first_win"
	BadgeOnFire       BadgeID = "on_fire"
	BadgePropMaster   BadgeID = "prop_master"
	BadgeNascarKing   BadgeID = "nascar_king"
	BadgeSharpShooter BadgeID = "sharp_shooter"
	BadgeBankrollBoss BadgeID = "bankroll_boss"
	BadgeDiamondHands BadgeID = "diamond_hands"
	// BadgeIceCold depende de percentuais de apostas públicas que não existem no BetRecord;
	// o avaliador nunca concede.
	BadgeIceCold BadgeID = "ice_cold"
)

const (
	onFireStreak        = 3
	sportStreakTarget   = 5
	sharpShooterMinBets = 20
	bankrollBossMinBets = 30
	diamondHandsLosses  = 3
	diamondHandsGapMs   = int64(86_400_000)

	sportProps  = "props"
	sportNASCAR = "NASCAR"
)

// BadgeSet é o conjunto de conquistas obtidas. Ausência = não conquistada.
type BadgeSet map[BadgeID]struct{}

func (s BadgeSet) add(id BadgeID) { s[id] = struct{}{} }

// Has indica se a conquista está no conjunto.
func (s BadgeSet) Has(id BadgeID) bool {
	_, ok := s[id]
	return ok
}

// Sorted retorna os ids na ordem do catálogo; ids fora do catálogo vão ao final em ordem alfabética.
func (s BadgeSet) Sorted() []BadgeID {
	out := make([]BadgeID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := catalogPosition(out[i]), catalogPosition(out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i] < out[j]
	})
	return out
}

// EvaluateBadges calcula as conquistas sobre o histórico liquidado, na ordem original.
// Cada regra é independente; mesmo histórico, mesmo resultado.
func EvaluateBadges(history []BetRecord) BadgeSet {
	earned := BadgeSet{}
	settled := settledOnly(history)
	if len(settled) == 0 {
		return earned
	}

	if hasWin(settled) {
		earned.add(BadgeFirstWin)
	}
	if hasConsecutiveWins(settled, onFireStreak) {
		earned.add(BadgeOnFire)
	}
	if sportWinStreak(settled, sportProps) >= sportStreakTarget {
		earned.add(BadgePropMaster)
	}
	if sportWinStreak(settled, sportNASCAR) >= sportStreakTarget {
		earned.add(BadgeNascarKing)
	}
	if sharpShooter(settled) {
		earned.add(BadgeSharpShooter)
	}
	if bankrollBoss(settled) {
		earned.add(BadgeBankrollBoss)
	}
	if diamondHands(settled) {
		earned.add(BadgeDiamondHands)
	}
	return earned
}

func hasWin(settled []BetRecord) bool {
	for _, b := range settled {
		if b.Result == ResultWin {
			return true
		}
	}
	return false
}

func hasConsecutiveWins(settled []BetRecord, n int) bool {
	streak := 0
	for _, b := range settled {
		if b.Result != ResultWin {
			streak = 0
			continue
		}
		streak++
		if streak >= n {
			return true
		}
	}
	return false
}

// sportWinStreak retorna a maior sequência de vitórias entre apostas do esporte dado.
// Apostas de outros esportes são ignoradas e não quebram a sequência.
func sportWinStreak(settled []BetRecord, sport string) int {
	streak, best := 0, 0
	for _, b := range settled {
		if b.Sport != sport {
			continue
		}
		if b.Result == ResultLoss {
			streak = 0
			continue
		}
		streak++
		if streak > best {
			best = streak
		}
	}
	return best
}

// sharpShooter exige mais de 65% de acerto; comparação inteira para não depender de float.
func sharpShooter(settled []BetRecord) bool {
	total := len(settled)
	if total < sharpShooterMinBets {
		return false
	}
	wins := 0
	for _, b := range settled {
		if b.Result == ResultWin {
			wins++
		}
	}
	return wins*100 > total*65
}

func bankrollBoss(settled []BetRecord) bool {
	if len(settled) < bankrollBossMinBets {
		return false
	}
	var won, lost []float64
	for _, b := range settled {
		switch b.Result {
		case ResultWin:
			won = append(won, b.Amount)
		case ResultLoss:
			lost = append(lost, b.Amount)
		}
	}
	return sumMoney(won...).GreaterThan(sumMoney(lost...))
}

// diamondHands: 3+ perdas seguidas e a próxima aposta liquidada só mais de 24h depois.
func diamondHands(settled []BetRecord) bool {
	losses := 0
	for i, b := range settled {
		if b.Result != ResultLoss {
			losses = 0
			continue
		}
		losses++
		if losses < diamondHandsLosses || i+1 >= len(settled) {
			continue
		}
		if settled[i+1].Timestamp-b.Timestamp > diamondHandsGapMs {
			return true
		}
	}
	return false
}
