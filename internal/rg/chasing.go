package rg

// ChaseMultiplier: aumento de stake logo após uma perda acima deste fator conta como "chasing".
const ChaseMultiplier = 1.5

// DetectChasingLosses procura, entre apostas liquidadas consecutivas, uma perda seguida
// de uma stake estritamente maior que 1.5x a stake perdida. Uma ocorrência basta.
func DetectChasingLosses(history []BetRecord) bool {
	settled := settledOnly(history)
	if len(settled) < 2 {
		return false
	}
	for i := 1; i < len(settled); i++ {
		prev, curr := settled[i-1], settled[i]
		if prev.Result == ResultLoss && exceedsMultiple(curr.Amount, prev.Amount, ChaseMultiplier) {
			return true
		}
	}
	return false
}
