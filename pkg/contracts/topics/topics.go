package topics

const (
	// Apostas liquidadas (win/loss) ou registradas como pending
	BetSettled = "bet_settled"

	// Alertas de jogo responsável
	RGAlerts = "rg_alerts"

	// DLQs
	BetSettledDLQ = "bet_settled_dlq"
)
