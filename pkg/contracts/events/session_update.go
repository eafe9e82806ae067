package events

// Payload enviado no canal Redis de atualizações de sessão e repassado aos clientes WS.
// Payload carrega o rg.View serializado.
type SessionUpdate struct {
	UserID  string      `json:"userId"`
	Payload interface{} `json:"payload"`
}
