package producer

import (
	"context"
	"time"

	"github.com/radieske/responsible-gambling/internal/shared/kafka"
	"github.com/radieske/responsible-gambling/pkg/contracts/events"
)

// AlertPublisher publica alertas de jogo responsável no tópico configurado no writer.
// A key da mensagem é o userId, mantendo a ordem por usuário.
type AlertPublisher struct {
	Writer kafka.MessageWriter
	Now    func() time.Time
}

func NewAlertPublisher(w kafka.MessageWriter) *AlertPublisher {
	return &AlertPublisher{Writer: w, Now: time.Now}
}

func (p *AlertPublisher) Publish(ctx context.Context, a events.RGAlert) error {
	if a.Ts.IsZero() {
		a.Ts = p.Now().UTC()
	}
	return kafka.WriteJSON(ctx, p.Writer, a.UserID, a)
}
