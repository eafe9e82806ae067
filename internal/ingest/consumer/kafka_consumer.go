package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/responsible-gambling/internal/rg"
	"github.com/radieske/responsible-gambling/internal/shared/kafka"
	"github.com/radieske/responsible-gambling/pkg/contracts/events"
)

// Recorder registra a aposta no store do usuário (rg.Registry em produção)
type Recorder interface {
	RecordBet(ctx context.Context, userID string, bet rg.BetRecord) rg.View
}

// AlertSink recebe os alertas gerados após cada aposta
type AlertSink interface {
	Publish(ctx context.Context, a events.RGAlert) error
}

var errInvalidEvent = errors.New("invalid bet_settled event")

// Processor consome bet_settled, aplica no estado de sessão e publica alertas.
// Mensagens inválidas vão para a DLQ (se configurada) e o loop segue.
type Processor struct {
	Log      *zap.Logger
	Reader   kafka.MessageReader
	Sessions Recorder
	Alerts   AlertSink           // opcional
	DLQ      kafka.MessageWriter // opcional
	Now      func() time.Time

	RetryBackoff time.Duration // espera após erro de leitura (default 500ms)

	OnConsumed func()       // métricas (counter++)
	OnRecorded func()       // métricas
	OnAlert    func(string) // métricas por tipo de alerta
	OnError    func(string) // métricas por fase
}

// Run inicia o loop de consumo até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	backoff := p.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma única mensagem
func (p *Processor) Handle(ctx context.Context, m kafkago.Message) {
	var ev events.BetSettled
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		p.Log.Warn("invalid message", zap.Error(err))
		p.fail("decode")
		p.deadLetter(ctx, m, err)
		return
	}

	bet, err := p.toRecord(ev)
	if err != nil {
		p.Log.Warn("rejected bet_settled", zap.String("betId", ev.BetID), zap.String("userId", ev.UserID), zap.Error(err))
		p.fail("validate")
		p.deadLetter(ctx, m, err)
		return
	}

	v := p.Sessions.RecordBet(ctx, ev.UserID, bet)
	if p.OnRecorded != nil {
		p.OnRecorded()
	}
	p.Log.Debug("bet recorded",
		zap.String("userId", ev.UserID),
		zap.String("betId", bet.ID),
		zap.String("result", string(bet.Result)),
		zap.Float64("sessionLosses", v.SessionLosses))

	for _, a := range AlertsFor(ev.UserID, bet.ID, v) {
		p.publish(ctx, a)
	}
}

// toRecord valida o evento e preenche id/timestamp ausentes
func (p *Processor) toRecord(ev events.BetSettled) (rg.BetRecord, error) {
	if strings.TrimSpace(ev.UserID) == "" {
		return rg.BetRecord{}, fmt.Errorf("%w: empty user_id", errInvalidEvent)
	}
	res := rg.Result(strings.ToLower(ev.Result))
	if !res.Valid() {
		return rg.BetRecord{}, fmt.Errorf("%w: result %q", errInvalidEvent, ev.Result)
	}
	if math.IsInf(ev.Amount, 0) || !(ev.Amount > 0) {
		return rg.BetRecord{}, fmt.Errorf("%w: amount %v", errInvalidEvent, ev.Amount)
	}

	id := ev.BetID
	if id == "" {
		id = uuid.NewString()
	}
	ts := ev.TsUnixMs
	if ts <= 0 {
		ts = p.now().UnixMilli()
	}
	return rg.BetRecord{ID: id, Amount: ev.Amount, Result: res, Sport: ev.Sport, Timestamp: ts}, nil
}

// AlertsFor devolve os alertas que o snapshot pós-aposta dispara
func AlertsFor(userID, betID string, v rg.View) []events.RGAlert {
	var out []events.RGAlert
	mk := func(kind string) events.RGAlert {
		return events.RGAlert{
			UserID:        userID,
			Kind:          kind,
			BetID:         betID,
			SessionLosses: v.SessionLosses,
			LossLimit:     v.LossLimit,
		}
	}
	if v.IsChasingLosses {
		out = append(out, mk(events.AlertChasingLosses))
	}
	if v.IsLossLimitReached {
		out = append(out, mk(events.AlertLossLimitReached))
	}
	return out
}

func (p *Processor) publish(ctx context.Context, a events.RGAlert) {
	if p.Alerts == nil {
		return
	}
	a.Ts = p.now().UTC()
	if err := p.Alerts.Publish(ctx, a); err != nil {
		p.Log.Warn("alert publish failed", zap.String("userId", a.UserID), zap.String("kind", a.Kind), zap.Error(err))
		p.fail("alert")
		return
	}
	if p.OnAlert != nil {
		p.OnAlert(a.Kind)
	}
}

// deadLetter reenvia a mensagem original para a DLQ com o motivo no header
func (p *Processor) deadLetter(ctx context.Context, m kafkago.Message, cause error) {
	if p.DLQ == nil {
		return
	}
	dl := kafkago.Message{
		Key:   m.Key,
		Value: m.Value,
		Time:  p.now(),
		Headers: []kafkago.Header{
			{Key: "error", Value: []byte(cause.Error())},
			{Key: "source_topic", Value: []byte(m.Topic)},
		},
	}
	if err := p.DLQ.WriteMessages(ctx, dl); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
		p.fail("dlq")
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func (p *Processor) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
