package producer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/responsible-gambling/pkg/contracts/events"
)

type captureWriter struct{ msgs []kafkago.Message }

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func TestAlertPublisher_Publish(t *testing.T) {
	w := &captureWriter{}
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewAlertPublisher(w)
	p.Now = func() time.Time { return fixed }

	err := p.Publish(context.Background(), events.RGAlert{
		UserID:        "u-1",
		Kind:          events.AlertLossLimitReached,
		BetID:         "b-9",
		SessionLosses: 120,
		LossLimit:     100,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "u-1", string(w.msgs[0].Key))

	var got events.RGAlert
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, events.AlertLossLimitReached, got.Kind)
	assert.Equal(t, 120.0, got.SessionLosses)
	assert.True(t, fixed.Equal(got.Ts))
}

func TestAlertPublisher_KeepsExplicitTs(t *testing.T) {
	w := &captureWriter{}
	p := NewAlertPublisher(w)
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, p.Publish(context.Background(), events.RGAlert{UserID: "u", Kind: events.AlertChasingLosses, Ts: ts}))

	var got events.RGAlert
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.True(t, ts.Equal(got.Ts))
}
