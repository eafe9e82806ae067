package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/responsible-gambling/pkg/contracts/events"
)

// ChannelSessionUpdates é o canal default de atualizações de sessão
const ChannelSessionUpdates = "rg_session_updates"

// RedisBroadcaster espalha snapshots de sessão para todas as instâncias via Redis Pub/Sub
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = ChannelSessionUpdates
	}
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Channel() string { return b.channel }

func (b *RedisBroadcaster) Publish(ctx context.Context, payload []byte) error {
	return b.r.Publish(ctx, b.channel, payload).Err()
}

// PublishSession envelopa o snapshot do usuário em events.SessionUpdate
func (b *RedisBroadcaster) PublishSession(ctx context.Context, userID string, snapshot interface{}) error {
	payload, err := json.Marshal(events.SessionUpdate{UserID: userID, Payload: snapshot})
	if err != nil {
		return fmt.Errorf("marshal session update: %w", err)
	}
	return b.Publish(ctx, payload)
}
