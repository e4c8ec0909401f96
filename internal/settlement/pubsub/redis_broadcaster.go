package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/season-betting/pkg/contracts/events"
)

// RedisBroadcaster repassa apostas liquidadas para o canal Redis lido pelo feed /ws
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

// Payload padrão para o WS: EntryID decide quem recebe
type WSUpdate struct {
	EntryID string              `json:"entry_id"`
	Payload events.WagerSettled `json:"payload"`
}

func (b *RedisBroadcaster) WagerSettled(ctx context.Context, ev events.WagerSettled) error {
	msg, err := json.Marshal(WSUpdate{EntryID: ev.EntryID, Payload: ev})
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, msg).Err()
}
