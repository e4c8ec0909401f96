package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRedisSubscriber escuta o canal de apostas liquidadas e repassa cada
// mensagem para o Hub. Para quando o contexto é cancelado.
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub *Hub) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var upd Update
				if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil || upd.EntryID == "" {
					log.Warn("ws subscriber invalid message", zap.String("channel", channel), zap.Error(err))
					continue
				}
				hub.Broadcast(upd)
			}
		}
	}()
}
