package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/season-betting/pkg/contracts/events"
)

func TestRedisBroadcaster_WagerSettled(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "wager_settled_broadcast")
	defer sub.Close()
	_, err := sub.Receive(ctx) // confirmação da inscrição
	require.NoError(t, err)

	b := NewRedisBroadcaster(rdb, "wager_settled_broadcast")
	require.NoError(t, b.WagerSettled(ctx, events.WagerSettled{WagerID: "w1", EntryID: "e1", Status: "won", PayoutCents: 2500}))

	select {
	case msg := <-sub.Channel():
		var upd WSUpdate
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &upd))
		assert.Equal(t, "e1", upd.EntryID)
		assert.Equal(t, "w1", upd.Payload.WagerID)
		assert.Equal(t, int64(2500), upd.Payload.PayoutCents)
	case <-time.After(2 * time.Second):
		t.Fatal("no message on channel")
	}
}
