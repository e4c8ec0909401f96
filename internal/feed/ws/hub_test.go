package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/season-betting/internal/settlement/pubsub"
	"github.com/radieske/season-betting/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readType(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m map[string]any
	require.NoError(t, conn.ReadJSON(&m))
	s, _ := m["type"].(string)
	return s
}

func TestHub_SubscribePingAndBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "ping"}))
	assert.Equal(t, "pong", readType(t, conn))

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", EntryID: "e1"}))
	assert.Equal(t, "subscribed", readType(t, conn))
	assert.Equal(t, 1, hub.Subscribers("e1"))

	hub.Broadcast(Update{EntryID: "other", Payload: json.RawMessage(`{}`)})
	hub.Broadcast(Update{EntryID: "e1", Payload: json.RawMessage(`{"wager_id":"w1"}`)})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var upd Update
	require.NoError(t, conn.ReadJSON(&upd))
	assert.Equal(t, "e1", upd.EntryID)
	assert.JSONEq(t, `{"wager_id":"w1"}`, string(upd.Payload))

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "unsubscribe", EntryID: "e1"}))
	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "ping"}))
	assert.Equal(t, "pong", readType(t, conn))
	assert.Equal(t, 0, hub.Subscribers("e1"))
}

func TestRedisSubscriber_ForwardsSettledWagers(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	hub := NewHub(zap.NewNop(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartRedisSubscriber(ctx, zap.NewNop(), rdb, "wager_settled_broadcast", hub)
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("wager_settled_broadcast")["wager_settled_broadcast"] == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", EntryID: "e1"}))
	assert.Equal(t, "subscribed", readType(t, conn))

	b := pubsub.NewRedisBroadcaster(rdb, "wager_settled_broadcast")
	require.NoError(t, b.WagerSettled(ctx, events.WagerSettled{WagerID: "w9", EntryID: "e1", Status: "lost"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var upd Update
	require.NoError(t, conn.ReadJSON(&upd))
	assert.Equal(t, "e1", upd.EntryID)

	var ev events.WagerSettled
	require.NoError(t, json.Unmarshal(upd.Payload, &ev))
	assert.Equal(t, "w9", ev.WagerID)
	assert.Equal(t, "lost", ev.Status)
}
