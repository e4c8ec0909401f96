package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client serializa as escritas; gorilla/websocket não aceita escritas concorrentes
type client struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (c *client) write(b []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Hub gerencia conexões WebSocket e assinaturas por entry
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// entryID -> conexões inscritas
	subs map[string]map[*client]struct{}
}

// NewHub cria um Hub com a política de origem informada
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão.
// Cada cliente pode se inscrever em várias entries.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.EntryID == "" {
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.EntryID]; !ok {
				h.subs[msg.EntryID] = make(map[*client]struct{})
			}
			h.subs[msg.EntryID][c] = struct{}{}
			h.mu.Unlock()
			_ = c.write([]byte(`{"type":"subscribed"}`))
		case "unsubscribe":
			h.unsubscribe(msg.EntryID, c)
		case "ping":
			_ = c.write([]byte(`{"type":"pong"}`))
		}
	}

	h.mu.Lock()
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) unsubscribe(entryID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[entryID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, entryID)
		}
	}
}

// Broadcast envia a atualização para os clientes inscritos na entry
func (h *Hub) Broadcast(upd Update) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[upd.EntryID]))
	for c := range h.subs[upd.EntryID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(upd)
	if err != nil {
		h.log.Warn("ws marshal failed", zap.Error(err))
		return
	}
	for _, c := range targets {
		if err := c.write(b); err != nil {
			h.log.Debug("ws write failed", zap.String("entry_id", upd.EntryID), zap.Error(err))
		}
	}
}

// Subscribers conta conexões inscritas numa entry
func (h *Hub) Subscribers(entryID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[entryID])
}
