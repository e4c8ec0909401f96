package ws

import "encoding/json"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// EntryID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type    string `json:"type"`
	EntryID string `json:"entry_id"`
}

// Update é o envelope enviado aos clientes inscritos na entry
type Update struct {
	EntryID string          `json:"entry_id"`
	Payload json.RawMessage `json:"payload"`
}
