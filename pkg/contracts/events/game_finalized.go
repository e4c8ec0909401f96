package events

import "time"

// Evento publicado no tópico "game_finalized" quando um operador registra o vencedor.
type GameFinalized struct {
	GameID      string    `json:"game_id"`
	League      string    `json:"league"`
	Winner      string    `json:"winner"` // "home" | "away"
	FinalizedAt time.Time `json:"finalized_at"`
}
