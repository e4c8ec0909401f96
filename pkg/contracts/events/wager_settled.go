package events

import "time"

// Evento emitido pela liquidação depois que a aposta é concluída (won | lost).
type WagerSettled struct {
	WagerID     string    `json:"wager_id"`
	EntryID     string    `json:"entry_id"`
	Kind        string    `json:"kind"`   // "single" | "parlay"
	Status      string    `json:"status"` // "won" | "lost"
	StakeCents  int64     `json:"stake_cents"`
	PayoutCents int64     `json:"payout_cents"`
	SettledAt   time.Time `json:"settled_at"`
}
