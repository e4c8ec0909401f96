package dto

// PlaceWagerRequest é o corpo do POST /v1/wagers.
// Stake, lado e odds são validados pelo domínio para devolver o código de erro correto.
type PlaceWagerRequest struct {
	EntryID    string       `json:"entry_id" validate:"required"`
	StakeCents int64        `json:"stake_cents"`
	Legs       []LegRequest `json:"legs" validate:"dive"`
}

type LegRequest struct {
	GameID string `json:"game_id" validate:"required"`
	Side   string `json:"side"` // "home" | "away"
	Odds   int    `json:"odds"` // odds americanas que o cliente viu, ex: -150
}

type GameOutcomeRequest struct {
	Winner string `json:"winner" validate:"required,oneof=home away"`
}

type GameOddsRequest struct {
	HomeOdds int `json:"home_odds" validate:"required"`
	AwayOdds int `json:"away_odds" validate:"required"`
}
