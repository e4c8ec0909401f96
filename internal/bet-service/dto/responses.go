package dto

import (
	"time"

	"github.com/radieske/season-betting/internal/bet-service/domain"
)

type LegResponse struct {
	GameID string `json:"game_id"`
	Side   string `json:"side"`
	Odds   int    `json:"odds"`
	Result string `json:"result"`
}

type WagerResponse struct {
	ID          string        `json:"id"`
	EntryID     string        `json:"entry_id"`
	Kind        string        `json:"kind"`
	Status      string        `json:"status"`
	StakeCents  int64         `json:"stake_cents"`
	PayoutCents int64         `json:"payout_cents"`
	PlacedAt    time.Time     `json:"placed_at"`
	SettledAt   *time.Time    `json:"settled_at,omitempty"`
	Legs        []LegResponse `json:"legs"`
}

type WagerListResponse struct {
	Wagers []WagerResponse `json:"wagers"`
}

type EntryResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	SeasonID     string `json:"season_id"`
	BalanceCents int64  `json:"balance_cents"`
	Paid         bool   `json:"paid"`
}

type GameResponse struct {
	ID        string    `json:"id"`
	League    string    `json:"league"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"`
	Status    string    `json:"status"`
	Winner    string    `json:"winner,omitempty"`
	HomeOdds  int       `json:"home_odds"`
	AwayOdds  int       `json:"away_odds"`
}

type SettleResponse struct {
	Resolved  int `json:"resolved"`
	Won       int `json:"won"`
	Lost      int `json:"lost"`
	Pending   int `json:"pending"`
	Contended int `json:"contended"`
	Failed    int `json:"failed"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func FromWager(w domain.Wager) WagerResponse {
	legs := make([]LegResponse, len(w.Legs))
	for i, l := range w.Legs {
		legs[i] = LegResponse{GameID: l.GameID, Side: string(l.Side), Odds: l.Odds, Result: string(l.Result)}
	}
	return WagerResponse{
		ID:          w.ID,
		EntryID:     w.EntryID,
		Kind:        string(w.Kind),
		Status:      string(w.Status),
		StakeCents:  w.StakeCents,
		PayoutCents: w.PayoutCents,
		PlacedAt:    w.PlacedAt,
		SettledAt:   w.SettledAt,
		Legs:        legs,
	}
}

func FromEntry(e domain.Entry) EntryResponse {
	return EntryResponse{ID: e.ID, UserID: e.UserID, SeasonID: e.SeasonID, BalanceCents: e.BalanceCents, Paid: e.Paid}
}

func FromGame(g domain.Game) GameResponse {
	return GameResponse{
		ID:        g.ID,
		League:    g.League,
		HomeTeam:  g.HomeTeam,
		AwayTeam:  g.AwayTeam,
		StartTime: g.StartTime,
		Status:    string(g.Status),
		Winner:    string(g.Winner),
		HomeOdds:  g.HomeOdds,
		AwayOdds:  g.AwayOdds,
	}
}
