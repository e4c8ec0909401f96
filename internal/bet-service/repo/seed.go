package repo

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/radieske/season-betting/internal/bet-service/domain"
)

// Seed descreve partidas e entries iniciais para o modo STORAGE=memory
type Seed struct {
	Games []struct {
		ID        string    `yaml:"id"`
		League    string    `yaml:"league"`
		HomeTeam  string    `yaml:"home_team"`
		AwayTeam  string    `yaml:"away_team"`
		StartTime time.Time `yaml:"start_time"`
		HomeOdds  int       `yaml:"home_odds"`
		AwayOdds  int       `yaml:"away_odds"`
	} `yaml:"games"`
	Entries []struct {
		ID           string `yaml:"id"`
		UserID       string `yaml:"user_id"`
		SeasonID     string `yaml:"season_id"`
		BalanceCents int64  `yaml:"balance_cents"`
		Paid         bool   `yaml:"paid"`
	} `yaml:"entries"`
}

// LoadSeed lê o arquivo YAML de seed
func LoadSeed(path string) (Seed, error) {
	var s Seed
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read seed: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse seed: %w", err)
	}
	return s, nil
}

// Apply grava o seed no repositório em memória; partidas entram como scheduled
func (s Seed) Apply(m *Memory) {
	for _, g := range s.Games {
		m.PutGame(domain.Game{
			ID:        g.ID,
			League:    g.League,
			HomeTeam:  g.HomeTeam,
			AwayTeam:  g.AwayTeam,
			StartTime: g.StartTime,
			Status:    domain.GameScheduled,
			HomeOdds:  g.HomeOdds,
			AwayOdds:  g.AwayOdds,
		})
	}
	for _, e := range s.Entries {
		m.PutEntry(domain.Entry{
			ID:           e.ID,
			UserID:       e.UserID,
			SeasonID:     e.SeasonID,
			BalanceCents: e.BalanceCents,
			Paid:         e.Paid,
		})
	}
}
