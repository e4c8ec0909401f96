package repo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/season-betting/internal/bet-service/domain"
	"github.com/radieske/season-betting/internal/shared/config"
	"github.com/radieske/season-betting/internal/shared/db"
)

// Store é o contrato completo atendido por Postgres e Memory
type Store interface {
	Ping(ctx context.Context) error

	GetEntry(ctx context.Context, id string) (domain.Entry, error)
	GetGame(ctx context.Context, id string) (domain.Game, error)
	GamesByIDs(ctx context.Context, ids []string) (map[string]domain.Game, error)
	ListGames(ctx context.Context, status domain.GameStatus) ([]domain.Game, error)
	FinalizeGame(ctx context.Context, id string, winner domain.Side) (domain.Game, error)

	CreateWager(ctx context.Context, w domain.Wager) error
	GetWager(ctx context.Context, id string) (domain.Wager, error)
	ListWagers(ctx context.Context, entryID string, feed domain.WagerFeed) ([]domain.Wager, error)
	ListOpenWagers(ctx context.Context, after domain.WagerCursor, limit int) ([]domain.Wager, error)
	ListOpenWagersByGame(ctx context.Context, gameID string, after domain.WagerCursor, limit int) ([]domain.Wager, error)
	ClaimWager(ctx context.Context, id, token string, at time.Time) (bool, error)
	ReleaseWager(ctx context.Context, id, token string) error
	CompleteWager(ctx context.Context, s domain.Settlement) error
	RecoverStaleClaims(ctx context.Context, cutoff time.Time) (int, error)
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*Memory)(nil)
)

// Open escolhe a implementação por STORAGE. O close devolvido libera a conexão.
func Open(ctx context.Context, log *zap.Logger, cfg config.Config) (Store, func(), error) {
	switch cfg.Storage {
	case "memory":
		m := NewMemory()
		if cfg.SeedFile != "" {
			seed, err := LoadSeed(cfg.SeedFile)
			if err != nil {
				return nil, nil, err
			}
			seed.Apply(m)
			log.Info("memory store seeded", zap.Int("games", len(seed.Games)), zap.Int("entries", len(seed.Entries)))
		}
		return m, func() {}, nil
	case "postgres", "":
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		log.Info("postgres connected")
		return NewPostgres(pg), func() { _ = pg.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
}
