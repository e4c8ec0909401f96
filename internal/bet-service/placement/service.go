package placement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/season-betting/internal/bet-service/domain"
)

// Store é o que a colocação precisa da persistência
type Store interface {
	GetEntry(ctx context.Context, id string) (domain.Entry, error)
	GamesByIDs(ctx context.Context, ids []string) (map[string]domain.Game, error)
	CreateWager(ctx context.Context, w domain.Wager) error
}

// OddsChecker confere o snapshot de uma leg contra a cotação atual
type OddsChecker interface {
	Check(ctx context.Context, leg domain.Leg) error
}

// Hooks permite plugar métricas sem acoplar o pacote ao Prometheus
type Hooks struct {
	OnPlaced   func(kind string)
	OnRejected func(reason string)
}

type LegRequest struct {
	GameID string
	Side   domain.Side
	Odds   int
}

type Request struct {
	EntryID    string
	Legs       []LegRequest
	StakeCents int64
}

type Service struct {
	log   *zap.Logger
	store Store
	odds  OddsChecker // opcional
	hooks Hooks

	Now   func() time.Time
	NewID func() string
}

func NewService(log *zap.Logger, store Store, odds OddsChecker, hooks Hooks) *Service {
	return &Service{
		log:   log,
		store: store,
		odds:  odds,
		hooks: hooks,
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// PlaceWager valida a aposta, debita o stake e grava a aposta aberta.
// Toda recusa é um erro de domínio comparável com errors.Is.
func (s *Service) PlaceWager(ctx context.Context, req Request) (domain.Wager, error) {
	w, err := s.place(ctx, req)
	if err != nil {
		if s.hooks.OnRejected != nil {
			s.hooks.OnRejected(domain.Code(err))
		}
		return domain.Wager{}, err
	}
	if s.hooks.OnPlaced != nil {
		s.hooks.OnPlaced(string(w.Kind))
	}
	s.log.Info("wager placed",
		zap.String("wager_id", w.ID),
		zap.String("entry_id", w.EntryID),
		zap.String("kind", string(w.Kind)),
		zap.Int64("stake_cents", w.StakeCents),
		zap.Int("legs", len(w.Legs)),
	)
	return w, nil
}

func (s *Service) place(ctx context.Context, req Request) (domain.Wager, error) {
	if req.StakeCents <= 0 {
		return domain.Wager{}, domain.ErrInvalidStake
	}
	if len(req.Legs) == 0 {
		return domain.Wager{}, domain.ErrNoLegs
	}

	legs := make([]domain.Leg, len(req.Legs))
	seen := make(map[string]struct{}, len(req.Legs))
	for i, l := range req.Legs {
		if !l.Side.Valid() {
			return domain.Wager{}, domain.ErrInvalidSide
		}
		if l.Odds == 0 {
			return domain.Wager{}, domain.ErrInvalidOdds
		}
		if _, dup := seen[l.GameID]; dup {
			return domain.Wager{}, domain.ErrDuplicateLeg
		}
		seen[l.GameID] = struct{}{}
		legs[i] = domain.Leg{GameID: l.GameID, Side: l.Side, Odds: l.Odds}
	}

	entry, err := s.store.GetEntry(ctx, req.EntryID)
	if err != nil {
		return domain.Wager{}, err
	}
	if !entry.Paid {
		return domain.Wager{}, domain.ErrEntryNotPaid
	}
	if entry.BalanceCents < req.StakeCents {
		return domain.Wager{}, domain.ErrInsufficientBalance
	}

	now := s.Now()
	w, err := domain.NewWager(s.NewID(), req.EntryID, legs, req.StakeCents, now)
	if err != nil {
		return domain.Wager{}, err
	}

	games, err := s.store.GamesByIDs(ctx, w.GameIDs())
	if err != nil {
		return domain.Wager{}, fmt.Errorf("load games: %w", err)
	}
	for _, l := range w.Legs {
		g, ok := games[l.GameID]
		if !ok || g.Status == domain.GameFinal {
			return domain.Wager{}, domain.ErrGameUnavailable
		}
		if !g.StartTime.After(now) {
			return domain.Wager{}, domain.ErrGameStarted
		}
	}

	if s.odds != nil {
		for _, l := range w.Legs {
			if err := s.odds.Check(ctx, l); err != nil {
				return domain.Wager{}, err
			}
		}
	}

	// o saldo é conferido de novo dentro da transação
	if err := s.store.CreateWager(ctx, w); err != nil {
		return domain.Wager{}, err
	}
	return w, nil
}
