package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/season-betting/internal/bet-service/domain"
	"github.com/radieske/season-betting/pkg/contracts/events"
)

// Store reúne as operações de persistência usadas pela liquidação.
// A reserva condicional (ClaimWager) é o único ponto de controle de concorrência.
type Store interface {
	ListOpenWagers(ctx context.Context, after domain.WagerCursor, limit int) ([]domain.Wager, error)
	ListOpenWagersByGame(ctx context.Context, gameID string, after domain.WagerCursor, limit int) ([]domain.Wager, error)
	ClaimWager(ctx context.Context, id, token string, at time.Time) (bool, error)
	ReleaseWager(ctx context.Context, id, token string) error
	CompleteWager(ctx context.Context, s domain.Settlement) error
	RecoverStaleClaims(ctx context.Context, cutoff time.Time) (int, error)

	GamesByIDs(ctx context.Context, ids []string) (map[string]domain.Game, error)
	FinalizeGame(ctx context.Context, id string, winner domain.Side) (domain.Game, error)
}

// Notifier recebe as apostas concluídas (Kafka, Redis Pub/Sub...)
type Notifier interface {
	WagerSettled(ctx context.Context, ev events.WagerSettled) error
}

// GamePublisher anuncia partidas finalizadas
type GamePublisher interface {
	GameFinalized(ctx context.Context, ev events.GameFinalized) error
}

// PassResult resume uma passada de liquidação
type PassResult struct {
	Resolved  int // won + lost
	Won       int
	Lost      int
	Pending   int
	Contended int
	Failed    int
}

func (r *PassResult) merge(o PassResult) {
	r.Resolved += o.Resolved
	r.Won += o.Won
	r.Lost += o.Lost
	r.Pending += o.Pending
	r.Contended += o.Contended
	r.Failed += o.Failed
}

func (r *PassResult) add(o outcome) {
	switch o {
	case outcomeWon:
		r.Resolved++
		r.Won++
	case outcomeLost:
		r.Resolved++
		r.Lost++
	case outcomePending:
		r.Pending++
	case outcomeContended:
		r.Contended++
	case outcomeFailed:
		r.Failed++
	}
}

type outcome int

const (
	outcomeWon outcome = iota
	outcomeLost
	outcomePending
	outcomeContended
	outcomeFailed
)

const (
	defaultBatchSize  = 500
	defaultStaleAfter = 10 * time.Minute
	notifyTimeout     = 2 * time.Second
)

// Engine reserva, avalia e conclui apostas abertas, uma vez por aposta.
// Callbacks de métricas são opcionais.
type Engine struct {
	Log   *zap.Logger
	Store Store

	Notifiers []Notifier
	Games     GamePublisher

	BatchSize       int
	StaleClaimAfter time.Duration

	Now      func() time.Time
	NewToken func() string

	OnResolved  func(status string)
	OnContended func()
	OnPending   func()
	OnRecovered func(n int)
	OnError     func(stage string)
	OnPass      func(d time.Duration)
}

func New(log *zap.Logger, store Store) *Engine {
	return &Engine{
		Log:             log,
		Store:           store,
		BatchSize:       defaultBatchSize,
		StaleClaimAfter: defaultStaleAfter,
		Now:             time.Now,
		NewToken:        uuid.NewString,
	}
}

// RunPass liquida todas as apostas abertas, paginando em lotes de BatchSize.
// Falha ao listar aborta a passada; falhas de uma aposta são registradas e a
// passada continua.
func (e *Engine) RunPass(ctx context.Context) (PassResult, error) {
	start := time.Now()
	res, seen, err := e.drain(ctx, e.Store.ListOpenWagers)
	if err != nil {
		return res, fmt.Errorf("list open wagers: %w", err)
	}
	e.finishPass("settlement pass done", start, res, zap.Int("open", seen))
	return res, nil
}

// SettleGame roda a mesma liquidação restrita às apostas com leg na partida
func (e *Engine) SettleGame(ctx context.Context, gameID string) (PassResult, error) {
	start := time.Now()
	res, seen, err := e.drain(ctx, func(ctx context.Context, after domain.WagerCursor, limit int) ([]domain.Wager, error) {
		return e.Store.ListOpenWagersByGame(ctx, gameID, after, limit)
	})
	if err != nil {
		return res, fmt.Errorf("list open wagers for game %s: %w", gameID, err)
	}
	e.finishPass("game settlement done", start, res, zap.String("game_id", gameID), zap.Int("open", seen))
	return res, nil
}

type listPage func(ctx context.Context, after domain.WagerCursor, limit int) ([]domain.Wager, error)

// drain percorre as páginas pelo cursor (placed_at, id) até uma página vir
// incompleta. Apostas pendentes voltam a open, mas o cursor já passou delas.
func (e *Engine) drain(ctx context.Context, list listPage) (PassResult, int, error) {
	batch := e.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	var (
		res    PassResult
		cursor domain.WagerCursor
		seen   int
	)
	for ctx.Err() == nil {
		page, err := list(ctx, cursor, batch)
		if err != nil {
			e.fail("list")
			return res, seen, err
		}
		seen += len(page)
		res.merge(e.settleAll(ctx, page))
		if len(page) < batch {
			break
		}
		cursor = domain.CursorAfter(page[len(page)-1])
	}
	return res, seen, nil
}

// RecordGameOutcome registra o vencedor uma única vez, liquida as apostas da
// partida e publica game_finalized. Partida já final devolve ErrGameAlreadyFinal
// sem disparar nada.
func (e *Engine) RecordGameOutcome(ctx context.Context, gameID string, winner domain.Side) (domain.Game, error) {
	if !winner.Valid() {
		return domain.Game{}, domain.ErrInvalidSide
	}
	g, err := e.Store.FinalizeGame(ctx, gameID, winner)
	if err != nil {
		return domain.Game{}, err
	}
	e.Log.Info("game finalized", zap.String("game_id", g.ID), zap.String("winner", string(winner)))

	// a passada periódica cobre o que falhar aqui
	if _, err := e.SettleGame(ctx, g.ID); err != nil {
		e.Log.Warn("opportunistic settlement failed", zap.String("game_id", g.ID), zap.Error(err))
	}

	if e.Games != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		ev := events.GameFinalized{GameID: g.ID, League: g.League, Winner: string(g.Winner), FinalizedAt: e.Now().UTC()}
		if err := e.Games.GameFinalized(pctx, ev); err != nil {
			e.fail("publish_game")
			e.Log.Warn("game_finalized publish failed", zap.String("game_id", g.ID), zap.Error(err))
		}
	}
	return g, nil
}

// RecoverStaleClaims devolve para open as apostas presas em processing há mais
// de StaleClaimAfter. Uma conclusão tardia da reserva antiga falha com ErrClaimLost.
func (e *Engine) RecoverStaleClaims(ctx context.Context) (int, error) {
	cutoff := e.Now().Add(-e.StaleClaimAfter)
	n, err := e.Store.RecoverStaleClaims(ctx, cutoff)
	if err != nil {
		e.fail("recover")
		return 0, fmt.Errorf("recover stale claims: %w", err)
	}
	if n > 0 {
		e.Log.Warn("stale claims recovered", zap.Int("count", n), zap.Time("cutoff", cutoff))
		if e.OnRecovered != nil {
			e.OnRecovered(n)
		}
	}
	return n, nil
}

func (e *Engine) settleAll(ctx context.Context, wagers []domain.Wager) PassResult {
	var res PassResult
	for _, w := range wagers {
		if ctx.Err() != nil {
			break
		}
		res.add(e.settleOne(ctx, w))
	}
	return res
}

func (e *Engine) settleOne(ctx context.Context, w domain.Wager) outcome {
	log := e.Log.With(zap.String("wager_id", w.ID), zap.String("entry_id", w.EntryID))

	token := e.NewToken()
	ok, err := e.Store.ClaimWager(ctx, w.ID, token, e.Now())
	if err != nil {
		e.fail("claim")
		log.Warn("claim failed", zap.Error(err))
		return outcomeFailed
	}
	if !ok {
		// outro runner já pegou a aposta
		if e.OnContended != nil {
			e.OnContended()
		}
		return outcomeContended
	}

	games, err := e.Store.GamesByIDs(ctx, w.GameIDs())
	if err != nil {
		e.fail("load_games")
		log.Warn("load games failed", zap.Error(err))
		e.release(ctx, log, w.ID, token)
		return outcomeFailed
	}

	d, err := Evaluate(w, games)
	if err != nil {
		e.fail("evaluate")
		log.Error("evaluate failed", zap.Error(err))
		e.release(ctx, log, w.ID, token)
		return outcomeFailed
	}
	if d.Pending {
		e.release(ctx, log, w.ID, token)
		if e.OnPending != nil {
			e.OnPending()
		}
		return outcomePending
	}

	s := domain.Settlement{
		WagerID:     w.ID,
		EntryID:     w.EntryID,
		ClaimToken:  token,
		Status:      d.Status,
		PayoutCents: d.PayoutCents,
		LegResults:  d.LegResults,
		SettledAt:   e.Now().UTC(),
	}
	if err := e.Store.CompleteWager(ctx, s); err != nil {
		if errors.Is(err, domain.ErrClaimLost) {
			log.Warn("claim lost before completion")
			if e.OnContended != nil {
				e.OnContended()
			}
			return outcomeContended
		}
		e.fail("complete")
		log.Warn("complete failed", zap.Error(err))
		e.release(ctx, log, w.ID, token)
		return outcomeFailed
	}

	log.Info("wager settled",
		zap.String("status", string(s.Status)),
		zap.String("kind", string(w.Kind)),
		zap.Int64("payout_cents", s.PayoutCents),
	)
	if e.OnResolved != nil {
		e.OnResolved(string(s.Status))
	}
	e.notify(ctx, log, events.WagerSettled{
		WagerID:     w.ID,
		EntryID:     w.EntryID,
		Kind:        string(w.Kind),
		Status:      string(s.Status),
		StakeCents:  w.StakeCents,
		PayoutCents: s.PayoutCents,
		SettledAt:   s.SettledAt,
	})

	if s.Status == domain.WagerWon {
		return outcomeWon
	}
	return outcomeLost
}

// release é best effort; se falhar a reserva expira e RecoverStaleClaims a devolve
func (e *Engine) release(ctx context.Context, log *zap.Logger, id, token string) {
	if err := e.Store.ReleaseWager(context.WithoutCancel(ctx), id, token); err != nil {
		e.fail("release")
		log.Warn("release failed", zap.Error(err))
	}
}

// notify nunca desfaz a liquidação; falhas só são registradas
func (e *Engine) notify(ctx context.Context, log *zap.Logger, ev events.WagerSettled) {
	if len(e.Notifiers) == 0 {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	for _, n := range e.Notifiers {
		if err := n.WagerSettled(nctx, ev); err != nil {
			e.fail("notify")
			log.Warn("wager_settled notify failed", zap.Error(err))
		}
	}
}

func (e *Engine) finishPass(msg string, start time.Time, res PassResult, fields ...zap.Field) {
	d := time.Since(start)
	if e.OnPass != nil {
		e.OnPass(d)
	}
	fields = append(fields,
		zap.Int("resolved", res.Resolved),
		zap.Int("won", res.Won),
		zap.Int("lost", res.Lost),
		zap.Int("pending", res.Pending),
		zap.Int("contended", res.Contended),
		zap.Int("failed", res.Failed),
		zap.Duration("took", d),
	)
	e.Log.Info(msg, fields...)
}

func (e *Engine) fail(stage string) {
	if e.OnError != nil {
		e.OnError(stage)
	}
}
