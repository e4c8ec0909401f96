package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/radieske/season-betting/internal/bet-service/domain"
)

// Postgres implementa a persistência de partidas, entries e apostas em banco Postgres
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const (
	qSelectEntry = `SELECT id, user_id, season_id, balance_cents, paid FROM entries WHERE id=$1`

	qSelectGame     = `SELECT id, league, home_team, away_team, start_time, status, winner, home_odds, away_odds FROM games WHERE id=$1`
	qSelectGamesIn  = `SELECT id, league, home_team, away_team, start_time, status, winner, home_odds, away_odds FROM games WHERE id = ANY($1)`
	qListGames      = `SELECT id, league, home_team, away_team, start_time, status, winner, home_odds, away_odds FROM games ORDER BY start_time, id`
	qListGamesBy    = `SELECT id, league, home_team, away_team, start_time, status, winner, home_odds, away_odds FROM games WHERE status=$1 ORDER BY start_time, id`
	qFinalizeGame   = `UPDATE games SET status='final', winner=$2 WHERE id=$1 AND status<>'final' RETURNING id, league, home_team, away_team, start_time, status, winner, home_odds, away_odds`
	qGameStatusByID = `SELECT status FROM games WHERE id=$1`

	qLockEntry    = `SELECT balance_cents, paid FROM entries WHERE id=$1 FOR UPDATE`
	qDebitEntry   = `UPDATE entries SET balance_cents = balance_cents - $1, version = version + 1 WHERE id=$2`
	qCreditEntry  = `UPDATE entries SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`
	qInsertLedger = `INSERT INTO entry_ledger(entry_id, operation_type, amount_cents, description) VALUES($1,$2,$3,$4)`

	qInsertWager = `INSERT INTO wagers(id, entry_id, kind, stake_cents, status, payout_cents, placed_at) VALUES($1,$2,$3,$4,'open',0,$5)`
	qInsertLeg   = `INSERT INTO wager_legs(wager_id, position, game_id, side, odds, result) VALUES($1,$2,$3,$4,$5,'open')`

	qSelectWager    = `SELECT id, entry_id, kind, stake_cents, status, payout_cents, placed_at, settled_at, claim_token, claimed_at FROM wagers WHERE id=$1`
	qListOpenWagers = `SELECT id, entry_id, kind, stake_cents, status, payout_cents, placed_at, settled_at, claim_token, claimed_at FROM wagers WHERE status='open' AND (placed_at, id) > ($1, $2) ORDER BY placed_at, id LIMIT $3`
	qListOpenByGame = `SELECT w.id, w.entry_id, w.kind, w.stake_cents, w.status, w.payout_cents, w.placed_at, w.settled_at, w.claim_token, w.claimed_at FROM wagers w WHERE w.status='open' AND EXISTS (SELECT 1 FROM wager_legs l WHERE l.wager_id = w.id AND l.game_id = $1) AND (w.placed_at, w.id) > ($2, $3) ORDER BY w.placed_at, w.id LIMIT $4`
	qListWagers     = `SELECT id, entry_id, kind, stake_cents, status, payout_cents, placed_at, settled_at, claim_token, claimed_at FROM wagers WHERE ($1::text = '' OR entry_id = $1) AND ($2::text = '' OR ($2 = 'open' AND status IN ('open','processing')) OR ($2 = 'settled' AND status IN ('won','lost'))) ORDER BY placed_at DESC, id DESC LIMIT $3`
	qSelectLegsIn   = `SELECT wager_id, game_id, side, odds, result FROM wager_legs WHERE wager_id = ANY($1) ORDER BY wager_id, position`

	qClaimWager    = `UPDATE wagers SET status='processing', claim_token=$2, claimed_at=$3 WHERE id=$1 AND status='open'`
	qReleaseWager  = `UPDATE wagers SET status='open', claim_token=NULL, claimed_at=NULL WHERE id=$1 AND status='processing' AND claim_token=$2`
	qCompleteWager = `UPDATE wagers SET status=$3, payout_cents=$4, settled_at=$5, claim_token=NULL, claimed_at=NULL WHERE id=$1 AND status='processing' AND claim_token=$2`
	qSetLegResult  = `UPDATE wager_legs SET result=$3 WHERE wager_id=$1 AND position=$2`
	qRecoverStale  = `UPDATE wagers SET status='open', claim_token=NULL, claimed_at=NULL WHERE status='processing' AND claimed_at < $1`
)

// sem limite explícito, as listagens usam este teto
const maxListLimit = 10000

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (domain.Game, error) {
	var (
		g      domain.Game
		status string
		winner sql.NullString
	)
	if err := s.Scan(&g.ID, &g.League, &g.HomeTeam, &g.AwayTeam, &g.StartTime, &status, &winner, &g.HomeOdds, &g.AwayOdds); err != nil {
		return domain.Game{}, err
	}
	g.Status = domain.GameStatus(status)
	g.Winner = domain.Side(winner.String)
	return g, nil
}

func scanWager(s scanner) (domain.Wager, error) {
	var (
		w          domain.Wager
		kind       string
		status     string
		settledAt  sql.NullTime
		claimToken sql.NullString
		claimedAt  sql.NullTime
	)
	if err := s.Scan(&w.ID, &w.EntryID, &kind, &w.StakeCents, &status, &w.PayoutCents, &w.PlacedAt, &settledAt, &claimToken, &claimedAt); err != nil {
		return domain.Wager{}, err
	}
	w.Kind = domain.WagerKind(kind)
	w.Status = domain.WagerStatus(status)
	w.ClaimToken = claimToken.String
	if settledAt.Valid {
		t := settledAt.Time
		w.SettledAt = &t
	}
	if claimedAt.Valid {
		t := claimedAt.Time
		w.ClaimedAt = &t
	}
	return w, nil
}

// Ping verifica a conexão (usado no /healthz)
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// GetEntry retorna a entry pelo id
func (p *Postgres) GetEntry(ctx context.Context, id string) (domain.Entry, error) {
	var e domain.Entry
	err := p.db.QueryRowContext(ctx, qSelectEntry, id).Scan(&e.ID, &e.UserID, &e.SeasonID, &e.BalanceCents, &e.Paid)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, domain.ErrEntryNotFound
	}
	return e, err
}

// GetGame retorna a partida pelo id
func (p *Postgres) GetGame(ctx context.Context, id string) (domain.Game, error) {
	g, err := scanGame(p.db.QueryRowContext(ctx, qSelectGame, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return g, err
}

// GamesByIDs busca várias partidas de uma vez; ids ausentes simplesmente não aparecem no mapa
func (p *Postgres) GamesByIDs(ctx context.Context, ids []string) (map[string]domain.Game, error) {
	out := make(map[string]domain.Game, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := p.db.QueryContext(ctx, qSelectGamesIn, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out[g.ID] = g
	}
	return out, rows.Err()
}

// ListGames lista partidas, opcionalmente filtradas por status
func (p *Postgres) ListGames(ctx context.Context, status domain.GameStatus) ([]domain.Game, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = p.db.QueryContext(ctx, qListGames)
	} else {
		rows, err = p.db.QueryContext(ctx, qListGamesBy, string(status))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// FinalizeGame marca a partida como final com o vencedor, uma única vez.
// O UPDATE condicional é o que impede dois registros de resultado.
func (p *Postgres) FinalizeGame(ctx context.Context, id string, winner domain.Side) (domain.Game, error) {
	g, err := scanGame(p.db.QueryRowContext(ctx, qFinalizeGame, id, string(winner)))
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, err
	}

	var status string
	err = p.db.QueryRowContext(ctx, qGameStatusByID, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, err
	}
	return domain.Game{}, domain.ErrGameAlreadyFinal
}

// CreateWager debita o stake, grava a aposta com suas legs e registra o débito no ledger.
// Lock pessimista na entry; o saldo é conferido dentro do lock.
func (p *Postgres) CreateWager(ctx context.Context, w domain.Wager) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		balance int64
		paid    bool
	)
	err = tx.QueryRowContext(ctx, qLockEntry, w.EntryID).Scan(&balance, &paid)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrEntryNotFound
	}
	if err != nil {
		return err
	}
	if !paid {
		return domain.ErrEntryNotPaid
	}
	if balance < w.StakeCents {
		return domain.ErrInsufficientBalance
	}

	if _, err = tx.ExecContext(ctx, qDebitEntry, w.StakeCents, w.EntryID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, qInsertWager, w.ID, w.EntryID, string(w.Kind), w.StakeCents, w.PlacedAt); err != nil {
		return err
	}
	for i, l := range w.Legs {
		if _, err = tx.ExecContext(ctx, qInsertLeg, w.ID, i, l.GameID, string(l.Side), l.Odds); err != nil {
			return err
		}
	}
	if _, err = tx.ExecContext(ctx, qInsertLedger, w.EntryID, ledgerDebit, w.StakeCents, "wager:"+w.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetWager retorna a aposta com as legs
func (p *Postgres) GetWager(ctx context.Context, id string) (domain.Wager, error) {
	w, err := scanWager(p.db.QueryRowContext(ctx, qSelectWager, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Wager{}, domain.ErrWagerNotFound
	}
	if err != nil {
		return domain.Wager{}, err
	}
	ws := []domain.Wager{w}
	if err := p.loadLegs(ctx, ws); err != nil {
		return domain.Wager{}, err
	}
	return ws[0], nil
}

// ListOpenWagers lista apostas abertas em ordem de colocação, a partir do cursor
func (p *Postgres) ListOpenWagers(ctx context.Context, after domain.WagerCursor, limit int) ([]domain.Wager, error) {
	return p.listWagers(ctx, qListOpenWagers, after.PlacedAt, after.ID, normLimit(limit))
}

// ListOpenWagersByGame lista apostas abertas com alguma leg na partida
func (p *Postgres) ListOpenWagersByGame(ctx context.Context, gameID string, after domain.WagerCursor, limit int) ([]domain.Wager, error) {
	return p.listWagers(ctx, qListOpenByGame, gameID, after.PlacedAt, after.ID, normLimit(limit))
}

// ListWagers lista as apostas mais recentes primeiro; entryID vazio cobre todas as entries
func (p *Postgres) ListWagers(ctx context.Context, entryID string, feed domain.WagerFeed) ([]domain.Wager, error) {
	if !feed.Valid() {
		return nil, domain.ErrInvalidFeed
	}
	return p.listWagers(ctx, qListWagers, entryID, string(feed), maxListLimit)
}

func (p *Postgres) listWagers(ctx context.Context, query string, args ...any) ([]domain.Wager, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := p.loadLegs(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadLegs preenche as legs de todas as apostas com uma única consulta
func (p *Postgres) loadLegs(ctx context.Context, ws []domain.Wager) error {
	if len(ws) == 0 {
		return nil
	}
	ids := make([]string, len(ws))
	idx := make(map[string]int, len(ws))
	for i, w := range ws {
		ids[i] = w.ID
		idx[w.ID] = i
	}

	rows, err := p.db.QueryContext(ctx, qSelectLegsIn, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			wagerID      string
			l            domain.Leg
			side, result string
		)
		if err := rows.Scan(&wagerID, &l.GameID, &side, &l.Odds, &result); err != nil {
			return err
		}
		l.Side = domain.Side(side)
		l.Result = domain.LegResult(result)
		i, ok := idx[wagerID]
		if !ok {
			continue
		}
		ws[i].Legs = append(ws[i].Legs, l)
	}
	return rows.Err()
}

// ClaimWager move a aposta de open para processing com o token informado.
// Retorna false quando outro runner já a reservou ou ela não está mais aberta.
func (p *Postgres) ClaimWager(ctx context.Context, id, token string, at time.Time) (bool, error) {
	res, err := p.db.ExecContext(ctx, qClaimWager, id, token, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseWager devolve a aposta reservada para open. Sem efeito se o token não confere.
func (p *Postgres) ReleaseWager(ctx context.Context, id, token string) error {
	_, err := p.db.ExecContext(ctx, qReleaseWager, id, token)
	return err
}

// CompleteWager grava o resultado final, o resultado das legs e o crédito do payout
// numa única transação. Se a reserva não pertence mais ao token, nada é aplicado.
func (p *Postgres) CompleteWager(ctx context.Context, s domain.Settlement) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, qCompleteWager, s.WagerID, s.ClaimToken, string(s.Status), s.PayoutCents, s.SettledAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return domain.ErrClaimLost
	}

	for i, r := range s.LegResults {
		if _, err = tx.ExecContext(ctx, qSetLegResult, s.WagerID, i, string(r)); err != nil {
			return err
		}
	}

	if s.PayoutCents > 0 {
		var (
			balance int64
			paid    bool
		)
		if err = tx.QueryRowContext(ctx, qLockEntry, s.EntryID).Scan(&balance, &paid); err != nil {
			return fmt.Errorf("lock entry %s: %w", s.EntryID, err)
		}
		if _, err = tx.ExecContext(ctx, qCreditEntry, s.PayoutCents, s.EntryID); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, qInsertLedger, s.EntryID, ledgerCredit, s.PayoutCents, "payout:"+s.WagerID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecoverStaleClaims devolve para open as reservas feitas antes de cutoff
func (p *Postgres) RecoverStaleClaims(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := p.db.ExecContext(ctx, qRecoverStale, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func normLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
