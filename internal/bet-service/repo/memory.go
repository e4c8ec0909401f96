package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/radieske/season-betting/internal/bet-service/domain"
)

const (
	ledgerDebit  = "DEBIT"
	ledgerCredit = "CREDIT"
)

// LedgerEntry é uma linha do extrato da entry
type LedgerEntry struct {
	EntryID     string
	Operation   string // DEBIT | CREDIT
	AmountCents int64
	Description string
}

// Memory implementa o mesmo contrato do Postgres em memória.
// Um único mutex serializa tudo; leituras devolvem cópias.
type Memory struct {
	mu      sync.Mutex
	games   map[string]domain.Game
	entries map[string]domain.Entry
	wagers  map[string]domain.Wager
	ledger  []LedgerEntry
}

func NewMemory() *Memory {
	return &Memory{
		games:   make(map[string]domain.Game),
		entries: make(map[string]domain.Entry),
		wagers:  make(map[string]domain.Wager),
	}
}

// PutGame insere ou substitui uma partida
func (m *Memory) PutGame(g domain.Game) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
}

// PutEntry insere ou substitui uma entry
func (m *Memory) PutEntry(e domain.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
}

// Ledger retorna o extrato de uma entry
func (m *Memory) Ledger(entryID string) []LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LedgerEntry
	for _, l := range m.ledger {
		if l.EntryID == entryID {
			out = append(out, l)
		}
	}
	return out
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) GetEntry(ctx context.Context, id string) (domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.Entry{}, domain.ErrEntryNotFound
	}
	return e, nil
}

func (m *Memory) GetGame(ctx context.Context, id string) (domain.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return g, nil
}

func (m *Memory) GamesByIDs(ctx context.Context, ids []string) (map[string]domain.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]domain.Game, len(ids))
	for _, id := range ids {
		if g, ok := m.games[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

func (m *Memory) ListGames(ctx context.Context, status domain.GameStatus) ([]domain.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Game
	for _, g := range m.games {
		if status == "" || g.Status == status {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (m *Memory) FinalizeGame(ctx context.Context, id string, winner domain.Side) (domain.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if g.Status == domain.GameFinal {
		return domain.Game{}, domain.ErrGameAlreadyFinal
	}
	g.Status = domain.GameFinal
	g.Winner = winner
	m.games[id] = g
	return g, nil
}

func (m *Memory) CreateWager(ctx context.Context, w domain.Wager) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[w.EntryID]
	if !ok {
		return domain.ErrEntryNotFound
	}
	if !e.Paid {
		return domain.ErrEntryNotPaid
	}
	if e.BalanceCents < w.StakeCents {
		return domain.ErrInsufficientBalance
	}
	e.BalanceCents -= w.StakeCents
	m.entries[e.ID] = e

	w.Status = domain.WagerOpen
	w.Legs = copyLegs(w.Legs)
	m.wagers[w.ID] = w
	m.ledger = append(m.ledger, LedgerEntry{EntryID: e.ID, Operation: ledgerDebit, AmountCents: w.StakeCents, Description: "wager:" + w.ID})
	return nil
}

func (m *Memory) GetWager(ctx context.Context, id string) (domain.Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wagers[id]
	if !ok {
		return domain.Wager{}, domain.ErrWagerNotFound
	}
	return copyWager(w), nil
}

func (m *Memory) ListOpenWagers(ctx context.Context, after domain.WagerCursor, limit int) ([]domain.Wager, error) {
	return m.listOpen(func(domain.Wager) bool { return true }, after, limit), nil
}

func (m *Memory) ListOpenWagersByGame(ctx context.Context, gameID string, after domain.WagerCursor, limit int) ([]domain.Wager, error) {
	return m.listOpen(func(w domain.Wager) bool {
		for _, l := range w.Legs {
			if l.GameID == gameID {
				return true
			}
		}
		return false
	}, after, limit), nil
}

// listOpen segue a mesma ordem (placed_at, id) e o mesmo cursor do Postgres
func (m *Memory) listOpen(match func(domain.Wager) bool, after domain.WagerCursor, limit int) []domain.Wager {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Wager
	for _, w := range m.wagers {
		if w.Status != domain.WagerOpen || !after.Precedes(w) || !match(w) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].PlacedAt.Before(out[j].PlacedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit = normLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i] = copyWager(out[i])
	}
	return out
}

// ListWagers lista as apostas mais recentes primeiro; entryID vazio cobre todas as entries
func (m *Memory) ListWagers(ctx context.Context, entryID string, feed domain.WagerFeed) ([]domain.Wager, error) {
	if !feed.Valid() {
		return nil, domain.ErrInvalidFeed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Wager
	for _, w := range m.wagers {
		if (entryID != "" && w.EntryID != entryID) || !feed.Matches(w.Status) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].PlacedAt.After(out[j].PlacedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > maxListLimit {
		out = out[:maxListLimit]
	}
	for i := range out {
		out[i] = copyWager(out[i])
	}
	return out, nil
}

func (m *Memory) ClaimWager(ctx context.Context, id, token string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wagers[id]
	if !ok || w.Status != domain.WagerOpen {
		return false, nil
	}
	w.Status = domain.WagerProcessing
	w.ClaimToken = token
	w.ClaimedAt = &at
	m.wagers[id] = w
	return true, nil
}

func (m *Memory) ReleaseWager(ctx context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wagers[id]
	if !ok || w.Status != domain.WagerProcessing || w.ClaimToken != token {
		return nil
	}
	w.Status = domain.WagerOpen
	w.ClaimToken = ""
	w.ClaimedAt = nil
	m.wagers[id] = w
	return nil
}

func (m *Memory) CompleteWager(ctx context.Context, s domain.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wagers[s.WagerID]
	if !ok || w.Status != domain.WagerProcessing || w.ClaimToken != s.ClaimToken {
		return domain.ErrClaimLost
	}

	w.Status = s.Status
	w.PayoutCents = s.PayoutCents
	settled := s.SettledAt
	w.SettledAt = &settled
	w.ClaimToken = ""
	w.ClaimedAt = nil
	w.Legs = copyLegs(w.Legs)
	for i := range w.Legs {
		if i < len(s.LegResults) {
			w.Legs[i].Result = s.LegResults[i]
		}
	}

	if s.PayoutCents > 0 {
		e, ok := m.entries[s.EntryID]
		if !ok {
			return domain.ErrEntryNotFound
		}
		e.BalanceCents += s.PayoutCents
		m.entries[e.ID] = e
		m.ledger = append(m.ledger, LedgerEntry{EntryID: e.ID, Operation: ledgerCredit, AmountCents: s.PayoutCents, Description: "payout:" + s.WagerID})
	}
	m.wagers[w.ID] = w
	return nil
}

func (m *Memory) RecoverStaleClaims(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, w := range m.wagers {
		if w.Status != domain.WagerProcessing || w.ClaimedAt == nil || !w.ClaimedAt.Before(cutoff) {
			continue
		}
		w.Status = domain.WagerOpen
		w.ClaimToken = ""
		w.ClaimedAt = nil
		m.wagers[id] = w
		n++
	}
	return n, nil
}

func copyLegs(in []domain.Leg) []domain.Leg {
	out := make([]domain.Leg, len(in))
	copy(out, in)
	return out
}

func copyWager(w domain.Wager) domain.Wager {
	w.Legs = copyLegs(w.Legs)
	return w
}
