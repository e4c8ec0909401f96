package domain

import (
	"time"
)

// Side identifica o lado escolhido em um moneyline.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Valid indica se o lado é home ou away.
func (s Side) Valid() bool { return s == SideHome || s == SideAway }

type GameStatus string

const (
	GameScheduled GameStatus = "scheduled"
	GameFinal     GameStatus = "final"
)

// Game é o registro de partida consumido pela liquidação.
// Só Status e Winner mudam, e uma única vez (final é terminal).
type Game struct {
	ID        string
	League    string
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
	Status    GameStatus
	Winner    Side // vazio enquanto não houver vencedor

	// Odds cotadas mais recentes, apenas para exibição.
	HomeOdds int
	AwayOdds int
}

// Decided indica se a partida já tem resultado registrado.
func (g Game) Decided() bool { return g.Status == GameFinal && g.Winner.Valid() }

// Entry é a carteira do usuário em uma temporada.
type Entry struct {
	ID           string
	UserID       string
	SeasonID     string
	BalanceCents int64
	Paid         bool
}

type LegResult string

const (
	LegOpen LegResult = "open"
	LegWon  LegResult = "won"
	LegLost LegResult = "lost"
)

// Leg é uma seleção moneyline. Odds é o snapshot capturado na colocação
// e nunca é relido na liquidação.
type Leg struct {
	GameID string
	Side   Side
	Odds   int
	Result LegResult
}

type WagerKind string

const (
	KindSingle WagerKind = "single"
	KindParlay WagerKind = "parlay"
)

// KindFor deriva o tipo da aposta a partir do número de legs.
func KindFor(legs int) WagerKind {
	if legs > 1 {
		return KindParlay
	}
	return KindSingle
}

type WagerStatus string

const (
	WagerOpen       WagerStatus = "open"
	WagerProcessing WagerStatus = "processing"
	WagerWon        WagerStatus = "won"
	WagerLost       WagerStatus = "lost"
)

// Terminal indica won ou lost.
func (s WagerStatus) Terminal() bool { return s == WagerWon || s == WagerLost }

// Wager é a aposta persistida. Kind é fixado na criação e nunca inferido
// de novo a partir de len(Legs).
type Wager struct {
	ID          string
	EntryID     string
	Kind        WagerKind
	Legs        []Leg
	StakeCents  int64
	Status      WagerStatus
	PayoutCents int64
	PlacedAt    time.Time
	SettledAt   *time.Time

	ClaimToken string
	ClaimedAt  *time.Time
}

// NewWager monta uma aposta aberta com legs não vazias e tipo derivado.
func NewWager(id, entryID string, legs []Leg, stakeCents int64, placedAt time.Time) (Wager, error) {
	if len(legs) == 0 {
		return Wager{}, ErrNoLegs
	}
	if stakeCents <= 0 {
		return Wager{}, ErrInvalidStake
	}
	cp := make([]Leg, len(legs))
	for i, l := range legs {
		l.Result = LegOpen
		cp[i] = l
	}
	return Wager{
		ID:         id,
		EntryID:    entryID,
		Kind:       KindFor(len(cp)),
		Legs:       cp,
		StakeCents: stakeCents,
		Status:     WagerOpen,
		PlacedAt:   placedAt,
	}, nil
}

// GameIDs retorna os ids de partida referenciados, sem repetição, na ordem das legs.
func (w Wager) GameIDs() []string {
	seen := make(map[string]struct{}, len(w.Legs))
	out := make([]string, 0, len(w.Legs))
	for _, l := range w.Legs {
		if _, ok := seen[l.GameID]; ok {
			continue
		}
		seen[l.GameID] = struct{}{}
		out = append(out, l.GameID)
	}
	return out
}

// WagerCursor marca a posição (PlacedAt, ID) na listagem paginada de apostas abertas.
// O valor zero começa do início.
type WagerCursor struct {
	PlacedAt time.Time
	ID       string
}

// CursorAfter devolve o cursor posicionado logo após w.
func CursorAfter(w Wager) WagerCursor { return WagerCursor{PlacedAt: w.PlacedAt, ID: w.ID} }

// Precedes indica se w vem depois do cursor na ordem (placed_at, id).
func (c WagerCursor) Precedes(w Wager) bool {
	if !w.PlacedAt.Equal(c.PlacedAt) {
		return w.PlacedAt.After(c.PlacedAt)
	}
	return w.ID > c.ID
}

// WagerFeed filtra a listagem de apostas de uma entry.
type WagerFeed string

const (
	FeedAll     WagerFeed = ""
	FeedOpen    WagerFeed = "open"    // open ou processing
	FeedSettled WagerFeed = "settled" // won ou lost
)

// Valid aceita apenas os filtros conhecidos.
func (f WagerFeed) Valid() bool { return f == FeedAll || f == FeedOpen || f == FeedSettled }

// Matches indica se a aposta pertence ao filtro.
func (f WagerFeed) Matches(s WagerStatus) bool {
	switch f {
	case FeedOpen:
		return !s.Terminal()
	case FeedSettled:
		return s.Terminal()
	}
	return true
}

// Settlement é o resultado final de uma aposta, aplicado numa única transação
// junto com o crédito da carteira.
type Settlement struct {
	WagerID     string
	EntryID     string
	ClaimToken  string
	Status      WagerStatus // won | lost
	PayoutCents int64
	LegResults  []LegResult // mesma ordem de Wager.Legs
	SettledAt   time.Time
}
