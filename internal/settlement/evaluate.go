package settlement

import (
	"fmt"

	"github.com/radieske/season-betting/internal/bet-service/domain"
	"github.com/radieske/season-betting/pkg/oddscalc"
)

// Decision é o resultado da avaliação de uma aposta reservada.
// Pending indica que alguma partida ainda não terminou e a aposta volta para open.
type Decision struct {
	Pending     bool
	Status      domain.WagerStatus
	PayoutCents int64
	LegResults  []domain.LegResult
}

// Evaluate decide a aposta a partir das partidas referenciadas.
// Partida ausente derruba a aposta (lost, payout 0); partida sem resultado a mantém pendente.
// As odds usadas são sempre o snapshot gravado na leg.
func Evaluate(w domain.Wager, games map[string]domain.Game) (Decision, error) {
	results := make([]domain.LegResult, len(w.Legs))
	missing, pending := false, false

	for i, l := range w.Legs {
		g, ok := games[l.GameID]
		switch {
		case !ok:
			missing = true
			results[i] = domain.LegLost
		case !g.Decided():
			pending = true
			results[i] = domain.LegOpen
		case g.Winner == l.Side:
			results[i] = domain.LegWon
		default:
			results[i] = domain.LegLost
		}
	}

	if missing {
		return Decision{Status: domain.WagerLost, LegResults: results}, nil
	}
	if pending {
		return Decision{Pending: true, LegResults: results}, nil
	}

	stake := oddscalc.FromCents(w.StakeCents)
	switch w.Kind {
	case domain.KindSingle:
		if len(w.Legs) != 1 {
			return Decision{}, fmt.Errorf("single wager %s has %d legs", w.ID, len(w.Legs))
		}
		if results[0] != domain.LegWon {
			return Decision{Status: domain.WagerLost, LegResults: results}, nil
		}
		ret := oddscalc.SingleReturn(stake, w.Legs[0].Odds)
		return Decision{Status: domain.WagerWon, PayoutCents: oddscalc.Cents(ret.Payout), LegResults: results}, nil

	case domain.KindParlay:
		odds := make([]int, len(w.Legs))
		for i, l := range w.Legs {
			if results[i] != domain.LegWon {
				return Decision{Status: domain.WagerLost, LegResults: results}, nil
			}
			odds[i] = l.Odds
		}
		ret, err := oddscalc.ParlayReturn(stake, odds)
		if err != nil {
			return Decision{}, fmt.Errorf("parlay %s: %w", w.ID, err)
		}
		return Decision{Status: domain.WagerWon, PayoutCents: oddscalc.Cents(ret.Payout), LegResults: results}, nil
	}

	return Decision{}, fmt.Errorf("wager %s: unknown kind %q", w.ID, w.Kind)
}
