package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/season-betting/internal/bet-service/domain"
)

func final(id string, winner domain.Side) domain.Game {
	return domain.Game{ID: id, Status: domain.GameFinal, Winner: winner}
}

func mustWager(t *testing.T, stake int64, legs ...domain.Leg) domain.Wager {
	t.Helper()
	w, err := domain.NewWager("w", "e", legs, stake, kickoff)
	require.NoError(t, err)
	return w
}

func TestEvaluate(t *testing.T) {
	games := map[string]domain.Game{
		"g1":    final("g1", domain.SideHome),
		"g2":    final("g2", domain.SideAway),
		"g3":    final("g3", domain.SideHome),
		"open":  {ID: "open", Status: domain.GameScheduled},
		"noWin": {ID: "noWin", Status: domain.GameFinal},
	}

	tests := []struct {
		name        string
		wager       domain.Wager
		wantPending bool
		wantStatus  domain.WagerStatus
		wantPayout  int64
	}{
		{"single favorite wins", mustWager(t, 20000, home("g1", -200)), false, domain.WagerWon, 30000},
		{"single loses", mustWager(t, 20000, home("g2", -200)), false, domain.WagerLost, 0},
		{"single pending", mustWager(t, 100, home("open", 100)), true, "", 0},
		{"final without winner stays pending", mustWager(t, 100, home("noWin", 100)), true, "", 0},
		{"parlay wins", mustWager(t, 10000, home("g1", 100), away("g2", -200)), false, domain.WagerWon, 30000},
		{"parlay lost leg first", mustWager(t, 100, home("g2", 100), home("g1", 100), home("g3", 100)), false, domain.WagerLost, 0},
		{"parlay lost leg middle", mustWager(t, 100, home("g1", 100), home("g2", 100), home("g3", 100)), false, domain.WagerLost, 0},
		{"parlay lost leg last", mustWager(t, 100, home("g1", 100), home("g3", 100), home("g2", 100)), false, domain.WagerLost, 0},
		{"parlay with a lost leg waits for pending leg", mustWager(t, 100, home("open", 100), home("g2", 100)), true, "", 0},
		{"missing game loses even with pending legs", mustWager(t, 100, home("open", 100), home("ghost", 100)), false, domain.WagerLost, 0},
		{"one leg parlay equals single", func() domain.Wager {
			w := mustWager(t, 10000, home("g1", -150))
			w.Kind = domain.KindParlay
			return w
		}(), false, domain.WagerWon, 16667},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Evaluate(tt.wager, games)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPending, d.Pending)
			assert.Equal(t, tt.wantStatus, d.Status)
			assert.Equal(t, tt.wantPayout, d.PayoutCents)
			assert.Len(t, d.LegResults, len(tt.wager.Legs))
		})
	}
}

func TestEvaluate_MalformedSingle(t *testing.T) {
	w := mustWager(t, 100, home("g1", 100), home("g2", 100))
	w.Kind = domain.KindSingle

	_, err := Evaluate(w, map[string]domain.Game{"g1": final("g1", domain.SideHome), "g2": final("g2", domain.SideHome)})
	assert.Error(t, err)
}
