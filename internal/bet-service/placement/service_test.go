package placement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/season-betting/internal/bet-service/domain"
	"github.com/radieske/season-betting/internal/bet-service/repo"
)

var now = time.Date(2025, 9, 7, 12, 0, 0, 0, time.UTC)

type mockOdds struct{ mock.Mock }

func (m *mockOdds) Check(ctx context.Context, leg domain.Leg) error {
	return m.Called(ctx, leg).Error(0)
}

func setup(t *testing.T, odds OddsChecker) (*Service, *repo.Memory, *[]string) {
	t.Helper()
	store := repo.NewMemory()
	store.PutEntry(domain.Entry{ID: "e1", BalanceCents: 10000, Paid: true})
	store.PutEntry(domain.Entry{ID: "unpaid", BalanceCents: 10000})
	store.PutGame(domain.Game{ID: "g1", StartTime: now.Add(time.Hour), Status: domain.GameScheduled})
	store.PutGame(domain.Game{ID: "g2", StartTime: now.Add(2 * time.Hour), Status: domain.GameScheduled})
	store.PutGame(domain.Game{ID: "started", StartTime: now.Add(-time.Minute), Status: domain.GameScheduled})
	store.PutGame(domain.Game{ID: "done", StartTime: now.Add(time.Hour), Status: domain.GameFinal, Winner: domain.SideHome})

	var rejected []string
	svc := NewService(zap.NewNop(), store, odds, Hooks{OnRejected: func(r string) { rejected = append(rejected, r) }})
	svc.Now = func() time.Time { return now }
	n := 0
	svc.NewID = func() string { n++; return "w" + string(rune('0'+n)) }
	return svc, store, &rejected
}

func leg(game string, side domain.Side, odds int) LegRequest {
	return LegRequest{GameID: game, Side: side, Odds: odds}
}

func TestPlaceWager_Single(t *testing.T) {
	svc, store, _ := setup(t, nil)
	ctx := context.Background()

	w, err := svc.PlaceWager(ctx, Request{EntryID: "e1", StakeCents: 2500, Legs: []LegRequest{leg("g1", domain.SideHome, -150)}})
	require.NoError(t, err)
	assert.Equal(t, domain.KindSingle, w.Kind)
	assert.Equal(t, domain.WagerOpen, w.Status)
	assert.Equal(t, now, w.PlacedAt)

	e, _ := store.GetEntry(ctx, "e1")
	assert.Equal(t, int64(7500), e.BalanceCents)

	stored, err := store.GetWager(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, -150, stored.Legs[0].Odds)
	assert.Equal(t, domain.LegOpen, stored.Legs[0].Result)
}

func TestPlaceWager_Parlay(t *testing.T) {
	svc, _, _ := setup(t, nil)

	w, err := svc.PlaceWager(context.Background(), Request{
		EntryID: "e1", StakeCents: 1000,
		Legs: []LegRequest{leg("g1", domain.SideHome, -110), leg("g2", domain.SideAway, 140)},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KindParlay, w.Kind)
	assert.Len(t, w.Legs, 2)
}

func TestPlaceWager_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"zero stake", Request{EntryID: "e1", Legs: []LegRequest{leg("g1", domain.SideHome, 100)}}, domain.ErrInvalidStake},
		{"negative stake", Request{EntryID: "e1", StakeCents: -5, Legs: []LegRequest{leg("g1", domain.SideHome, 100)}}, domain.ErrInvalidStake},
		{"no legs", Request{EntryID: "e1", StakeCents: 100}, domain.ErrNoLegs},
		{"bad side", Request{EntryID: "e1", StakeCents: 100, Legs: []LegRequest{leg("g1", "draw", 100)}}, domain.ErrInvalidSide},
		{"zero odds", Request{EntryID: "e1", StakeCents: 100, Legs: []LegRequest{leg("g1", domain.SideHome, 0)}}, domain.ErrInvalidOdds},
		{"same game twice", Request{EntryID: "e1", StakeCents: 100, Legs: []LegRequest{leg("g1", domain.SideHome, 100), leg("g1", domain.SideAway, 100)}}, domain.ErrDuplicateLeg},
		{"unknown entry", Request{EntryID: "nope", StakeCents: 100, Legs: []LegRequest{leg("g1", domain.SideHome, 100)}}, domain.ErrEntryNotFound},
		{"unpaid entry", Request{EntryID: "unpaid", StakeCents: 100, Legs: []LegRequest{leg("g1", domain.SideHome, 100)}}, domain.ErrEntryNotPaid},
		{"over balance", Request{EntryID: "e1", StakeCents: 10001, Legs: []LegRequest{leg("g1", domain.SideHome, 100)}}, domain.ErrInsufficientBalance},
		{"unknown game", Request{EntryID: "e1", StakeCents: 100, Legs: []LegRequest{leg("g9", domain.SideHome, 100)}}, domain.ErrGameUnavailable},
		{"final game", Request{EntryID: "e1", StakeCents: 100, Legs: []LegRequest{leg("done", domain.SideHome, 100)}}, domain.ErrGameUnavailable},
		{"started single", Request{EntryID: "e1", StakeCents: 100, Legs: []LegRequest{leg("started", domain.SideHome, 100)}}, domain.ErrGameStarted},
		{"started parlay leg", Request{EntryID: "e1", StakeCents: 100, Legs: []LegRequest{leg("g1", domain.SideHome, 100), leg("started", domain.SideAway, 100)}}, domain.ErrGameStarted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, rejected := setup(t, nil)
			_, err := svc.PlaceWager(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, []string{domain.Code(tt.want)}, *rejected)

			e, _ := store.GetEntry(context.Background(), "e1")
			assert.Equal(t, int64(10000), e.BalanceCents)
		})
	}
}

func TestPlaceWager_OddsChanged(t *testing.T) {
	odds := &mockOdds{}
	odds.On("Check", mock.Anything, domain.Leg{GameID: "g1", Side: domain.SideHome, Odds: -110, Result: domain.LegOpen}).Return(nil)
	odds.On("Check", mock.Anything, domain.Leg{GameID: "g2", Side: domain.SideAway, Odds: 150, Result: domain.LegOpen}).Return(domain.ErrOddsChanged)

	svc, store, _ := setup(t, odds)
	_, err := svc.PlaceWager(context.Background(), Request{
		EntryID: "e1", StakeCents: 1000,
		Legs: []LegRequest{leg("g1", domain.SideHome, -110), leg("g2", domain.SideAway, 150)},
	})
	assert.ErrorIs(t, err, domain.ErrOddsChanged)
	odds.AssertExpectations(t)

	e, _ := store.GetEntry(context.Background(), "e1")
	assert.Equal(t, int64(10000), e.BalanceCents)
}

func TestPlaceWager_OddsCacheError(t *testing.T) {
	odds := &mockOdds{}
	odds.On("Check", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	svc, _, rejected := setup(t, odds)
	_, err := svc.PlaceWager(context.Background(), Request{EntryID: "e1", StakeCents: 100, Legs: []LegRequest{leg("g1", domain.SideHome, 100)}})
	assert.EqualError(t, err, "redis down")
	assert.Equal(t, []string{"internal"}, *rejected)
}
