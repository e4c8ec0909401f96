package odds

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/season-betting/internal/bet-service/domain"
)

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCache(rdb, time.Minute), mr
}

func TestCache_SetAndCurrent(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "g1", domain.SideHome, -150))
	assert.Equal(t, "-150", mustGet(t, mr, "odds:g1:home"))

	odds, found, err := c.Current(ctx, "g1", domain.SideHome)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, -150, odds)

	_, found, err = c.Current(ctx, "g1", domain.SideAway)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Check(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "g1", domain.SideAway, 130))

	assert.NoError(t, c.Check(ctx, domain.Leg{GameID: "g1", Side: domain.SideAway, Odds: 130}))
	assert.ErrorIs(t, c.Check(ctx, domain.Leg{GameID: "g1", Side: domain.SideAway, Odds: 120}), domain.ErrOddsChanged)
	// sem cotação: aceita
	assert.NoError(t, c.Check(ctx, domain.Leg{GameID: "g2", Side: domain.SideHome, Odds: -110}))

	mr.FastForward(2 * time.Minute)
	assert.NoError(t, c.Check(ctx, domain.Leg{GameID: "g1", Side: domain.SideAway, Odds: 120}))
}

func TestCache_CheckGarbage(t *testing.T) {
	c, mr := newCache(t)
	require.NoError(t, mr.Set("odds:g1:home", "1.85"))

	err := c.Check(context.Background(), domain.Leg{GameID: "g1", Side: domain.SideHome, Odds: -110})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrOddsChanged)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, k string) string {
	t.Helper()
	v, err := mr.Get(k)
	require.NoError(t, err)
	return v
}
