package odds

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/season-betting/internal/bet-service/domain"
)

// Cache guarda a odd cotada mais recente de cada lado de uma partida no Redis.
// Chave "odds:{gameID}:{side}" => odds americanas em texto, ex: "-150"
type Cache struct {
	Rdb *redis.Client
	TTL time.Duration
}

func NewCache(r *redis.Client, ttl time.Duration) *Cache { return &Cache{Rdb: r, TTL: ttl} }

func key(gameID string, side domain.Side) string {
	return fmt.Sprintf("odds:%s:%s", gameID, side)
}

// Set grava a cotação atual de um lado
func (c *Cache) Set(ctx context.Context, gameID string, side domain.Side, odds int) error {
	return c.Rdb.Set(ctx, key(gameID, side), strconv.Itoa(odds), c.TTL).Err()
}

// Current retorna a cotação atual; found=false quando não há chave
func (c *Cache) Current(ctx context.Context, gameID string, side domain.Side) (odds int, found bool, err error) {
	val, err := c.Rdb.Get(ctx, key(gameID, side)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	odds, err = strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("odds cache %s: %w", key(gameID, side), err)
	}
	return odds, true, nil
}

// Check confere o snapshot da leg contra a cotação em cache.
// Sem cotação em cache o snapshot do cliente é aceito.
func (c *Cache) Check(ctx context.Context, leg domain.Leg) error {
	cur, found, err := c.Current(ctx, leg.GameID, leg.Side)
	if err != nil {
		return err
	}
	if found && cur != leg.Odds {
		return domain.ErrOddsChanged
	}
	return nil
}
