package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "settlement-worker")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "settlement-worker", cfg.ServiceName)
	assert.Equal(t, "wager_settled", cfg.TopicWagerSettled)
	assert.Equal(t, "game_finalized", cfg.TopicGameFinalized)
	assert.Equal(t, "9100", cfg.MetricsPort)
	assert.Equal(t, "", cfg.HTTPPort)
	assert.Equal(t, 5*time.Minute, cfg.Settlement.Interval)
	assert.Equal(t, 10*time.Minute, cfg.Settlement.StaleClaimAfter)
	assert.Equal(t, 500, cfg.Settlement.BatchSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "bet-service")
	t.Setenv("HTTP_PORT_BET", "9000")
	t.Setenv("STORAGE", "memory")
	t.Setenv("SETTLEMENT_INTERVAL", "30s")
	t.Setenv("SETTLEMENT_BATCH_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, 30*time.Second, cfg.Settlement.Interval)
	assert.Equal(t, 500, cfg.Settlement.BatchSize)
}

func TestLoad_SettlementFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settlement.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: 1m\nstale_claim_after: 90s\n"), 0o600))

	t.Setenv("SETTLEMENT_CONFIG", path)
	t.Setenv("SETTLEMENT_BATCH_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Settlement.Interval)
	assert.Equal(t, 90*time.Second, cfg.Settlement.StaleClaimAfter)
	assert.Equal(t, 50, cfg.Settlement.BatchSize)
}

func TestLoad_SettlementFileMissing(t *testing.T) {
	t.Setenv("SETTLEMENT_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
