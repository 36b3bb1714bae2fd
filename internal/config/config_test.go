package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "2024-01", cfg.APIVersion)
	assert.Equal(t, 250, cfg.PageSize)
	assert.Equal(t, "any", cfg.OrderStatusFilter)
	assert.Equal(t, 1000, cfg.BackfillBatchSize)
	assert.Equal(t, 15*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 30*time.Minute, cfg.LeaseTTL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SHOPIFY_PAGE_SIZE", "50")
	t.Setenv("SYNC_INTERVAL", "1h")
	t.Setenv("SHOPIFY_ORDER_STATUS", "open")

	cfg := FromEnv()
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, time.Hour, cfg.SyncInterval)
	assert.Equal(t, "open", cfg.OrderStatusFilter)
}

func TestFromEnv_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("SHOPIFY_PAGE_SIZE", "lots")
	t.Setenv("SYNC_INTERVAL", "soon")

	cfg := FromEnv()
	assert.Equal(t, 250, cfg.PageSize)
	assert.Equal(t, 15*time.Minute, cfg.SyncInterval)
}
