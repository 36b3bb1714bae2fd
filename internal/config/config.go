package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries all recognized options as an explicit struct passed into
// components at construction time. There is no process-wide mutable state.
type Config struct {
	Port          string
	AppURL        string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPassword string

	// AdminKey guards the on-demand sync and registration endpoints.
	AdminKey string

	// DefaultWebhookSecret is used when a tenant has no secret of its own.
	DefaultWebhookSecret string

	// Remote API settings
	APIVersion        string
	PageSize          int
	OrderStatusFilter string

	// Sync engine settings
	BackfillBatchSize int
	SyncInterval      time.Duration
	LeaseTTL          time.Duration
}

// FromEnv builds a Config from the environment, falling back to defaults
// that match the remote platform's documented limits.
func FromEnv() Config {
	return Config{
		Port:                 getenv("PORT", "8080"),
		AppURL:               getenv("APP_URL", "http://localhost:8080"),
		MongoURI:             getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:        getenv("MONGODB_DATABASE", "shopify_mirror"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		AdminKey:             os.Getenv("ADMIN_KEY"),
		DefaultWebhookSecret: os.Getenv("SHOPIFY_WEBHOOK_SECRET"),
		APIVersion:           getenv("SHOPIFY_API_VERSION", "2024-01"),
		PageSize:             getenvInt("SHOPIFY_PAGE_SIZE", 250),
		OrderStatusFilter:    getenv("SHOPIFY_ORDER_STATUS", "any"),
		BackfillBatchSize:    getenvInt("BACKFILL_BATCH_SIZE", 1000),
		SyncInterval:         getenvDuration("SYNC_INTERVAL", 15*time.Minute),
		LeaseTTL:             getenvDuration("SYNC_LEASE_TTL", 30*time.Minute),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
