package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	"shopify-mirror-layer/internal/application"
	"shopify-mirror-layer/internal/application/webhook_handlers"
	"shopify-mirror-layer/internal/config"
	"shopify-mirror-layer/internal/domain"
	"shopify-mirror-layer/internal/infrastructure/lease"
	"shopify-mirror-layer/internal/infrastructure/pubsub"
	"shopify-mirror-layer/internal/infrastructure/repository"
	shopifyinfra "shopify-mirror-layer/internal/infrastructure/shopify"
	"shopify-mirror-layer/internal/metrics"
	"shopify-mirror-layer/internal/ports"
	"shopify-mirror-layer/internal/scheduler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	cfg := config.FromEnv()

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	store := repository.NewMongoStore(client.Database(cfg.MongoDatabase))
	if err := store.EnsureIndexes(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create indexes")
	}

	// Per-tenant sync lease on Redis; without an address overlapping
	// passes for the same tenant are not excluded.
	var syncLease ports.SyncLease
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		syncLease = lease.NewRedisLease(redisClient, cfg.LeaseTTL, logger)
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, sync lease disabled")
	}

	// Initialize rate limiter and retry config for the remote API
	rateLimiter := shopifyinfra.NewRateLimiter(logger)
	retryConfig := shopifyinfra.DefaultRetryConfig()

	remoteClient := shopifyinfra.NewClient(shopifyinfra.Options{
		APIVersion:  cfg.APIVersion,
		PageSize:    cfg.PageSize,
		OrderStatus: cfg.OrderStatusFilter,
	}, rateLimiter, retryConfig, logger)

	// Initialize application services
	reconciler := application.NewReconciler(store, logger)
	syncService := application.NewSyncService(store, remoteClient, reconciler, syncLease, cfg.BackfillBatchSize, logger)

	registrar := shopifyinfra.NewRegistrar(logger)
	webhookManager := application.NewWebhookManager(store, registrar, cfg.AppURL+"/webhooks/shopify", logger)

	// Initialize webhook dispatcher with the audit sink and register handlers
	dispatchSink := pubsub.NewDispatchPubSub(logger)
	webhookDispatcher := application.NewWebhookDispatcher(store, dispatchSink, logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(reconciler, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewProductHandler(reconciler, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewCustomerHandler(reconciler, logger))

	// Start the periodic sync trigger
	schedCtx, cancelSched := context.WithCancel(context.Background())
	defer cancelSched()
	go scheduler.New(store, syncService, cfg.SyncInterval, logger).Run(schedCtx)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// Webhook ingest endpoint
	r.Post("/webhooks/shopify", webhookHandler(store, webhookDispatcher, cfg, logger))

	// Admin routes: on-demand sync and webhook registration
	r.Group(func(r chi.Router) {
		r.Use(adminKeyMiddleware(cfg.AdminKey))
		r.Post("/sync/{tenantID}", syncHandler(syncService, logger))
		r.Post("/admin/tenants/{tenantID}/webhooks", registerWebhooksHandler(webhookManager, logger))
	})

	logger.Info().Str("port", cfg.Port).Msg("Starting API server")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// webhookHandler authenticates and dispatches inbound webhook requests.
// Rejections happen before any side effect; once the signature verifies,
// the response is always 200 regardless of handler outcome.
func webhookHandler(
	store ports.Store,
	dispatcher *application.WebhookDispatcher,
	cfg config.Config,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		shopDomain := r.Header.Get("X-Shopify-Shop-Domain")
		if shopDomain == "" {
			logger.Warn().Msg("Missing X-Shopify-Shop-Domain header")
			http.Error(w, "Missing X-Shopify-Shop-Domain header", http.StatusBadRequest)
			return
		}

		tenant, err := store.GetTenantByShopDomain(ctx, shopDomain)
		if err != nil {
			logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to resolve tenant")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if tenant == nil {
			logger.Warn().Str("shop", shopDomain).Msg("Webhook for unknown shop domain")
			http.Error(w, "Unknown shop domain", http.StatusNotFound)
			return
		}

		// Per-tenant secret, falling back to the process-wide default
		webhookSecret := tenant.WebhookSecret
		if webhookSecret == "" {
			webhookSecret = cfg.DefaultWebhookSecret
		}
		if webhookSecret == "" {
			logger.Warn().Str("shop", shopDomain).Msg("No webhook secret configured")
			http.Error(w, "Webhook secret not configured", http.StatusUnauthorized)
			return
		}

		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			logger.Warn().Msg("Missing X-Shopify-Topic header")
			http.Error(w, "Missing X-Shopify-Topic header", http.StatusBadRequest)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil || len(payload) == 0 {
			// Without the exact raw bytes the signature cannot be checked;
			// fail closed rather than verifying a re-serialization.
			logger.Warn().Str("shop", shopDomain).Msg("Webhook body missing or unreadable")
			http.Error(w, "Missing request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		signature := r.Header.Get("X-Shopify-Hmac-SHA256")
		verifier := shopifyinfra.NewWebhookVerifier(webhookSecret)
		if err := verifier.Verify(payload, signature); err != nil {
			metrics.WebhookEvents.WithLabelValues("rejected").Inc()
			logger.Warn().Err(err).Str("shop", shopDomain).Msg("Webhook signature verification failed")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		event := &domain.WebhookEvent{
			Topic:    topic,
			Shop:     shopDomain,
			Payload:  payload,
			Verified: true,
		}

		result := dispatcher.Dispatch(ctx, tenant, event)
		if result.Err != nil {
			metrics.WebhookEvents.WithLabelValues("failed").Inc()
		} else {
			metrics.WebhookEvents.WithLabelValues("processed").Inc()
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"received": "true"})
	}
}

// syncHandler runs one full synchronization pass on demand.
func syncHandler(syncService *application.SyncService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")

		result, err := syncService.Sync(r.Context(), tenantID)
		if err != nil {
			switch {
			case errors.Is(err, application.ErrTenantNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, application.ErrTenantNoCredentials):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			case errors.Is(err, application.ErrSyncInProgress):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				logger.Error().Err(err).Str("tenantId", tenantID).Msg("Sync failed")
				http.Error(w, "Sync failed", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// registerWebhooksHandler subscribes a tenant's shop to the default topics.
func registerWebhooksHandler(manager *application.WebhookManager, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")

		if err := manager.RegisterTenant(r.Context(), tenantID); err != nil {
			if errors.Is(err, application.ErrTenantNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			logger.Error().Err(err).Str("tenantId", tenantID).Msg("Webhook registration failed")
			http.Error(w, "Webhook registration failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"registered": "true"})
	}
}

// adminKeyMiddleware guards administrative routes with a shared key.
func adminKeyMiddleware(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" {
				http.Error(w, "Admin API disabled", http.StatusForbidden)
				return
			}
			supplied := r.Header.Get("X-Admin-Key")
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(adminKey)) != 1 {
				http.Error(w, "Invalid admin key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
