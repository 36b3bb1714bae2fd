package application

import (
	"context"
	"fmt"

	"shopify-mirror-layer/internal/ports"

	"github.com/rs/zerolog"
)

// WebhookManager registers the topics of interest with the remote platform
// for a tenant. Administrative path, external to the sync hot path.
type WebhookManager struct {
	store       ports.Store
	registrar   ports.WebhookRegistrar
	callbackURL string
	logger      zerolog.Logger
}

// NewWebhookManager creates a webhook manager. callbackURL is the public
// address the remote platform will deliver webhooks to.
func NewWebhookManager(store ports.Store, registrar ports.WebhookRegistrar, callbackURL string, logger zerolog.Logger) *WebhookManager {
	return &WebhookManager{
		store:       store,
		registrar:   registrar,
		callbackURL: callbackURL,
		logger:      logger,
	}
}

// DefaultTopics returns the fixed set of topics the mirror subscribes to.
func (m *WebhookManager) DefaultTopics() []string {
	return []string{
		"orders/create",
		"orders/updated",
		"orders/paid",
		"customers/create",
		"customers/update",
		"products/create",
		"products/update",
	}
}

// RegisterTenant subscribes the callback URL to the default topics on the
// tenant's shop.
func (m *WebhookManager) RegisterTenant(ctx context.Context, tenantID string) error {
	tenant, err := m.store.GetTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to resolve tenant: %w", err)
	}
	if tenant == nil {
		return fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
	}
	if !tenant.HasCredentials() {
		return fmt.Errorf("%w: %s", ErrTenantNoCredentials, tenantID)
	}

	if err := m.registrar.Register(ctx, tenant.ShopDomain, tenant.AccessToken, m.callbackURL, m.DefaultTopics()); err != nil {
		return fmt.Errorf("failed to register webhooks for %s: %w", tenant.ShopDomain, err)
	}

	m.logger.Info().
		Str("tenantId", tenant.ID).
		Str("shop", tenant.ShopDomain).
		Str("callbackURL", m.callbackURL).
		Msg("Registered webhook topics")
	return nil
}
