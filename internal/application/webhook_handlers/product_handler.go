package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"shopify-mirror-layer/internal/application"
	"shopify-mirror-layer/internal/domain"

	"github.com/rs/zerolog"
)

// ProductHandler reconciles product create/update webhook events into the
// local mirror, deriving sku and price from the first variant.
type ProductHandler struct {
	reconciler *application.Reconciler
	logger     zerolog.Logger
}

// NewProductHandler creates a new product webhook handler.
func NewProductHandler(reconciler *application.Reconciler, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// CanHandle returns true if this handler can process the given topic.
func (h *ProductHandler) CanHandle(topic string) bool {
	return topic == "products/create" || topic == "products/update"
}

// Handle upserts the product carried by the event.
func (h *ProductHandler) Handle(ctx context.Context, tenant *domain.Tenant, event *domain.WebhookEvent) error {
	var product domain.RemoteProduct
	if err := json.Unmarshal(event.Payload, &product); err != nil {
		return fmt.Errorf("failed to parse product webhook payload: %w", err)
	}

	if err := h.reconciler.ApplyProduct(ctx, tenant.ID, &product); err != nil {
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Int64("remoteId", product.ID).
		Msg("Reconciled product from webhook")
	return nil
}
