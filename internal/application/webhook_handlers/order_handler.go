package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shopify-mirror-layer/internal/application"
	"shopify-mirror-layer/internal/domain"

	"github.com/rs/zerolog"
)

// OrderHandler reconciles order webhook events into the local mirror. The
// embedded customer, when present, is upserted first so the order links to
// its local id.
type OrderHandler struct {
	reconciler *application.Reconciler
	logger     zerolog.Logger
}

// NewOrderHandler creates a new order webhook handler.
func NewOrderHandler(reconciler *application.Reconciler, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// CanHandle returns true for every orders/ topic: create, updated, paid,
// cancelled and the rest all carry the full order record.
func (h *OrderHandler) CanHandle(topic string) bool {
	return strings.HasPrefix(topic, "orders/")
}

// Handle upserts the embedded customer (if present) and then the order.
func (h *OrderHandler) Handle(ctx context.Context, tenant *domain.Tenant, event *domain.WebhookEvent) error {
	var order domain.RemoteOrder
	if err := json.Unmarshal(event.Payload, &order); err != nil {
		return fmt.Errorf("failed to parse order webhook payload: %w", err)
	}

	if order.Customer != nil {
		if _, err := h.reconciler.ApplyCustomer(ctx, tenant.ID, order.Customer); err != nil {
			return err
		}
	}

	if err := h.reconciler.ApplyOrder(ctx, tenant.ID, &order); err != nil {
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Int64("remoteId", order.ID).
		Msg("Reconciled order from webhook")
	return nil
}
