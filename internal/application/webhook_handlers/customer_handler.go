package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"shopify-mirror-layer/internal/application"
	"shopify-mirror-layer/internal/domain"

	"github.com/rs/zerolog"
)

// CustomerHandler reconciles customer create/update webhook events into the
// local mirror.
type CustomerHandler struct {
	reconciler *application.Reconciler
	logger     zerolog.Logger
}

// NewCustomerHandler creates a new customer webhook handler.
func NewCustomerHandler(reconciler *application.Reconciler, logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// CanHandle returns true if this handler can process the given topic.
func (h *CustomerHandler) CanHandle(topic string) bool {
	return topic == "customers/create" || topic == "customers/update"
}

// Handle upserts the customer carried by the event.
func (h *CustomerHandler) Handle(ctx context.Context, tenant *domain.Tenant, event *domain.WebhookEvent) error {
	var customer domain.RemoteCustomer
	if err := json.Unmarshal(event.Payload, &customer); err != nil {
		return fmt.Errorf("failed to parse customer webhook payload: %w", err)
	}

	localID, err := h.reconciler.ApplyCustomer(ctx, tenant.ID, &customer)
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Int64("remoteId", customer.ID).
		Str("localId", localID).
		Msg("Reconciled customer from webhook")
	return nil
}
