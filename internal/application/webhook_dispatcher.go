package application

import (
	"context"

	"shopify-mirror-layer/internal/domain"
	"shopify-mirror-layer/internal/ports"

	"github.com/rs/zerolog"
)

// DispatchSink receives the result of every dispatch, including swallowed
// handler errors. Satisfied by the pubsub.DispatchPubSub audit broadcast.
type DispatchSink interface {
	Publish(result domain.DispatchResult)
}

// WebhookHandler processes one class of webhook topics for an
// authenticated tenant.
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, tenant *domain.Tenant, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes an authenticated event's topic to exactly one
// handler. Handler failures are logged and swallowed rather than surfaced
// to the transport layer: the remote platform retries aggressively on
// non-2xx responses, and the next full sync restores consistency anyway.
// Every dispatch publishes a DispatchResult to the audit sink so swallowed
// errors stay observable.
type WebhookDispatcher struct {
	handlers []WebhookHandler
	store    ports.Store
	results  DispatchSink
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a dispatcher. results may be nil when no
// audit sink is attached.
func NewWebhookDispatcher(store ports.Store, results DispatchSink, logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		store:   store,
		results: results,
		logger:  logger,
	}
}

// RegisterHandler adds a handler. Handlers are consulted in registration
// order; the first match wins.
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// Dispatch applies exactly the change implied by one event and reports
// what happened. It never returns an error.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, tenant *domain.Tenant, event *domain.WebhookEvent) domain.DispatchResult {
	result := domain.DispatchResult{Topic: event.Topic, Shop: event.Shop}

	for _, handler := range d.handlers {
		if !handler.CanHandle(event.Topic) {
			continue
		}
		result.Handled = true
		if err := handler.Handle(ctx, tenant, event); err != nil {
			result.Err = err
			d.logger.Error().Err(err).
				Str("topic", event.Topic).
				Str("shop", event.Shop).
				Msg("Webhook handler failed, event dropped until next full sync")
		}
		d.publish(result)
		return result
	}

	// Unrecognized topic: best-effort raw persistence for audit, no-op
	// otherwise. Never an error either way.
	if d.store.SupportsRawEventLog() {
		if err := d.store.LogRawEvent(ctx, tenant.ID, event); err != nil {
			result.Err = err
			d.logger.Warn().Err(err).
				Str("topic", event.Topic).
				Str("shop", event.Shop).
				Msg("Failed to persist unrecognized webhook event")
		}
	} else {
		d.logger.Debug().
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Msg("Ignoring unrecognized webhook topic")
	}
	d.publish(result)
	return result
}

func (d *WebhookDispatcher) publish(result domain.DispatchResult) {
	if d.results != nil {
		d.results.Publish(result)
	}
}
