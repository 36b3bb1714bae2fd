package shopify

import (
	"context"
	"fmt"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// Registrar registers webhook topics with the remote platform through the
// go-shopify admin client. Administrative path only; the sync and ingest
// hot paths never touch it.
type Registrar struct {
	app    goshopify.App
	logger zerolog.Logger
}

// NewRegistrar creates a webhook registrar.
func NewRegistrar(logger zerolog.Logger) *Registrar {
	return &Registrar{
		app:    goshopify.App{},
		logger: logger,
	}
}

// Register subscribes the callback URL to each topic, skipping topics that
// are already registered for the same address.
func (r *Registrar) Register(ctx context.Context, shopDomain, accessToken, callbackURL string, topics []string) error {
	client, err := goshopify.NewClient(r.app, shopDomain, accessToken)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	existing, err := client.Webhook.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list webhooks: %w", err)
	}

	registered := make(map[string]bool, len(existing))
	for _, wh := range existing {
		if wh.Address == callbackURL {
			registered[wh.Topic] = true
		}
	}

	for _, topic := range topics {
		if registered[topic] {
			r.logger.Debug().
				Str("shop", shopDomain).
				Str("topic", topic).
				Msg("Webhook already registered, skipping")
			continue
		}
		webhook := goshopify.Webhook{
			Topic:   topic,
			Address: callbackURL,
			Format:  "json",
		}
		created, err := client.Webhook.Create(ctx, webhook)
		if err != nil {
			return fmt.Errorf("failed to create webhook for topic %s: %w", topic, err)
		}
		r.logger.Info().
			Str("shop", shopDomain).
			Str("topic", topic).
			Int64("webhookId", int64(created.Id)).
			Msg("Registered webhook")
	}
	return nil
}
