package ports

import (
	"context"
	"errors"

	"shopify-mirror-layer/internal/domain"
)

// ErrRemoteNotFound is returned by single-record fetches when the remote
// platform answers 404. The backfill pass treats it as a benign skip.
var ErrRemoteNotFound = errors.New("remote resource not found")

// RemoteClient pulls records from the remote platform on behalf of one
// tenant, transparently following server-driven pagination. List calls
// return the fully materialized collection; any non-success response aborts
// the pull with an error carrying the request path and status code.
type RemoteClient interface {
	ListCustomers(ctx context.Context, shopDomain, accessToken string) ([]domain.RemoteCustomer, error)
	ListProducts(ctx context.Context, shopDomain, accessToken string) ([]domain.RemoteProduct, error)
	ListOrders(ctx context.Context, shopDomain, accessToken string) ([]domain.RemoteOrder, error)

	GetCustomer(ctx context.Context, shopDomain, accessToken string, customerID int64) (*domain.RemoteCustomer, error)
}

// WebhookRegistrar registers a fixed set of webhook topics with the remote
// platform for a tenant. Administrative, outside the sync hot path.
type WebhookRegistrar interface {
	Register(ctx context.Context, shopDomain, accessToken, callbackURL string, topics []string) error
}

// SyncLease provides per-tenant mutual exclusion around the sync engine's
// entry point. Acquire reports false without error when another pass for
// the same tenant already holds the lease.
type SyncLease interface {
	Acquire(ctx context.Context, tenantID string) (bool, error)
	Release(ctx context.Context, tenantID string) error
}
