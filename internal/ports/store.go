package ports

import (
	"context"

	"shopify-mirror-layer/internal/domain"
)

// Store defines the persistence operations the sync layer invokes. Lookup
// methods return (nil, nil) when no row matches. Every mirrored-entity
// operation is scoped by tenant id; the store never resolves references
// across tenants.
type Store interface {
	// Tenant operations (read-only for the sync layer)
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
	GetTenantByShopDomain(ctx context.Context, shopDomain string) (*domain.Tenant, error)
	ListTenants(ctx context.Context) ([]*domain.Tenant, error)

	// Upserts keyed by (tenant, remote id). Atomic per record: either the
	// row exists afterwards with the derived fields applied, or the call
	// errors. Nil fields in the upsert parameters are not written.
	// UpsertCustomer returns the local id of the row.
	UpsertCustomer(ctx context.Context, tenantID string, up *domain.CustomerUpsert) (string, error)
	UpsertProduct(ctx context.Context, tenantID string, up *domain.ProductUpsert) error
	UpsertOrder(ctx context.Context, tenantID string, up *domain.OrderUpsert) error

	// Customer lookups used for order linkage and backfill
	GetCustomerByRemoteID(ctx context.Context, tenantID string, remoteID int64) (*domain.Customer, error)
	ListIncompleteCustomers(ctx context.Context, tenantID string, limit int) ([]*domain.Customer, error)
	PatchCustomer(ctx context.Context, tenantID string, remoteID int64, patch *domain.CustomerPatch) error

	// Raw event persistence for unrecognized webhook topics. The capability
	// is decided at construction, not probed per call.
	SupportsRawEventLog() bool
	LogRawEvent(ctx context.Context, tenantID string, event *domain.WebhookEvent) error
}
