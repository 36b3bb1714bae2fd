package application

import (
	"context"
	"fmt"
	"time"

	"shopify-mirror-layer/internal/domain"
	"shopify-mirror-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// placeholderTitle is stored for products whose title is absent upstream.
const placeholderTitle = "Untitled product"

// Reconciler maps raw remote records onto the storage upsert contract. The
// full sync pass and the webhook path both go through it, which is what
// keeps the two update paths idempotent against each other.
type Reconciler struct {
	store  ports.Store
	logger zerolog.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(store ports.Store, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logger,
	}
}

// ApplyCustomer upserts one remote customer record and returns the local id.
func (r *Reconciler) ApplyCustomer(ctx context.Context, tenantID string, rc *domain.RemoteCustomer) (string, error) {
	localID, err := r.store.UpsertCustomer(ctx, tenantID, customerUpsertFromRemote(rc))
	if err != nil {
		return "", fmt.Errorf("failed to reconcile customer %d: %w", rc.ID, err)
	}
	return localID, nil
}

// ApplyProduct upserts one remote product record.
func (r *Reconciler) ApplyProduct(ctx context.Context, tenantID string, rp *domain.RemoteProduct) error {
	if err := r.store.UpsertProduct(ctx, tenantID, productUpsertFromRemote(rp)); err != nil {
		return fmt.Errorf("failed to reconcile product %d: %w", rp.ID, err)
	}
	return nil
}

// ApplyOrder upserts one remote order record. The customer reference is
// resolved by a lookup scoped to the same tenant; when no local customer
// exists yet the order is stored without a link. Already-stored orders are
// not relinked retroactively: the next full order sync re-upserts them and
// resolves the reference then.
func (r *Reconciler) ApplyOrder(ctx context.Context, tenantID string, ro *domain.RemoteOrder) error {
	up := orderUpsertFromRemote(ro)

	if ro.Customer != nil {
		local, err := r.store.GetCustomerByRemoteID(ctx, tenantID, ro.Customer.ID)
		if err != nil {
			return fmt.Errorf("failed to resolve customer for order %d: %w", ro.ID, err)
		}
		if local != nil {
			up.CustomerID = &local.ID
		}
	}

	if err := r.store.UpsertOrder(ctx, tenantID, up); err != nil {
		return fmt.Errorf("failed to reconcile order %d: %w", ro.ID, err)
	}
	return nil
}

func customerUpsertFromRemote(rc *domain.RemoteCustomer) *domain.CustomerUpsert {
	return &domain.CustomerUpsert{
		RemoteID:        rc.ID,
		Email:           rc.Email,
		FirstName:       rc.FirstName,
		LastName:        rc.LastName,
		RemoteCreatedAt: parseRemoteTime(rc.CreatedAt),
		RemoteUpdatedAt: parseRemoteTime(rc.UpdatedAt),
	}
}

func productUpsertFromRemote(rp *domain.RemoteProduct) *domain.ProductUpsert {
	up := &domain.ProductUpsert{
		RemoteID:        rp.ID,
		Title:           placeholderTitle,
		Price:           decimal.Zero,
		RemoteCreatedAt: parseRemoteTime(rp.CreatedAt),
	}
	if rp.Title != nil && *rp.Title != "" {
		up.Title = *rp.Title
	}
	if len(rp.Variants) > 0 {
		first := rp.Variants[0]
		up.SKU = first.SKU
		up.Price = parsePrice(first.Price)
	}
	return up
}

func orderUpsertFromRemote(ro *domain.RemoteOrder) *domain.OrderUpsert {
	return &domain.OrderUpsert{
		RemoteID:        ro.ID,
		OrderNumber:     ro.OrderNumber,
		TotalPrice:      parsePrice(ro.TotalPrice),
		Currency:        ro.Currency,
		RemoteCreatedAt: parseRemoteTime(ro.CreatedAt),
	}
}

// parseRemoteTime parses an ISO-8601 timestamp, returning nil when the
// value is absent or malformed so an upsert never clears a stored time.
func parseRemoteTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}

// parsePrice parses a decimal price string, defaulting to zero when absent
// or malformed.
func parsePrice(s *string) decimal.Decimal {
	if s == nil || *s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
