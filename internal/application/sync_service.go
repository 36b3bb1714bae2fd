package application

import (
	"context"
	"errors"
	"fmt"

	"shopify-mirror-layer/internal/domain"
	"shopify-mirror-layer/internal/metrics"
	"shopify-mirror-layer/internal/ports"

	"github.com/rs/zerolog"
)

var (
	// ErrTenantNotFound is returned when the tenant row is absent.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantNoCredentials is returned when the tenant row exists but
	// lacks a shop domain or access token.
	ErrTenantNoCredentials = errors.New("tenant missing credentials")

	// ErrSyncInProgress is returned when another pass for the same tenant
	// holds the sync lease.
	ErrSyncInProgress = errors.New("sync already in progress for tenant")
)

// SyncService orchestrates one full synchronization pass for a tenant:
// pull and upsert products, customers, and orders, then backfill locally
// incomplete customers. A failure on one record is logged and skipped; a
// failed collection pull does not stop the sibling collections.
type SyncService struct {
	store         ports.Store
	remote        ports.RemoteClient
	reconciler    *Reconciler
	lease         ports.SyncLease
	backfillLimit int
	logger        zerolog.Logger
}

// NewSyncService creates a sync service. lease may be nil, in which case
// overlapping passes for the same tenant are not excluded.
func NewSyncService(
	store ports.Store,
	remote ports.RemoteClient,
	reconciler *Reconciler,
	lease ports.SyncLease,
	backfillLimit int,
	logger zerolog.Logger,
) *SyncService {
	if backfillLimit <= 0 {
		backfillLimit = 1000
	}
	return &SyncService{
		store:         store,
		remote:        remote,
		reconciler:    reconciler,
		lease:         lease,
		backfillLimit: backfillLimit,
		logger:        logger,
	}
}

// Sync performs one full pass and returns the counts of affected records.
// Missing tenant or credentials are fatal preconditions; everything past
// that point is fault-isolated per collection and per record.
func (s *SyncService) Sync(ctx context.Context, tenantID string) (*domain.SyncResult, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tenant: %w", err)
	}
	if tenant == nil {
		metrics.SyncRuns.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
	}
	if !tenant.HasCredentials() {
		metrics.SyncRuns.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %s", ErrTenantNoCredentials, tenantID)
	}

	if s.lease != nil {
		acquired, err := s.lease.Acquire(ctx, tenant.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire sync lease: %w", err)
		}
		if !acquired {
			return nil, fmt.Errorf("%w: %s", ErrSyncInProgress, tenant.ID)
		}
		defer func() {
			if err := s.lease.Release(context.WithoutCancel(ctx), tenant.ID); err != nil {
				s.logger.Warn().Err(err).Str("tenantId", tenant.ID).Msg("Failed to release sync lease")
			}
		}()
	}

	result := &domain.SyncResult{}
	s.syncProducts(ctx, tenant, result)
	s.syncCustomers(ctx, tenant, result)
	s.syncOrders(ctx, tenant, result)
	s.backfillCustomers(ctx, tenant, result)

	metrics.SyncRuns.WithLabelValues("completed").Inc()
	s.logger.Info().
		Str("tenantId", tenant.ID).
		Str("shop", tenant.ShopDomain).
		Int("products", result.Products).
		Int("customers", result.Customers).
		Int("orders", result.Orders).
		Int("backfilled", result.Backfilled).
		Msg("Completed sync pass")
	return result, nil
}

func (s *SyncService) syncProducts(ctx context.Context, tenant *domain.Tenant, result *domain.SyncResult) {
	products, err := s.remote.ListProducts(ctx, tenant.ShopDomain, tenant.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("tenantId", tenant.ID).Msg("Product pull failed")
		return
	}
	for i := range products {
		if err := s.reconciler.ApplyProduct(ctx, tenant.ID, &products[i]); err != nil {
			metrics.RecordFailures.WithLabelValues("product").Inc()
			s.logger.Error().Err(err).
				Str("tenantId", tenant.ID).
				Int64("remoteId", products[i].ID).
				Msg("Skipping product")
			continue
		}
		metrics.RecordsUpserted.WithLabelValues("product").Inc()
		result.Products++
	}
}

func (s *SyncService) syncCustomers(ctx context.Context, tenant *domain.Tenant, result *domain.SyncResult) {
	customers, err := s.remote.ListCustomers(ctx, tenant.ShopDomain, tenant.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("tenantId", tenant.ID).Msg("Customer pull failed")
		return
	}
	for i := range customers {
		if _, err := s.reconciler.ApplyCustomer(ctx, tenant.ID, &customers[i]); err != nil {
			metrics.RecordFailures.WithLabelValues("customer").Inc()
			s.logger.Error().Err(err).
				Str("tenantId", tenant.ID).
				Int64("remoteId", customers[i].ID).
				Msg("Skipping customer")
			continue
		}
		metrics.RecordsUpserted.WithLabelValues("customer").Inc()
		result.Customers++
	}
}

func (s *SyncService) syncOrders(ctx context.Context, tenant *domain.Tenant, result *domain.SyncResult) {
	orders, err := s.remote.ListOrders(ctx, tenant.ShopDomain, tenant.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("tenantId", tenant.ID).Msg("Order pull failed")
		return
	}
	for i := range orders {
		if err := s.reconciler.ApplyOrder(ctx, tenant.ID, &orders[i]); err != nil {
			metrics.RecordFailures.WithLabelValues("order").Inc()
			s.logger.Error().Err(err).
				Str("tenantId", tenant.ID).
				Int64("remoteId", orders[i].ID).
				Msg("Skipping order")
			continue
		}
		metrics.RecordsUpserted.WithLabelValues("order").Inc()
		result.Orders++
	}
}

// backfillCustomers fetches single customers for local rows missing an
// email or first name, up to the batch ceiling, and applies a partial
// update of the fields that actually changed. A remote 404 is a benign
// skip: the customer may have been removed upstream since the bulk pull.
func (s *SyncService) backfillCustomers(ctx context.Context, tenant *domain.Tenant, result *domain.SyncResult) {
	candidates, err := s.store.ListIncompleteCustomers(ctx, tenant.ID, s.backfillLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("tenantId", tenant.ID).Msg("Backfill candidate query failed")
		return
	}

	for _, local := range candidates {
		remote, err := s.remote.GetCustomer(ctx, tenant.ShopDomain, tenant.AccessToken, local.RemoteID)
		if err != nil {
			if errors.Is(err, ports.ErrRemoteNotFound) {
				continue
			}
			s.logger.Error().Err(err).
				Str("tenantId", tenant.ID).
				Int64("remoteId", local.RemoteID).
				Msg("Backfill fetch failed, skipping customer")
			continue
		}

		patch := backfillPatch(local, remote)
		if patch.IsEmpty() {
			continue
		}
		if err := s.store.PatchCustomer(ctx, tenant.ID, local.RemoteID, patch); err != nil {
			s.logger.Error().Err(err).
				Str("tenantId", tenant.ID).
				Int64("remoteId", local.RemoteID).
				Msg("Backfill update failed, skipping customer")
			continue
		}
		metrics.CustomersBackfilled.Inc()
		result.Backfilled++
	}
}

// backfillPatch collects the fields where the remote record carries a
// non-null value that differs from what is stored locally.
func backfillPatch(local *domain.Customer, remote *domain.RemoteCustomer) *domain.CustomerPatch {
	patch := &domain.CustomerPatch{}
	if changed(local.Email, remote.Email) {
		patch.Email = remote.Email
	}
	if changed(local.FirstName, remote.FirstName) {
		patch.FirstName = remote.FirstName
	}
	if changed(local.LastName, remote.LastName) {
		patch.LastName = remote.LastName
	}
	return patch
}

func changed(local, remote *string) bool {
	if remote == nil || *remote == "" {
		return false
	}
	return local == nil || *local != *remote
}
