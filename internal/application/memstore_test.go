package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopify-mirror-layer/internal/domain"
	"shopify-mirror-layer/internal/ports"
)

// memStore is an in-memory ports.Store with the same upsert semantics as
// the Mongo store: rows keyed by (tenant, remote id), nil fields skipped on
// update, lookups returning (nil, nil) on no match.
type memStore struct {
	mu        sync.Mutex
	tenants   map[string]*domain.Tenant
	customers map[string]*domain.Customer
	products  map[string]*domain.Product
	orders    map[string]*domain.Order
	rawEvents []*domain.WebhookEvent
	rawLog    bool
	nextID    int

	patchCalls int

	// failUpserts makes upserts for these remote ids error, for
	// fault-isolation tests.
	failUpserts map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{
		tenants:   make(map[string]*domain.Tenant),
		customers: make(map[string]*domain.Customer),
		products:  make(map[string]*domain.Product),
		orders:    make(map[string]*domain.Order),
		rawLog:    true,
	}
}

var _ ports.Store = (*memStore)(nil)

func (m *memStore) addTenant(t *domain.Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[t.ID] = t
}

func rowKey(tenantID string, remoteID int64) string {
	return fmt.Sprintf("%s/%d", tenantID, remoteID)
}

func (m *memStore) localID() string {
	m.nextID++
	return fmt.Sprintf("local-%d", m.nextID)
}

func (m *memStore) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tenants[tenantID], nil
}

func (m *memStore) GetTenantByShopDomain(ctx context.Context, shopDomain string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		if t.ShopDomain == shopDomain {
			return t, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListTenants(ctx context.Context) ([]*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) UpsertCustomer(ctx context.Context, tenantID string, up *domain.CustomerUpsert) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpserts[up.RemoteID] {
		return "", errors.New("simulated store failure")
	}

	key := rowKey(tenantID, up.RemoteID)
	row, ok := m.customers[key]
	if !ok {
		row = &domain.Customer{
			ID:        m.localID(),
			TenantID:  tenantID,
			RemoteID:  up.RemoteID,
			CreatedAt: time.Now(),
		}
		m.customers[key] = row
	}
	if up.Email != nil {
		row.Email = up.Email
	}
	if up.FirstName != nil {
		row.FirstName = up.FirstName
	}
	if up.LastName != nil {
		row.LastName = up.LastName
	}
	if up.RemoteCreatedAt != nil {
		row.RemoteCreatedAt = up.RemoteCreatedAt
	}
	if up.RemoteUpdatedAt != nil {
		row.RemoteUpdatedAt = up.RemoteUpdatedAt
	}
	row.UpdatedAt = time.Now()
	return row.ID, nil
}

func (m *memStore) UpsertProduct(ctx context.Context, tenantID string, up *domain.ProductUpsert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpserts[up.RemoteID] {
		return errors.New("simulated store failure")
	}

	key := rowKey(tenantID, up.RemoteID)
	row, ok := m.products[key]
	if !ok {
		row = &domain.Product{
			ID:        m.localID(),
			TenantID:  tenantID,
			RemoteID:  up.RemoteID,
			CreatedAt: time.Now(),
		}
		m.products[key] = row
	}
	row.Title = up.Title
	row.Price = up.Price
	if up.SKU != nil {
		row.SKU = up.SKU
	}
	if up.RemoteCreatedAt != nil {
		row.RemoteCreatedAt = up.RemoteCreatedAt
	}
	row.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) UpsertOrder(ctx context.Context, tenantID string, up *domain.OrderUpsert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpserts[up.RemoteID] {
		return errors.New("simulated store failure")
	}

	key := rowKey(tenantID, up.RemoteID)
	row, ok := m.orders[key]
	if !ok {
		row = &domain.Order{
			ID:        m.localID(),
			TenantID:  tenantID,
			RemoteID:  up.RemoteID,
			CreatedAt: time.Now(),
		}
		m.orders[key] = row
	}
	row.OrderNumber = up.OrderNumber
	row.TotalPrice = up.TotalPrice
	if up.Currency != nil {
		row.Currency = up.Currency
	}
	if up.RemoteCreatedAt != nil {
		row.RemoteCreatedAt = up.RemoteCreatedAt
	}
	if up.CustomerID != nil {
		row.CustomerID = up.CustomerID
	}
	row.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) GetCustomerByRemoteID(ctx context.Context, tenantID string, remoteID int64) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.customers[rowKey(tenantID, remoteID)], nil
}

func (m *memStore) ListIncompleteCustomers(ctx context.Context, tenantID string, limit int) ([]*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Customer
	for _, c := range m.customers {
		if c.TenantID != tenantID || !c.NeedsBackfill() {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) PatchCustomer(ctx context.Context, tenantID string, remoteID int64, patch *domain.CustomerPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patchCalls++

	row, ok := m.customers[rowKey(tenantID, remoteID)]
	if !ok {
		return errors.New("customer not found")
	}
	if patch.Email != nil {
		row.Email = patch.Email
	}
	if patch.FirstName != nil {
		row.FirstName = patch.FirstName
	}
	if patch.LastName != nil {
		row.LastName = patch.LastName
	}
	row.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) SupportsRawEventLog() bool {
	return m.rawLog
}

func (m *memStore) LogRawEvent(ctx context.Context, tenantID string, event *domain.WebhookEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rawEvents = append(m.rawEvents, event)
	return nil
}

func (m *memStore) customer(tenantID string, remoteID int64) *domain.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.customers[rowKey(tenantID, remoteID)]
}

func (m *memStore) product(tenantID string, remoteID int64) *domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[rowKey(tenantID, remoteID)]
}

func (m *memStore) order(tenantID string, remoteID int64) *domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[rowKey(tenantID, remoteID)]
}

// fakeRemote is a canned ports.RemoteClient.
type fakeRemote struct {
	customers []domain.RemoteCustomer
	products  []domain.RemoteProduct
	orders    []domain.RemoteOrder

	singles map[int64]*domain.RemoteCustomer

	productsErr  error
	customersErr error
	ordersErr    error

	getCalls []int64
}

var _ ports.RemoteClient = (*fakeRemote)(nil)

func (f *fakeRemote) ListCustomers(ctx context.Context, shopDomain, accessToken string) ([]domain.RemoteCustomer, error) {
	return f.customers, f.customersErr
}

func (f *fakeRemote) ListProducts(ctx context.Context, shopDomain, accessToken string) ([]domain.RemoteProduct, error) {
	return f.products, f.productsErr
}

func (f *fakeRemote) ListOrders(ctx context.Context, shopDomain, accessToken string) ([]domain.RemoteOrder, error) {
	return f.orders, f.ordersErr
}

func (f *fakeRemote) GetCustomer(ctx context.Context, shopDomain, accessToken string, customerID int64) (*domain.RemoteCustomer, error) {
	f.getCalls = append(f.getCalls, customerID)
	rc, ok := f.singles[customerID]
	if !ok {
		return nil, fmt.Errorf("%w: customer %d", ports.ErrRemoteNotFound, customerID)
	}
	return rc, nil
}

// fakeLease is an in-memory ports.SyncLease.
type fakeLease struct {
	mu       sync.Mutex
	held     map[string]bool
	releases int
}

var _ ports.SyncLease = (*fakeLease)(nil)

func newFakeLease() *fakeLease {
	return &fakeLease{held: make(map[string]bool)}
}

func (l *fakeLease) Acquire(ctx context.Context, tenantID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[tenantID] {
		return false, nil
	}
	l.held[tenantID] = true
	return true, nil
}

func (l *fakeLease) Release(ctx context.Context, tenantID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, tenantID)
	l.releases++
	return nil
}

func strptr(s string) *string {
	return &s
}
