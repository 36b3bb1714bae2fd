package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mirrored entities. Each is scoped by tenant and deduplicated against the
// remote source of truth by the (TenantID, RemoteID) natural key. Rows are
// created lazily on first sight and only ever updated, never deleted.

// Customer is the local mirror of a remote customer record.
type Customer struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	RemoteID        int64      `json:"remote_id"`
	Email           *string    `json:"email"`
	FirstName       *string    `json:"first_name"`
	LastName        *string    `json:"last_name"`
	RemoteCreatedAt *time.Time `json:"remote_created_at"`
	RemoteUpdatedAt *time.Time `json:"remote_updated_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NeedsBackfill reports whether the row is a candidate for the backfill
// pass, i.e. it is missing an email or first name.
func (c *Customer) NeedsBackfill() bool {
	return c.Email == nil || c.FirstName == nil
}

// Product is the local mirror of a remote product record.
type Product struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenant_id"`
	RemoteID        int64           `json:"remote_id"`
	Title           string          `json:"title"`
	SKU             *string         `json:"sku"`
	Price           decimal.Decimal `json:"price"`
	RemoteCreatedAt *time.Time      `json:"remote_created_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Order is the local mirror of a remote order record. CustomerID points at
// the local Customer row when the reference could be resolved within the
// same tenant, and stays unset otherwise.
type Order struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenant_id"`
	RemoteID        int64           `json:"remote_id"`
	OrderNumber     int64           `json:"order_number"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Currency        *string         `json:"currency"`
	RemoteCreatedAt *time.Time      `json:"remote_created_at"`
	CustomerID      *string         `json:"customer_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Upsert parameter sets. These are the storage contract shared by the full
// sync path and the webhook path: nil pointer fields are left untouched on
// update so an absent value never overwrites a present one.

// CustomerUpsert carries the fields derived from one remote customer record.
type CustomerUpsert struct {
	RemoteID        int64
	Email           *string
	FirstName       *string
	LastName        *string
	RemoteCreatedAt *time.Time
	RemoteUpdatedAt *time.Time
}

// ProductUpsert carries the fields derived from one remote product record.
type ProductUpsert struct {
	RemoteID        int64
	Title           string
	SKU             *string
	Price           decimal.Decimal
	RemoteCreatedAt *time.Time
}

// OrderUpsert carries the fields derived from one remote order record.
type OrderUpsert struct {
	RemoteID        int64
	OrderNumber     int64
	TotalPrice      decimal.Decimal
	Currency        *string
	RemoteCreatedAt *time.Time
	CustomerID      *string
}

// CustomerPatch is a partial update applied by the backfill pass. Only
// non-nil fields are written.
type CustomerPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
}

// IsEmpty reports whether the patch would write nothing.
func (p *CustomerPatch) IsEmpty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil
}
