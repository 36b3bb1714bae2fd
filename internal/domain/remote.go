package domain

// Raw record shapes as delivered by the remote platform, both in collection
// pulls and in webhook payloads. Pointer fields distinguish "absent" from
// "zero value"; the reconciliation routines decide the defaults.

// RemoteCustomer is one customer record as sent by the remote platform.
type RemoteCustomer struct {
	ID        int64   `json:"id"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	CreatedAt *string `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`
}

// RemoteVariant is one product variant; sku and price for the local mirror
// come from the first listed variant.
type RemoteVariant struct {
	ID    int64   `json:"id"`
	SKU   *string `json:"sku"`
	Price *string `json:"price"`
}

// RemoteProduct is one product record as sent by the remote platform.
type RemoteProduct struct {
	ID        int64           `json:"id"`
	Title     *string         `json:"title"`
	Variants  []RemoteVariant `json:"variants"`
	CreatedAt *string         `json:"created_at"`
}

// RemoteOrder is one order record as sent by the remote platform. Order
// payloads may embed the customer record.
type RemoteOrder struct {
	ID          int64           `json:"id"`
	OrderNumber int64           `json:"order_number"`
	TotalPrice  *string         `json:"total_price"`
	Currency    *string         `json:"currency"`
	CreatedAt   *string         `json:"created_at"`
	Customer    *RemoteCustomer `json:"customer"`
}
