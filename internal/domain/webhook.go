package domain

// WebhookEvent is an authenticated inbound notification from the remote
// platform. Payload holds the exact raw body bytes that were signed.
type WebhookEvent struct {
	Topic    string `json:"topic"`
	Shop     string `json:"shop"`
	Payload  []byte `json:"payload"`
	Verified bool   `json:"verified"`
}

// DispatchResult records what the dispatcher did with one event. Handler
// errors are swallowed at the transport boundary, so this is the only place
// they surface besides logs.
type DispatchResult struct {
	Topic   string
	Shop    string
	Handled bool
	Err     error
}

// SyncResult is the count structure returned by one full synchronization
// pass for a tenant.
type SyncResult struct {
	Products   int `json:"products"`
	Customers  int `json:"customers"`
	Orders     int `json:"orders"`
	Backfilled int `json:"backfilled"`
}
