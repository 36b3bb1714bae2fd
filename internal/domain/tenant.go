package domain

import "time"

// Tenant represents one isolated customer of the platform, identified by its
// Shopify shop domain. Tenants are created and updated by onboarding; the
// sync layer only reads them.
type Tenant struct {
	ID          string `json:"id" bson:"_id"`
	ShopDomain  string `json:"shop_domain" bson:"shop_domain"`
	AccessToken string `json:"-" bson:"access_token"`
	// WebhookSecret overrides the process-wide default when set.
	WebhookSecret string    `json:"-" bson:"webhook_secret"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// HasCredentials reports whether the tenant carries everything needed to
// talk to the remote platform.
func (t *Tenant) HasCredentials() bool {
	return t.ShopDomain != "" && t.AccessToken != ""
}
