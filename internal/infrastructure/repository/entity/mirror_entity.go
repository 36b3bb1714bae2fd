package entity

import (
	"time"

	"shopify-mirror-layer/internal/domain"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mirrored-entity documents. Each carries the (tenantId, remoteId) natural
// key under a compound unique index; prices are stored as decimal strings.

// MongoCustomerDoc represents a mirrored customer in MongoDB.
type MongoCustomerDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	TenantID        string             `bson:"tenantId"`
	RemoteID        int64              `bson:"remoteId"`
	Email           *string            `bson:"email"`
	FirstName       *string            `bson:"firstName"`
	LastName        *string            `bson:"lastName"`
	RemoteCreatedAt *time.Time         `bson:"remoteCreatedAt"`
	RemoteUpdatedAt *time.Time         `bson:"remoteUpdatedAt"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoCustomerDoc) ToDomain() *domain.Customer {
	return &domain.Customer{
		ID:              d.ID.Hex(),
		TenantID:        d.TenantID,
		RemoteID:        d.RemoteID,
		Email:           d.Email,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		RemoteCreatedAt: d.RemoteCreatedAt,
		RemoteUpdatedAt: d.RemoteUpdatedAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// MongoProductDoc represents a mirrored product in MongoDB.
type MongoProductDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	TenantID        string             `bson:"tenantId"`
	RemoteID        int64              `bson:"remoteId"`
	Title           string             `bson:"title"`
	SKU             *string            `bson:"sku"`
	Price           string             `bson:"price"`
	RemoteCreatedAt *time.Time         `bson:"remoteCreatedAt"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoProductDoc) ToDomain() *domain.Product {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		price = decimal.Zero
	}
	return &domain.Product{
		ID:              d.ID.Hex(),
		TenantID:        d.TenantID,
		RemoteID:        d.RemoteID,
		Title:           d.Title,
		SKU:             d.SKU,
		Price:           price,
		RemoteCreatedAt: d.RemoteCreatedAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// MongoOrderDoc represents a mirrored order in MongoDB. CustomerID holds
// the hex id of the linked customer document, when resolved.
type MongoOrderDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	TenantID        string             `bson:"tenantId"`
	RemoteID        int64              `bson:"remoteId"`
	OrderNumber     int64              `bson:"orderNumber"`
	TotalPrice      string             `bson:"totalPrice"`
	Currency        *string            `bson:"currency"`
	RemoteCreatedAt *time.Time         `bson:"remoteCreatedAt"`
	CustomerID      *string            `bson:"customerId"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoOrderDoc) ToDomain() *domain.Order {
	total, err := decimal.NewFromString(d.TotalPrice)
	if err != nil {
		total = decimal.Zero
	}
	return &domain.Order{
		ID:              d.ID.Hex(),
		TenantID:        d.TenantID,
		RemoteID:        d.RemoteID,
		OrderNumber:     d.OrderNumber,
		TotalPrice:      total,
		Currency:        d.Currency,
		RemoteCreatedAt: d.RemoteCreatedAt,
		CustomerID:      d.CustomerID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// MongoWebhookEventDoc represents a persisted raw webhook event.
type MongoWebhookEventDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	TenantID  string             `bson:"tenantId"`
	Topic     string             `bson:"topic"`
	Shop      string             `bson:"shop"`
	Payload   []byte             `bson:"payload"`
	Verified  bool               `bson:"verified"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// MongoWebhookEventDocFromDomain converts a domain event to a MongoDB
// document.
func MongoWebhookEventDocFromDomain(tenantID string, event *domain.WebhookEvent) *MongoWebhookEventDoc {
	return &MongoWebhookEventDoc{
		TenantID: tenantID,
		Topic:    event.Topic,
		Shop:     event.Shop,
		Payload:  event.Payload,
		Verified: event.Verified,
	}
}
