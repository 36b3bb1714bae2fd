package repository

import (
	"context"
	"fmt"
	"time"

	"shopify-mirror-layer/internal/domain"
	"shopify-mirror-layer/internal/infrastructure/repository/entity"
	"shopify-mirror-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements ports.Store using MongoDB. Upserts go through
// UpdateOne with the upsert option against the (tenantId, remoteId)
// compound unique index, which serializes concurrent writers on the same
// natural key and makes each upsert atomic per record.
type MongoStore struct {
	tenantsCollection   *mongo.Collection
	customersCollection *mongo.Collection
	productsCollection  *mongo.Collection
	ordersCollection    *mongo.Collection
	eventsCollection    *mongo.Collection
	rawEventLog         bool
}

// NewMongoStore creates a MongoDB-backed store. The raw event log
// capability is decided here, at construction.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		tenantsCollection:   db.Collection("tenants"),
		customersCollection: db.Collection("customers"),
		productsCollection:  db.Collection("products"),
		ordersCollection:    db.Collection("orders"),
		eventsCollection:    db.Collection("webhook_events"),
		rawEventLog:         true,
	}
}

// EnsureIndexes creates the uniqueness constraints the upsert contract
// relies on. Called once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	naturalKey := mongo.IndexModel{
		Keys:    bson.D{{Key: "tenantId", Value: 1}, {Key: "remoteId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, coll := range []*mongo.Collection{s.customersCollection, s.productsCollection, s.ordersCollection} {
		if _, err := coll.Indexes().CreateOne(ctx, naturalKey); err != nil {
			return fmt.Errorf("failed to create natural key index on %s: %w", coll.Name(), err)
		}
	}

	shopDomainIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "shopDomain", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.tenantsCollection.Indexes().CreateOne(ctx, shopDomainIdx); err != nil {
		return fmt.Errorf("failed to create shop domain index: %w", err)
	}
	return nil
}

// GetTenant retrieves a tenant by id.
func (s *MongoStore) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	objID, err := primitive.ObjectIDFromHex(tenantID)
	if err != nil {
		return nil, nil
	}

	var doc entity.MongoTenantDoc
	err = s.tenantsCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return doc.ToDomain(), nil
}

// GetTenantByShopDomain retrieves a tenant by its shop domain.
func (s *MongoStore) GetTenantByShopDomain(ctx context.Context, shopDomain string) (*domain.Tenant, error) {
	var doc entity.MongoTenantDoc
	err := s.tenantsCollection.FindOne(ctx, bson.M{"shopDomain": shopDomain}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant by shop domain: %w", err)
	}
	return doc.ToDomain(), nil
}

// ListTenants retrieves all tenants.
func (s *MongoStore) ListTenants(ctx context.Context) ([]*domain.Tenant, error) {
	cursor, err := s.tenantsCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer cursor.Close(ctx)

	var tenants []*domain.Tenant
	for cursor.Next(ctx) {
		var doc entity.MongoTenantDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode tenant: %w", err)
		}
		tenants = append(tenants, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return tenants, nil
}

// UpsertCustomer inserts or updates a customer by natural key and returns
// the local id. Only the fields present in the upsert are written, so an
// absent timestamp never clears a stored one.
func (s *MongoStore) UpsertCustomer(ctx context.Context, tenantID string, up *domain.CustomerUpsert) (string, error) {
	now := time.Now()
	set := bson.M{"updatedAt": now}
	if up.Email != nil {
		set["email"] = up.Email
	}
	if up.FirstName != nil {
		set["firstName"] = up.FirstName
	}
	if up.LastName != nil {
		set["lastName"] = up.LastName
	}
	if up.RemoteCreatedAt != nil {
		set["remoteCreatedAt"] = up.RemoteCreatedAt
	}
	if up.RemoteUpdatedAt != nil {
		set["remoteUpdatedAt"] = up.RemoteUpdatedAt
	}

	filter := bson.M{"tenantId": tenantID, "remoteId": up.RemoteID}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"tenantId":  tenantID,
			"remoteId":  up.RemoteID,
			"createdAt": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc entity.MongoCustomerDoc
	if err := s.customersCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return "", fmt.Errorf("failed to upsert customer: %w", err)
	}
	return doc.ID.Hex(), nil
}

// UpsertProduct inserts or updates a product by natural key.
func (s *MongoStore) UpsertProduct(ctx context.Context, tenantID string, up *domain.ProductUpsert) error {
	now := time.Now()
	set := bson.M{
		"title":     up.Title,
		"price":     up.Price.String(),
		"updatedAt": now,
	}
	if up.SKU != nil {
		set["sku"] = up.SKU
	}
	if up.RemoteCreatedAt != nil {
		set["remoteCreatedAt"] = up.RemoteCreatedAt
	}

	filter := bson.M{"tenantId": tenantID, "remoteId": up.RemoteID}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"tenantId":  tenantID,
			"remoteId":  up.RemoteID,
			"createdAt": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := s.productsCollection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

// UpsertOrder inserts or updates an order by natural key.
func (s *MongoStore) UpsertOrder(ctx context.Context, tenantID string, up *domain.OrderUpsert) error {
	now := time.Now()
	set := bson.M{
		"orderNumber": up.OrderNumber,
		"totalPrice":  up.TotalPrice.String(),
		"updatedAt":   now,
	}
	if up.Currency != nil {
		set["currency"] = up.Currency
	}
	if up.RemoteCreatedAt != nil {
		set["remoteCreatedAt"] = up.RemoteCreatedAt
	}
	if up.CustomerID != nil {
		set["customerId"] = up.CustomerID
	}

	filter := bson.M{"tenantId": tenantID, "remoteId": up.RemoteID}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"tenantId":  tenantID,
			"remoteId":  up.RemoteID,
			"createdAt": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := s.ordersCollection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}
	return nil
}

// GetCustomerByRemoteID retrieves a customer by its natural key. The
// tenant filter keeps lookups from ever crossing tenants.
func (s *MongoStore) GetCustomerByRemoteID(ctx context.Context, tenantID string, remoteID int64) (*domain.Customer, error) {
	var doc entity.MongoCustomerDoc
	filter := bson.M{"tenantId": tenantID, "remoteId": remoteID}

	err := s.customersCollection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return doc.ToDomain(), nil
}

// ListIncompleteCustomers returns up to limit customers for the tenant
// missing an email or first name, the candidates for backfill.
func (s *MongoStore) ListIncompleteCustomers(ctx context.Context, tenantID string, limit int) ([]*domain.Customer, error) {
	filter := bson.M{
		"tenantId": tenantID,
		"$or": []bson.M{
			{"email": nil},
			{"firstName": nil},
		},
	}
	opts := options.Find().SetLimit(int64(limit))

	cursor, err := s.customersCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list incomplete customers: %w", err)
	}
	defer cursor.Close(ctx)

	var customers []*domain.Customer
	for cursor.Next(ctx) {
		var doc entity.MongoCustomerDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode customer: %w", err)
		}
		customers = append(customers, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return customers, nil
}

// PatchCustomer applies a partial update to a customer, writing only the
// fields carried by the patch plus the updated timestamp.
func (s *MongoStore) PatchCustomer(ctx context.Context, tenantID string, remoteID int64, patch *domain.CustomerPatch) error {
	set := bson.M{"updatedAt": time.Now()}
	if patch.Email != nil {
		set["email"] = patch.Email
	}
	if patch.FirstName != nil {
		set["firstName"] = patch.FirstName
	}
	if patch.LastName != nil {
		set["lastName"] = patch.LastName
	}

	filter := bson.M{"tenantId": tenantID, "remoteId": remoteID}
	if _, err := s.customersCollection.UpdateOne(ctx, filter, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("failed to patch customer: %w", err)
	}
	return nil
}

// SupportsRawEventLog reports whether unrecognized webhook topics can be
// persisted for audit.
func (s *MongoStore) SupportsRawEventLog() bool {
	return s.rawEventLog
}

// LogRawEvent persists a raw webhook event.
func (s *MongoStore) LogRawEvent(ctx context.Context, tenantID string, event *domain.WebhookEvent) error {
	doc := entity.MongoWebhookEventDocFromDomain(tenantID, event)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = time.Now()

	if _, err := s.eventsCollection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to log webhook event: %w", err)
	}
	return nil
}

var _ ports.Store = (*MongoStore)(nil)
