package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// indexSpec lists the indexes each collection needs. The unique ones carry
// invariants: one user per uid and one payment per order.
var indexSpec = map[string][]mongo.IndexModel{
	"users": {
		{Keys: bson.D{{Key: "uid", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uid_unique")},
		{Keys: bson.D{{Key: "role", Value: 1}}, Options: options.Index().SetName("role")},
	},
	"products": {
		{Keys: bson.D{{Key: "seller_uid", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("seller_created")},
		{Keys: bson.D{{Key: "reported", Value: 1}}, Options: options.Index().SetName("reported")},
	},
	"orders": {
		{Keys: bson.D{{Key: "customer_uid", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("customer_created")},
	},
	"payments": {
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("order_unique")},
		{Keys: bson.D{{Key: "created_at", Value: 1}}, Options: options.Index().SetName("created")},
	},
}

// EnsureIndexes creates any missing index. It is safe to run on every boot.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for name, models := range indexSpec {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("indexes: %s: %w", name, err)
		}
	}
	return nil
}

// NewMongoStores wires the four Mongo repositories onto db.
func NewMongoStores(db *mongo.Database) Stores {
	return Stores{
		Users:    NewUserRepository(db),
		Products: NewProductRepository(db),
		Orders:   NewOrderRepository(db),
		Payments: NewPaymentRepository(db),
	}
}
