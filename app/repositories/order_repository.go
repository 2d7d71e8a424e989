package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/metrics"
)

// OrderRepository stores orders in the "orders" collection.
type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection("orders")}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	defer metrics.ObserveDBQuery("orders.insert", time.Now())

	if _, err := r.col.InsertOne(ctx, o); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("orders: insert: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	defer metrics.ObserveDBQuery("orders.find", time.Now())

	var o models.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, notFound("orders: find", err)
	}
	return &o, nil
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerUID string) ([]models.Order, error) {
	defer metrics.ObserveDBQuery("orders.list", time.Now())

	cur, err := r.col.Find(ctx,
		bson.M{"customer_uid": customerUID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("orders: decode: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id, paymentID string) (bool, error) {
	defer metrics.ObserveDBQuery("orders.mark_paid", time.Now())

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "order_status": false},
		bson.M{"$set": bson.M{"order_status": true, "payment_id": paymentID}},
	)
	if err != nil {
		return false, fmt.Errorf("orders: mark paid: %w", err)
	}
	return res.ModifiedCount == 1, nil
}
