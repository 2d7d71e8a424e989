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

// PaymentRepository stores payments in the "payments" collection. The unique
// index on order_id (see EnsureIndexes) is what keeps a retried finalize from
// writing a second payment.
type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{col: db.Collection("payments")}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	defer metrics.ObserveDBQuery("payments.insert", time.Now())

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("payments: insert: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	defer metrics.ObserveDBQuery("payments.find", time.Now())

	var p models.Payment
	if err := r.col.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&p); err != nil {
		return nil, notFound("payments: find", err)
	}
	return &p, nil
}

// ListSince returns payments created at or after since, oldest first.
func (r *PaymentRepository) ListSince(ctx context.Context, since time.Time) ([]models.Payment, error) {
	defer metrics.ObserveDBQuery("payments.list", time.Now())

	cur, err := r.col.Find(ctx,
		bson.M{"created_at": bson.M{"$gte": since}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("payments: list: %w", err)
	}
	payments := []models.Payment{}
	if err := cur.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("payments: decode: %w", err)
	}
	return payments, nil
}
