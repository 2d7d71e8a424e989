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

// ProductRepository stores products in the "products" collection.
type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection("products")}
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	defer metrics.ObserveDBQuery("products.insert", time.Now())

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("products: insert: %w", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	defer metrics.ObserveDBQuery("products.find", time.Now())

	var p models.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound("products: find", err)
	}
	return &p, nil
}

// ListBySeller returns a seller's products, newest first.
func (r *ProductRepository) ListBySeller(ctx context.Context, sellerUID string) ([]models.Product, error) {
	return r.list(ctx, bson.M{"seller_uid": sellerUID})
}

func (r *ProductRepository) ListReported(ctx context.Context) ([]models.Product, error) {
	return r.list(ctx, bson.M{"reported": true})
}

func (r *ProductRepository) list(ctx context.Context, filter bson.M) ([]models.Product, error) {
	defer metrics.ObserveDBQuery("products.list", time.Now())

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("products: decode: %w", err)
	}
	return products, nil
}

// IncrementReport uses $inc so concurrent reports never lose an update.
func (r *ProductRepository) IncrementReport(ctx context.Context, id string) (*models.Product, error) {
	return r.findAndUpdate(ctx, "products.report",
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"report_count": 1}, "$set": bson.M{"reported": true}},
	)
}

func (r *ProductRepository) ClearReport(ctx context.Context, id string) (*models.Product, error) {
	return r.findAndUpdate(ctx, "products.clear_report",
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"reported": false}},
	)
}

func (r *ProductRepository) SetPromote(ctx context.Context, id, sellerUID string, promote bool) (*models.Product, error) {
	return r.findAndUpdate(ctx, "products.promote",
		bson.M{"_id": id, "seller_uid": sellerUID, "order_status": false},
		bson.M{"$set": bson.M{"promote": promote}},
	)
}

// MarkSold matches only unsold products, so exactly one caller can win the
// transition no matter how many finalize concurrently.
func (r *ProductRepository) MarkSold(ctx context.Context, id, orderID string) (bool, error) {
	defer metrics.ObserveDBQuery("products.mark_sold", time.Now())

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "order_status": false},
		bson.M{"$set": bson.M{"order_status": true, "promote": false, "sold_order_id": orderID}},
	)
	if err != nil {
		return false, fmt.Errorf("products: mark sold: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *ProductRepository) DeleteUnsold(ctx context.Context, id, sellerUID string) error {
	defer metrics.ObserveDBQuery("products.delete", time.Now())

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "seller_uid": sellerUID, "order_status": false})
	if err != nil {
		return fmt.Errorf("products: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) findAndUpdate(ctx context.Context, op string, filter, update bson.M) (*models.Product, error) {
	defer metrics.ObserveDBQuery(op, time.Now())

	var p models.Product
	err := r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return nil, notFound(op, err)
	}
	return &p, nil
}
