package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rssabbir-dev/m-buy-sell-backend/app/models"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/metrics"
)

// UserRepository stores users in the "users" collection, keyed by uid.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("users")}
}

// FindByUID looks up a user by identity.
func (r *UserRepository) FindByUID(ctx context.Context, uid string) (*models.User, error) {
	defer metrics.ObserveDBQuery("users.find", time.Now())

	var user models.User
	err := r.col.FindOne(ctx, bson.M{"uid": uid}).Decode(&user)
	if err != nil {
		return nil, notFound("users: find", err)
	}
	return &user, nil
}

// CreateIfAbsent upserts with $setOnInsert so an existing uid is left as is.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, u *models.User) (*models.User, bool, error) {
	defer metrics.ObserveDBQuery("users.upsert", time.Now())

	res, err := r.col.UpdateOne(ctx,
		bson.M{"uid": u.UID},
		bson.M{"$setOnInsert": u},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// Two concurrent first sign-ins race on the unique index; the loser
		// simply reads the winner's record.
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, fmt.Errorf("users: upsert: %w", err)
		}
	}

	created := err == nil && res.UpsertedCount == 1
	stored, err := r.FindByUID(ctx, u.UID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// ListByRole returns every user holding role, oldest first.
func (r *UserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	defer metrics.ObserveDBQuery("users.list", time.Now())

	cur, err := r.col.Find(ctx, bson.M{"role": role}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("users: decode: %w", err)
	}
	return users, nil
}

// SetSellerStatus is a plain $set filtered on role, so repeating it is a
// no-op that yields the same document.
func (r *UserRepository) SetSellerStatus(ctx context.Context, uid string, status models.Status) (*models.User, error) {
	defer metrics.ObserveDBQuery("users.update", time.Now())

	var user models.User
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"uid": uid, "role": models.RoleSeller},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, notFound("users: set status", err)
	}
	return &user, nil
}

func (r *UserRepository) SetRole(ctx context.Context, uid string, role models.Role) error {
	defer metrics.ObserveDBQuery("users.update", time.Now())

	res, err := r.col.UpdateOne(ctx, bson.M{"uid": uid}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return fmt.Errorf("users: set role: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, uid string) error {
	defer metrics.ObserveDBQuery("users.delete", time.Now())

	res, err := r.col.DeleteOne(ctx, bson.M{"uid": uid})
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// notFound maps mongo.ErrNoDocuments to ErrNotFound and wraps anything else.
func notFound(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
