// Package database owns the process-wide MongoDB client.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/rssabbir-dev/m-buy-sell-backend/config"
)

var (
	Client *mongo.Client
	DB     *mongo.Database
)

// Connect opens the client, verifies it with a ping and selects the
// configured database. It returns an error instead of exiting so the caller
// can shut down cleanly.
func Connect(ctx context.Context) error {
	db, err := Open(ctx, config.MongoURI(), config.MongoDB())
	if err != nil {
		return err
	}
	Client = db.Client()
	DB = db
	return nil
}

// Open connects to uri and returns the named database.
func Open(ctx context.Context, uri, name string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(50).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	return client.Database(name), nil
}

// Disconnect closes the shared client if Connect succeeded.
func Disconnect(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := Client.Disconnect(ctx)
	Client, DB = nil, nil
	return err
}
