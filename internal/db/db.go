package db

import (
	"context"
	"time"

	"github.com/bloghub/apiserver/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultPingTimeout    = 5 * time.Second
	defaultConnectTimeout = 10 * time.Second
	defaultMaxPoolSize    = 25
)

// Open connects to MongoDB and returns a handle on the configured database.
func Open(ctx context.Context, cfg config.Config) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(defaultConnectTimeout).
		SetMaxPoolSize(defaultMaxPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client.Database(cfg.Mongo.DBName), nil
}

// EnsureIndexes creates the unique indexes the application relies on.
// Safe to run repeatedly; existing indexes are left untouched.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	users := database.Collection("users")

	unique := options.Index().SetUnique(true)
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
	})
	return err
}
