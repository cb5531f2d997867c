// Package mongo implements store.KeyValueDB against a real MongoDB
// deployment via the official driver, the production backend for both
// coordinator and node roles.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dstbp/vaultshard/internal/store"
)

// DB wraps a *mongo.Database to satisfy store.KeyValueDB.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and selects database dbName.
func Connect(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &DB{client: client, db: client.Database(dbName)}, nil
}

func (d *DB) Insert(ctx context.Context, collection string, doc any) error {
	_, err := d.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("mongo: insert into %s: %w", collection, err)
	}
	return nil
}

func (d *DB) FindOne(ctx context.Context, collection string, filter map[string]any, dest any) error {
	err := d.db.Collection(collection).FindOne(ctx, bson.M(filter)).Decode(dest)
	if err == mongo.ErrNoDocuments {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mongo: find one in %s: %w", collection, err)
	}
	return nil
}

func (d *DB) FindMany(ctx context.Context, collection string, filter map[string]any, dest any) error {
	cur, err := d.db.Collection(collection).Find(ctx, bson.M(filter))
	if err != nil {
		return fmt.Errorf("mongo: find many in %s: %w", collection, err)
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, dest); err != nil {
		return fmt.Errorf("mongo: decode cursor from %s: %w", collection, err)
	}
	return nil
}

func (d *DB) UpdateOne(ctx context.Context, collection string, filter, update map[string]any) error {
	_, err := d.db.Collection(collection).UpdateOne(ctx, bson.M(filter), bson.M{"$set": bson.M(update)})
	if err != nil {
		return fmt.Errorf("mongo: update one in %s: %w", collection, err)
	}
	return nil
}

func (d *DB) DeleteOne(ctx context.Context, collection string, filter map[string]any) error {
	_, err := d.db.Collection(collection).DeleteOne(ctx, bson.M(filter))
	if err != nil {
		return fmt.Errorf("mongo: delete one in %s: %w", collection, err)
	}
	return nil
}

func (d *DB) DeleteMany(ctx context.Context, collection string, filter map[string]any) error {
	_, err := d.db.Collection(collection).DeleteMany(ctx, bson.M(filter))
	if err != nil {
		return fmt.Errorf("mongo: delete many in %s: %w", collection, err)
	}
	return nil
}

func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

var _ store.KeyValueDB = (*DB)(nil)
