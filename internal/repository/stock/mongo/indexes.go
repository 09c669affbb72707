package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the lookup indexes of the stock collection. Entries
// are keyed by spec key in _id, so the indexes serve reporting only.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "product_type", Value: 1}, {Key: "size", Value: 1}, {Key: "thickness", Value: 1}}},
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	}, options.CreateIndexes())

	return err
}
