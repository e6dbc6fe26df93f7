package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes configures indexes for the proxy and profile collections.
// Called on startup from main after Mongo has connected.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	proxyIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "host", Value: 1}, {Key: "port", Value: 1}},
			Options: options.Index().SetName("uq_host_port").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "isUsed", Value: 1}, {Key: "port", Value: 1}},
			Options: options.Index().SetName("idx_is_used_port"),
		},
	}
	profileIndexes := []mongo.IndexModel{
		{
			// pending profiles have no uuid yet
			Keys:    bson.D{{Key: "uuid", Value: 1}},
			Options: options.Index().SetName("uq_uuid").SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "network.proxy.port", Value: 1}},
			Options: options.Index().SetName("idx_proxy_port"),
		},
	}

	if _, err := db.Collection(ProxiesCollection).Indexes().CreateMany(ctx, proxyIndexes); err != nil {
		return err
	}
	if _, err := db.Collection(ProfilesCollection).Indexes().CreateMany(ctx, profileIndexes); err != nil {
		return err
	}
	return nil
}
