package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kvakb/szakdogarepo/internal/config"
)

// コレクション名
const (
	holdsCollection      = "holds"
	rentalsCollection    = "rentals"
	equipmentCollection  = "equipment"
	categoriesCollection = "categories"
)

// ConnectMongoDB は MongoDB に接続し、疎通確認済みの Database を返す
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("MongoDB への接続に失敗: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, storeError("MongoDB への疎通確認に失敗", err)
	}

	return client.Database(database), nil
}

// NewConnection は設定から接続する
func NewConnection(ctx context.Context, cfg *config.MongoConfig) (*mongo.Database, error) {
	return ConnectMongoDB(ctx, cfg.URI, cfg.Database)
}

// Ping は疎通確認を行う
func Ping(ctx context.Context, db *mongo.Database) error {
	if err := db.Client().Ping(ctx, nil); err != nil {
		return storeError("MongoDB への疎通確認に失敗", err)
	}
	return nil
}

// CreateIndexes は各コレクションのインデックスを作成する
// rentals.payment_reference の一意制約で Webhook の重複配信を防ぐ
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		holdsCollection: {
			{Keys: bson.D{{Key: "equipment_id", Value: 1}}},
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "equipment_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		rentalsCollection: {
			{
				Keys:    bson.D{{Key: "payment_reference", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "items.equipment_id", Value: 1}}},
			{Keys: bson.D{{Key: "items.status", Value: 1}}},
		},
		equipmentCollection: {
			{Keys: bson.D{{Key: "category_id", Value: 1}}},
		},
	}
	for name, indexes := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("%s のインデックス作成に失敗: %w", name, err)
		}
	}
	return nil
}
