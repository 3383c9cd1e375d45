package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kvakb/szakdogarepo/internal/domain/hold"
)

// HoldRepository は保留中予約を holds コレクションに保存する
type HoldRepository struct {
	collection *mongo.Collection
}

func NewHoldRepository(db *mongo.Database) *HoldRepository {
	return &HoldRepository{collection: db.Collection(holdsCollection)}
}

func (r *HoldRepository) Create(ctx context.Context, h *hold.Hold) error {
	if _, err := r.collection.InsertOne(ctx, newHoldDocument(h)); err != nil {
		return storeError("保留中予約の作成に失敗", err)
	}
	return nil
}

func (r *HoldRepository) GetByID(ctx context.Context, id string) (*hold.Hold, error) {
	return r.findOne(ctx, bson.M{"_id": id}, nil)
}

func (r *HoldRepository) GetByIDs(ctx context.Context, ids []string) ([]*hold.Hold, error) {
	if len(ids) == 0 {
		return []*hold.Hold{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

func (r *HoldRepository) GetByAccountAndEquipment(ctx context.Context, accountID, equipmentID string) (*hold.Hold, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.findOne(ctx, bson.M{"account_id": accountID, "equipment_id": equipmentID}, opts)
}

func (r *HoldRepository) ListByAccount(ctx context.Context, accountID string) ([]*hold.Hold, error) {
	return r.find(ctx, bson.M{"account_id": accountID}, byCreatedAt())
}

func (r *HoldRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*hold.Hold, error) {
	return r.find(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}}, byCreatedAt())
}

func (r *HoldRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeError("保留中予約の削除に失敗", err)
	}
	if result.DeletedCount == 0 {
		return hold.ErrHoldNotFound
	}
	return nil
}

func (r *HoldRepository) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, storeError("保留中予約の一括削除に失敗", err)
	}
	return int(result.DeletedCount), nil
}

func (r *HoldRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*hold.Hold, error) {
	var doc holdDocument
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, hold.ErrHoldNotFound
		}
		return nil, storeError("保留中予約の取得に失敗", err)
	}
	return doc.toEntity(), nil
}

func (r *HoldRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*hold.Hold, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeError("保留中予約一覧の取得に失敗", err)
	}
	var docs []holdDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError("保留中予約一覧の取得に失敗", err)
	}
	result := make([]*hold.Hold, len(docs))
	for i := range docs {
		result[i] = docs[i].toEntity()
	}
	return result, nil
}

func byCreatedAt() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
}

var _ hold.Repository = (*HoldRepository)(nil)
