package mongodb

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kvakb/szakdogarepo/internal/domain/rental"
)

// RentalRepository はレンタルを明細込みの1ドキュメントとして保存する
// 1ドキュメントへの書き込みなので明細を含めてアトミックになる
type RentalRepository struct {
	collection *mongo.Collection
}

func NewRentalRepository(db *mongo.Database) *RentalRepository {
	return &RentalRepository{collection: db.Collection(rentalsCollection)}
}

func (r *RentalRepository) Create(ctx context.Context, rent *rental.Rental) error {
	doc := newRentalDocument(rent)
	doc.Version = 1
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateRentalError(err)
		}
		return storeError("レンタル作成に失敗", err)
	}
	rent.Version = 1
	return nil
}

// duplicateRentalError は重複したキーが決済参照IDか _id かを区別する
func duplicateRentalError(err error) error {
	if strings.Contains(err.Error(), "payment_reference") {
		return rental.ErrDuplicatePaymentReference
	}
	return rental.ErrDuplicateRentalID
}

func (r *RentalRepository) GetByID(ctx context.Context, id string) (*rental.Rental, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *RentalRepository) GetByPaymentReference(ctx context.Context, ref string) (*rental.Rental, error) {
	return r.findOne(ctx, bson.M{"payment_reference": ref})
}

func (r *RentalRepository) ListByAccount(ctx context.Context, accountID string) ([]*rental.Rental, error) {
	return r.find(ctx, bson.M{"account_id": accountID}, newestFirst())
}

func (r *RentalRepository) List(ctx context.Context, limit, offset int) ([]*rental.Rental, error) {
	opts := newestFirst().SetLimit(int64(limit)).SetSkip(int64(offset))
	return r.find(ctx, bson.M{}, opts)
}

func (r *RentalRepository) ListPromotable(ctx context.Context) ([]*rental.Rental, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, bson.M{"items.status": string(rental.StatusUpcoming)}, opts)
}

func (r *RentalRepository) HistoryByEquipment(ctx context.Context, equipmentID string) ([]rental.HistoryEntry, error) {
	rentals, err := r.find(ctx, bson.M{"items.equipment_id": equipmentID}, nil)
	if err != nil {
		return nil, err
	}
	var history []rental.HistoryEntry
	for _, rent := range rentals {
		for _, it := range rent.Items {
			if it.EquipmentID != equipmentID {
				continue
			}
			history = append(history, rental.HistoryEntry{RentalID: rent.ID, AccountID: rent.AccountID, Item: it})
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Item.Period.Start.After(history[j].Item.Period.Start)
	})
	return history, nil
}

// Update は version が一致する場合のみ全体の状態と明細を置き換える
func (r *RentalRepository) Update(ctx context.Context, rent *rental.Rental) error {
	filter := bson.M{"_id": rent.ID, "version": rent.Version}
	update := bson.M{
		"$set": bson.M{
			"status":     string(rent.Status),
			"items":      newItemDocuments(rent.Items),
			"updated_at": rent.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeError("レンタル更新に失敗", err)
	}
	if result.MatchedCount == 0 {
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": rent.ID})
		if err != nil {
			return storeError("レンタル更新に失敗", err)
		}
		if n == 0 {
			return rental.ErrRentalNotFound
		}
		return rental.ErrOptimisticLockConflict
	}
	rent.Version++
	return nil
}

func (r *RentalRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeError("レンタル削除に失敗", err)
	}
	if result.DeletedCount == 0 {
		return rental.ErrRentalNotFound
	}
	return nil
}

func (r *RentalRepository) findOne(ctx context.Context, filter bson.M) (*rental.Rental, error) {
	var doc rentalDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, rental.ErrRentalNotFound
		}
		return nil, storeError("レンタル取得に失敗", err)
	}
	return doc.toEntity(), nil
}

func (r *RentalRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*rental.Rental, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeError("レンタル一覧の取得に失敗", err)
	}
	var docs []rentalDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError("レンタル一覧の取得に失敗", err)
	}
	result := make([]*rental.Rental, len(docs))
	for i := range docs {
		result[i] = docs[i].toEntity()
	}
	return result, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
}

var _ rental.Repository = (*RentalRepository)(nil)
