package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kvakb/szakdogarepo/internal/domain/equipment"
)

// EquipmentRepository は機材を equipment コレクションに保存する
// カテゴリ名は読み出し時に categories から補完する
type EquipmentRepository struct {
	collection *mongo.Collection
	categories *mongo.Collection
}

func NewEquipmentRepository(db *mongo.Database) *EquipmentRepository {
	return &EquipmentRepository{
		collection: db.Collection(equipmentCollection),
		categories: db.Collection(categoriesCollection),
	}
}

func (r *EquipmentRepository) Create(ctx context.Context, e *equipment.Equipment) error {
	if _, err := r.collection.InsertOne(ctx, newEquipmentDocument(e)); err != nil {
		return storeError("機材登録に失敗", err)
	}
	return nil
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id string) (*equipment.Equipment, error) {
	var doc equipmentDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, equipment.ErrEquipmentNotFound
		}
		return nil, storeError("機材取得に失敗", err)
	}
	names, err := r.categoryNames(ctx, []string{doc.CategoryID})
	if err != nil {
		return nil, err
	}
	return doc.toEntity(names[doc.CategoryID]), nil
}

func (r *EquipmentRepository) List(ctx context.Context, filter equipment.ListFilter) ([]*equipment.Equipment, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := bson.M{}
	if filter.CategoryID != "" {
		query["category_id"] = filter.CategoryID
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(filter.Offset))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, storeError("機材一覧の取得に失敗", err)
	}
	var docs []equipmentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError("機材一覧の取得に失敗", err)
	}

	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = docs[i].CategoryID
	}
	names, err := r.categoryNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	result := make([]*equipment.Equipment, len(docs))
	for i := range docs {
		result[i] = docs[i].toEntity(names[docs[i].CategoryID])
	}
	return result, nil
}

func (r *EquipmentRepository) Update(ctx context.Context, e *equipment.Equipment) error {
	doc := newEquipmentDocument(e)
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": e.ID}, doc)
	if err != nil {
		return storeError("機材更新に失敗", err)
	}
	if result.MatchedCount == 0 {
		return equipment.ErrEquipmentNotFound
	}
	return nil
}

func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeError("機材削除に失敗", err)
	}
	if result.DeletedCount == 0 {
		return equipment.ErrEquipmentNotFound
	}
	return nil
}

func (r *EquipmentRepository) categoryNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	opts := options.Find().SetProjection(bson.M{"name": 1})
	cursor, err := r.categories.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, storeError("カテゴリ取得に失敗", err)
	}
	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError("カテゴリ取得に失敗", err)
	}
	for _, d := range docs {
		names[d.ID] = d.Name
	}
	return names, nil
}

var _ equipment.Repository = (*EquipmentRepository)(nil)

// CategoryRepository はカテゴリと属性スキーマを categories コレクションに保存する
type CategoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{collection: db.Collection(categoriesCollection)}
}

func (r *CategoryRepository) Save(ctx context.Context, c *equipment.Category) error {
	doc := categoryDocument{ID: c.ID, Name: c.Name, Fields: c.Fields}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": c.ID}, doc, opts); err != nil {
		return storeError("カテゴリ保存に失敗", err)
	}
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*equipment.Category, error) {
	var doc categoryDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, equipment.ErrCategoryNotFound
		}
		return nil, storeError("カテゴリ取得に失敗", err)
	}
	return doc.toEntity(), nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*equipment.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeError("カテゴリ一覧の取得に失敗", err)
	}
	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError("カテゴリ一覧の取得に失敗", err)
	}
	result := make([]*equipment.Category, len(docs))
	for i := range docs {
		result[i] = docs[i].toEntity()
	}
	return result, nil
}

var _ equipment.CategoryRepository = (*CategoryRepository)(nil)
