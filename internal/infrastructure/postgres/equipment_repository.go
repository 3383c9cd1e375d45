package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kvakb/szakdogarepo/internal/domain/equipment"
)

const equipmentColumns = `e.id, e.category_id, c.name AS category_name, e.name, e.brand, e.description, e.status, e.price_per_day, e.image_url, e.owner_id, e.attributes, e.created_at, e.updated_at`

type equipmentRow struct {
	ID           string    `db:"id"`
	CategoryID   string    `db:"category_id"`
	CategoryName string    `db:"category_name"`
	Name         string    `db:"name"`
	Brand        string    `db:"brand"`
	Description  string    `db:"description"`
	Status       string    `db:"status"`
	PricePerDay  int       `db:"price_per_day"`
	ImageURL     string    `db:"image_url"`
	OwnerID      string    `db:"owner_id"`
	Attributes   []byte    `db:"attributes"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *equipmentRow) toEntity() (*equipment.Equipment, error) {
	attrs := map[string]equipment.Value{}
	if len(r.Attributes) > 0 {
		if err := json.Unmarshal(r.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("機材属性の復元に失敗: %w", err)
		}
	}
	return &equipment.Equipment{
		ID:           r.ID,
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		Name:         r.Name,
		Brand:        r.Brand,
		Description:  r.Description,
		Status:       equipment.Status(r.Status),
		PricePerDay:  r.PricePerDay,
		ImageURL:     r.ImageURL,
		OwnerID:      r.OwnerID,
		Attributes:   attrs,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}, nil
}

type EquipmentRepository struct{ db *sqlx.DB }

func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository { return &EquipmentRepository{db: db} }

func (r *EquipmentRepository) Create(ctx context.Context, e *equipment.Equipment) error {
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return fmt.Errorf("機材属性の変換に失敗: %w", err)
	}
	query := `INSERT INTO equipment (id, category_id, name, brand, description, status, price_per_day, image_url, owner_id, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(ctx, query,
		e.ID, e.CategoryID, e.Name, e.Brand, e.Description, string(e.Status),
		e.PricePerDay, e.ImageURL, e.OwnerID, attrs, e.CreatedAt, e.UpdatedAt); err != nil {
		return storeError("機材登録に失敗", err)
	}
	return nil
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id string) (*equipment.Equipment, error) {
	var row equipmentRow
	query := `SELECT ` + equipmentColumns + ` FROM equipment e JOIN categories c ON c.id = e.category_id WHERE e.id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, equipment.ErrEquipmentNotFound
		}
		return nil, storeError("機材取得に失敗", err)
	}
	return row.toEntity()
}

func (r *EquipmentRepository) List(ctx context.Context, filter equipment.ListFilter) ([]*equipment.Equipment, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + equipmentColumns + ` FROM equipment e JOIN categories c ON c.id = e.category_id
		WHERE ($1 = '' OR e.category_id = $1)
		ORDER BY e.created_at DESC LIMIT $2 OFFSET $3`
	var rows []equipmentRow
	if err := r.db.SelectContext(ctx, &rows, query, filter.CategoryID, limit, filter.Offset); err != nil {
		return nil, storeError("機材一覧の取得に失敗", err)
	}
	result := make([]*equipment.Equipment, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

func (r *EquipmentRepository) Update(ctx context.Context, e *equipment.Equipment) error {
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return fmt.Errorf("機材属性の変換に失敗: %w", err)
	}
	query := `UPDATE equipment SET category_id = $1, name = $2, brand = $3, description = $4, status = $5,
		price_per_day = $6, image_url = $7, owner_id = $8, attributes = $9, updated_at = $10 WHERE id = $11`
	result, err := r.db.ExecContext(ctx, query,
		e.CategoryID, e.Name, e.Brand, e.Description, string(e.Status),
		e.PricePerDay, e.ImageURL, e.OwnerID, attrs, e.UpdatedAt, e.ID)
	if err != nil {
		return storeError("機材更新に失敗", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return equipment.ErrEquipmentNotFound
	}
	return nil
}

func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return storeError("機材削除に失敗", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return equipment.ErrEquipmentNotFound
	}
	return nil
}

var _ equipment.Repository = (*EquipmentRepository)(nil)

type categoryRow struct {
	ID     string `db:"id"`
	Name   string `db:"name"`
	Fields []byte `db:"fields"`
}

func (r *categoryRow) toEntity() (*equipment.Category, error) {
	var fields []equipment.FieldDef
	if err := json.Unmarshal(r.Fields, &fields); err != nil {
		return nil, fmt.Errorf("カテゴリ定義の復元に失敗: %w", err)
	}
	return &equipment.Category{ID: r.ID, Name: r.Name, Fields: fields}, nil
}

type CategoryRepository struct{ db *sqlx.DB }

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository { return &CategoryRepository{db: db} }

func (r *CategoryRepository) Save(ctx context.Context, c *equipment.Category) error {
	fields, err := json.Marshal(c.Fields)
	if err != nil {
		return fmt.Errorf("カテゴリ定義の変換に失敗: %w", err)
	}
	query := `INSERT INTO categories (id, name, fields) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, fields = EXCLUDED.fields`
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.Name, fields); err != nil {
		return storeError("カテゴリ保存に失敗", err)
	}
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*equipment.Category, error) {
	var row categoryRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, fields FROM categories WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, equipment.ErrCategoryNotFound
		}
		return nil, storeError("カテゴリ取得に失敗", err)
	}
	return row.toEntity()
}

func (r *CategoryRepository) List(ctx context.Context) ([]*equipment.Category, error) {
	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, fields FROM categories ORDER BY name`); err != nil {
		return nil, storeError("カテゴリ一覧の取得に失敗", err)
	}
	result := make([]*equipment.Category, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}

var _ equipment.CategoryRepository = (*CategoryRepository)(nil)
