package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kvakb/szakdogarepo/internal/domain/hold"
	"github.com/kvakb/szakdogarepo/internal/domain/interval"
)

const holdColumns = `id, account_id, equipment_id, equipment_name, start_date, end_date, price_per_day, created_at`

type holdRow struct {
	ID            string    `db:"id"`
	AccountID     string    `db:"account_id"`
	EquipmentID   string    `db:"equipment_id"`
	EquipmentName string    `db:"equipment_name"`
	StartDate     time.Time `db:"start_date"`
	EndDate       time.Time `db:"end_date"`
	PricePerDay   int       `db:"price_per_day"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r *holdRow) toEntity() *hold.Hold {
	return &hold.Hold{
		ID:            r.ID,
		AccountID:     r.AccountID,
		EquipmentID:   r.EquipmentID,
		EquipmentName: r.EquipmentName,
		Period:        interval.Interval{Start: r.StartDate.UTC(), End: r.EndDate.UTC()},
		PricePerDay:   r.PricePerDay,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

type HoldRepository struct{ db *sqlx.DB }

func NewHoldRepository(db *sqlx.DB) *HoldRepository { return &HoldRepository{db: db} }

func (r *HoldRepository) Create(ctx context.Context, h *hold.Hold) error {
	query := `INSERT INTO holds (` + holdColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.AccountID, h.EquipmentID, h.EquipmentName,
		h.Period.Start, h.Period.End, h.PricePerDay, h.CreatedAt)
	if err != nil {
		return storeError("保留中予約の作成に失敗", err)
	}
	return nil
}

func (r *HoldRepository) GetByID(ctx context.Context, id string) (*hold.Hold, error) {
	var row holdRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+holdColumns+` FROM holds WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hold.ErrHoldNotFound
		}
		return nil, storeError("保留中予約の取得に失敗", err)
	}
	return row.toEntity(), nil
}

func (r *HoldRepository) GetByIDs(ctx context.Context, ids []string) ([]*hold.Hold, error) {
	if len(ids) == 0 {
		return []*hold.Hold{}, nil
	}
	return r.selectHolds(ctx, `SELECT `+holdColumns+` FROM holds WHERE id = ANY($1)`, pq.Array(ids))
}

// GetByAccountAndEquipment は最も新しい1件を返す
func (r *HoldRepository) GetByAccountAndEquipment(ctx context.Context, accountID, equipmentID string) (*hold.Hold, error) {
	var row holdRow
	query := `SELECT ` + holdColumns + ` FROM holds WHERE account_id = $1 AND equipment_id = $2 ORDER BY created_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &row, query, accountID, equipmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hold.ErrHoldNotFound
		}
		return nil, storeError("保留中予約の取得に失敗", err)
	}
	return row.toEntity(), nil
}

func (r *HoldRepository) ListByAccount(ctx context.Context, accountID string) ([]*hold.Hold, error) {
	return r.selectHolds(ctx, `SELECT `+holdColumns+` FROM holds WHERE account_id = $1 ORDER BY created_at`, accountID)
}

func (r *HoldRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*hold.Hold, error) {
	return r.selectHolds(ctx, `SELECT `+holdColumns+` FROM holds WHERE created_at < $1 ORDER BY created_at`, cutoff)
}

func (r *HoldRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM holds WHERE id = $1`, id)
	if err != nil {
		return storeError("保留中予約の削除に失敗", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return hold.ErrHoldNotFound
	}
	return nil
}

func (r *HoldRepository) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM holds WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, storeError("保留中予約の一括削除に失敗", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

func (r *HoldRepository) selectHolds(ctx context.Context, query string, args ...interface{}) ([]*hold.Hold, error) {
	var rows []holdRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeError("保留中予約一覧の取得に失敗", err)
	}
	result := make([]*hold.Hold, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

var _ hold.Repository = (*HoldRepository)(nil)
