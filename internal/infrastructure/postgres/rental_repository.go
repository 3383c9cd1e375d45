package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kvakb/szakdogarepo/internal/domain/interval"
	"github.com/kvakb/szakdogarepo/internal/domain/rental"
)

const (
	paymentReferenceConstraint = "rentals_payment_reference_key"
	rentalPrimaryKey           = "rentals_pkey"
)

const rentalColumns = `id, account_id, total_amount, status, payment_reference, version, created_at, updated_at`

type rentalRow struct {
	ID               string    `db:"id"`
	AccountID        string    `db:"account_id"`
	TotalAmount      int       `db:"total_amount"`
	Status           string    `db:"status"`
	PaymentReference string    `db:"payment_reference"`
	Version          int       `db:"version"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

type rentalItemRow struct {
	RentalID      string    `db:"rental_id"`
	Position      int       `db:"position"`
	EquipmentID   string    `db:"equipment_id"`
	EquipmentName string    `db:"equipment_name"`
	StartDate     time.Time `db:"start_date"`
	EndDate       time.Time `db:"end_date"`
	PricePerDay   int       `db:"price_per_day"`
	Status        string    `db:"status"`
}

func (r *rentalItemRow) toEntity() rental.Item {
	return rental.Item{
		EquipmentID:   r.EquipmentID,
		EquipmentName: r.EquipmentName,
		Period:        interval.Interval{Start: r.StartDate.UTC(), End: r.EndDate.UTC()},
		PricePerDay:   r.PricePerDay,
		Status:        rental.Status(r.Status),
	}
}

type historyRow struct {
	RentalID      string    `db:"rental_id"`
	Position      int       `db:"position"`
	EquipmentID   string    `db:"equipment_id"`
	EquipmentName string    `db:"equipment_name"`
	StartDate     time.Time `db:"start_date"`
	EndDate       time.Time `db:"end_date"`
	PricePerDay   int       `db:"price_per_day"`
	Status        string    `db:"status"`
	AccountID     string    `db:"account_id"`
}

func (r *historyRow) item() rental.Item {
	row := rentalItemRow{
		EquipmentID:   r.EquipmentID,
		EquipmentName: r.EquipmentName,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		PricePerDay:   r.PricePerDay,
		Status:        r.Status,
	}
	return row.toEntity()
}

func (r *rentalRow) toEntity(items []rental.Item) *rental.Rental {
	return &rental.Rental{
		ID:               r.ID,
		AccountID:        r.AccountID,
		Items:            items,
		TotalAmount:      r.TotalAmount,
		Status:           rental.Status(r.Status),
		PaymentReference: r.PaymentReference,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
		Version:          r.Version,
	}
}

// RentalRepository はレンタルと明細を rentals / rental_items に保存する
type RentalRepository struct{ db *sqlx.DB }

func NewRentalRepository(db *sqlx.DB) *RentalRepository { return &RentalRepository{db: db} }

func (r *RentalRepository) Create(ctx context.Context, rent *rental.Rental) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `INSERT INTO rentals (` + rentalColumns + `) VALUES ($1, $2, $3, $4, $5, 1, $6, $7)`
		if _, err := tx.ExecContext(ctx, query,
			rent.ID, rent.AccountID, rent.TotalAmount, string(rent.Status),
			rent.PaymentReference, rent.CreatedAt, rent.UpdatedAt); err != nil {
			if violates(err, paymentReferenceConstraint) {
				return rental.ErrDuplicatePaymentReference
			}
			if violates(err, rentalPrimaryKey) {
				return rental.ErrDuplicateRentalID
			}
			return storeError("レンタル作成に失敗", err)
		}
		for i, it := range rent.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO rental_items (rental_id, position, equipment_id, equipment_name, start_date, end_date, price_per_day, status) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				rent.ID, i, it.EquipmentID, it.EquipmentName, it.Period.Start, it.Period.End, it.PricePerDay, string(it.Status)); err != nil {
				return storeError("レンタル明細の作成に失敗", err)
			}
		}
		rent.Version = 1
		return nil
	})
}

func (r *RentalRepository) GetByID(ctx context.Context, id string) (*rental.Rental, error) {
	return r.getOne(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1`, id)
}

func (r *RentalRepository) GetByPaymentReference(ctx context.Context, ref string) (*rental.Rental, error) {
	return r.getOne(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE payment_reference = $1`, ref)
}

func (r *RentalRepository) ListByAccount(ctx context.Context, accountID string) ([]*rental.Rental, error) {
	return r.selectRentals(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
}

func (r *RentalRepository) List(ctx context.Context, limit, offset int) ([]*rental.Rental, error) {
	return r.selectRentals(ctx, `SELECT `+rentalColumns+` FROM rentals ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *RentalRepository) ListPromotable(ctx context.Context) ([]*rental.Rental, error) {
	return r.selectRentals(ctx, `SELECT `+rentalColumns+` FROM rentals
		WHERE id IN (SELECT rental_id FROM rental_items WHERE status = 'upcoming')
		ORDER BY created_at`)
}

func (r *RentalRepository) HistoryByEquipment(ctx context.Context, equipmentID string) ([]rental.HistoryEntry, error) {
	var rows []historyRow
	query := `SELECT ri.rental_id, ri.position, ri.equipment_id, ri.equipment_name, ri.start_date, ri.end_date, ri.price_per_day, ri.status, r.account_id
		FROM rental_items ri JOIN rentals r ON r.id = ri.rental_id
		WHERE ri.equipment_id = $1
		ORDER BY ri.start_date DESC`
	if err := r.db.SelectContext(ctx, &rows, query, equipmentID); err != nil {
		return nil, storeError("貸出履歴の取得に失敗", err)
	}
	result := make([]rental.HistoryEntry, len(rows))
	for i := range rows {
		result[i] = rental.HistoryEntry{
			RentalID:  rows[i].RentalID,
			AccountID: rows[i].AccountID,
			Item:      rows[i].item(),
		}
	}
	return result, nil
}

// Update は全体の状態と全明細の状態を1トランザクションで更新する
func (r *RentalRepository) Update(ctx context.Context, rent *rental.Rental) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE rentals SET status = $1, updated_at = $2, version = version + 1 WHERE id = $3 AND version = $4`,
			string(rent.Status), rent.UpdatedAt, rent.ID, rent.Version)
		if err != nil {
			return storeError("レンタル更新に失敗", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM rentals WHERE id = $1)`, rent.ID); err != nil {
				return storeError("レンタル更新に失敗", err)
			}
			if !exists {
				return rental.ErrRentalNotFound
			}
			return rental.ErrOptimisticLockConflict
		}
		for i, it := range rent.Items {
			if _, err := tx.ExecContext(ctx,
				`UPDATE rental_items SET status = $1 WHERE rental_id = $2 AND position = $3`,
				string(it.Status), rent.ID, i); err != nil {
				return storeError("レンタル明細の更新に失敗", err)
			}
		}
		rent.Version++
		return nil
	})
}

func (r *RentalRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rentals WHERE id = $1`, id)
	if err != nil {
		return storeError("レンタル削除に失敗", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return rental.ErrRentalNotFound
	}
	return nil
}

func (r *RentalRepository) getOne(ctx context.Context, query string, arg string) (*rental.Rental, error) {
	var row rentalRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, rental.ErrRentalNotFound
		}
		return nil, storeError("レンタル取得に失敗", err)
	}
	items, err := r.loadItems(ctx, []string{row.ID})
	if err != nil {
		return nil, err
	}
	return row.toEntity(items[row.ID]), nil
}

func (r *RentalRepository) selectRentals(ctx context.Context, query string, args ...interface{}) ([]*rental.Rental, error) {
	var rows []rentalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeError("レンタル一覧の取得に失敗", err)
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	result := make([]*rental.Rental, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity(items[rows[i].ID])
	}
	return result, nil
}

// loadItems はレンタルIDごとの明細を position 順で返す
func (r *RentalRepository) loadItems(ctx context.Context, rentalIDs []string) (map[string][]rental.Item, error) {
	out := make(map[string][]rental.Item, len(rentalIDs))
	if len(rentalIDs) == 0 {
		return out, nil
	}
	var rows []rentalItemRow
	query := `SELECT rental_id, position, equipment_id, equipment_name, start_date, end_date, price_per_day, status
		FROM rental_items WHERE rental_id = ANY($1) ORDER BY rental_id, position`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(rentalIDs)); err != nil {
		return nil, storeError("レンタル明細の取得に失敗", err)
	}
	for i := range rows {
		out[rows[i].RentalID] = append(out[rows[i].RentalID], rows[i].toEntity())
	}
	return out, nil
}

var _ rental.Repository = (*RentalRepository)(nil)
