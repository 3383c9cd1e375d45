package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kvakb/szakdogarepo/internal/domain/interval"
	"github.com/kvakb/szakdogarepo/internal/domain/reservation"
)

type blockRow struct {
	Kind      string    `db:"kind"`
	HoldID    string    `db:"hold_id"`
	RentalID  string    `db:"rental_id"`
	OwnerID   string    `db:"owner_id"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
}

// ReservationStore は保留中予約と確定済み明細を1回の問い合わせで読み出す
type ReservationStore struct{ db *sqlx.DB }

func NewReservationStore(db *sqlx.DB) *ReservationStore { return &ReservationStore{db: db} }

func (s *ReservationStore) LoadBlocks(ctx context.Context, equipmentID string) ([]reservation.Block, error) {
	query := `
		SELECT 'pending' AS kind, id AS hold_id, '' AS rental_id, account_id AS owner_id, start_date, end_date
		FROM holds WHERE equipment_id = $1
		UNION ALL
		SELECT 'confirmed', '', ri.rental_id, r.account_id, ri.start_date, ri.end_date
		FROM rental_items ri JOIN rentals r ON r.id = ri.rental_id
		WHERE ri.equipment_id = $1`
	var rows []blockRow
	if err := s.db.SelectContext(ctx, &rows, query, equipmentID); err != nil {
		return nil, storeError("予約状況の取得に失敗", err)
	}
	blocks := make([]reservation.Block, len(rows))
	for i, row := range rows {
		blocks[i] = reservation.Block{
			Interval: interval.Interval{Start: row.StartDate.UTC(), End: row.EndDate.UTC()},
			Kind:     reservation.Kind(row.Kind),
			OwnerID:  row.OwnerID,
			HoldID:   row.HoldID,
			RentalID: row.RentalID,
		}
	}
	return blocks, nil
}

var _ reservation.Store = (*ReservationStore)(nil)
