package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kvakb/szakdogarepo/internal/domain/interval"
	"github.com/kvakb/szakdogarepo/internal/domain/reservation"
)

// ReservationStore は holds と rentals の埋め込み明細から予約状況を組み立てる
type ReservationStore struct {
	holds   *mongo.Collection
	rentals *mongo.Collection
}

func NewReservationStore(db *mongo.Database) *ReservationStore {
	return &ReservationStore{
		holds:   db.Collection(holdsCollection),
		rentals: db.Collection(rentalsCollection),
	}
}

func (s *ReservationStore) LoadBlocks(ctx context.Context, equipmentID string) ([]reservation.Block, error) {
	cursor, err := s.holds.Find(ctx, bson.M{"equipment_id": equipmentID})
	if err != nil {
		return nil, storeError("予約状況の取得に失敗", err)
	}
	var holds []holdDocument
	if err := cursor.All(ctx, &holds); err != nil {
		return nil, storeError("予約状況の取得に失敗", err)
	}

	cursor, err = s.rentals.Find(ctx, bson.M{"items.equipment_id": equipmentID})
	if err != nil {
		return nil, storeError("予約状況の取得に失敗", err)
	}
	var rentals []rentalDocument
	if err := cursor.All(ctx, &rentals); err != nil {
		return nil, storeError("予約状況の取得に失敗", err)
	}

	blocks := make([]reservation.Block, 0, len(holds)+len(rentals))
	for _, h := range holds {
		blocks = append(blocks, reservation.Block{
			Interval: interval.Interval{Start: h.StartDate.UTC(), End: h.EndDate.UTC()},
			Kind:     reservation.KindPending,
			OwnerID:  h.AccountID,
			HoldID:   h.ID,
		})
	}
	for _, r := range rentals {
		for _, it := range r.Items {
			if it.EquipmentID != equipmentID {
				continue
			}
			blocks = append(blocks, reservation.Block{
				Interval: interval.Interval{Start: it.StartDate.UTC(), End: it.EndDate.UTC()},
				Kind:     reservation.KindConfirmed,
				OwnerID:  r.AccountID,
				RentalID: r.ID,
			})
		}
	}
	return blocks, nil
}

var _ reservation.Store = (*ReservationStore)(nil)
