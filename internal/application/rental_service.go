package application

import (
	"context"
	"time"

	"github.com/kvakb/szakdogarepo/internal/domain/rental"
	"github.com/kvakb/szakdogarepo/internal/pkg/clock"
)

// RentalService は確定済みレンタルの参照と管理者操作を扱う
type RentalService struct {
	rentalRepo   rental.Repository
	clock        clock.Clock
	storeTimeout time.Duration
}

func NewRentalService(rr rental.Repository, c clock.Clock, storeTimeout time.Duration) *RentalService {
	if c == nil {
		c = clock.NewSystem()
	}
	return &RentalService{rentalRepo: rr, clock: c, storeTimeout: storeTimeout}
}

func (s *RentalService) ListByAccount(ctx context.Context, accountID string) ([]*rental.Rental, error) {
	if accountID == "" {
		return nil, rental.ErrAccountIDRequired
	}
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.rentalRepo.ListByAccount(ctx, accountID)
}

func (s *RentalService) List(ctx context.Context, limit, offset int) ([]*rental.Rental, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.rentalRepo.List(ctx, limit, offset)
}

func (s *RentalService) Get(ctx context.Context, id string) (*rental.Rental, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.rentalRepo.GetByID(ctx, id)
}

func (s *RentalService) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.rentalRepo.Delete(ctx, id)
}

// OverrideStatus はレンタル全体の状態を直接設定する
func (s *RentalService) OverrideStatus(ctx context.Context, id string, status rental.Status) (*rental.Rental, error) {
	return s.modify(ctx, id, func(r *rental.Rental) error {
		return r.OverrideStatus(status, s.clock.Now())
	})
}

// OverrideItemStatus は明細の状態を直接設定し、全体の状態を再計算する
func (s *RentalService) OverrideItemStatus(ctx context.Context, id string, index int, status rental.Status) (*rental.Rental, error) {
	return s.modify(ctx, id, func(r *rental.Rental) error {
		return r.OverrideItemStatus(index, status, s.clock.Now())
	})
}

// History は機材の貸出履歴を返す
func (s *RentalService) History(ctx context.Context, equipmentID string) ([]rental.HistoryEntry, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.rentalRepo.HistoryByEquipment(ctx, equipmentID)
}

func (s *RentalService) modify(ctx context.Context, id string, fn func(r *rental.Rental) error) (*rental.Rental, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	r, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	if err := s.rentalRepo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
