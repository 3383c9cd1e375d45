package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kvakb/szakdogarepo/internal/domain/availability"
	"github.com/kvakb/szakdogarepo/internal/domain/equipment"
	"github.com/kvakb/szakdogarepo/internal/domain/hold"
	"github.com/kvakb/szakdogarepo/internal/domain/interval"
	"github.com/kvakb/szakdogarepo/internal/domain/reservation"
	"github.com/kvakb/szakdogarepo/internal/pkg/clock"
	"github.com/kvakb/szakdogarepo/internal/pkg/logger"
	"github.com/kvakb/szakdogarepo/internal/pkg/metrics"
)

// ReservationService は空き状況の確認とカート（保留中予約）を扱う
type ReservationService struct {
	store         reservation.Store
	holdRepo      hold.Repository
	equipmentRepo equipment.Repository
	locker        Locker
	clock         clock.Clock
	holdTTL       time.Duration
	lockTTL       time.Duration
	storeTimeout  time.Duration
}

// Option は ReservationService の設定
type Option func(*ReservationService)

func WithClock(c clock.Clock) Option {
	return func(s *ReservationService) { s.clock = c }
}

func WithHoldTTL(d time.Duration) Option {
	return func(s *ReservationService) { s.holdTTL = d }
}

func WithLockTTL(d time.Duration) Option {
	return func(s *ReservationService) { s.lockTTL = d }
}

func WithStoreTimeout(d time.Duration) Option {
	return func(s *ReservationService) { s.storeTimeout = d }
}

func NewReservationService(store reservation.Store, hr hold.Repository, er equipment.Repository, locker Locker, opts ...Option) *ReservationService {
	s := &ReservationService{
		store:         store,
		holdRepo:      hr,
		equipmentRepo: er,
		locker:        locker,
		clock:         clock.NewSystem(),
		holdTTL:       hold.DefaultTTL,
		lockTTL:       defaultLockTTL,
		storeTimeout:  defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HoldTTL は保留中予約の有効期間を返す
func (s *ReservationService) HoldTTL() time.Duration {
	return s.holdTTL
}

type CheckAvailabilityInput struct {
	EquipmentID string
	// AccountID が指定された場合、そのアカウントの保留中予約は除外する
	AccountID string
	Period    interval.Interval
}

// AvailabilityResult は空き状況の確認結果
type AvailabilityResult struct {
	Free      bool
	MaxEnd    availability.Bound
	Conflicts []interval.Interval
}

// CheckAvailability は候補期間が空いているかと、開始日から選べる最終日を返す
// ストアに到達できない場合は結果を返さずエラーにする
func (s *ReservationService) CheckAvailability(ctx context.Context, input CheckAvailabilityInput) (*AvailabilityResult, error) {
	if input.EquipmentID == "" {
		return nil, reservation.ErrEquipmentIDRequired
	}
	if _, err := interval.New(input.Period.Start, input.Period.End); err != nil {
		return nil, err
	}
	if _, err := s.getEquipment(ctx, input.EquipmentID); err != nil {
		return nil, err
	}
	blocks, err := s.loadBlocks(ctx, input.EquipmentID)
	if err != nil {
		return nil, err
	}

	var exclude string
	if input.AccountID != "" {
		for _, b := range blocks {
			if b.Kind == reservation.KindPending && b.OwnerID == input.AccountID {
				exclude = b.HoldID
				break
			}
		}
	}
	existing := reservation.Intervals(blocks, exclude)
	conflicts := availability.Conflicts(existing, input.Period)
	return &AvailabilityResult{
		Free:      len(conflicts) == 0,
		MaxEnd:    availability.MaxEndDate(existing, input.Period.Start),
		Conflicts: conflicts,
	}, nil
}

// ListHolds は機材を占有している期間を開始日順で返す（日付選択のブロック表示用）
func (s *ReservationService) ListHolds(ctx context.Context, equipmentID string) ([]interval.Interval, error) {
	if equipmentID == "" {
		return nil, reservation.ErrEquipmentIDRequired
	}
	blocks, err := s.loadBlocks(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	return interval.SortByStart(reservation.Intervals(blocks, "")), nil
}

type CreateHoldInput struct {
	AccountID   string
	EquipmentID string
	Period      interval.Interval
}

// CreateHold は機材をカートに追加する
// 同じ機材の既存の保留中予約は置き換える。チェックと作成は機材単位のロック内で行う
func (s *ReservationService) CreateHold(ctx context.Context, input CreateHoldInput) (*hold.Hold, error) {
	h, err := s.createHold(ctx, input)
	metrics.Hold(holdResult(err))
	return h, err
}

func (s *ReservationService) createHold(ctx context.Context, input CreateHoldInput) (*hold.Hold, error) {
	if input.AccountID == "" {
		return nil, hold.ErrAccountIDRequired
	}
	if input.EquipmentID == "" {
		return nil, reservation.ErrEquipmentIDRequired
	}
	period, err := interval.New(input.Period.Start, input.Period.End)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if period.Start.Before(interval.StartOfDay(now)) {
		return nil, hold.ErrStartInPast
	}

	eq, err := s.getEquipment(ctx, input.EquipmentID)
	if err != nil {
		return nil, err
	}
	if !eq.IsRentable() {
		return nil, equipment.ErrEquipmentUnavailable
	}

	var created *hold.Hold
	err = s.locker.WithLock(ctx, equipmentLockKey(eq.ID), s.lockTTL, func(ctx context.Context) error {
		previous, err := s.ownHold(ctx, input.AccountID, eq.ID)
		if err != nil {
			return err
		}
		blocks, err := s.loadBlocks(ctx, eq.ID)
		if err != nil {
			return err
		}
		var exclude string
		if previous != nil {
			exclude = previous.ID
		}
		if !availability.IsFree(reservation.Intervals(blocks, exclude), period) {
			return fmt.Errorf("%w: %s %s〜%s", reservation.ErrConflict, eq.ID,
				period.Start.Format(time.DateOnly), period.End.Format(time.DateOnly))
		}

		h := hold.NewHold(input.AccountID, eq.ID, eq.Name, period, eq.PricePerDay, now)
		if err := h.Validate(); err != nil {
			return err
		}
		cctx, cancel := withTimeout(ctx, s.storeTimeout)
		defer cancel()
		if err := s.holdRepo.Create(cctx, h); err != nil {
			return fmt.Errorf("保留中予約の作成に失敗: %w", err)
		}
		created = h

		// 置き換え前の予約は新しい予約の作成後に削除する
		if previous != nil {
			if err := s.holdRepo.Delete(cctx, previous.ID); err != nil && !errors.Is(err, hold.ErrHoldNotFound) {
				logger.Warn("置き換え前の保留中予約の削除に失敗",
					zap.String("hold_id", previous.ID),
					zap.Error(err),
				)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("カートに追加",
		zap.String("hold_id", created.ID),
		zap.String("account_id", created.AccountID),
		zap.String("equipment_id", created.EquipmentID),
	)
	return created, nil
}

// ListCart はアカウントのカートを返す
func (s *ReservationService) ListCart(ctx context.Context, accountID string) ([]*hold.Hold, error) {
	if accountID == "" {
		return nil, hold.ErrAccountIDRequired
	}
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.holdRepo.ListByAccount(ctx, accountID)
}

// RemoveHold はカートから保留中予約を取り除く
// 他のアカウントの予約は存在しないものとして扱う
func (s *ReservationService) RemoveHold(ctx context.Context, accountID, holdID string) error {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	h, err := s.holdRepo.GetByID(ctx, holdID)
	if err != nil {
		return err
	}
	if h.AccountID != accountID {
		return hold.ErrHoldNotFound
	}
	return s.holdRepo.Delete(ctx, holdID)
}

func (s *ReservationService) getEquipment(ctx context.Context, id string) (*equipment.Equipment, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.equipmentRepo.GetByID(ctx, id)
}

func (s *ReservationService) loadBlocks(ctx context.Context, equipmentID string) ([]reservation.Block, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	blocks, err := s.store.LoadBlocks(ctx, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("予約状況の取得に失敗: %w", err)
	}
	return blocks, nil
}

func (s *ReservationService) ownHold(ctx context.Context, accountID, equipmentID string) (*hold.Hold, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	h, err := s.holdRepo.GetByAccountAndEquipment(ctx, accountID, equipmentID)
	if errors.Is(err, hold.ErrHoldNotFound) {
		return nil, nil
	}
	return h, err
}

func holdResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, reservation.ErrConflict):
		return "conflict"
	case errors.Is(err, reservation.ErrLockBusy):
		return "lock_busy"
	case errors.Is(err, reservation.ErrStoreUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
