package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kvakb/szakdogarepo/internal/domain/hold"
	"github.com/kvakb/szakdogarepo/internal/domain/rental"
	"github.com/kvakb/szakdogarepo/internal/pkg/logger"
	"github.com/kvakb/szakdogarepo/internal/pkg/metrics"
)

// LifecycleService は時間経過による状態遷移（失効・開始）を扱う
// どちらの処理も冪等で、何度実行しても安全
type LifecycleService struct {
	holdRepo     hold.Repository
	rentalRepo   rental.Repository
	storeTimeout time.Duration
}

func NewLifecycleService(hr hold.Repository, rr rental.Repository, storeTimeout time.Duration) *LifecycleService {
	return &LifecycleService{holdRepo: hr, rentalRepo: rr, storeTimeout: storeTimeout}
}

// ExpireStaleHolds は作成から ttl を超えた保留中予約を削除し、削除件数を返す
// 個々の削除に失敗しても残りの処理は続ける
func (s *LifecycleService) ExpireStaleHolds(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	defer metrics.ObserveSweep("hold_expiry", time.Now())

	lctx, cancel := withTimeout(ctx, s.storeTimeout)
	stale, err := s.holdRepo.ListCreatedBefore(lctx, now.Add(-ttl))
	cancel()
	if err != nil {
		return 0, fmt.Errorf("期限切れの保留中予約の取得に失敗: %w", err)
	}

	released := 0
	for _, h := range stale {
		if ctx.Err() != nil {
			break
		}
		if !h.IsExpired(now, ttl) {
			continue
		}
		dctx, cancel := withTimeout(ctx, s.storeTimeout)
		err := s.holdRepo.Delete(dctx, h.ID)
		cancel()
		if err != nil {
			// 決済確定で既に消費された予約は対象外
			if errors.Is(err, hold.ErrHoldNotFound) {
				continue
			}
			logger.Warn("保留中予約の削除に失敗",
				zap.String("hold_id", h.ID),
				zap.Error(err),
			)
			continue
		}
		released++
	}

	metrics.HoldsExpired(released)
	if released > 0 {
		logger.Info("期限切れの保留中予約を解放",
			zap.Int("count", released),
			zap.Duration("ttl", ttl),
		)
	}
	return released, nil
}

// PromoteDueRentals は開始日を迎えた明細を active にし、更新したレンタル数を返す
// レンタルごとに個別に保存するため、途中で失敗しても適用済みの更新は失われない
func (s *LifecycleService) PromoteDueRentals(ctx context.Context, now time.Time) (int, error) {
	defer metrics.ObserveSweep("promotion", time.Now())

	lctx, cancel := withTimeout(ctx, s.storeTimeout)
	candidates, err := s.rentalRepo.ListPromotable(lctx)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("開始待ちレンタルの取得に失敗: %w", err)
	}

	promoted := 0
	for _, r := range candidates {
		if ctx.Err() != nil {
			break
		}
		if !r.Promote(now) {
			continue
		}
		uctx, cancel := withTimeout(ctx, s.storeTimeout)
		err := s.rentalRepo.Update(uctx, r)
		cancel()
		if err != nil {
			logger.Warn("レンタルの状態更新に失敗",
				zap.String("rental_id", r.ID),
				zap.Error(err),
			)
			continue
		}
		promoted++
	}

	metrics.RentalsPromoted(promoted)
	if promoted > 0 {
		logger.Info("レンタルを開始状態に更新", zap.Int("count", promoted))
	}
	return promoted, nil
}
