package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kvakb/szakdogarepo/internal/domain/hold"
	"github.com/kvakb/szakdogarepo/internal/domain/rental"
	"github.com/kvakb/szakdogarepo/internal/pkg/clock"
	"github.com/kvakb/szakdogarepo/internal/pkg/logger"
	"github.com/kvakb/szakdogarepo/internal/pkg/metrics"
)

const maxRentalIDAttempts = 3

// CheckoutService は決済完了時にカートをレンタルとして確定する
type CheckoutService struct {
	holdRepo     hold.Repository
	rentalRepo   rental.Repository
	payments     PaymentIndex // nil 可
	clock        clock.Clock
	storeTimeout time.Duration
}

func NewCheckoutService(hr hold.Repository, rr rental.Repository, payments PaymentIndex, c clock.Clock, storeTimeout time.Duration) *CheckoutService {
	if c == nil {
		c = clock.NewSystem()
	}
	return &CheckoutService{holdRepo: hr, rentalRepo: rr, payments: payments, clock: c, storeTimeout: storeTimeout}
}

type FinalizeCheckoutInput struct {
	AccountID        string
	HoldIDs          []string
	PaymentReference string
}

// FinalizeCheckout は保留中予約からレンタルを作成し、元の保留中予約を削除する
// 同じ決済参照IDで再度呼ばれた場合は既存のレンタルを返す
func (s *CheckoutService) FinalizeCheckout(ctx context.Context, input FinalizeCheckoutInput) (*rental.Rental, error) {
	r, result, err := s.finalize(ctx, input)
	metrics.Checkout(result)
	return r, err
}

func (s *CheckoutService) finalize(ctx context.Context, input FinalizeCheckoutInput) (*rental.Rental, string, error) {
	if input.AccountID == "" {
		return nil, "invalid", rental.ErrAccountIDRequired
	}
	if input.PaymentReference == "" {
		return nil, "invalid", rental.ErrPaymentReferenceRequired
	}

	// 冪等性チェック
	existing, err := s.existingRental(ctx, input.PaymentReference)
	if err != nil {
		return nil, "error", fmt.Errorf("冪等性チェックに失敗: %w", err)
	}
	if existing != nil {
		return existing, "duplicate", nil
	}

	holds, err := s.loadHolds(ctx, input.AccountID, input.HoldIDs)
	if err != nil {
		if errors.Is(err, hold.ErrHoldNotFound) {
			return nil, "not_found", err
		}
		return nil, "error", err
	}

	r, err := rental.Finalize(input.AccountID, input.PaymentReference, holds, s.clock.Now())
	if err != nil {
		return nil, "invalid", err
	}

	cctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.create(cctx, r); err != nil {
		if errors.Is(err, rental.ErrDuplicatePaymentReference) {
			// 同時に届いた重複通知
			dup, gerr := s.rentalRepo.GetByPaymentReference(cctx, input.PaymentReference)
			if gerr != nil {
				return nil, "error", fmt.Errorf("既存レンタルの取得に失敗: %w", gerr)
			}
			return dup, "duplicate", nil
		}
		return nil, "error", fmt.Errorf("レンタルの作成に失敗: %w", err)
	}

	// レンタル作成後の削除はベストエフォート（失効処理と競合しても問題ない）
	deleted, err := s.holdRepo.DeleteMany(cctx, input.HoldIDs)
	if err != nil {
		logger.Warn("確定済みの保留中予約の削除に失敗",
			zap.String("rental_id", r.ID),
			zap.Strings("hold_ids", input.HoldIDs),
			zap.Error(err),
		)
	}
	if s.payments != nil {
		if err := s.payments.Remember(cctx, input.PaymentReference, r.ID); err != nil {
			logger.Warn("決済インデックスの保存に失敗", zap.String("rental_id", r.ID), zap.Error(err))
		}
	}

	logger.Info("レンタルを確定",
		zap.String("rental_id", r.ID),
		zap.String("account_id", r.AccountID),
		zap.String("payment_reference", r.PaymentReference),
		zap.Int("items", len(r.Items)),
		zap.Int("holds_deleted", deleted),
		zap.Int("total_amount", r.TotalAmount),
	)
	return r, "created", nil
}

// create はレンタルを保存する。IDが衝突した場合は新しいIDで作り直す
func (s *CheckoutService) create(ctx context.Context, r *rental.Rental) error {
	var err error
	for attempt := 0; attempt < maxRentalIDAttempts; attempt++ {
		if attempt > 0 {
			r.ID = rental.GenerateID(s.clock.Now())
		}
		err = s.rentalRepo.Create(ctx, r)
		if !errors.Is(err, rental.ErrDuplicateRentalID) {
			return err
		}
		logger.Warn("レンタルIDが衝突したため再生成", zap.String("rental_id", r.ID))
	}
	return err
}

func (s *CheckoutService) existingRental(ctx context.Context, ref string) (*rental.Rental, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	if s.payments != nil {
		id, err := s.payments.Lookup(ctx, ref)
		if err != nil {
			logger.Warn("決済インデックスの参照に失敗", zap.String("payment_reference", ref), zap.Error(err))
		}
		if id != "" {
			r, err := s.rentalRepo.GetByID(ctx, id)
			if err == nil {
				return r, nil
			}
			if !errors.Is(err, rental.ErrRentalNotFound) {
				return nil, err
			}
		}
	}

	r, err := s.rentalRepo.GetByPaymentReference(ctx, ref)
	if errors.Is(err, rental.ErrRentalNotFound) {
		return nil, nil
	}
	return r, err
}

// loadHolds は指定IDの保留中予約を取得し、すべてがアカウントのものか確認する
func (s *CheckoutService) loadHolds(ctx context.Context, accountID string, ids []string) ([]*hold.Hold, error) {
	if len(ids) == 0 {
		return nil, rental.ErrNoItems
	}
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()
	holds, err := s.holdRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("保留中予約の取得に失敗: %w", err)
	}
	byID := make(map[string]*hold.Hold, len(holds))
	for _, h := range holds {
		if h.AccountID == accountID {
			byID[h.ID] = h
		}
	}
	out := make([]*hold.Hold, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		h, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", hold.ErrHoldNotFound, id)
		}
		out = append(out, h)
	}
	return out, nil
}
