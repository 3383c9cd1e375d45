package hold

import (
	"time"

	"github.com/google/uuid"

	"github.com/kvakb/szakdogarepo/internal/domain/interval"
)

// DefaultTTL は保留中予約の有効期間（デフォルト15分）
const DefaultTTL = 15 * time.Minute

// Hold はカートに入っている保留中の機材予約
type Hold struct {
	ID            string
	AccountID     string
	EquipmentID   string
	EquipmentName string
	Period        interval.Interval
	PricePerDay   int
	CreatedAt     time.Time
}

// NewHold は新しい保留中予約を作成する
func NewHold(accountID, equipmentID, equipmentName string, period interval.Interval, pricePerDay int, now time.Time) *Hold {
	return &Hold{
		ID:            uuid.New().String(),
		AccountID:     accountID,
		EquipmentID:   equipmentID,
		EquipmentName: equipmentName,
		Period:        period,
		PricePerDay:   pricePerDay,
		CreatedAt:     now,
	}
}

// IsExpired は作成から ttl を超えて経過したかを返す
func (h *Hold) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(h.CreatedAt) > ttl
}

// ExpiresAt は ttl に基づく失効時刻を返す
func (h *Hold) ExpiresAt(ttl time.Duration) time.Time {
	return h.CreatedAt.Add(ttl)
}

// Subtotal は日額 × 日数（両端含む）を返す
func (h *Hold) Subtotal() int {
	return h.PricePerDay * h.Period.Days()
}

// Validate は保留中予約の検証を行う
func (h *Hold) Validate() error {
	if h.AccountID == "" {
		return ErrAccountIDRequired
	}
	if h.EquipmentID == "" {
		return ErrEquipmentIDRequired
	}
	if h.Period.Start.After(h.Period.End) {
		return interval.ErrInvalidRange
	}
	if h.PricePerDay < 0 {
		return ErrInvalidPrice
	}
	return nil
}
