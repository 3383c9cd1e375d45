package rental

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kvakb/szakdogarepo/internal/domain/hold"
	"github.com/kvakb/szakdogarepo/internal/domain/interval"
)

// Status はレンタルおよび明細の状態
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// IsValid は既知の状態かを返す
func (s Status) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// Item はレンタルの明細（確定済みの機材予約）
type Item struct {
	EquipmentID   string
	EquipmentName string
	Period        interval.Interval
	PricePerDay   int
	Status        Status
}

// Subtotal は日額 × 日数（両端含む）
func (i Item) Subtotal() int {
	return i.PricePerDay * i.Period.Days()
}

// Rental は決済完了時に作成される確定済みレンタル
type Rental struct {
	ID               string
	AccountID        string
	Items            []Item
	TotalAmount      int
	Status           Status
	PaymentReference string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int // 楽観的ロック用
}

// GenerateID は読みやすいレンタルIDを生成する（R-YYYYMMDD-XXXXXXXXXXXX）
// 日付の後ろは UUID 由来のランダムな12桁の16進数
func GenerateID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
	return fmt.Sprintf("R-%s-%s", now.UTC().Format("20060102"), suffix)
}

// Finalize は保留中予約からレンタルを組み立てる
// 開始日が now 以前の明細は active、それ以外は upcoming になる
func Finalize(accountID, paymentReference string, holds []*hold.Hold, now time.Time) (*Rental, error) {
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}
	if paymentReference == "" {
		return nil, ErrPaymentReferenceRequired
	}
	if len(holds) == 0 {
		return nil, ErrNoItems
	}

	items := make([]Item, len(holds))
	total := 0
	for i, h := range holds {
		status := StatusUpcoming
		if !h.Period.Start.After(now) {
			status = StatusActive
		}
		items[i] = Item{
			EquipmentID:   h.EquipmentID,
			EquipmentName: h.EquipmentName,
			Period:        h.Period,
			PricePerDay:   h.PricePerDay,
			Status:        status,
		}
		total += items[i].Subtotal()
	}

	return &Rental{
		ID:               GenerateID(now),
		AccountID:        accountID,
		Items:            items,
		TotalAmount:      total,
		Status:           AggregateStatus(items),
		PaymentReference: paymentReference,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// AggregateStatus は明細の状態からレンタル全体の状態を導出する
func AggregateStatus(items []Item) Status {
	allUpcoming, allCompleted := true, true
	for _, it := range items {
		if it.Status != StatusUpcoming {
			allUpcoming = false
		}
		if it.Status != StatusCompleted {
			allCompleted = false
		}
	}
	switch {
	case allUpcoming:
		return StatusUpcoming
	case allCompleted:
		return StatusCompleted
	default:
		return StatusActive
	}
}

// HasUpcomingItems は upcoming の明細を含むかを返す
func (r *Rental) HasUpcomingItems() bool {
	for _, it := range r.Items {
		if it.Status == StatusUpcoming {
			return true
		}
	}
	return false
}

// Promote は開始日が now 以前の upcoming 明細を active にする
// 変更があった場合 true を返す。active から upcoming へ戻すことはない
func (r *Rental) Promote(now time.Time) bool {
	changed := false
	for i := range r.Items {
		if r.Items[i].Status == StatusUpcoming && !r.Items[i].Period.Start.After(now) {
			r.Items[i].Status = StatusActive
			changed = true
		}
	}
	if !changed {
		return false
	}
	// 管理者が上書きした全体状態は維持する
	if r.Status == StatusUpcoming {
		r.Status = AggregateStatus(r.Items)
	}
	r.UpdatedAt = now
	return true
}

// OverrideStatus は管理者によるレンタル全体の状態変更
// 時間的な整合性は検証しない
func (r *Rental) OverrideStatus(status Status, now time.Time) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	r.Status = status
	r.UpdatedAt = now
	return nil
}

// OverrideItemStatus は管理者による明細の状態変更（active / completed のみ）
func (r *Rental) OverrideItemStatus(index int, status Status, now time.Time) error {
	if status != StatusActive && status != StatusCompleted {
		return ErrInvalidStatus
	}
	if index < 0 || index >= len(r.Items) {
		return ErrItemIndexOutOfRange
	}
	r.Items[index].Status = status
	r.Status = AggregateStatus(r.Items)
	r.UpdatedAt = now
	return nil
}
