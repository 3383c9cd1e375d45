package reservation

import (
	"context"

	"github.com/kvakb/szakdogarepo/internal/domain/interval"
)

// Kind は予約ブロックの種別
type Kind string

const (
	KindPending   Kind = "pending"
	KindConfirmed Kind = "confirmed"
)

// Block は機材を占有している期間1件を表す
// 保留中のカート予約か確定済みレンタルの明細のどちらか
type Block struct {
	Interval interval.Interval
	Kind     Kind
	OwnerID  string
	// HoldID は Kind が pending の場合のみ設定される
	HoldID string
	// RentalID は Kind が confirmed の場合のみ設定される
	RentalID string
}

// Store は機材ごとの予約状況を読み出すアダプタ
// 全アカウントの保留中予約と確定済みレンタル明細をまとめて返す
type Store interface {
	// LoadBlocks は機材を占有している全ブロックを返す（順序は不定）
	LoadBlocks(ctx context.Context, equipmentID string) ([]Block, error)
}

// Intervals はブロックから期間だけを取り出す
// excludeHoldID に一致する保留中予約は除外する
func Intervals(blocks []Block, excludeHoldID string) []interval.Interval {
	out := make([]interval.Interval, 0, len(blocks))
	for _, b := range blocks {
		if excludeHoldID != "" && b.Kind == KindPending && b.HoldID == excludeHoldID {
			continue
		}
		out = append(out, b.Interval)
	}
	return out
}
