package rental

import "context"

// HistoryEntry は機材ごとの貸出履歴1件
type HistoryEntry struct {
	RentalID  string
	AccountID string
	Item      Item
}

// TotalPrice は明細の合計金額
func (e HistoryEntry) TotalPrice() int {
	return e.Item.Subtotal()
}

// Repository はレンタルリポジトリのインターフェース
// 1件のレンタルとその全明細の書き込みはアトミックに行う
type Repository interface {
	// Create はレンタルと明細を作成する
	// 同じ決済参照IDが存在する場合 ErrDuplicatePaymentReference を返す
	Create(ctx context.Context, r *Rental) error

	// GetByID はIDからレンタルを取得する
	GetByID(ctx context.Context, id string) (*Rental, error)

	// GetByPaymentReference は決済参照IDからレンタルを取得する
	GetByPaymentReference(ctx context.Context, ref string) (*Rental, error)

	// ListByAccount はアカウントのレンタル一覧を取得する（新しい順）
	ListByAccount(ctx context.Context, accountID string) ([]*Rental, error)

	// List は全レンタルを取得する（新しい順）
	List(ctx context.Context, limit, offset int) ([]*Rental, error)

	// ListPromotable は upcoming の明細を持つレンタルを取得する
	ListPromotable(ctx context.Context) ([]*Rental, error)

	// HistoryByEquipment は機材を含む明細の一覧を取得する
	HistoryByEquipment(ctx context.Context, equipmentID string) ([]HistoryEntry, error)

	// Update はレンタル全体の状態と明細の状態を更新する（楽観的ロック）
	Update(ctx context.Context, r *Rental) error

	// Delete はレンタルを削除する
	Delete(ctx context.Context, id string) error
}
