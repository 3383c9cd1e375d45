package rental

import "errors"

// Rental ドメインのエラー定義
var (
	ErrRentalNotFound            = errors.New("レンタルが見つかりません")
	ErrAccountIDRequired         = errors.New("アカウントIDは必須です")
	ErrPaymentReferenceRequired  = errors.New("決済参照IDは必須です")
	ErrNoItems                   = errors.New("明細がありません")
	ErrInvalidStatus             = errors.New("状態が不正です")
	ErrItemIndexOutOfRange       = errors.New("明細のインデックスが範囲外です")
	ErrDuplicatePaymentReference = errors.New("同じ決済参照IDのレンタルが既に存在します")
	ErrDuplicateRentalID         = errors.New("同じIDのレンタルが既に存在します")
	ErrOptimisticLockConflict    = errors.New("楽観的ロックの競合が発生しました")
)
