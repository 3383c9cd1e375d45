package reservation

import "errors"

// 予約ドメイン共通のエラー分類
var (
	// ErrStoreUnavailable は永続化層に到達できない一時的なエラー（リトライ可能）
	ErrStoreUnavailable = errors.New("ストアに接続できません")
	// ErrConflict は既存の予約と期間が重なる
	ErrConflict = errors.New("指定期間は既に予約されています")
	// ErrLockBusy は同じ機材の予約処理が他で進行中
	ErrLockBusy = errors.New("この機材は他のリクエストで処理中です")
	// ErrEquipmentIDRequired は機材ID未指定
	ErrEquipmentIDRequired = errors.New("機材IDは必須です")
)
