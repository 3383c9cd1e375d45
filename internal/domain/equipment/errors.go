package equipment

import "errors"

// Equipment ドメインのエラー定義
var (
	ErrEquipmentNotFound     = errors.New("機材が見つかりません")
	ErrCategoryNotFound      = errors.New("カテゴリが見つかりません")
	ErrEquipmentUnavailable  = errors.New("機材は現在貸出できません")
	ErrCategoryIDRequired    = errors.New("カテゴリIDは必須です")
	ErrNameRequired          = errors.New("名前は必須です")
	ErrInvalidPrice          = errors.New("日額は0以上である必要があります")
	ErrInvalidStatus         = errors.New("機材の状態が不正です")
	ErrUnknownAttribute      = errors.New("未定義の属性です")
	ErrAttributeKindMismatch = errors.New("属性の種類が一致しません")
	ErrAttributeOutOfRange   = errors.New("属性の値が範囲外です")
)
