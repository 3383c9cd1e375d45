package hold

import (
	"errors"
	"fmt"

	"github.com/kvakb/szakdogarepo/internal/domain/interval"
)

// Hold ドメインのエラー定義
var (
	ErrHoldNotFound        = errors.New("カート内の予約が見つかりません")
	ErrAccountIDRequired   = errors.New("アカウントIDは必須です")
	ErrEquipmentIDRequired = errors.New("機材IDは必須です")
	ErrInvalidPrice        = errors.New("日額は0以上である必要があります")
	// ErrStartInPast は interval.ErrInvalidRange の一種
	ErrStartInPast = fmt.Errorf("%w: 開始日が過去です", interval.ErrInvalidRange)
)
