package hold

import (
	"context"
	"time"
)

// Repository は保留中予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい保留中予約を作成する
	Create(ctx context.Context, h *Hold) error

	// GetByID はIDから保留中予約を取得する
	GetByID(ctx context.Context, id string) (*Hold, error)

	// GetByIDs は複数IDの保留中予約を取得する（存在しないIDは無視）
	GetByIDs(ctx context.Context, ids []string) ([]*Hold, error)

	// GetByAccountAndEquipment はアカウントのカート内にある機材の予約を取得する
	GetByAccountAndEquipment(ctx context.Context, accountID, equipmentID string) (*Hold, error)

	// ListByAccount はアカウントのカートを取得する
	ListByAccount(ctx context.Context, accountID string) ([]*Hold, error)

	// ListCreatedBefore は cutoff より前に作成された保留中予約を取得する
	ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*Hold, error)

	// Delete は保留中予約を削除する
	Delete(ctx context.Context, id string) error

	// DeleteMany は複数の保留中予約をまとめて削除し、削除件数を返す
	DeleteMany(ctx context.Context, ids []string) (int, error)
}
