package equipment

import "context"

// ListFilter は機材一覧の絞り込み条件
type ListFilter struct {
	CategoryID string
	Limit      int
	Offset     int
}

// Repository は機材リポジトリのインターフェース
type Repository interface {
	Create(ctx context.Context, e *Equipment) error
	GetByID(ctx context.Context, id string) (*Equipment, error)
	List(ctx context.Context, filter ListFilter) ([]*Equipment, error)
	Update(ctx context.Context, e *Equipment) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository はカテゴリリポジトリのインターフェース
type CategoryRepository interface {
	// Save はカテゴリを作成または更新する
	Save(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
}
