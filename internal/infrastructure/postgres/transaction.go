package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// inTx は fn をトランザクション内で実行する
// fn がエラーを返した場合はロールバックする
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("トランザクション開始に失敗", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeError("コミットに失敗", err)
	}
	return nil
}
