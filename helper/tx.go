package helper

import (
	"context"
	"database/sql"
)

// WithTransaction runs fn inside a transaction on the given database.
// The transaction is committed when fn returns nil and rolled back when
// fn returns an error or panics.
func WithTransaction(ctx context.Context, db *Database, fn func(tx *sql.Tx) error) error {
	tx, err := db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return NewError("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	err = fn(tx)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			db.Logger.Warn("Failed to rollback transaction", "error", rollbackErr)
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return NewError("commit transaction", err)
	}

	return nil
}
