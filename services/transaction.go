package services

import (
	"context"
	"fmt"

	"github.com/at-fk/finalproject/repositories"
)

// WithTransactionResult executes fn within a database transaction and returns its result.
// fn receives the transaction's context so repository calls join the transaction.
// Commits on success, rolls back on error or panic.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, readOnly bool, fn func(ctx context.Context, tx repositories.Transaction) (T, error)) (T, error) {
	var result T

	tx, err := txMgr.Begin(ctx, readOnly)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	result, err = fn(tx.Context(), tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return result, fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return result, err
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// WithReadOnlyTransaction is WithTransactionResult over a read-only snapshot
func WithReadOnlyTransaction[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) (T, error)) (T, error) {
	return WithTransactionResult(ctx, txMgr, true, func(ctx context.Context, _ repositories.Transaction) (T, error) {
		return fn(ctx)
	})
}
