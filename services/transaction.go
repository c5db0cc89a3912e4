package services

import (
	"context"

	"github.com/upb/whatsapp-saas/repositories"
)

// WithTransactionResult runs fn inside txMgr.InTransaction and returns its
// result. fn receives the transaction-scoped context, so repository calls made
// with it join the transaction. On error the zero value is returned.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := txMgr.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		var err error
		result, err = fn(txCtx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
