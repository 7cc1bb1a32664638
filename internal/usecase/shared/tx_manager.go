package shared

import "context"

type TransactionFunc[T any] func(ctx context.Context, tx Tx) (T, error)

// RunInTx runs fn inside uow.Within and returns its value once the transaction committed.
func RunInTx[T any](ctx context.Context, uow UnitOfWork, fn TransactionFunc[T]) (T, error) {
	var result T
	err := uow.Within(ctx, func(ctx context.Context, tx Tx) error {
		v, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// ReadOnly is RunInTx for read-only snapshots.
func ReadOnly[T any](ctx context.Context, uow UnitOfWork, fn TransactionFunc[T]) (T, error) {
	var result T
	err := uow.WithinReadOnly(ctx, func(ctx context.Context, tx Tx) error {
		v, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
