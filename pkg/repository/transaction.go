package repository

import "context"

// TransactionManager provides transaction management capabilities
type TransactionManager interface {
	// WithTransaction executes fn within a transaction carried by the context
	// passed to fn. If fn returns an error the transaction is rolled back,
	// otherwise it is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactionFunc adapts a function to TransactionManager.
type TransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// WithTransaction calls f.
func (f TransactionFunc) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// NoTransaction runs fn directly. Use it for backends without transactions.
var NoTransaction TransactionManager = TransactionFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})
