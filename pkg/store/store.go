// Package store opens the SQL stores backing the repository layer.
package store

import (
	"context"

	"github.com/nimburion/asyncrepo/pkg/repository"
)

// Adapter is what a Service needs from a store: statement execution for the
// SQLMapper, transactions for cursor streams and batch chunks, and lifecycle.
type Adapter interface {
	repository.SQLExecutor
	repository.TransactionManager

	Dialect() repository.Dialect
	HealthCheck(ctx context.Context) error
	Close() error
}
