package repository

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock matches every *OptimisticLockError with errors.Is.
var ErrOptimisticLock = errors.New("optimistic lock failed")

// Versioned is implemented by entities that use optimistic locking.
// The SQL mapper bumps the version on every successful Update.
type Versioned interface {
	GetVersion() int64
	SetVersion(version int64)
}

// OptimisticLockError is returned when an update targets a stale version.
type OptimisticLockError struct {
	Table    string
	EntityID string
	Expected int64
	Actual   int64
}

func (e *OptimisticLockError) Error() string {
	return fmt.Sprintf("%s: %s %s expected version %d, got %d",
		ErrOptimisticLock, e.Table, e.EntityID, e.Expected, e.Actual)
}

// Is reports target == ErrOptimisticLock.
func (e *OptimisticLockError) Is(target error) bool {
	return target == ErrOptimisticLock
}

// NewOptimisticLockError creates an OptimisticLockError for a row of table.
func NewOptimisticLockError(table, entityID string, expected, actual int64) *OptimisticLockError {
	return &OptimisticLockError{
		Table:    table,
		EntityID: entityID,
		Expected: expected,
		Actual:   actual,
	}
}
