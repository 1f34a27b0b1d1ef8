package repository

// UpdateResult is the outcome of one write inside a batch.
type UpdateResult[T any] struct {
	rows   int64
	entity T
}

// NewUpdateResult records rows affected by writing entity.
func NewUpdateResult[T any](rows int64, entity T) UpdateResult[T] {
	return UpdateResult[T]{rows: rows, entity: entity}
}

// Rows returns the affected row count.
func (r UpdateResult[T]) Rows() int64 {
	return r.rows
}

// Entity returns the written entity.
func (r UpdateResult[T]) Entity() T {
	return r.entity
}

// Success reports whether the write touched at least one row.
func (r UpdateResult[T]) Success() bool {
	return r.rows > 0
}

// ToBool converts an affected row count to a success flag.
func ToBool(rows int64) bool {
	return rows > 0
}
