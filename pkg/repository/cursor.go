package repository

import (
	"database/sql"
	"fmt"
)

// Cursor is a one-shot, forward-only sequence of rows bound to an open
// database resource. It must be closed exactly once, inside the transaction
// that opened it.
type Cursor[T any] interface {
	// Next advances to the next row, returning false when exhausted or failed
	Next() bool
	// Get decodes the current row
	Get() (T, error)
	// Err returns the error that stopped iteration, if any
	Err() error
	// Close releases the underlying rows
	Close() error
}

// ScanFunc decodes the current row of rows.
type ScanFunc[T any] func(rows *sql.Rows) (*T, error)

type rowsCursor[T any] struct {
	rows   *sql.Rows
	scan   ScanFunc[T]
	closed bool
}

// NewRowsCursor wraps rows in a Cursor. Close is idempotent.
func NewRowsCursor[T any](rows *sql.Rows, scan ScanFunc[T]) Cursor[T] {
	return &rowsCursor[T]{rows: rows, scan: scan}
}

func (c *rowsCursor[T]) Next() bool {
	if c.closed {
		return false
	}
	return c.rows.Next()
}

func (c *rowsCursor[T]) Get() (T, error) {
	var zero T
	v, err := c.scan(c.rows)
	if err != nil {
		return zero, fmt.Errorf("failed to scan row: %w", err)
	}
	if v == nil {
		return zero, nil
	}
	return *v, nil
}

func (c *rowsCursor[T]) Err() error {
	return c.rows.Err()
}

func (c *rowsCursor[T]) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}
