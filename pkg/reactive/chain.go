package reactive

import (
	"context"

	"github.com/nimburion/asyncrepo/pkg/observability/tracing"
	"github.com/nimburion/asyncrepo/pkg/repository"
)

// QueryChain builds a query fluently and ends in one of the Service reads.
type QueryChain[T any, ID comparable] struct {
	svc   *Service[T, ID]
	query *repository.QueryWrapper
}

// QueryChain starts a fluent read.
func (s *Service[T, ID]) QueryChain() *QueryChain[T, ID] {
	return &QueryChain[T, ID]{svc: s, query: repository.NewQuery()}
}

// Select restricts the projection to columns.
func (c *QueryChain[T, ID]) Select(columns ...string) *QueryChain[T, ID] {
	c.query.Select(columns...)
	return c
}

// Where adds conditions joined with AND.
func (c *QueryChain[T, ID]) Where(conditions ...repository.Condition) *QueryChain[T, ID] {
	c.query.Where(conditions...)
	return c
}

// WhereMap adds an equality condition per entry, in key order.
func (c *QueryChain[T, ID]) WhereMap(values map[string]any) *QueryChain[T, ID] {
	c.query.WhereMap(values)
	return c
}

// OrderBy appends a sort column.
func (c *QueryChain[T, ID]) OrderBy(column string, desc bool) *QueryChain[T, ID] {
	c.query.OrderBy(column, desc)
	return c
}

// Limit bounds the read to rows starting at offset.
func (c *QueryChain[T, ID]) Limit(offset, rows int64) *QueryChain[T, ID] {
	c.query.Limit(offset, rows)
	return c
}

// Query returns the query built so far.
func (c *QueryChain[T, ID]) Query() *repository.QueryWrapper {
	return c.query
}

// One reads the first matching entity, empty when nothing matches.
func (c *QueryChain[T, ID]) One() Mono[T] {
	return c.svc.GetOne(c.query)
}

// Object reads the first column of the first matching row.
func (c *QueryChain[T, ID]) Object() Mono[any] {
	return c.svc.GetObject(c.query)
}

// List streams the matching entities.
func (c *QueryChain[T, ID]) List() Flux[T] {
	return c.svc.List(c.query)
}

// Page streams one page of the matching entities.
func (c *QueryChain[T, ID]) Page(page *repository.Page[T], queryTotal bool) Flux[T] {
	return c.svc.Page(page, c.query, queryTotal)
}

// Count counts the matching rows.
func (c *QueryChain[T, ID]) Count() Mono[int64] {
	return c.svc.Count(c.query)
}

// Exists reports whether any row matches.
func (c *QueryChain[T, ID]) Exists() Mono[bool] {
	return c.svc.Exists(c.query)
}

// UpdateChain collects column assignments and a filter, and ends in an update or a delete.
type UpdateChain[T any, ID comparable] struct {
	svc     *Service[T, ID]
	columns []string
	values  []any
	query   *repository.QueryWrapper
}

// UpdateChain starts a fluent write.
func (s *Service[T, ID]) UpdateChain() *UpdateChain[T, ID] {
	return &UpdateChain[T, ID]{svc: s, query: repository.NewQuery()}
}

// Set assigns value to column.
func (c *UpdateChain[T, ID]) Set(column string, value any) *UpdateChain[T, ID] {
	c.columns = append(c.columns, column)
	c.values = append(c.values, value)
	return c
}

// Where adds conditions joined with AND.
func (c *UpdateChain[T, ID]) Where(conditions ...repository.Condition) *UpdateChain[T, ID] {
	c.query.Where(conditions...)
	return c
}

// WhereMap adds an equality condition per entry, in key order.
func (c *UpdateChain[T, ID]) WhereMap(values map[string]any) *UpdateChain[T, ID] {
	c.query.WhereMap(values)
	return c
}

// Update applies the assignments to the matching rows. A chain without a
// filter fails with repository.ErrEmptyCondition.
func (c *UpdateChain[T, ID]) Update() Mono[bool] {
	columns, values, query := c.columns, c.values, c.query
	return c.svc.affected("update_chain", tracing.SpanOperationDBUpdate, func(ctx context.Context) (int64, error) {
		return c.svc.mapper.UpdateColumnsByQuery(ctx, columns, values, query)
	})
}

// Remove deletes the matching rows.
func (c *UpdateChain[T, ID]) Remove() Mono[bool] {
	return c.svc.Remove(c.query)
}
