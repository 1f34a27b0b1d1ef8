package repository

import (
	"slices"
	"sort"
)

// Operator is a comparison used in a Condition.
type Operator string

// Supported operators
const (
	OpEq        Operator = "="
	OpNe        Operator = "<>"
	OpGt        Operator = ">"
	OpGe        Operator = ">="
	OpLt        Operator = "<"
	OpLe        Operator = "<="
	OpLike      Operator = "LIKE"
	OpIn        Operator = "IN"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
)

// Condition is a single column predicate. Conditions of a QueryWrapper are AND-ed.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
	Values   []any

	raw string
}

// Eq builds column = value.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Operator: OpEq, Value: value}
}

// Ne builds column <> value.
func Ne(column string, value any) Condition {
	return Condition{Column: column, Operator: OpNe, Value: value}
}

// Gt builds column > value.
func Gt(column string, value any) Condition {
	return Condition{Column: column, Operator: OpGt, Value: value}
}

// Ge builds column >= value.
func Ge(column string, value any) Condition {
	return Condition{Column: column, Operator: OpGe, Value: value}
}

// Lt builds column < value.
func Lt(column string, value any) Condition {
	return Condition{Column: column, Operator: OpLt, Value: value}
}

// Le builds column <= value.
func Le(column string, value any) Condition {
	return Condition{Column: column, Operator: OpLe, Value: value}
}

// Like builds column LIKE pattern.
func Like(column, pattern string) Condition {
	return Condition{Column: column, Operator: OpLike, Value: pattern}
}

// In builds column IN (values...). An empty list matches nothing.
func In(column string, values ...any) Condition {
	return Condition{Column: column, Operator: OpIn, Values: values}
}

// IsNull builds column IS NULL.
func IsNull(column string) Condition {
	return Condition{Column: column, Operator: OpIsNull}
}

// IsNotNull builds column IS NOT NULL.
func IsNotNull(column string) Condition {
	return Condition{Column: column, Operator: OpIsNotNull}
}

// True is a condition every row satisfies.
func True() Condition {
	return Condition{raw: "1 = 1"}
}

// Raw returns the literal SQL of a raw condition, empty otherwise.
func (c Condition) Raw() string {
	return c.raw
}

// OrderBy sorts on one column.
type OrderBy struct {
	Column string
	Desc   bool
}

// QueryWrapper is a mutable query specification: projection, filter, ordering
// and optional bounds. It is not safe for concurrent use.
type QueryWrapper struct {
	columns     []string
	conditions  []Condition
	orderBy     []OrderBy
	limitRows   *int64
	limitOffset *int64
	wrapCount   bool
}

// NewQuery creates an empty QueryWrapper selecting every column.
func NewQuery() *QueryWrapper {
	return &QueryWrapper{}
}

// Select sets the projected columns.
func (q *QueryWrapper) Select(columns ...string) *QueryWrapper {
	q.columns = append(q.columns, columns...)
	return q
}

// Where appends conditions.
func (q *QueryWrapper) Where(conditions ...Condition) *QueryWrapper {
	q.conditions = append(q.conditions, conditions...)
	return q
}

// WhereMap appends one equality condition per entry, in key order.
func (q *QueryWrapper) WhereMap(values map[string]any) *QueryWrapper {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.conditions = append(q.conditions, Eq(k, values[k]))
	}
	return q
}

// OrderBy appends a sort column.
func (q *QueryWrapper) OrderBy(column string, desc bool) *QueryWrapper {
	q.orderBy = append(q.orderBy, OrderBy{Column: column, Desc: desc})
	return q
}

// Limit sets both bounds.
func (q *QueryWrapper) Limit(offset, rows int64) *QueryWrapper {
	q.limitOffset = &offset
	q.limitRows = &rows
	return q
}

// LimitRows returns the row limit, nil when unset.
func (q *QueryWrapper) LimitRows() *int64 {
	return copyBound(q.limitRows)
}

// LimitOffset returns the row offset, nil when unset.
func (q *QueryWrapper) LimitOffset() *int64 {
	return copyBound(q.limitOffset)
}

// SetLimitRows replaces the row limit. nil clears it.
func (q *QueryWrapper) SetLimitRows(rows *int64) {
	q.limitRows = copyBound(rows)
}

// SetLimitOffset replaces the row offset. nil clears it.
func (q *QueryWrapper) SetLimitOffset(offset *int64) {
	q.limitOffset = copyBound(offset)
}

// SaveBounds snapshots the current bounds and returns a func restoring them.
// Use it with defer to make a bounds mutation temporary.
func (q *QueryWrapper) SaveBounds() (restore func()) {
	rows, offset := q.LimitRows(), q.LimitOffset()
	return func() {
		q.SetLimitRows(rows)
		q.SetLimitOffset(offset)
	}
}

// Columns returns the projected columns, empty meaning all.
func (q *QueryWrapper) Columns() []string {
	return slices.Clone(q.columns)
}

// Conditions returns the filter conditions.
func (q *QueryWrapper) Conditions() []Condition {
	return slices.Clone(q.conditions)
}

// Orders returns the ordering.
func (q *QueryWrapper) Orders() []OrderBy {
	return slices.Clone(q.orderBy)
}

// HasConditions reports whether the query filters anything.
func (q *QueryWrapper) HasConditions() bool {
	return len(q.conditions) > 0
}

// CountWrapped reports whether a count must wrap the full select as a subquery.
func (q *QueryWrapper) CountWrapped() bool {
	return q.wrapCount
}

// Clone returns a deep copy.
func (q *QueryWrapper) Clone() *QueryWrapper {
	return &QueryWrapper{
		columns:     slices.Clone(q.columns),
		conditions:  slices.Clone(q.conditions),
		orderBy:     slices.Clone(q.orderBy),
		limitRows:   copyBound(q.limitRows),
		limitOffset: copyBound(q.limitOffset),
		wrapCount:   q.wrapCount,
	}
}

// OptimizedCount returns a copy stripped of projection and ordering, suitable
// for SELECT COUNT(*) over the same filter.
func (q *QueryWrapper) OptimizedCount() *QueryWrapper {
	c := q.Clone()
	c.columns = nil
	c.orderBy = nil
	c.wrapCount = false
	return c
}

// RawCount returns a copy that counts the rows of the untouched select.
func (q *QueryWrapper) RawCount() *QueryWrapper {
	c := q.Clone()
	c.wrapCount = true
	return c
}

// WhereOnly returns a new query carrying only this query's conditions.
func (q *QueryWrapper) WhereOnly() *QueryWrapper {
	return &QueryWrapper{conditions: slices.Clone(q.conditions)}
}

// OrNew returns q, or a fresh query when q is nil.
func (q *QueryWrapper) OrNew() *QueryWrapper {
	if q == nil {
		return NewQuery()
	}
	return q
}

func copyBound(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
