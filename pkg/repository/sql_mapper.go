package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// SQLExecutor defines the interface for executing SQL queries
// This can be a *sql.DB, *sql.Tx, or any adapter that provides these methods
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLMapper is a Mapper over a single SQL table.
type SQLMapper[T any, ID comparable] struct {
	executor  SQLExecutor
	dialect   Dialect
	tableName string
	idColumn  string
	mapper    EntityMapper[T, ID]
}

// NewSQLMapper creates a Mapper for tableName whose primary key is idColumn.
func NewSQLMapper[T any, ID comparable](
	executor SQLExecutor,
	dialect Dialect,
	tableName string,
	idColumn string,
	mapper EntityMapper[T, ID],
) *SQLMapper[T, ID] {
	return &SQLMapper[T, ID]{
		executor:  executor,
		dialect:   dialect,
		tableName: tableName,
		idColumn:  idColumn,
		mapper:    mapper,
	}
}

// Table returns the mapped table name.
func (r *SQLMapper[T, ID]) Table() string {
	return r.tableName
}

// Dialect returns the SQL dialect.
func (r *SQLMapper[T, ID]) Dialect() Dialect {
	return r.dialect
}

// Insert writes a new row. A zero id is left to the database and read back
// when the driver reports it.
func (r *SQLMapper[T, ID]) Insert(ctx context.Context, entity *T, ignoreNulls bool) (int64, error) {
	if entity == nil {
		return 0, ErrNilEntity
	}

	columns, values, err := r.mapper.ToRow(entity)
	if err != nil {
		return 0, fmt.Errorf("failed to map entity to row: %w", err)
	}
	generated := isZero(r.mapper.GetID(entity))
	columns, values = r.filterColumns(columns, values, ignoreNulls, generated)
	if len(columns) == 0 {
		return 0, errors.New("entity has no columns to insert")
	}

	stmt := newStatement(r.dialect)
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = stmt.bind(v)
	}
	stmt.write("INSERT INTO ", r.tableName,
		" (", strings.Join(columns, ", "), ") VALUES (", strings.Join(placeholders, ", "), ")")

	if generated && r.dialect == DialectPostgres {
		stmt.write(" RETURNING ", r.idColumn)
		var id ID
		if err := r.executor.QueryRowContext(ctx, stmt.String(), stmt.args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to insert entity: %w", err)
		}
		r.mapper.SetID(entity, id)
		return 1, nil
	}

	result, err := r.executor.ExecContext(ctx, stmt.String(), stmt.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entity: %w", err)
	}
	if generated {
		if last, err := result.LastInsertId(); err == nil {
			if id, ok := generatedID[ID](last); ok {
				r.mapper.SetID(entity, id)
			}
		}
	}
	return rowsAffected(result)
}

// generatedID converts a driver-generated key to ID. Only numeric kinds and
// interfaces accept it; an int64 to string conversion would yield a rune.
func generatedID[ID comparable](last int64) (ID, bool) {
	var zero ID
	t := reflect.TypeFor[ID]()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Interface:
	default:
		return zero, false
	}
	v := reflect.ValueOf(last)
	if !v.CanConvert(t) {
		return zero, false
	}
	id, ok := v.Convert(t).Interface().(ID)
	return id, ok
}

// InsertOrUpdate inserts entities without an id and updates the others,
// falling back to insert when the update matched nothing.
func (r *SQLMapper[T, ID]) InsertOrUpdate(ctx context.Context, entity *T, ignoreNulls bool) (int64, error) {
	if entity == nil {
		return 0, ErrNilEntity
	}
	if isZero(r.mapper.GetID(entity)) {
		return r.Insert(ctx, entity, ignoreNulls)
	}
	rows, err := r.Update(ctx, entity, ignoreNulls)
	if err != nil || rows > 0 {
		return rows, err
	}
	return r.Insert(ctx, entity, ignoreNulls)
}

// Update writes entity by primary key.
// Entities implementing Versioned are updated with optimistic locking.
func (r *SQLMapper[T, ID]) Update(ctx context.Context, entity *T, ignoreNulls bool) (int64, error) {
	if entity == nil {
		return 0, ErrNilEntity
	}

	id := r.mapper.GetID(entity)
	columns, values, err := r.mapper.ToRow(entity)
	if err != nil {
		return 0, fmt.Errorf("failed to map entity to row: %w", err)
	}
	columns, values = r.filterColumns(columns, values, ignoreNulls, true)
	if len(columns) == 0 {
		return 0, errors.New("entity has no columns to update")
	}

	if versioned, ok := any(entity).(Versioned); ok {
		return r.updateWithOptimisticLock(ctx, versioned, id, columns, values)
	}

	stmt := newStatement(r.dialect)
	stmt.write("UPDATE ", r.tableName, " SET ")
	stmt.writeAssignments(columns, values)
	stmt.write(" WHERE ", r.idColumn, " = ", stmt.bind(id))

	result, err := r.executor.ExecContext(ctx, stmt.String(), stmt.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update entity: %w", err)
	}
	return rowsAffected(result)
}

// updateWithOptimisticLock updates an entity with optimistic locking
func (r *SQLMapper[T, ID]) updateWithOptimisticLock(
	ctx context.Context,
	versioned Versioned,
	id ID,
	columns []string,
	values []any,
) (int64, error) {
	currentVersion := versioned.GetVersion()
	newVersion := currentVersion + 1

	for i, col := range columns {
		if col == "version" {
			values[i] = newVersion
		}
	}

	stmt := newStatement(r.dialect)
	stmt.write("UPDATE ", r.tableName, " SET ")
	stmt.writeAssignments(columns, values)
	stmt.write(" WHERE ", r.idColumn, " = ", stmt.bind(id), " AND version = ", stmt.bind(currentVersion))

	result, err := r.executor.ExecContext(ctx, stmt.String(), stmt.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update entity: %w", err)
	}
	affected, err := rowsAffected(result)
	if err != nil {
		return 0, err
	}

	if affected == 0 {
		var actualVersion int64
		check := newStatement(r.dialect)
		check.write("SELECT version FROM ", r.tableName, " WHERE ", r.idColumn, " = ", check.bind(id))
		err := r.executor.QueryRowContext(ctx, check.String(), check.args...).Scan(&actualVersion)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to check entity version: %w", err)
		}
		return 0, NewOptimisticLockError(r.tableName, fmt.Sprintf("%v", id), currentVersion, actualVersion)
	}

	versioned.SetVersion(newVersion)
	return affected, nil
}

// UpdateByQuery writes the non-null columns of entity to every row matching query.
func (r *SQLMapper[T, ID]) UpdateByQuery(ctx context.Context, entity *T, query *QueryWrapper) (int64, error) {
	if entity == nil {
		return 0, ErrNilEntity
	}
	columns, values, err := r.mapper.ToRow(entity)
	if err != nil {
		return 0, fmt.Errorf("failed to map entity to row: %w", err)
	}
	columns, values = r.filterColumns(columns, values, true, true)
	return r.UpdateColumnsByQuery(ctx, columns, values, query)
}

// UpdateColumnsByQuery sets columns to values on every row matching query.
func (r *SQLMapper[T, ID]) UpdateColumnsByQuery(ctx context.Context, columns []string, values []any, query *QueryWrapper) (int64, error) {
	if query == nil || !query.HasConditions() {
		return 0, ErrEmptyCondition
	}
	if len(columns) == 0 || len(columns) != len(values) {
		return 0, fmt.Errorf("invalid update: %d columns, %d values", len(columns), len(values))
	}

	stmt := newStatement(r.dialect)
	stmt.write("UPDATE ", r.tableName, " SET ")
	stmt.writeAssignments(columns, values)
	stmt.writeWhere(query.conditions)

	result, err := r.executor.ExecContext(ctx, stmt.String(), stmt.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update entities: %w", err)
	}
	return rowsAffected(result)
}

// DeleteByQuery removes every row matching query.
func (r *SQLMapper[T, ID]) DeleteByQuery(ctx context.Context, query *QueryWrapper) (int64, error) {
	if query == nil || !query.HasConditions() {
		return 0, ErrEmptyCondition
	}
	stmt := newStatement(r.dialect)
	stmt.write("DELETE FROM ", r.tableName)
	stmt.writeWhere(query.conditions)
	return r.exec(ctx, stmt, "failed to delete entities")
}

// Delete removes entity by its primary key.
func (r *SQLMapper[T, ID]) Delete(ctx context.Context, entity *T) (int64, error) {
	if entity == nil {
		return 0, ErrNilEntity
	}
	return r.DeleteByID(ctx, r.mapper.GetID(entity))
}

// DeleteByID removes an entity from the database by its ID
func (r *SQLMapper[T, ID]) DeleteByID(ctx context.Context, id ID) (int64, error) {
	stmt := newStatement(r.dialect)
	stmt.write("DELETE FROM ", r.tableName, " WHERE ", r.idColumn, " = ", stmt.bind(id))
	return r.exec(ctx, stmt, "failed to delete entity")
}

// DeleteBatchByIDs removes every entity whose id is in ids.
func (r *SQLMapper[T, ID]) DeleteBatchByIDs(ctx context.Context, ids []ID) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDs
	}
	stmt := newStatement(r.dialect)
	stmt.write("DELETE FROM ", r.tableName)
	stmt.writeWhere([]Condition{In(r.idColumn, toAny(ids)...)})
	return r.exec(ctx, stmt, "failed to delete entities")
}

// SelectOneByID retrieves an entity by its ID, nil when absent.
func (r *SQLMapper[T, ID]) SelectOneByID(ctx context.Context, id ID) (*T, error) {
	return r.SelectOneByQuery(ctx, NewQuery().Where(Eq(r.idColumn, id)))
}

// SelectOneByEntityID retrieves the stored version of entity.
func (r *SQLMapper[T, ID]) SelectOneByEntityID(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, ErrNilEntity
	}
	return r.SelectOneByID(ctx, r.mapper.GetID(entity))
}

// SelectOneByQuery returns the first matching entity, nil when none.
func (r *SQLMapper[T, ID]) SelectOneByQuery(ctx context.Context, query *QueryWrapper) (*T, error) {
	rows, err := r.query(ctx, firstRow(query))
	if err != nil {
		return nil, fmt.Errorf("failed to query entity: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rowsErr(rows)
	}
	entity, err := r.mapper.FromRow(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}
	return entity, nil
}

// SelectRowByQuery returns the first matching row, nil when none.
func (r *SQLMapper[T, ID]) SelectRowByQuery(ctx context.Context, query *QueryWrapper) (Row, error) {
	rows, err := r.query(ctx, firstRow(query))
	if err != nil {
		return nil, fmt.Errorf("failed to query row: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rowsErr(rows)
	}
	return ScanRow(rows)
}

// SelectObjectByQuery returns the first column of the first row.
func (r *SQLMapper[T, ID]) SelectObjectByQuery(ctx context.Context, query *QueryWrapper) (any, error) {
	rows, err := r.query(ctx, firstRow(query))
	if err != nil {
		return nil, fmt.Errorf("failed to query object: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rowsErr(rows)
	}
	values, _, err := scanValues(rows)
	if err != nil || len(values) == 0 {
		return nil, err
	}
	return values[0], nil
}

// SelectObjectListByQuery returns the first column of every matching row.
func (r *SQLMapper[T, ID]) SelectObjectListByQuery(ctx context.Context, query *QueryWrapper) ([]any, error) {
	rows, err := r.query(ctx, query.OrNew())
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer rows.Close()

	objects := []any{}
	for rows.Next() {
		values, _, err := scanValues(rows)
		if err != nil {
			return nil, err
		}
		if len(values) > 0 {
			objects = append(objects, values[0])
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return objects, nil
}

// SelectCursorByQuery opens a cursor over the matching entities.
func (r *SQLMapper[T, ID]) SelectCursorByQuery(ctx context.Context, query *QueryWrapper) (Cursor[T], error) {
	rows, err := r.query(ctx, query.OrNew())
	if err != nil {
		return nil, fmt.Errorf("failed to open cursor: %w", err)
	}
	return NewRowsCursor(rows, r.mapper.FromRow), nil
}

// SelectRowCursorByQuery opens a cursor over the matching rows.
func (r *SQLMapper[T, ID]) SelectRowCursorByQuery(ctx context.Context, query *QueryWrapper) (Cursor[Row], error) {
	rows, err := r.query(ctx, query.OrNew())
	if err != nil {
		return nil, fmt.Errorf("failed to open cursor: %w", err)
	}
	return NewRowsCursor(rows, func(rows *sql.Rows) (*Row, error) {
		row, err := ScanRow(rows)
		return &row, err
	}), nil
}

// SelectCountByQuery returns the number of rows matching query.
func (r *SQLMapper[T, ID]) SelectCountByQuery(ctx context.Context, query *QueryWrapper) (int64, error) {
	stmt := newStatement(r.dialect)
	stmt.writeCount(r.tableName, query.OrNew())

	var count int64
	if err := r.executor.QueryRowContext(ctx, stmt.String(), stmt.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return count, nil
}

// SelectListByIDs returns the entities whose id is in ids.
func (r *SQLMapper[T, ID]) SelectListByIDs(ctx context.Context, ids []ID) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	cursor, err := r.SelectCursorByQuery(ctx, NewQuery().Where(In(r.idColumn, toAny(ids)...)))
	if err != nil {
		return nil, err
	}
	return drain(cursor)
}

// Paginate fills page with the records of its window, counting first when the
// total is unknown. query is left untouched.
func (r *SQLMapper[T, ID]) Paginate(ctx context.Context, page *Page[T], query *QueryWrapper) (*Page[T], error) {
	if page == nil {
		return nil, ErrNilPage
	}
	query = query.OrNew()
	page.Normalize(DefaultPageSize)

	if !page.TotalKnown() {
		countQuery := query.OptimizedCount()
		if page.RawCount {
			countQuery = query.RawCount()
		}
		countQuery.SetLimitRows(nil)
		countQuery.SetLimitOffset(nil)
		total, err := r.SelectCountByQuery(ctx, countQuery)
		if err != nil {
			return nil, err
		}
		page.SetTotalRow(total)
	} else if page.TotalPage < 0 {
		page.SetTotalRow(page.TotalRow)
	}

	page.Records = []T{}
	if page.TotalRow == 0 {
		return page, nil
	}

	window := query.Clone().Limit(page.Offset(), page.PageSize)
	cursor, err := r.SelectCursorByQuery(ctx, window)
	if err != nil {
		return nil, err
	}
	records, err := drain(cursor)
	if err != nil {
		return nil, err
	}
	page.Records = records
	return page, nil
}

func (r *SQLMapper[T, ID]) query(ctx context.Context, q *QueryWrapper) (*sql.Rows, error) {
	stmt := newStatement(r.dialect)
	stmt.writeSelect(r.tableName, q)
	return r.executor.QueryContext(ctx, stmt.String(), stmt.args...)
}

func (r *SQLMapper[T, ID]) exec(ctx context.Context, stmt *statement, msg string) (int64, error) {
	result, err := r.executor.ExecContext(ctx, stmt.String(), stmt.args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", msg, err)
	}
	return rowsAffected(result)
}

// filterColumns drops null values when ignoreNulls is set and the id column when dropID is set.
func (r *SQLMapper[T, ID]) filterColumns(columns []string, values []any, ignoreNulls, dropID bool) ([]string, []any) {
	outCols := make([]string, 0, len(columns))
	outVals := make([]any, 0, len(values))
	for i, col := range columns {
		if dropID && col == r.idColumn {
			continue
		}
		if ignoreNulls && isNull(values[i]) {
			continue
		}
		outCols = append(outCols, col)
		outVals = append(outVals, values[i])
	}
	return outCols, outVals
}

func firstRow(query *QueryWrapper) *QueryWrapper {
	q := query.OrNew().Clone()
	if q.limitRows == nil {
		one := int64(1)
		q.limitRows = &one
	}
	return q
}

func drain[T any](cursor Cursor[T]) (out []T, err error) {
	defer func() {
		if cerr := cursor.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close cursor: %w", cerr)
		}
	}()
	out = []T{}
	for cursor.Next() {
		v, err := cursor.Get()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func rowsErr(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}
	return nil
}

func toAny[ID any](ids []ID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func isZero[ID comparable](id ID) bool {
	var zero ID
	return id == zero
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	if valuer, ok := v.(interface{ IsNull() bool }); ok {
		return valuer.IsNull()
	}
	return false
}
