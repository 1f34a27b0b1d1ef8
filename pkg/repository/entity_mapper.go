package repository

import (
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// EntityMapper defines how to map between entities and database rows
type EntityMapper[T any, ID comparable] interface {
	// ToRow converts an entity to column names and values for INSERT/UPDATE
	ToRow(entity *T) (columns []string, values []any, err error)

	// FromRow scans the current database row into an entity
	FromRow(rows *sql.Rows) (*T, error)

	// GetID extracts the ID from an entity
	GetID(entity *T) ID

	// SetID sets the ID on an entity
	SetID(entity *T, id ID)
}

// ReflectionMapper maps struct entities using their db tags.
// Columns default to the lower-cased field name; db:"-" skips a field.
type ReflectionMapper[T any, ID comparable] struct {
	idField string
}

// NewReflectionMapper creates a reflection-based mapper whose identity lives in idField.
func NewReflectionMapper[T any, ID comparable](idField string) *ReflectionMapper[T, ID] {
	return &ReflectionMapper[T, ID]{
		idField: idField,
	}
}

// ToRow converts an entity to column names and values in field order.
func (m *ReflectionMapper[T, ID]) ToRow(entity *T) ([]string, []any, error) {
	v := reflect.ValueOf(entity).Elem()
	if v.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("reflection mapper requires a struct, got %s", v.Kind())
	}
	t := v.Type()

	columns := []string{}
	values := []any{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		columnName := columnOf(field)
		if columnName == "-" {
			continue
		}
		columns = append(columns, columnName)
		values = append(values, v.Field(i).Interface())
	}

	return columns, values, nil
}

// FromRow scans the current row and decodes it into a new entity.
func (m *ReflectionMapper[T, ID]) FromRow(rows *sql.Rows) (*T, error) {
	row, err := ScanRow(rows)
	if err != nil {
		return nil, err
	}
	entity, err := Decode[T](row)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetID extracts the ID from an entity using reflection
func (m *ReflectionMapper[T, ID]) GetID(entity *T) ID {
	var zero ID
	f := reflect.ValueOf(entity).Elem().FieldByName(m.idField)
	if !f.IsValid() {
		return zero
	}
	id, ok := f.Interface().(ID)
	if !ok {
		return zero
	}
	return id
}

// SetID sets the ID on an entity using reflection
func (m *ReflectionMapper[T, ID]) SetID(entity *T, id ID) {
	f := reflect.ValueOf(entity).Elem().FieldByName(m.idField)
	if f.IsValid() && f.CanSet() {
		f.Set(reflect.ValueOf(id))
	}
}

// IDColumn returns the column backing the id field.
func (m *ReflectionMapper[T, ID]) IDColumn() string {
	var zero T
	field, ok := reflect.TypeOf(zero).FieldByName(m.idField)
	if !ok {
		return strings.ToLower(m.idField)
	}
	return columnOf(field)
}

func columnOf(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("db"), ",")
	if name == "" {
		name = strings.ToLower(field.Name)
	}
	return name
}

// RowMapper maps untyped Row entities. Columns are written in key order.
type RowMapper struct {
	idColumn string
}

// NewRowMapper creates a RowMapper keyed on idColumn.
func NewRowMapper(idColumn string) *RowMapper {
	return &RowMapper{idColumn: idColumn}
}

// ToRow returns the row's columns sorted by name.
func (m *RowMapper) ToRow(entity *Row) ([]string, []any, error) {
	columns := make([]string, 0, len(*entity))
	for k := range *entity {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = (*entity)[c]
	}
	return columns, values, nil
}

// FromRow scans the current row.
func (m *RowMapper) FromRow(rows *sql.Rows) (*Row, error) {
	row, err := ScanRow(rows)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetID returns the id column value.
func (m *RowMapper) GetID(entity *Row) any {
	return (*entity)[m.idColumn]
}

// SetID stores id under the id column.
func (m *RowMapper) SetID(entity *Row, id any) {
	if *entity == nil {
		*entity = Row{}
	}
	(*entity)[m.idColumn] = id
}
