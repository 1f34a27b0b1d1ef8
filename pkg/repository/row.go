package repository

import (
	"database/sql"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Row is an untyped result row keyed by column name.
type Row map[string]any

// ScanRow reads the current row of rows into a Row. Byte slices become strings.
func ScanRow(rows *sql.Rows) (Row, error) {
	values, columns, err := scanValues(rows)
	if err != nil {
		return nil, err
	}
	row := make(Row, len(columns))
	for i, col := range columns {
		row[col] = values[i]
	}
	return row, nil
}

func scanValues(rows *sql.Rows) ([]any, []string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get columns: %w", err)
	}
	dest := make([]any, len(columns))
	for i := range dest {
		dest[i] = new(any)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, nil, fmt.Errorf("failed to scan row: %w", err)
	}
	values := make([]any, len(columns))
	for i := range dest {
		v := *(dest[i].(*any))
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		values[i] = v
	}
	return values, columns, nil
}

// Decode converts src (a Row, a scalar, or any map) into R using db tags and
// weakly typed conversion.
func Decode[R any](src any) (R, error) {
	var out R
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "db",
		WeaklyTypedInput: true,
		Squash:           true,
		Result:           &out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc("2006-01-02 15:04:05"),
		),
	})
	if err != nil {
		return out, fmt.Errorf("failed to build decoder: %w", err)
	}
	if m, ok := src.(Row); ok {
		src = map[string]any(m)
	}
	if err := decoder.Decode(src); err != nil {
		return out, fmt.Errorf("failed to decode into %T: %w", out, err)
	}
	return out, nil
}

// DecodeCursor adapts a Row cursor into a cursor of R.
func DecodeCursor[R any](c Cursor[Row]) Cursor[R] {
	return &decodingCursor[R]{src: c}
}

type decodingCursor[R any] struct {
	src Cursor[Row]
}

func (c *decodingCursor[R]) Next() bool   { return c.src.Next() }
func (c *decodingCursor[R]) Err() error   { return c.src.Err() }
func (c *decodingCursor[R]) Close() error { return c.src.Close() }

func (c *decodingCursor[R]) Get() (R, error) {
	row, err := c.src.Get()
	if err != nil {
		var zero R
		return zero, err
	}
	return Decode[R](row)
}
