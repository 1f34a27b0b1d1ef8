package repository

import "context"

// Reader provides the blocking read operations of a Mapper.
// Lookups that find nothing return a nil entity and a nil error.
type Reader[T any, ID comparable] interface {
	SelectOneByID(ctx context.Context, id ID) (*T, error)
	SelectOneByEntityID(ctx context.Context, entity *T) (*T, error)
	SelectOneByQuery(ctx context.Context, query *QueryWrapper) (*T, error)
	SelectRowByQuery(ctx context.Context, query *QueryWrapper) (Row, error)
	SelectListByIDs(ctx context.Context, ids []ID) ([]T, error)

	// SelectObjectByQuery returns the first column of the first row, nil when there is none.
	SelectObjectByQuery(ctx context.Context, query *QueryWrapper) (any, error)
	// SelectObjectListByQuery returns the first column of every row.
	SelectObjectListByQuery(ctx context.Context, query *QueryWrapper) ([]any, error)

	// SelectCursorByQuery opens a forward-only cursor. The caller owns it and must
	// close it inside the transaction carried by ctx.
	SelectCursorByQuery(ctx context.Context, query *QueryWrapper) (Cursor[T], error)
	SelectRowCursorByQuery(ctx context.Context, query *QueryWrapper) (Cursor[Row], error)

	SelectCountByQuery(ctx context.Context, query *QueryWrapper) (int64, error)
	Paginate(ctx context.Context, page *Page[T], query *QueryWrapper) (*Page[T], error)
}

// Writer provides the blocking write operations of a Mapper. Every method
// returns the number of affected rows.
type Writer[T any, ID comparable] interface {
	Insert(ctx context.Context, entity *T, ignoreNulls bool) (int64, error)
	InsertOrUpdate(ctx context.Context, entity *T, ignoreNulls bool) (int64, error)
	Update(ctx context.Context, entity *T, ignoreNulls bool) (int64, error)
	UpdateByQuery(ctx context.Context, entity *T, query *QueryWrapper) (int64, error)
	UpdateColumnsByQuery(ctx context.Context, columns []string, values []any, query *QueryWrapper) (int64, error)
	DeleteByQuery(ctx context.Context, query *QueryWrapper) (int64, error)
	Delete(ctx context.Context, entity *T) (int64, error)
	DeleteByID(ctx context.Context, id ID) (int64, error)
	DeleteBatchByIDs(ctx context.Context, ids []ID) (int64, error)
}

// Mapper is the blocking data access port consumed by the reactive layer.
// Implementations are swappable per storage backend.
type Mapper[T any, ID comparable] interface {
	Reader[T, ID]
	Writer[T, ID]
}

// WriteFunc is the shape shared by Insert, InsertOrUpdate and Update.
type WriteFunc[T any] func(ctx context.Context, entity *T, ignoreNulls bool) (int64, error)
