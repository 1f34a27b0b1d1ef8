package reactive

import (
	"context"
	"fmt"

	"github.com/nimburion/asyncrepo/pkg/config"
	"github.com/nimburion/asyncrepo/pkg/observability/logger"
	"github.com/nimburion/asyncrepo/pkg/observability/metrics"
	"github.com/nimburion/asyncrepo/pkg/observability/tracing"
	"github.com/nimburion/asyncrepo/pkg/repository"
)

// Config tunes a Service.
type Config struct {
	// DefaultPageSize replaces page sizes below 1
	DefaultPageSize int64
	// DefaultBatchSize replaces batch sizes below 1
	DefaultBatchSize int
	// IgnoreNulls is the null handling of writes that do not set it
	IgnoreNulls bool
	// Table and System label spans. They default to the mapper's table and
	// dialect when the mapper exposes them.
	Table  string
	System string
}

// ConfigFromRepository builds a Config from the repository section of the process configuration.
func ConfigFromRepository(cfg config.RepositoryConfig) Config {
	return Config{
		DefaultPageSize:  cfg.DefaultPageSize,
		DefaultBatchSize: cfg.DefaultBatchSize,
		IgnoreNulls:      cfg.IgnoreNulls,
	}
}

// WriteOption overrides the Service defaults for one write.
type WriteOption func(*writeOptions)

type writeOptions struct {
	ignoreNulls bool
	batchSize   int
}

// IgnoreNulls sets whether nil columns are skipped.
func IgnoreNulls(ignore bool) WriteOption {
	return func(o *writeOptions) {
		o.ignoreNulls = ignore
	}
}

// BatchSize sets the chunk size of a batch write.
func BatchSize(size int) WriteOption {
	return func(o *writeOptions) {
		o.batchSize = size
	}
}

// Service exposes a repository.Mapper as Monos and Fluxes. Nothing runs until
// the returned value is awaited or subscribed.
type Service[T any, ID comparable] struct {
	mapper repository.Mapper[T, ID]
	tm     repository.TransactionManager
	cfg    Config
	in     instrumentation
}

// NewService creates a Service over mapper. tm scopes cursor streams and
// batch chunks; nil runs them without a transaction. metrics may be nil.
func NewService[T any, ID comparable](
	mapper repository.Mapper[T, ID],
	tm repository.TransactionManager,
	cfg Config,
	log logger.Logger,
	m *metrics.RepositoryMetrics,
) *Service[T, ID] {
	if tm == nil {
		tm = repository.NoTransaction
	}
	if cfg.DefaultPageSize < 1 {
		cfg.DefaultPageSize = repository.DefaultPageSize
	}
	if cfg.DefaultBatchSize < 1 {
		cfg.DefaultBatchSize = repository.DefaultBatchSize
	}
	if t, ok := mapper.(interface{ Table() string }); ok && cfg.Table == "" {
		cfg.Table = t.Table()
	}
	if d, ok := mapper.(interface{ Dialect() repository.Dialect }); ok && cfg.System == "" {
		cfg.System = d.Dialect().String()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	log = log.With("table", cfg.Table)

	return &Service[T, ID]{
		mapper: mapper,
		tm:     tm,
		cfg:    cfg,
		in:     newInstrumentation(log, m, cfg.Table, cfg.System),
	}
}

// Mapper returns the underlying blocking port.
func (s *Service[T, ID]) Mapper() repository.Mapper[T, ID] {
	return s.mapper
}

// Config returns the effective configuration.
func (s *Service[T, ID]) Config() Config {
	return s.cfg
}

func (s *Service[T, ID]) writeOptions(opts []WriteOption) writeOptions {
	o := writeOptions{ignoreNulls: s.cfg.IgnoreNulls, batchSize: s.cfg.DefaultBatchSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (s *Service[T, ID]) streamOptions(operation string, extra ...tracing.DatabaseSpanOption) []StreamOption {
	return []StreamOption{
		withInstrumentation(s.in),
		WithStreamOperation(operation),
		WithStreamSpanOptions(extra...),
	}
}

func (s *Service[T, ID]) affected(operation string, span tracing.SpanOperation, fn func(ctx context.Context) (int64, error)) Mono[bool] {
	return instrumentedMono(s.in, operation, span, func(ctx context.Context) (bool, error) {
		rows, err := fn(ctx)
		return repository.ToBool(rows), err
	})
}

// Save inserts entity.
func (s *Service[T, ID]) Save(entity *T, opts ...WriteOption) Mono[bool] {
	o := s.writeOptions(opts)
	return s.affected("save", tracing.SpanOperationDBInsert, func(ctx context.Context) (int64, error) {
		return s.mapper.Insert(ctx, entity, o.ignoreNulls)
	})
}

// SaveOrUpdate inserts entity when it has no id and updates it otherwise.
func (s *Service[T, ID]) SaveOrUpdate(entity *T, opts ...WriteOption) Mono[bool] {
	o := s.writeOptions(opts)
	return s.affected("save_or_update", tracing.SpanOperationDBUpdate, func(ctx context.Context) (int64, error) {
		return s.mapper.InsertOrUpdate(ctx, entity, o.ignoreNulls)
	})
}

// SaveBatch inserts entities in chunks and streams one outcome per entity.
func (s *Service[T, ID]) SaveBatch(entities []T, opts ...WriteOption) Flux[repository.UpdateResult[T]] {
	return s.batch("save_batch", OpInsert, entities, opts)
}

// SaveOrUpdateBatch upserts entities in chunks and streams one outcome per entity.
func (s *Service[T, ID]) SaveOrUpdateBatch(entities []T, opts ...WriteOption) Flux[repository.UpdateResult[T]] {
	return s.batch("save_or_update_batch", OpUpsert, entities, opts)
}

// UpdateBatch updates entities by id in chunks and streams one outcome per entity.
func (s *Service[T, ID]) UpdateBatch(entities []T, opts ...WriteOption) Flux[repository.UpdateResult[T]] {
	return s.batch("update_batch", OpUpdate, entities, opts)
}

func (s *Service[T, ID]) batch(operation string, op WriteOp, entities []T, opts []WriteOption) Flux[repository.UpdateResult[T]] {
	o := s.writeOptions(opts)
	return ExecuteBatch(s.mapper, s.tm, op, entities, o.ignoreNulls, o.batchSize, s.streamOptions(operation)...)
}

// Remove deletes every row matching query.
func (s *Service[T, ID]) Remove(query *repository.QueryWrapper) Mono[bool] {
	return s.affected("remove", tracing.SpanOperationDBDelete, func(ctx context.Context) (int64, error) {
		return s.mapper.DeleteByQuery(ctx, query)
	})
}

// RemoveWhere deletes every row satisfying all conditions.
func (s *Service[T, ID]) RemoveWhere(conditions ...repository.Condition) Mono[bool] {
	return s.Remove(repository.NewQuery().Where(conditions...))
}

// RemoveByEntityID deletes the row of entity.
func (s *Service[T, ID]) RemoveByEntityID(entity *T) Mono[bool] {
	return s.affected("remove_by_entity_id", tracing.SpanOperationDBDelete, func(ctx context.Context) (int64, error) {
		return s.mapper.Delete(ctx, entity)
	})
}

// RemoveByID deletes the row with id.
func (s *Service[T, ID]) RemoveByID(id ID) Mono[bool] {
	return s.affected("remove_by_id", tracing.SpanOperationDBDelete, func(ctx context.Context) (int64, error) {
		return s.mapper.DeleteByID(ctx, id)
	})
}

// RemoveByIDs deletes the rows with the given ids.
func (s *Service[T, ID]) RemoveByIDs(ids []ID) Mono[bool] {
	return s.affected("remove_by_ids", tracing.SpanOperationDBDelete, func(ctx context.Context) (int64, error) {
		return s.mapper.DeleteBatchByIDs(ctx, ids)
	})
}

// RemoveByMap deletes the rows whose columns equal the map values. An empty
// map is rejected before any Mono is built.
func (s *Service[T, ID]) RemoveByMap(values map[string]any) (Mono[bool], error) {
	if len(values) == 0 {
		return Mono[bool]{}, fmt.Errorf("remove by map: %w", repository.ErrEmptyCondition)
	}
	return s.Remove(repository.NewQuery().WhereMap(values)), nil
}

// UpdateByID updates entity by its id.
func (s *Service[T, ID]) UpdateByID(entity *T, opts ...WriteOption) Mono[bool] {
	o := s.writeOptions(opts)
	return s.affected("update_by_id", tracing.SpanOperationDBUpdate, func(ctx context.Context) (int64, error) {
		return s.mapper.Update(ctx, entity, o.ignoreNulls)
	})
}

// Update writes the non-null columns of entity to every row matching query.
func (s *Service[T, ID]) Update(entity *T, query *repository.QueryWrapper) Mono[bool] {
	return s.affected("update", tracing.SpanOperationDBUpdate, func(ctx context.Context) (int64, error) {
		return s.mapper.UpdateByQuery(ctx, entity, query)
	})
}

// UpdateWhere writes the non-null columns of entity to every row satisfying all conditions.
func (s *Service[T, ID]) UpdateWhere(entity *T, conditions ...repository.Condition) Mono[bool] {
	return s.Update(entity, repository.NewQuery().Where(conditions...))
}

// UpdateByMap writes entity to the rows whose columns equal the map values.
// An empty map is rejected before any Mono is built.
func (s *Service[T, ID]) UpdateByMap(entity *T, values map[string]any) (Mono[bool], error) {
	if len(values) == 0 {
		return Mono[bool]{}, fmt.Errorf("update by map: %w", repository.ErrEmptyCondition)
	}
	return s.Update(entity, repository.NewQuery().WhereMap(values)), nil
}

// GetByID looks an entity up by id. The Mono is empty when it does not exist.
func (s *Service[T, ID]) GetByID(id ID) Mono[T] {
	return instrumentedOptional(s.in, "get_by_id", tracing.SpanOperationDBQuery, func(ctx context.Context) (*T, error) {
		return s.mapper.SelectOneByID(ctx, id)
	})
}

// GetByEntityID reloads entity by its id.
func (s *Service[T, ID]) GetByEntityID(entity *T) Mono[T] {
	return instrumentedOptional(s.in, "get_by_entity_id", tracing.SpanOperationDBQuery, func(ctx context.Context) (*T, error) {
		return s.mapper.SelectOneByEntityID(ctx, entity)
	})
}

// GetOne returns the first entity matching query.
func (s *Service[T, ID]) GetOne(query *repository.QueryWrapper) Mono[T] {
	return instrumentedOptional(s.in, "get_one", tracing.SpanOperationDBQuery, func(ctx context.Context) (*T, error) {
		return s.mapper.SelectOneByQuery(ctx, query)
	})
}

// GetObject returns the first column of the first matching row. The Mono is
// empty when no row matches or the value is NULL.
func (s *Service[T, ID]) GetObject(query *repository.QueryWrapper) Mono[any] {
	return instrumentedOptional(s.in, "get_object", tracing.SpanOperationDBQuery, func(ctx context.Context) (*any, error) {
		v, err := s.mapper.SelectObjectByQuery(ctx, query)
		if err != nil || v == nil {
			return nil, err
		}
		return &v, nil
	})
}

// GetObjectListOnce returns the first column of every matching row.
func (s *Service[T, ID]) GetObjectListOnce(query *repository.QueryWrapper) Mono[[]any] {
	return instrumentedMono(s.in, "get_object_list", tracing.SpanOperationDBQuery, func(ctx context.Context) ([]any, error) {
		return s.mapper.SelectObjectListByQuery(ctx, query)
	})
}

// ListOnceByIDs loads the entities with the given ids in one call.
func (s *Service[T, ID]) ListOnceByIDs(ids []ID) Mono[[]T] {
	return instrumentedMono(s.in, "list_by_ids", tracing.SpanOperationDBQuery, func(ctx context.Context) ([]T, error) {
		return s.mapper.SelectListByIDs(ctx, ids)
	})
}

// List streams the entities matching query. A nil query lists every row.
func (s *Service[T, ID]) List(query *repository.QueryWrapper) Flux[T] {
	return s.list("list", query)
}

// ListWhere streams the entities satisfying all conditions.
func (s *Service[T, ID]) ListWhere(conditions ...repository.Condition) Flux[T] {
	return s.list("list", repository.NewQuery().Where(conditions...))
}

// ListByMap streams the entities whose columns equal the map values.
func (s *Service[T, ID]) ListByMap(values map[string]any) Flux[T] {
	return s.list("list_by_map", repository.NewQuery().WhereMap(values))
}

func (s *Service[T, ID]) list(operation string, query *repository.QueryWrapper, extra ...tracing.DatabaseSpanOption) Flux[T] {
	query = query.OrNew()
	return CursorToFlux(s.tm, func(ctx context.Context) (repository.Cursor[T], error) {
		return s.mapper.SelectCursorByQuery(ctx, query)
	}, s.streamOptions(operation, extra...)...)
}

// Page streams the entities of page. When queryTotal is set and the page total
// is unknown the total is counted first and stored in page. The bounds of query
// are restored once the window is prepared, before any row is streamed.
func (s *Service[T, ID]) Page(page *repository.Page[T], query *repository.QueryWrapper, queryTotal bool) Flux[T] {
	return Create(func(ctx context.Context, emit Emitter[T]) error {
		window, err := Window(ctx, s.paginator("page"), page, query, queryTotal)
		if err != nil {
			return err
		}
		return s.list("page", window, tracing.WithPage(page.PageNumber, page.PageSize)).Each(ctx, func(v T) error {
			return emit(v)
		})
	})
}

func (s *Service[T, ID]) paginator(operation string) Paginator {
	return Paginator{
		DefaultPageSize: s.cfg.DefaultPageSize,
		Count: func(ctx context.Context, query *repository.QueryWrapper) (int64, error) {
			total, _, err := observe(ctx, s.in, operation+"_count", tracing.SpanOperationDBCount,
				func(ctx context.Context) (int64, bool, error) {
					n, err := s.mapper.SelectCountByQuery(ctx, query)
					return n, err == nil, err
				})
			return total, err
		},
	}
}

// PageOnce reads page in one call and returns it with its records.
func (s *Service[T, ID]) PageOnce(page *repository.Page[T], query *repository.QueryWrapper) Mono[*repository.Page[T]] {
	return instrumentedMono(s.in, "page_once", tracing.SpanOperationDBQuery, func(ctx context.Context) (*repository.Page[T], error) {
		if page == nil {
			return nil, ErrNilPage
		}
		page.Normalize(s.cfg.DefaultPageSize)
		return s.mapper.Paginate(ctx, page, query)
	})
}

// Exists reports whether any row satisfies the conditions of query. Only the
// filter is used and at most one row is read.
func (s *Service[T, ID]) Exists(query *repository.QueryWrapper) Mono[bool] {
	return instrumentedMono(s.in, "exists", tracing.SpanOperationDBQuery, func(ctx context.Context) (bool, error) {
		probe := query.OrNew().WhereOnly().Limit(0, 1)
		objects, err := s.mapper.SelectObjectListByQuery(ctx, probe)
		return len(objects) > 0, err
	})
}

// ExistsWhere reports whether any row satisfies all conditions.
func (s *Service[T, ID]) ExistsWhere(conditions ...repository.Condition) Mono[bool] {
	return s.Exists(repository.NewQuery().Where(conditions...))
}

// Count counts the rows matching query. A nil query counts every row.
func (s *Service[T, ID]) Count(query *repository.QueryWrapper) Mono[int64] {
	return instrumentedMono(s.in, "count", tracing.SpanOperationDBCount, func(ctx context.Context) (int64, error) {
		return s.mapper.SelectCountByQuery(ctx, query.OrNew())
	})
}

// CountWhere counts the rows satisfying all conditions.
func (s *Service[T, ID]) CountWhere(conditions ...repository.Condition) Mono[int64] {
	return s.Count(repository.NewQuery().Where(conditions...))
}
