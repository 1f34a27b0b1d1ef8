package reactive

import (
	"context"
	"fmt"
	"time"

	"github.com/nimburion/asyncrepo/pkg/observability/tracing"
	"github.com/nimburion/asyncrepo/pkg/repository"
)

// WriteOp selects the Mapper write used by a batch.
type WriteOp int

// Batch write operations
const (
	OpInsert WriteOp = iota
	OpUpdate
	OpUpsert
)

func (op WriteOp) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpUpsert:
		return "upsert"
	default:
		return fmt.Sprintf("WriteOp(%d)", int(op))
	}
}

// resolveWrite picks the Mapper method for op once per batch.
func resolveWrite[T any, ID comparable](mapper repository.Mapper[T, ID], op WriteOp) (repository.WriteFunc[T], error) {
	switch op {
	case OpInsert:
		return mapper.Insert, nil
	case OpUpdate:
		return mapper.Update, nil
	case OpUpsert:
		return mapper.InsertOrUpdate, nil
	default:
		return nil, fmt.Errorf("unsupported batch write operation %s", op)
	}
}

// ExecuteBatch writes entities in contiguous chunks of batchSize, one
// transaction per chunk, and emits one outcome per entity in input order.
// A batchSize below 1 means repository.DefaultBatchSize. Outcomes of a chunk
// are emitted after its transaction commits. A failing chunk rolls back alone,
// emits nothing and ends the stream; outcomes of earlier chunks stay emitted.
//
// Entities are written in place, so ids generated by the database are visible
// in entities once their chunk has been emitted.
func ExecuteBatch[T any, ID comparable](
	mapper repository.Mapper[T, ID],
	tm repository.TransactionManager,
	op WriteOp,
	entities []T,
	ignoreNulls bool,
	batchSize int,
	opts ...StreamOption,
) Flux[repository.UpdateResult[T]] {
	o := newStreamOptions("batch_"+op.String(), opts)
	if tm == nil {
		tm = repository.NoTransaction
	}
	if batchSize < 1 {
		batchSize = repository.DefaultBatchSize
	}

	return Create(func(ctx context.Context, emit Emitter[repository.UpdateResult[T]]) error {
		write, err := resolveWrite(mapper, op)
		if err != nil {
			return err
		}

		start := time.Now()
		index := 0
		err = func() error {
			for chunk := range repository.Chunk(entities, batchSize) {
				if err := ctx.Err(); err != nil {
					return err
				}
				outcomes, err := executeChunk(ctx, tm, write, op, chunk, ignoreNulls, index, o)
				if err != nil {
					return fmt.Errorf("batch %s chunk %d failed: %w", op, index, err)
				}
				for _, r := range outcomes {
					o.metrics.BatchOutcome(o.operation, r.Success())
					if err := emit(r); err != nil {
						return err
					}
					o.metrics.StreamItem(o.operation)
				}
				index++
			}
			return nil
		}()

		o.metrics.ObserveOperation(o.operation, outcome(len(entities) > 0, err), time.Since(start))
		if err != nil {
			o.log.WithContext(ctx).Error("batch write stopped",
				"operation", o.operation,
				"chunks_committed", index,
				"error", err,
			)
		}
		return err
	})
}

func executeChunk[T any](
	ctx context.Context,
	tm repository.TransactionManager,
	write repository.WriteFunc[T],
	op WriteOp,
	chunk []T,
	ignoreNulls bool,
	index int,
	o *streamOptions,
) (outcomes []repository.UpdateResult[T], err error) {
	extra := append([]tracing.DatabaseSpanOption{tracing.WithBatchChunk(index, len(chunk))}, o.spanOpts...)
	ctx, span := tracing.StartDatabaseSpan(ctx, tracing.SpanOperationDBBatch, o.spanOptions(o.operation, extra...)...)
	defer func() { tracing.End(span, err) }()

	err = tm.WithTransaction(ctx, func(txCtx context.Context) error {
		outcomes = make([]repository.UpdateResult[T], 0, len(chunk))
		for i := range chunk {
			rows, err := write(txCtx, &chunk[i], ignoreNulls)
			if err != nil {
				return fmt.Errorf("failed to %s entity %d: %w", op, i, err)
			}
			outcomes = append(outcomes, repository.NewUpdateResult(rows, chunk[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}
