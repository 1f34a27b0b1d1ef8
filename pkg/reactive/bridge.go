package reactive

import (
	"context"
	"fmt"
	"time"

	"github.com/nimburion/asyncrepo/pkg/observability/logger"
	"github.com/nimburion/asyncrepo/pkg/observability/metrics"
	"github.com/nimburion/asyncrepo/pkg/observability/tracing"
	"github.com/nimburion/asyncrepo/pkg/repository"
)

// CloseError reports a cursor that failed to close after an otherwise clean iteration.
type CloseError struct {
	Err error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("failed to close cursor: %v", e.Err)
}

func (e *CloseError) Unwrap() error {
	return e.Err
}

// CursorOpener opens a fresh cursor. It is called once per subscription with
// the transactional context.
type CursorOpener[T any] func(ctx context.Context) (repository.Cursor[T], error)

// StreamOption configures CursorToFlux and ExecuteBatch.
type StreamOption func(*streamOptions)

type streamOptions struct {
	instrumentation
	operation string
	spanOpts  []tracing.DatabaseSpanOption
}

// WithStreamLogger sets the logger used for stream failures.
func WithStreamLogger(log logger.Logger) StreamOption {
	return func(o *streamOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithStreamMetrics records streamed items, batch outcomes and open cursors.
func WithStreamMetrics(m *metrics.RepositoryMetrics) StreamOption {
	return func(o *streamOptions) {
		o.metrics = m
	}
}

// WithStreamOperation names the stream in spans, metrics and logs.
func WithStreamOperation(operation string) StreamOption {
	return func(o *streamOptions) {
		o.operation = operation
	}
}

// WithStreamSpanOptions adds attributes to the stream spans.
func WithStreamSpanOptions(opts ...tracing.DatabaseSpanOption) StreamOption {
	return func(o *streamOptions) {
		o.spanOpts = append(o.spanOpts, opts...)
	}
}

func newStreamOptions(operation string, opts []StreamOption) *streamOptions {
	o := &streamOptions{
		instrumentation: newInstrumentation(nil, nil, "", ""),
		operation:       operation,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func withInstrumentation(in instrumentation) StreamOption {
	return func(o *streamOptions) {
		o.instrumentation = in
	}
}

// CursorToFlux streams the rows of a cursor. On every subscription it opens a
// transaction through tm, calls open inside it and emits rows in cursor order.
// The cursor is closed exactly once on every exit path. Any error from open,
// iteration, decoding or close ends the stream and rolls the transaction back;
// when iteration and close both fail the iteration error wins and the close
// error is logged. Cancellation is checked before every row fetch.
func CursorToFlux[T any](tm repository.TransactionManager, open CursorOpener[T], opts ...StreamOption) Flux[T] {
	o := newStreamOptions("cursor", opts)
	if tm == nil {
		tm = repository.NoTransaction
	}

	return Create(func(ctx context.Context, emit Emitter[T]) error {
		start := time.Now()
		ctx, span := tracing.StartDatabaseSpan(ctx, tracing.SpanOperationDBCursor,
			o.spanOptions(o.operation, o.spanOpts...)...)

		emitted := 0
		err := tm.WithTransaction(ctx, func(txCtx context.Context) error {
			return streamCursor(txCtx, open, func(v T) error {
				if err := emit(v); err != nil {
					return err
				}
				emitted++
				o.metrics.StreamItem(o.operation)
				return nil
			}, o)
		})

		tracing.End(span, err)
		o.metrics.ObserveOperation(o.operation, outcome(emitted > 0, err), time.Since(start))
		return err
	})
}

func streamCursor[T any](ctx context.Context, open CursorOpener[T], emit Emitter[T], o *streamOptions) (err error) {
	cursor, err := open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open cursor: %w", err)
	}
	if cursor == nil {
		return nil
	}
	o.metrics.CursorOpened()

	defer func() {
		closeErr := cursor.Close()
		o.metrics.CursorClosed()
		if closeErr == nil {
			return
		}
		if err == nil {
			err = &CloseError{Err: closeErr}
			return
		}
		o.log.WithContext(ctx).Warn("failed to close cursor after stream error",
			"operation", o.operation,
			"error", err,
			"close_error", closeErr,
		)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !cursor.Next() {
			break
		}
		v, err := cursor.Get()
		if err != nil {
			return err
		}
		if err := emit(v); err != nil {
			return err
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("cursor iteration failed: %w", err)
	}
	return nil
}
