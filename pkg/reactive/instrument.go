package reactive

import (
	"context"
	"time"

	"github.com/nimburion/asyncrepo/pkg/observability/logger"
	"github.com/nimburion/asyncrepo/pkg/observability/metrics"
	"github.com/nimburion/asyncrepo/pkg/observability/tracing"
)

// instrumentation carries the logger, metrics and span attributes shared by
// every operation of a Service.
type instrumentation struct {
	log     logger.Logger
	metrics *metrics.RepositoryMetrics
	table   string
	system  string
}

func newInstrumentation(log logger.Logger, m *metrics.RepositoryMetrics, table, system string) instrumentation {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return instrumentation{log: log, metrics: m, table: table, system: system}
}

func (in instrumentation) spanOptions(operation string, extra ...tracing.DatabaseSpanOption) []tracing.DatabaseSpanOption {
	opts := []tracing.DatabaseSpanOption{tracing.WithRepositoryOperation(operation)}
	if in.table != "" {
		opts = append(opts, tracing.WithDBTable(in.table))
	}
	if in.system != "" {
		opts = append(opts, tracing.WithDBSystem(in.system))
	}
	return append(opts, extra...)
}

// observe runs one blocking call inside a span and records its duration and outcome.
func observe[T any](
	ctx context.Context,
	in instrumentation,
	operation string,
	span tracing.SpanOperation,
	fn func(ctx context.Context) (T, bool, error),
) (T, bool, error) {
	start := time.Now()
	ctx, s := tracing.StartDatabaseSpan(ctx, span, in.spanOptions(operation)...)
	v, ok, err := fn(ctx)
	tracing.End(s, err)
	in.metrics.ObserveOperation(operation, outcome(ok, err), time.Since(start))
	if err != nil {
		in.log.WithContext(ctx).Error("repository operation failed", "operation", operation, "error", err)
	}
	return v, ok, err
}

func outcome(ok bool, err error) string {
	switch {
	case err != nil:
		return metrics.OutcomeError
	case !ok:
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeSuccess
	}
}

// instrumentedMono wraps a blocking call returning a value.
func instrumentedMono[T any](in instrumentation, operation string, span tracing.SpanOperation, fn func(ctx context.Context) (T, error)) Mono[T] {
	return Mono[T]{supply: func(ctx context.Context) (T, bool, error) {
		return observe(ctx, in, operation, span, func(ctx context.Context) (T, bool, error) {
			v, err := fn(ctx)
			return v, err == nil, err
		})
	}}
}

// instrumentedOptional wraps a blocking lookup that may find nothing.
func instrumentedOptional[T any](in instrumentation, operation string, span tracing.SpanOperation, fn func(ctx context.Context) (*T, error)) Mono[T] {
	return Mono[T]{supply: func(ctx context.Context) (T, bool, error) {
		return observe(ctx, in, operation, span, func(ctx context.Context) (T, bool, error) {
			var zero T
			v, err := fn(ctx)
			if err != nil || v == nil {
				return zero, false, err
			}
			return *v, true, nil
		})
	}}
}
