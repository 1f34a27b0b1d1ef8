package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nimburion/asyncrepo/pkg/config"
	"github.com/nimburion/asyncrepo/pkg/observability/logger"
	"github.com/nimburion/asyncrepo/pkg/observability/metrics"
	"github.com/nimburion/asyncrepo/pkg/observability/tracing"
	"github.com/nimburion/asyncrepo/pkg/reactive"
	"github.com/nimburion/asyncrepo/pkg/repository"
	"github.com/nimburion/asyncrepo/pkg/store"
	"github.com/nimburion/asyncrepo/pkg/store/sqldb"
	"github.com/nimburion/asyncrepo/pkg/version"
)

// runtime holds what one command invocation opens and must release.
type runtime struct {
	cfg     *config.Config
	log     logger.Logger
	adapter *sqldb.Adapter
	tracer  *tracing.TracerProvider
	metrics *metrics.Registry

	metricsFile string
}

// metricsFileFlag is the persistent flag naming the metrics export file.
const metricsFileFlag = "metrics-file"

// openRuntime opens the store and the observability providers for cmd.
// Metrics are collected when enabled in config or when --metrics-file is set.
func openRuntime(cmd *cobra.Command, cfg *config.Config, log logger.Logger) (*runtime, error) {
	ctx := cmd.Context()
	metricsFile, _ := cmd.Flags().GetString(metricsFileFlag)
	rt := &runtime{cfg: cfg, log: log, metricsFile: metricsFile}

	tp, err := tracing.NewTracerProvider(ctx, tracing.TracerConfig{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: version.Current(cfg.Service.Name).Version,
		Environment:    cfg.Service.Environment,
		Endpoint:       cfg.Observability.TracingEndpoint,
		SampleRate:     cfg.Observability.TracingSampleRate,
		Enabled:        cfg.Observability.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("create tracer provider: %w", err)
	}
	rt.tracer = tp

	if cfg.Observability.MetricsEnabled || metricsFile != "" {
		rt.metrics = metrics.NewRegistry()
	}

	adapter, err := store.NewSQLAdapter(cfg.Database, log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	rt.adapter = adapter
	return rt, nil
}

// service builds a Row service over table keyed on idColumn.
func (rt *runtime) service(table, idColumn string) *reactive.Service[repository.Row, any] {
	mapper := repository.NewSQLMapper[repository.Row, any](
		rt.adapter,
		rt.adapter.Dialect(),
		table,
		idColumn,
		repository.NewRowMapper(idColumn),
	)

	var m *metrics.RepositoryMetrics
	if rt.metrics != nil {
		m = rt.metrics.Repository()
	}
	return reactive.NewService[repository.Row, any](mapper, rt.adapter, reactive.ConfigFromRepository(rt.cfg.Repository), rt.log, m)
}

// Close releases the store and flushes traces. With a metrics file configured
// the gathered families are written there in the Prometheus text format.
func (rt *runtime) Close(ctx context.Context) {
	if rt.metrics != nil && rt.metricsFile != "" {
		if err := rt.metrics.WriteToFile(rt.metricsFile); err != nil {
			rt.log.Warn("failed to write metrics file", "path", rt.metricsFile, "error", err)
		} else {
			rt.log.Debug("metrics written", "path", rt.metricsFile)
		}
	}
	if rt.adapter != nil {
		_ = rt.adapter.Close()
	}
	if rt.tracer != nil {
		if err := rt.tracer.Shutdown(ctx); err != nil {
			rt.log.Warn("failed to shut down tracer provider", "error", err)
		}
	}
}
