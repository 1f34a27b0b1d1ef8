package health

import (
	"context"
	"database/sql"
	"time"
)

// DefaultTimeout bounds a store check when none is given.
const DefaultTimeout = 5 * time.Second

// Checkable is implemented by stores that can probe their connection.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// pooled is implemented by stores backed by a database/sql pool.
type pooled interface {
	DB() *sql.DB
}

// StoreChecker probes a store and reports its connection pool usage.
type StoreChecker struct {
	name    string
	store   Checkable
	timeout time.Duration
}

// NewStoreChecker creates a checker for store. A zero timeout means DefaultTimeout.
func NewStoreChecker(name string, store Checkable, timeout time.Duration) *StoreChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &StoreChecker{
		name:    name,
		store:   store,
		timeout: timeout,
	}
}

// Check probes the store. A reachable store whose pool has every connection
// in use is reported as degraded: cursor streams hold a connection each until
// they are closed.
func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := CheckResult{Name: c.name}
	if err := c.store.HealthCheck(checkCtx); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	} else {
		result.Status = StatusHealthy
		result.Message = "OK"
	}

	if p, ok := c.store.(pooled); ok && p.DB() != nil {
		stats := p.DB().Stats()
		result.Metadata = map[string]any{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
			"max_open":         stats.MaxOpenConnections,
		}
		if result.Status == StatusHealthy && stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
			result.Status = StatusDegraded
			result.Message = "connection pool exhausted"
		}
	}

	result.Timestamp = time.Now()
	result.Duration = time.Since(start)
	return result
}

// Name returns the name of the health check
func (c *StoreChecker) Name() string {
	return c.name
}
