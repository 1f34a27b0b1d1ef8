// Package postgres opens PostgreSQL pools through lib/pq.
package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/nimburion/asyncrepo/pkg/observability/logger"
	"github.com/nimburion/asyncrepo/pkg/repository"
	"github.com/nimburion/asyncrepo/pkg/store/sqldb"
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

// NewPostgreSQLAdapter opens and pings a PostgreSQL pool.
func NewPostgreSQLAdapter(cfg sqldb.Config, log logger.Logger) (*sqldb.Adapter, error) {
	dsn, err := DSN(cfg.URL)
	if err != nil {
		return nil, err
	}
	return sqldb.Open(DriverName, dsn, repository.DialectPostgres, "PostgreSQL", cfg, log)
}

// DSN accepts either a postgres:// URL or a key=value connection string and
// returns the key=value form understood by the driver.
func DSN(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("database URL is required")
	}
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		dsn, err := pq.ParseURL(raw)
		if err != nil {
			return "", fmt.Errorf("invalid PostgreSQL URL: %w", err)
		}
		return dsn, nil
	}
	return raw, nil
}
