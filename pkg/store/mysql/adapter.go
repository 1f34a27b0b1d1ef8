// Package mysql opens MySQL pools through go-sql-driver/mysql.
package mysql

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/nimburion/asyncrepo/pkg/observability/logger"
	"github.com/nimburion/asyncrepo/pkg/repository"
	"github.com/nimburion/asyncrepo/pkg/store/sqldb"
)

// DriverName is the database/sql driver registered by go-sql-driver/mysql.
const DriverName = "mysql"

// NewMySQLAdapter opens and pings a MySQL pool.
func NewMySQLAdapter(cfg sqldb.Config, log logger.Logger) (*sqldb.Adapter, error) {
	dsn, err := DSN(cfg.URL)
	if err != nil {
		return nil, err
	}
	return sqldb.Open(DriverName, dsn, repository.DialectMySQL, "MySQL", cfg, log)
}

// DSN normalizes a MySQL DSN. A mysql:// prefix is dropped and temporal
// columns are always decoded into time.Time.
func DSN(raw string) (string, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "mysql://")
	if raw == "" {
		return "", fmt.Errorf("database URL is required")
	}
	cfg, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
