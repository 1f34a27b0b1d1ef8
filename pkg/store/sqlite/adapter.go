// Package sqlite opens SQLite databases through the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nimburion/asyncrepo/pkg/observability/logger"
	"github.com/nimburion/asyncrepo/pkg/repository"
	"github.com/nimburion/asyncrepo/pkg/store/sqldb"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// NewSQLiteAdapter opens a SQLite database. In-memory databases are pinned to a
// single connection, since every connection would otherwise see its own database.
func NewSQLiteAdapter(cfg sqldb.Config, log logger.Logger) (*sqldb.Adapter, error) {
	dsn := DSN(cfg.URL)
	if IsMemory(dsn) {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
		cfg.ConnMaxIdleTime = 0
	}
	return sqldb.Open(DriverName, dsn, repository.DialectSQLite, "SQLite", cfg, log)
}

// DSN strips a sqlite:// prefix and enables foreign keys and a busy timeout
// unless the caller already set pragmas.
func DSN(raw string) string {
	dsn := strings.TrimPrefix(strings.TrimSpace(raw), "sqlite://")
	if dsn == "" || strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// IsMemory reports whether dsn names an in-memory database.
func IsMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
