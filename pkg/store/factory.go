package store

import (
	"fmt"
	"strings"

	"github.com/nimburion/asyncrepo/pkg/config"
	"github.com/nimburion/asyncrepo/pkg/observability/logger"
	"github.com/nimburion/asyncrepo/pkg/store/mysql"
	"github.com/nimburion/asyncrepo/pkg/store/postgres"
	"github.com/nimburion/asyncrepo/pkg/store/sqldb"
	"github.com/nimburion/asyncrepo/pkg/store/sqlite"
)

// NewSQLAdapter selects and opens the SQL adapter named by cfg.Type.
// It does not fall back between providers.
//
//	adp, err := store.NewSQLAdapter(cfg.Database, log)
func NewSQLAdapter(cfg config.DatabaseConfig, log logger.Logger) (*sqldb.Adapter, error) {
	pool := PoolConfig(cfg)
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case config.DatabaseTypePostgres:
		return postgres.NewPostgreSQLAdapter(pool, log)
	case config.DatabaseTypeMySQL:
		return mysql.NewMySQLAdapter(pool, log)
	case config.DatabaseTypeSQLite:
		return sqlite.NewSQLiteAdapter(pool, log)
	default:
		return nil, fmt.Errorf("unsupported database.type %q (supported: postgres, mysql, sqlite)", cfg.Type)
	}
}

// PoolConfig maps the database section of the configuration onto the adapter config.
func PoolConfig(cfg config.DatabaseConfig) sqldb.Config {
	return sqldb.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		QueryTimeout:    cfg.QueryTimeout,
		ConnectTimeout:  cfg.ConnectTimeout,
	}
}

var _ Adapter = (*sqldb.Adapter)(nil)
