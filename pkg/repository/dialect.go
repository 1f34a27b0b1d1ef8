package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects placeholder and bounds syntax for the SQL mapper.
type Dialect int

// Supported dialects
const (
	DialectPostgres Dialect = iota
	DialectMySQL
	DialectSQLite
)

// ParseDialect maps a database type name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return 0, fmt.Errorf("unsupported dialect %q", name)
	}
}

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// Placeholder returns the bind marker for the n-th argument, 1-based.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (d Dialect) boundsClause(rows, offset *int64) string {
	var b strings.Builder
	switch {
	case rows != nil:
		fmt.Fprintf(&b, " LIMIT %d", *rows)
	case offset != nil && d == DialectMySQL:
		b.WriteString(" LIMIT 18446744073709551615")
	case offset != nil && d == DialectSQLite:
		b.WriteString(" LIMIT -1")
	}
	if offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *offset)
	}
	return b.String()
}
