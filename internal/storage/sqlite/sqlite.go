// Package sqlite registers the "sqlite" storage backend using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"empmaster/internal/storage"
	"empmaster/internal/storage/sqldb"

	_ "modernc.org/sqlite"
)

func init() {
	storage.Register("sqlite", Open)
}

// Dialect is the SQLite flavour of sqldb.Dialect.
var Dialect = sqldb.Dialect{
	Name:        "sqlite",
	QuoteIdent:  quoteIdent,
	Placeholder: func(int) string { return "?" },
	Savepoint:   func(n string) string { return "SAVEPOINT " + n },
	RollbackTo:  func(n string) string { return "ROLLBACK TO SAVEPOINT " + n },
	Release:     func(n string) string { return "RELEASE SAVEPOINT " + n },
	CreateTable: createTable,
}

// Open opens a SQLite session. The DSN is passed to the driver unchanged,
// e.g. "file:emp.db?_pragma=busy_timeout(5000)" or ":memory:".
func Open(ctx context.Context, cfg storage.Config) (storage.Session, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	s, err := sqldb.Open(ctx, db, Dialect, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// MapType maps a logical column type to a SQLite type affinity.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case storage.TypeInt:
		return "INTEGER"
	default:
		// Dates are ISO-8601 text, which sorts and compares as a date.
		return "TEXT"
	}
}

func createTable(table string, cols []storage.Column) (string, error) {
	if len(storage.SplitFQN(table)) == 0 {
		return "", fmt.Errorf("sqlite ddl: table name must not be empty")
	}
	defs, err := sqldb.ColumnDefs(quoteIdent, cols, MapType)
	if err != nil {
		return "", fmt.Errorf("sqlite %w", err)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		sqldb.QuoteFQN(quoteIdent, table), strings.Join(defs, ",\n  ")), nil
}
