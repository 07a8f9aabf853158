// Package mysql registers the "mysql" storage backend using
// github.com/go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"empmaster/internal/storage"
	"empmaster/internal/storage/sqldb"

	driver "github.com/go-sql-driver/mysql"
)

func init() {
	storage.Register("mysql", Open)
}

// Dialect is the MySQL flavour of sqldb.Dialect.
var Dialect = sqldb.Dialect{
	Name:        "mysql",
	QuoteIdent:  quoteIdent,
	Placeholder: func(int) string { return "?" },
	Savepoint:   func(n string) string { return "SAVEPOINT " + n },
	RollbackTo:  func(n string) string { return "ROLLBACK TO SAVEPOINT " + n },
	Release:     func(n string) string { return "RELEASE SAVEPOINT " + n },
	CreateTable: createTable,
}

// Open connects with a go-sql-driver DSN such as
// "user:pass@tcp(host:3306)/hr?charset=utf8mb4".
func Open(ctx context.Context, cfg storage.Config) (storage.Session, error) {
	dc, err := driver.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	dc.ParseTime = true

	connector, err := driver.NewConnector(dc)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	s, err := sqldb.Open(ctx, db, Dialect, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// MapType maps a logical column type to a MySQL column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case storage.TypeInt:
		return "INT"
	case storage.TypeDate:
		return "DATE"
	default:
		return "VARCHAR(255)"
	}
}

func createTable(table string, cols []storage.Column) (string, error) {
	if len(storage.SplitFQN(table)) == 0 {
		return "", fmt.Errorf("mysql ddl: table name must not be empty")
	}
	defs, err := sqldb.ColumnDefs(quoteIdent, cols, MapType)
	if err != nil {
		return "", fmt.Errorf("mysql %w", err)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n) DEFAULT CHARSET=utf8mb4",
		sqldb.QuoteFQN(quoteIdent, table), strings.Join(defs, ",\n  ")), nil
}
