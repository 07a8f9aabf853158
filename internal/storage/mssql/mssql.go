// Package mssql registers the "mssql" storage backend using go-mssqldb.
//
// Rows are written one INSERT at a time inside a single transaction, each
// under a SAVE TRANSACTION point so that a rejected row can be rolled back
// without dooming the rest of the run.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"empmaster/internal/storage"
	"empmaster/internal/storage/sqldb"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

func init() {
	storage.Register("mssql", Open)
}

// Dialect is the SQL Server flavour of sqldb.Dialect.
var Dialect = sqldb.Dialect{
	Name:        "mssql",
	QuoteIdent:  msIdent,
	Placeholder: func(i int) string { return "@p" + strconv.Itoa(i) },
	Savepoint:   func(n string) string { return "SAVE TRANSACTION " + n },
	RollbackTo:  func(n string) string { return "ROLLBACK TRANSACTION " + n },
	Release:     func(string) string { return "" },
	CreateTable: BuildCreateTableSQL,
}

// Open validates the DSN, connects, and begins the run's transaction.
func Open(ctx context.Context, cfg storage.Config) (storage.Session, error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql: sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	s, err := sqldb.Open(ctx, db, Dialect, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// msIdent quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// MapType maps a logical column type into a SQL Server column type.
// Unknown or empty kinds fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case storage.TypeInt:
		return "INT"
	case storage.TypeDate:
		return "DATE"
	default:
		return "NVARCHAR(MAX)"
	}
}

// BuildCreateTableSQL returns a T-SQL script that creates the table if it
// does not already exist:
//
//	IF OBJECT_ID(N'[dbo].[emp_master]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [dbo].[emp_master] (
//	    [UserID] NVARCHAR(MAX) NULL,
//	    ...
//	  );
//	END;
func BuildCreateTableSQL(table string, cols []storage.Column) (string, error) {
	if len(storage.SplitFQN(table)) == 0 {
		return "", fmt.Errorf("mssql ddl: table FQN must not be empty")
	}
	defs, err := sqldb.ColumnDefs(msIdent, cols, MapType)
	if err != nil {
		return "", fmt.Errorf("mssql %w", err)
	}
	fqn := sqldb.QuoteFQN(msIdent, table)
	// OBJECT_ID takes the name as a string literal.
	lit := strings.ReplaceAll(fqn, "'", "''")
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
		lit, fqn, strings.Join(defs, ",\n    "),
	), nil
}
