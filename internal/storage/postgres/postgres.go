// Package postgres registers the "postgres" storage backend using pgx v5.
//
// A session acquires one pooled connection and holds one transaction; each
// row is inserted inside a nested pgx transaction, which pgx implements as a
// SAVEPOINT, so a failed row does not abort the outer transaction.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"empmaster/internal/storage"
	"empmaster/internal/storage/sqldb"
)

func init() {
	storage.Register("postgres", Open)
}

// Session is a storage.Session over a pgx transaction.
type Session struct {
	pool      *pgxpool.Pool
	conn      *pgxpool.Conn
	tx        pgx.Tx
	cols      []storage.Column
	insertSQL string
	countSQL  string
	done      bool
}

var _ storage.Session = (*Session)(nil)

// Open connects with a libpq-style DSN or URL and begins the transaction.
func Open(ctx context.Context, cfg storage.Config) (storage.Session, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: acquire: %w", err)
	}
	fail := func(err error) (storage.Session, error) {
		conn.Release()
		pool.Close()
		return nil, err
	}

	if cfg.AutoCreateTable {
		ddl, err := BuildCreateTableSQL(cfg.Table, cfg.Columns)
		if err != nil {
			return fail(err)
		}
		if _, err := conn.Exec(ctx, ddl); err != nil {
			return fail(fmt.Errorf("postgres: create table %s: %w", cfg.Table, err))
		}
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fail(fmt.Errorf("postgres: begin tx: %w", err))
	}
	return &Session{
		pool:      pool,
		conn:      conn,
		tx:        tx,
		cols:      cfg.Columns,
		insertSQL: InsertSQL(cfg.Table, cfg.Columns),
		countSQL:  "SELECT COUNT(*) FROM " + pgFQN(cfg.Table),
	}, nil
}

func (s *Session) RowCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.tx.QueryRow(ctx, s.countSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (s *Session) InsertRow(ctx context.Context, row []any) error {
	args, err := storage.BindRow(s.cols, row)
	if err != nil {
		return err
	}
	sp, err := s.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: savepoint: %w", err)
	}
	if _, err := sp.Exec(ctx, s.insertSQL, args...); err != nil {
		_ = sp.Rollback(ctx)
		return fmt.Errorf("postgres: insert: %w", err)
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: release savepoint: %w", err)
	}
	return nil
}

func (s *Session) Commit(ctx context.Context) error {
	s.done = true
	if err := s.tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (s *Session) Close() error {
	if !s.done {
		_ = s.tx.Rollback(context.Background())
		s.done = true
	}
	s.conn.Release()
	s.pool.Close()
	return nil
}

// pgFQN quotes a possibly schema-qualified name like "public.emp_master".
func pgFQN(name string) string {
	return pgx.Identifier(storage.SplitFQN(name)).Sanitize()
}

func pgIdent(id string) string { return pgx.Identifier{id}.Sanitize() }

// InsertSQL renders a single-row INSERT with $n placeholders.
func InsertSQL(table string, cols []storage.Column) string {
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = pgIdent(c.Name)
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgFQN(table), strings.Join(names, ", "), strings.Join(marks, ", "))
}

// MapType maps a logical column type to a Postgres column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case storage.TypeInt:
		return "INTEGER"
	case storage.TypeDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL renders CREATE TABLE IF NOT EXISTS for cols.
func BuildCreateTableSQL(table string, cols []storage.Column) (string, error) {
	if len(storage.SplitFQN(table)) == 0 {
		return "", fmt.Errorf("postgres ddl: table FQN must not be empty")
	}
	defs, err := sqldb.ColumnDefs(pgIdent, cols, MapType)
	if err != nil {
		return "", fmt.Errorf("postgres %w", err)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		pgFQN(table), strings.Join(defs, ",\n  ")), nil
}
