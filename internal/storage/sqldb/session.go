// Package sqldb implements storage.Session on top of database/sql. Backends
// supply a Dialect for quoting, placeholders, savepoints, and table creation.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"empmaster/internal/storage"
)

// Dialect captures the SQL differences between database/sql backends.
type Dialect struct {
	// Name prefixes error messages, e.g. "mssql".
	Name string
	// QuoteIdent quotes a single identifier segment.
	QuoteIdent func(id string) string
	// Placeholder renders the i-th (1-based) bind parameter.
	Placeholder func(i int) string
	// Savepoint, RollbackTo, and Release render savepoint statements.
	// Release may return "" when the database has no release statement.
	Savepoint  func(name string) string
	RollbackTo func(name string) string
	Release    func(name string) string
	// CreateTable renders DDL that creates the table when it is missing.
	CreateTable func(table string, cols []storage.Column) (string, error)
}

// QuoteFQN quotes each part of a possibly schema-qualified name.
func (d Dialect) QuoteFQN(name string) string { return QuoteFQN(d.QuoteIdent, name) }

// QuoteFQN quotes each part of name with quote.
func QuoteFQN(quote func(string) string, name string) string {
	parts := storage.SplitFQN(name)
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}

// InsertSQL renders a single-row INSERT for cols.
func (d Dialect) InsertSQL(table string, cols []storage.Column) string {
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = d.QuoteIdent(c.Name)
		marks[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteFQN(table), strings.Join(names, ", "), strings.Join(marks, ", "))
}

// CountSQL renders the row-count query.
func (d Dialect) CountSQL(table string) string {
	return "SELECT COUNT(*) FROM " + d.QuoteFQN(table)
}

const savepointName = "emp_row"

// Session is a storage.Session over one *sql.Conn and one *sql.Tx.
type Session struct {
	db        *sql.DB
	conn      *sql.Conn
	tx        *sql.Tx
	d         Dialect
	cols      []storage.Column
	insertSQL string
	countSQL  string
	done      bool
}

var _ storage.Session = (*Session)(nil)

// Open pins one connection from db, creates the table when requested, and
// begins the run's transaction. The Session owns db and closes it in Close.
func Open(ctx context.Context, db *sql.DB, d Dialect, cfg storage.Config) (*Session, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: connect: %w", d.Name, err)
	}
	fail := func(err error) (*Session, error) {
		_ = conn.Close()
		_ = db.Close()
		return nil, err
	}

	if cfg.AutoCreateTable {
		ddl, err := d.CreateTable(cfg.Table, cfg.Columns)
		if err != nil {
			return fail(fmt.Errorf("%s: render ddl: %w", d.Name, err))
		}
		if _, err := conn.ExecContext(ctx, ddl); err != nil {
			return fail(fmt.Errorf("%s: create table %s: %w", d.Name, cfg.Table, err))
		}
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("%s: begin tx: %w", d.Name, err))
	}
	return &Session{
		db:        db,
		conn:      conn,
		tx:        tx,
		d:         d,
		cols:      cfg.Columns,
		insertSQL: d.InsertSQL(cfg.Table, cfg.Columns),
		countSQL:  d.CountSQL(cfg.Table),
	}, nil
}

// RowCount returns the number of rows currently in the table.
func (s *Session) RowCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.tx.QueryRowContext(ctx, s.countSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count: %w", s.d.Name, err)
	}
	return n, nil
}

// InsertRow inserts one row under a savepoint so a rejected row leaves the
// transaction usable.
func (s *Session) InsertRow(ctx context.Context, row []any) error {
	args, err := storage.BindRow(s.cols, row)
	if err != nil {
		return err
	}
	if _, err := s.tx.ExecContext(ctx, s.d.Savepoint(savepointName)); err != nil {
		return fmt.Errorf("%s: savepoint: %w", s.d.Name, err)
	}
	if _, err := s.tx.ExecContext(ctx, s.insertSQL, args...); err != nil {
		if _, rerr := s.tx.ExecContext(ctx, s.d.RollbackTo(savepointName)); rerr != nil {
			return fmt.Errorf("%s: insert: %w (rollback to savepoint: %v)", s.d.Name, err, rerr)
		}
		if rel := s.d.Release(savepointName); rel != "" {
			_, _ = s.tx.ExecContext(ctx, rel)
		}
		return fmt.Errorf("%s: insert: %w", s.d.Name, err)
	}
	if rel := s.d.Release(savepointName); rel != "" {
		if _, err := s.tx.ExecContext(ctx, rel); err != nil {
			return fmt.Errorf("%s: release savepoint: %w", s.d.Name, err)
		}
	}
	return nil
}

// Commit commits the run's transaction.
func (s *Session) Commit(context.Context) error {
	s.done = true
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.d.Name, err)
	}
	return nil
}

// Close rolls back an uncommitted transaction and closes the connection.
func (s *Session) Close() error {
	if !s.done {
		_ = s.tx.Rollback()
		s.done = true
	}
	cerr := s.conn.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%s: close: %w", s.d.Name, err)
	}
	if cerr != nil {
		return fmt.Errorf("%s: close conn: %w", s.d.Name, cerr)
	}
	return nil
}

// ColumnDefs renders nullable "quoted-name TYPE" column definitions, using
// typeOf to map logical types to SQL types.
func ColumnDefs(quote func(string) string, cols []storage.Column, typeOf func(kind string) string) ([]string, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("ddl: at least one column is required")
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("ddl: column %d has an empty name", i)
		}
		out[i] = quote(name) + " " + typeOf(c.Type) + " NULL"
	}
	return out, nil
}
