// Package storage defines the backend-agnostic sink used by the loader and a
// registry of backends keyed by storage kind.
//
// Backends register a Factory from their init functions; importing
// empmaster/internal/storage/all enables every built-in backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Logical column types understood by every backend.
const (
	TypeText = "text"
	TypeInt  = "int"
	TypeDate = "date"
)

// Column is one destination column in table order.
type Column struct {
	Name string
	Type string
}

// Config describes the destination of a run.
type Config struct {
	Kind    string
	DSN     string
	Table   string
	Columns []Column
	// AutoCreateTable creates Table from Columns when it does not exist.
	AutoCreateTable bool
}

// Session is one connection holding one open transaction. RowCount reads
// through the transaction; nothing is visible to other readers until Commit.
// Close releases the connection and rolls back when Commit was not reached.
type Session interface {
	RowCount(ctx context.Context) (int64, error)
	InsertRow(ctx context.Context, row []any) error
	Commit(ctx context.Context) error
	Close() error
}

// Factory opens a Session for cfg.
type Factory func(ctx context.Context, cfg Config) (Session, error)

// ErrUnknownKind is returned by Open when no backend is registered for a kind.
var ErrUnknownKind = errors.New("storage: unknown kind")

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds or replaces the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(kind)] = f
}

// Kinds lists registered storage kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open validates cfg and opens a Session with the backend registered for
// cfg.Kind.
func Open(ctx context.Context, cfg Config) (Session, error) {
	mu.RLock()
	f, ok := factories[strings.ToLower(cfg.Kind)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnknownKind, cfg.Kind, strings.Join(Kinds(), ", "))
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("storage: %s: table must not be empty", cfg.Kind)
	}
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("storage: %s: at least one column is required", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// BindRow checks row arity against cols and converts values bound for text
// columns to strings so every driver sees the same parameter types.
func BindRow(cols []Column, row []any) ([]any, error) {
	if len(row) != len(cols) {
		return nil, fmt.Errorf("storage: row has %d values, table has %d columns", len(row), len(cols))
	}
	out := make([]any, len(row))
	for i, v := range row {
		if v == nil || cols[i].Type != TypeText {
			out[i] = v
			continue
		}
		out[i] = textValue(v)
	}
	return out, nil
}

func textValue(v any) any {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case decimal.Decimal:
		return x.String()
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	}
	return fmt.Sprint(v)
}

// SplitFQN splits a possibly schema-qualified name such as "dbo.emp_master"
// into its non-empty, trimmed parts.
func SplitFQN(name string) []string {
	parts := strings.Split(name, ".")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
