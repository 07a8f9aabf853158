// Package loader appends canonical rows to a sink, resuming after the rows
// the sink already holds.
//
// A run reads the sink's row count once and treats it as the resume offset:
// rows are assumed append-only and in the same order every run, so rows
// [0, offset) are already stored and only [offset, total) are inserted.
// Inserts are attempted one row at a time. A failed row is handed to a
// FallbackPolicy; whatever happens to that row, the run continues. A single
// Commit is issued once every row has been attempted.
//
// Logging: a warning per failed row, an error per skipped row, and a
// progress line every N successful inserts (10 by default).
package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Sink is the store capability the loader needs. All calls happen inside one
// connection/transaction scope owned by the caller.
type Sink interface {
	RowCount(ctx context.Context) (int64, error)
	InsertRow(ctx context.Context, row []any) error
	Commit(ctx context.Context) error
}

var (
	// ErrCount wraps a failure to read the resume offset.
	ErrCount = errors.New("loader: row count failed")
	// ErrCommit wraps a failure of the final commit.
	ErrCommit = errors.New("loader: commit failed")
)

// State is a step of a load run.
type State int

const (
	StateInit State = iota
	StateCounting
	StateInserting
	StateCommitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateCounting:
		return "counting"
	case StateInserting:
		return "inserting"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Result summarises a run. Offsets are positions in the input row slice.
type Result struct {
	State     State
	Offset    int64
	Total     int
	Inserted  int64
	Fallbacks []int64
	Skipped   []int64
}

// Attempted is the number of input rows the run tried to store.
func (r Result) Attempted() int64 {
	if int64(r.Total) <= r.Offset {
		return 0
	}
	return int64(r.Total) - r.Offset
}

const defaultProgressEvery = 10

// Reject describes a row whose values could not be stored as given.
type Reject struct {
	Offset int64
	Row    []any
	// Err is the error of the first insert attempt.
	Err error
	// Stored reports whether the fallback policy stored a replacement row.
	Stored bool
}

// Loader runs incremental loads with a fixed fallback policy.
type Loader struct {
	policy        FallbackPolicy
	progressEvery int64
	logf          func(format string, args ...any)
	onReject      func(Reject)
}

// Option configures a Loader.
type Option func(*Loader)

// WithPolicy sets the policy used for rows whose insert fails.
func WithPolicy(p FallbackPolicy) Option {
	return func(l *Loader) {
		if p != nil {
			l.policy = p
		}
	}
}

// WithProgressEvery sets the progress cadence in successful inserts.
func WithProgressEvery(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.progressEvery = int64(n)
		}
	}
}

// WithLogf redirects log output, mainly for tests.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(l *Loader) {
		if logf != nil {
			l.logf = logf
		}
	}
}

// WithRejectHook calls fn for every row that needed the fallback policy.
func WithRejectHook(fn func(Reject)) Option {
	return func(l *Loader) { l.onReject = fn }
}

// New returns a Loader using NullRowFallback unless configured otherwise.
func New(opts ...Option) *Loader {
	l := &Loader{
		policy:        NullRowFallback{},
		progressEvery: defaultProgressEvery,
		logf:          log.Printf,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load stores rows[offset:] into s, where offset is s's current row count.
//
// Only a failed count, a canceled context, or a failed commit return an
// error; in those cases nothing is committed and Result.State is
// StateFailed. Per-row failures are recorded in the Result.
func (l *Loader) Load(ctx context.Context, s Sink, rows [][]any) (Result, error) {
	res := Result{State: StateCounting, Total: len(rows)}

	offset, err := s.RowCount(ctx)
	if err != nil {
		res.State = StateFailed
		return res, fmt.Errorf("%w: %v", ErrCount, err)
	}
	res.Offset = offset
	l.logf("loader: existing_rows=%d input_rows=%d policy=%s", offset, len(rows), l.policy.Name())
	if offset > int64(len(rows)) {
		l.logf("loader: sink holds more rows (%d) than the input (%d); nothing to insert", offset, len(rows))
	}

	res.State = StateInserting
	for i := offset; i < int64(len(rows)); i++ {
		if err := ctx.Err(); err != nil {
			res.State = StateFailed
			return res, fmt.Errorf("loader: aborted at row %d: %w", i, err)
		}

		row := rows[i]
		ierr := s.InsertRow(ctx, row)
		if ierr == nil {
			res.Inserted++
			l.progress(res.Inserted)
			continue
		}

		l.logf("loader: row %d insert failed, applying %s fallback: %v", i, l.policy.Name(), ierr)
		stored, ferr := l.policy.Recover(ctx, s, row)
		if l.onReject != nil {
			l.onReject(Reject{Offset: i, Row: row, Err: ierr, Stored: stored})
		}
		if stored {
			res.Inserted++
			res.Fallbacks = append(res.Fallbacks, i)
			l.progress(res.Inserted)
			continue
		}
		res.Skipped = append(res.Skipped, i)
		if ferr != nil {
			l.logf("loader: row %d skipped, fallback failed: %v | row=%v", i, ferr, row)
		} else {
			l.logf("loader: row %d skipped | row=%v", i, row)
		}
	}

	if err := s.Commit(ctx); err != nil {
		res.State = StateFailed
		return res, fmt.Errorf("%w: %v", ErrCommit, err)
	}
	res.State = StateCommitted
	l.logf("loader: committed inserted=%d fallbacks=%d skipped=%d", res.Inserted, len(res.Fallbacks), len(res.Skipped))
	return res, nil
}

func (l *Loader) progress(inserted int64) {
	if inserted%l.progressEvery == 0 {
		l.logf("loader: inserted %d rows so far", inserted)
	}
}
