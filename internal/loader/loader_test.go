package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// memSink is an in-memory Sink. Rows become visible to RowCount only after
// Commit, like a table written inside one transaction.
type memSink struct {
	mu        sync.Mutex
	committed [][]any
	pending   [][]any
	commits   int

	failCount  error
	failCommit error
	// reject decides whether an insert fails.
	reject func(row []any) bool
}

func (m *memSink) RowCount(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCount != nil {
		return 0, m.failCount
	}
	return int64(len(m.committed)), nil
}

func (m *memSink) InsertRow(_ context.Context, row []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reject != nil && m.reject(row) {
		return errors.New("constraint violation")
	}
	cp := append([]any(nil), row...)
	m.pending = append(m.pending, cp)
	return nil
}

func (m *memSink) Commit(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits++
	if m.failCommit != nil {
		m.pending = nil
		return m.failCommit
	}
	m.committed = append(m.committed, m.pending...)
	m.pending = nil
	return nil
}

func inputRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("E%d", i), int64(i)}
	}
	return rows
}

type logCapture struct {
	mu    sync.Mutex
	lines []string
}

func (c *logCapture) logf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func (c *logCapture) count(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

func quiet() Option { return WithLogf(func(string, ...any) {}) }

func TestLoad_FreshSinkInsertsEverything(t *testing.T) {
	t.Parallel()

	sink := &memSink{}
	res, err := New(quiet()).Load(context.Background(), sink, inputRows(25))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.State != StateCommitted || res.Offset != 0 || res.Inserted != 25 {
		t.Fatalf("result = %+v", res)
	}
	if len(sink.committed) != 25 || sink.commits != 1 {
		t.Fatalf("committed=%d commits=%d", len(sink.committed), sink.commits)
	}
	if sink.committed[24][0] != "E24" {
		t.Fatalf("last row = %v", sink.committed[24])
	}
}

func TestLoad_ResumesAfterExistingRows(t *testing.T) {
	t.Parallel()

	rows := inputRows(12)
	sink := &memSink{committed: append([][]any(nil), rows[:5]...)}

	res, err := New(quiet()).Load(context.Background(), sink, rows)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Offset != 5 || res.Inserted != 7 || res.Attempted() != 7 {
		t.Fatalf("result = %+v", res)
	}
	for i, row := range sink.committed {
		if row[0] != rows[i][0] {
			t.Fatalf("row %d = %v, want %v", i, row, rows[i])
		}
	}
}

func TestLoad_SecondRunIsNoop(t *testing.T) {
	t.Parallel()

	rows := inputRows(8)
	sink := &memSink{}
	l := New(quiet())
	if _, err := l.Load(context.Background(), sink, rows); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	res, err := l.Load(context.Background(), sink, rows)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if res.Inserted != 0 || res.Offset != 8 {
		t.Fatalf("second result = %+v", res)
	}
	if len(sink.committed) != 8 || sink.commits != 2 {
		t.Fatalf("committed=%d commits=%d", len(sink.committed), sink.commits)
	}
}

func TestLoad_SinkAheadOfInput(t *testing.T) {
	t.Parallel()

	logs := &logCapture{}
	sink := &memSink{committed: inputRows(10)}
	res, err := New(WithLogf(logs.logf)).Load(context.Background(), sink, inputRows(4))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Inserted != 0 || res.Attempted() != 0 || res.State != StateCommitted {
		t.Fatalf("result = %+v", res)
	}
	if sink.commits != 1 {
		t.Fatalf("commits = %d, want 1", sink.commits)
	}
	if logs.count("more rows") != 1 {
		t.Fatalf("missing warning, log = %v", logs.lines)
	}
}

func TestLoad_NullRowFallbackKeepsAlignment(t *testing.T) {
	t.Parallel()

	rows := inputRows(6)
	sink := &memSink{reject: func(row []any) bool { return row[0] == "E3" }}

	res, err := New(quiet()).Load(context.Background(), sink, rows)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Inserted != 6 || len(res.Fallbacks) != 1 || res.Fallbacks[0] != 3 || len(res.Skipped) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(sink.committed) != len(rows) {
		t.Fatalf("committed = %d, want %d", len(sink.committed), len(rows))
	}
	placeholder := sink.committed[3]
	if len(placeholder) != len(rows[3]) {
		t.Fatalf("placeholder arity = %d, want %d", len(placeholder), len(rows[3]))
	}
	for i, v := range placeholder {
		if v != nil {
			t.Fatalf("placeholder[%d] = %v, want nil", i, v)
		}
	}
	if sink.committed[4][0] != "E4" {
		t.Fatalf("row after fallback = %v", sink.committed[4])
	}

	// A rerun over the same input sees an aligned count and inserts nothing.
	res, err = New(quiet()).Load(context.Background(), sink, rows)
	if err != nil || res.Inserted != 0 {
		t.Fatalf("rerun result = %+v, err = %v", res, err)
	}
}

func TestLoad_FallbackAlsoFailsSkipsRow(t *testing.T) {
	t.Parallel()

	logs := &logCapture{}
	// Rejects E2 and every all-null placeholder.
	sink := &memSink{reject: func(row []any) bool { return row[0] == "E2" || row[0] == nil }}

	res, err := New(WithLogf(logs.logf)).Load(context.Background(), sink, inputRows(4))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Inserted != 3 || len(res.Skipped) != 1 || res.Skipped[0] != 2 || len(res.Fallbacks) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if logs.count("skipped, fallback failed") != 1 {
		t.Fatalf("log = %v", logs.lines)
	}
	if len(sink.committed) != 3 {
		t.Fatalf("committed = %d, want 3", len(sink.committed))
	}
}

func TestLoad_RejectHookSeesEveryFallbackRow(t *testing.T) {
	t.Parallel()

	sink := &memSink{reject: func(row []any) bool { return row[0] == "E1" || row[0] == "E3" }}
	var got []Reject
	hook := WithRejectHook(func(r Reject) { got = append(got, r) })

	res, err := New(quiet(), hook, WithPolicy(SkipFallback{})).Load(context.Background(), sink, inputRows(5))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Skipped) != 2 || len(got) != 2 {
		t.Fatalf("skipped = %v, rejects = %+v", res.Skipped, got)
	}
	for i, want := range []int64{1, 3} {
		if got[i].Offset != want || got[i].Stored || got[i].Err == nil || got[i].Row[0] != fmt.Sprintf("E%d", want) {
			t.Fatalf("reject[%d] = %+v", i, got[i])
		}
	}
}

func TestLoad_SkipPolicyDivergenceIsBoundedBySkips(t *testing.T) {
	t.Parallel()

	rows := inputRows(10)
	sink := &memSink{reject: func(row []any) bool { return row[0] == "E1" || row[0] == "E7" }}
	l := New(quiet(), WithPolicy(SkipFallback{}))

	res, err := l.Load(context.Background(), sink, rows)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Skipped) != 2 || res.Inserted != 8 {
		t.Fatalf("result = %+v", res)
	}

	// The stored count lags the input by the number of skipped rows, so the
	// next run re-attempts exactly that many trailing rows.
	sink.reject = nil
	res, err = l.Load(context.Background(), sink, rows)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if res.Offset != 8 || res.Attempted() != 2 {
		t.Fatalf("rerun result = %+v", res)
	}
}

func TestLoad_CountFailureCommitsNothing(t *testing.T) {
	t.Parallel()

	sink := &memSink{failCount: errors.New("login failed")}
	res, err := New(quiet()).Load(context.Background(), sink, inputRows(3))
	if !errors.Is(err, ErrCount) {
		t.Fatalf("err = %v, want ErrCount", err)
	}
	if res.State != StateFailed || sink.commits != 0 || len(sink.pending) != 0 {
		t.Fatalf("result = %+v commits=%d pending=%d", res, sink.commits, len(sink.pending))
	}
}

func TestLoad_CommitFailure(t *testing.T) {
	t.Parallel()

	sink := &memSink{failCommit: errors.New("connection reset")}
	res, err := New(quiet()).Load(context.Background(), sink, inputRows(3))
	if !errors.Is(err, ErrCommit) {
		t.Fatalf("err = %v, want ErrCommit", err)
	}
	if res.State != StateFailed || len(sink.committed) != 0 {
		t.Fatalf("result = %+v committed=%d", res, len(sink.committed))
	}
}

func TestLoad_CanceledContextStopsWithoutCommit(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	inserted := 0
	sink := &memSink{reject: func([]any) bool {
		inserted++
		if inserted == 3 {
			cancel()
		}
		return false
	}}

	res, err := New(quiet()).Load(ctx, sink, inputRows(10))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res.State != StateFailed || res.Inserted != 3 || sink.commits != 0 {
		t.Fatalf("result = %+v commits=%d", res, sink.commits)
	}
}

func TestLoad_ProgressEveryTenthInsert(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rows int
		want int
	}{
		{0, 0},
		{9, 0},
		{10, 1},
		{25, 2},
		{30, 3},
	}
	for _, tc := range cases {
		logs := &logCapture{}
		if _, err := New(WithLogf(logs.logf)).Load(context.Background(), &memSink{}, inputRows(tc.rows)); err != nil {
			t.Fatalf("rows=%d: %v", tc.rows, err)
		}
		if got := logs.count("rows so far"); got != tc.want {
			t.Fatalf("rows=%d: progress lines = %d, want %d", tc.rows, got, tc.want)
		}
	}
}

func TestLoad_ProgressCountsFallbackInserts(t *testing.T) {
	t.Parallel()

	logs := &logCapture{}
	sink := &memSink{reject: func(row []any) bool { return row[0] == "E9" }}
	if _, err := New(WithLogf(logs.logf), WithProgressEvery(5)).Load(context.Background(), sink, inputRows(10)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := logs.count("rows so far"); got != 2 {
		t.Fatalf("progress lines = %d, want 2; log = %v", got, logs.lines)
	}
}

func TestPolicyByName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]string{"": "null_row", "null_row": "null_row", " SKIP ": "skip"} {
		p, err := PolicyByName(name)
		if err != nil {
			t.Fatalf("PolicyByName(%q): %v", name, err)
		}
		if p.Name() != want {
			t.Fatalf("PolicyByName(%q) = %s, want %s", name, p.Name(), want)
		}
	}
	if _, err := PolicyByName("retry"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	if StateCommitted.String() != "committed" || State(42).String() != "state(42)" {
		t.Fatalf("unexpected names %s %s", StateCommitted, State(42))
	}
}
