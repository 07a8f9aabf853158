// Package rejectlog writes a CSV report of rows whose insert failed, so the
// source export can be repaired before the next run.
package rejectlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Header is the first row of every report.
var Header = []string{"outcome", "offset", "user_id", "error"}

// Log appends reject rows to a CSV file and counts them per outcome.
type Log struct {
	mu       sync.Mutex
	f        *os.File
	w        *csv.Writer
	outcomes map[string]int
}

// Create truncates or creates the report at path, creating parent
// directories, and writes Header.
func Create(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("rejectlog: create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("rejectlog: open %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rejectlog: write header: %w", err)
	}
	return &Log{f: f, w: w, outcomes: make(map[string]int)}, nil
}

// Add records one rejected row. outcome is "fallback" or "skipped".
func (l *Log) Add(outcome string, offset int64, userID string, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes[outcome]++
	_ = l.w.Write([]string{outcome, strconv.FormatInt(offset, 10), userID, msg})
}

// Counts returns a copy of the per-outcome totals.
func (l *Log) Counts() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.outcomes))
	for k, v := range l.outcomes {
		out[k] = v
	}
	return out
}

// Close flushes buffered rows and closes the file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	werr := l.w.Error()
	cerr := l.f.Close()
	if werr != nil {
		return fmt.Errorf("rejectlog: flush: %w", werr)
	}
	return cerr
}
