package loader

import (
	"context"
	"fmt"
	"strings"
)

// FallbackPolicy decides what happens to a row whose insert failed.
//
// Recover reports stored=true when it wrote something that occupies the
// row's position in the sink, keeping the sink's row count aligned with the
// input. stored=false means the row is skipped and the next run's resume
// offset will lag the input by one for every such row.
type FallbackPolicy interface {
	Name() string
	Recover(ctx context.Context, s Sink, row []any) (stored bool, err error)
}

// NullRowFallback retries once with an all-null row of the same arity. The
// placeholder keeps offsets aligned at the cost of storing an empty row in
// place of the real one.
type NullRowFallback struct{}

func (NullRowFallback) Name() string { return "null_row" }

func (NullRowFallback) Recover(ctx context.Context, s Sink, row []any) (bool, error) {
	if err := s.InsertRow(ctx, make([]any, len(row))); err != nil {
		return false, err
	}
	return true, nil
}

// SkipFallback stores nothing; the failed row is logged as a gap.
type SkipFallback struct{}

func (SkipFallback) Name() string { return "skip" }

func (SkipFallback) Recover(context.Context, Sink, []any) (bool, error) { return false, nil }

// PolicyByName resolves a configured policy name. The empty name selects
// NullRowFallback.
func PolicyByName(name string) (FallbackPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "null_row":
		return NullRowFallback{}, nil
	case "skip":
		return SkipFallback{}, nil
	}
	return nil, fmt.Errorf("loader: unknown fallback policy %q", name)
}
