// Package datasource defines where an export comes from. Each run reads the
// whole export into memory before parsing starts.
package datasource

import (
	"context"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"
)

// Source opens the export for reading. Callers close the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ReadAll opens src and reads it to the end.
func ReadAll(ctx context.Context, src Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return b, nil
}

// Fingerprint returns a short content hash used to tell exports apart in logs.
func Fingerprint(b []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(b))
}
