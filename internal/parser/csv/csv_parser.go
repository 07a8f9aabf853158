// Package csv parses a delimited export with a header row into raw records.
//
// Every record carries every header as a key. Empty cells and cells missing
// from short rows are nil. Header labels are Unicode NFC-normalized and
// trimmed, a UTF-8 BOM is removed, and duplicate labels get ".1", ".2", ...
// suffixes so no column is silently lost.
package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"empmaster/pkg/records"
)

// ErrNoHeader is returned for input without a header row.
var ErrNoHeader = errors.New("csv: missing header row")

// Options configures the CSV parser. The zero value reads comma-separated
// strings.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing whitespace from each field value.
	TrimSpace bool

	// InferTypes converts a column to int64 when every non-empty cell is an
	// integer, or to decimal.Decimal when every non-empty cell is numeric.
	InferTypes bool

	// LazyQuotes relaxes quote handling like encoding/csv's option.
	LazyQuotes bool
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs but not for concurrent use.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Parse reads every row of r. A row with more cells than the header is an
// error naming its line, since keeping or dropping it would shift every
// later row.
func (p *Parser) Parse(r io.Reader) ([]records.Record, []string, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = p.opt.LazyQuotes
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err == io.EOF {
		return nil, nil, ErrNoHeader
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	headers := normalizeHeaders(h)

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		if len(row) > len(headers) {
			line, _ := cr.FieldPos(0)
			return nil, nil, fmt.Errorf("csv line %d: expected %d fields, saw %d", line, len(headers), len(row))
		}
		rows = append(rows, row)
	}

	conv := make([]func(string) any, len(headers))
	for i := range headers {
		conv[i] = p.columnConverter(rows, i)
	}

	out := make([]records.Record, 0, len(rows))
	for _, row := range rows {
		rec := make(records.Record, len(headers))
		for i, key := range headers {
			if i >= len(row) {
				rec[key] = nil
				continue
			}
			rec[key] = conv[i](p.clean(row[i]))
		}
		out = append(out, rec)
	}
	return out, headers, nil
}

// ParseBytes is Parse over an in-memory export.
func (p *Parser) ParseBytes(b []byte) ([]records.Record, []string, error) {
	return p.Parse(bytes.NewReader(b))
}

func (p *Parser) clean(s string) string {
	if p.opt.TrimSpace {
		return strings.TrimSpace(s)
	}
	return s
}

// columnConverter picks the cell conversion for column i from its content.
func (p *Parser) columnConverter(rows [][]string, i int) func(string) any {
	if !p.opt.InferTypes {
		return emptyToNil
	}
	allInt, allNum, seen := true, true, false
	for _, row := range rows {
		if i >= len(row) {
			continue
		}
		s := strings.TrimSpace(row[i])
		if s == "" {
			continue
		}
		seen = true
		if allInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				allInt = false
			}
		}
		if !allInt {
			if _, err := decimal.NewFromString(s); err != nil {
				allNum = false
				break
			}
		}
	}
	switch {
	case !seen:
		return emptyToNil
	case allInt:
		return func(s string) any {
			if strings.TrimSpace(s) == "" {
				return nil
			}
			n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			return n
		}
	case allNum:
		return func(s string) any {
			if strings.TrimSpace(s) == "" {
				return nil
			}
			d, _ := decimal.NewFromString(strings.TrimSpace(s))
			return d
		}
	}
	return emptyToNil
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders NFC-normalizes and trims labels, strips a BOM from the
// first one, and de-duplicates repeated labels with numeric suffixes.
func normalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, col := range h {
		if i == 0 {
			col = strings.TrimPrefix(col, utf8BOM)
		}
		c := strings.TrimSpace(norm.NFC.String(col))
		if c == "" {
			c = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[c] > 0 {
			base := c
			for n := seen[base]; ; n++ {
				if cand := fmt.Sprintf("%s.%d", base, n); seen[cand] == 0 {
					c = cand
					break
				}
			}
			seen[base]++
		}
		seen[c]++
		res[i] = c
	}
	return res
}
