// Package csvsource reads a batch of raw restaurant rows from a CSV export.
package csvsource

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"qc_restaurants/internal/domain"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Source re-reads its file on every LoadRows call.
type Source struct {
	path  string
	comma rune
}

func New(path string) *Source { return &Source{path: path, comma: ','} }

// WithComma switches the delimiter, e.g. ';' for some spreadsheet exports.
func (s *Source) WithComma(r rune) *Source {
	s.comma = r
	return s
}

func (s *Source) LoadRows(ctx context.Context) (domain.Batch, error) {
	if err := ctx.Err(); err != nil {
		return domain.Batch{}, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("open csv: %w", err)
	}
	text, err := decode(raw)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return Parse(text, s.comma)
}

// decode strips a UTF-8 BOM and falls back to Windows-1252 for legacy exports.
func decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, bom)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	b, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Parse reads CSV text whose first record is the header. Empty cells and
// cells missing from short rows are Missing; blank rows are skipped.
func Parse(text string, comma rune) (domain.Batch, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return domain.Batch{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return domain.Batch{}, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	b := domain.Batch{Columns: header, Rows: make([]domain.RawRow, 0, len(records)-1)}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make(domain.RawRow, len(header))
		for j, h := range header {
			if h == "" {
				continue
			}
			if j < len(rec) && strings.TrimSpace(rec[j]) != "" {
				row[h] = domain.String(rec[j])
			} else {
				row[h] = domain.Missing()
			}
		}
		b.Rows = append(b.Rows, row)
	}
	return b, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
