// Package mysql serves raw scraped restaurant rows from a MySQL table.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"qc_restaurants/internal/domain"
)

// insertChunk bounds the rows per INSERT statement.
const insertChunk = 200

// Source reads every row of one table. Column names come from the result
// set, so any export layout works as long as SchemaMapper knows the aliases.
type Source struct {
	db    *sql.DB
	table string
}

func New(db *sql.DB, table string) (*Source, error) {
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("mysql: invalid table name %q", table)
	}
	return &Source{db: db, table: table}, nil
}

func (s *Source) LoadRows(ctx context.Context) (domain.Batch, error) {
	rows, err := s.db.QueryContext(ctx, selectAllSQL(s.table))
	if err != nil {
		return domain.Batch{}, fmt.Errorf("select %s: %w", s.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return domain.Batch{}, err
	}
	b := domain.Batch{Columns: cols}
	cells := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return domain.Batch{}, fmt.Errorf("scan %s: %w", s.table, err)
		}
		row := make(domain.RawRow, len(cols))
		for i, c := range cols {
			if cells[i].Valid {
				row[c] = domain.String(cells[i].String)
			} else {
				row[c] = domain.Missing()
			}
		}
		b.Rows = append(b.Rows, row)
	}
	return b, rows.Err()
}

// Replace swaps the table contents for b inside one transaction. Batch
// columns the table does not have are ignored. It returns the rows written.
func (s *Source) Replace(ctx context.Context, b domain.Batch) (int, error) {
	cols, err := s.tableColumns(ctx)
	if err != nil {
		return 0, err
	}
	have := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		have[c] = struct{}{}
	}
	var use []string
	for _, c := range b.ColumnSet() {
		if _, ok := have[c]; ok {
			use = append(use, c)
		}
	}
	if len(use) == 0 {
		return 0, fmt.Errorf("mysql: no batch column matches table %s", s.table)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteAllSQL(s.table)); err != nil {
		return 0, fmt.Errorf("clear %s: %w", s.table, err)
	}

	group := "(" + strings.TrimSuffix(strings.Repeat("?,", len(use)), ",") + ")"
	prefix := insertRowsPrefix(s.table, use)
	for start := 0; start < len(b.Rows); start += insertChunk {
		end := min(start+insertChunk, len(b.Rows))
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*len(use))
		for _, row := range b.Rows[start:end] {
			values = append(values, group)
			for _, c := range use {
				args = append(args, cell(row[c]))
			}
		}
		if _, err := tx.ExecContext(ctx, prefix+strings.Join(values, ","), args...); err != nil {
			return 0, fmt.Errorf("insert %s: %w", s.table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(b.Rows), nil
}

func (s *Source) tableColumns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, probeColumnsSQL(s.table))
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", s.table, err)
	}
	defer rows.Close()
	return rows.Columns()
}

// cell stores scalars as text and structured values as JSON.
func cell(v domain.Value) any {
	switch v.Kind() {
	case domain.KindMissing:
		return nil
	case domain.KindString:
		s, _ := v.Str()
		return s
	case domain.KindMapping, domain.KindList:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return v.Text()
	}
}
