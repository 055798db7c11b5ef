package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// table is a parsed CSV with a header index.
type table struct {
	columns map[string]int
	rows    [][]string
}

// readTable reads a whole CSV dataset and checks the required columns.
func readTable(ctx context.Context, src Source, required []string) (*table, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty dataset", src)
		}
		return nil, fmt.Errorf("%s: read header: %w", src, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing required columns: %s", src, strings.Join(missing, ", "))
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: read rows: %w", src, err)
	}

	return &table{columns: columns, rows: rows}, nil
}

// get returns a trimmed cell, or "" when the column or cell is absent.
func (t *table) get(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
