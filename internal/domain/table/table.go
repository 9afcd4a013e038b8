// Package table holds the flat, chart-shaped tables the pipeline emits.
// A Table is the last step before CSV: every cell is already formatted.
package table

import (
	"fmt"
	"strconv"
	"time"

	"foodsecurity-charts/internal/domain/entity"
)

// DateLayout is the layout used for every date cell.
const DateLayout = "2006-01-02"

// Table is a named set of rows sharing one header.
type Table struct {
	Name    string
	Columns []string
	rows    [][]string
}

// New creates an empty table.
func New(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// Append formats values and adds them as a row.
// The number of values must match the number of columns.
func (t *Table) Append(values ...any) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("table %s: row has %d values, want %d", t.Name, len(values), len(t.Columns))
	}
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = Format(v)
	}
	t.rows = append(t.rows, row)
	return nil
}

// Rows returns the formatted rows.
func (t *Table) Rows() [][]string {
	return t.rows
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Column returns every value of the named column, or nil when it does not exist.
func (t *Table) Column(name string) []string {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[idx]
	}
	return out
}

// Format renders a single cell.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case entity.NullFloat:
		return x.String()
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(DateLayout)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
