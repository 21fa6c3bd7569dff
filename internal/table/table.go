package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMissingColumn is returned when a named column is not in the header.
	ErrMissingColumn = errors.New("missing column")
	// ErrColumnExists is returned when adding a column whose name is taken.
	ErrColumnExists = errors.New("column already exists")
)

// Table is an ordered set of rows with a header. Cells are kept as the raw
// strings read from disk so untouched columns are written back verbatim.
type Table struct {
	Header []string
	Rows   [][]string
}

// NullInt is an integer cell that may be empty.
type NullInt struct {
	V     int64
	Valid bool
}

// New builds a table, padding short rows to the header width.
func New(header []string, rows [][]string) *Table {
	t := &Table{Header: append([]string(nil), header...)}
	t.Rows = make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, len(header))
		copy(row, r)
		t.Rows[i] = row
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the named column.
func (t *Table) Index(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	_, err := t.Index(name)
	return err == nil
}

// Column returns a copy of the raw cells of a column.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.Index(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, nil
}

// SetColumn overwrites the cells of an existing column.
func (t *Table) SetColumn(name string, values []string) error {
	idx, err := t.Index(name)
	if err != nil {
		return err
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("set column %q: got %d values for %d rows", name, len(values), len(t.Rows))
	}
	for i, r := range t.Rows {
		r[idx] = values[i]
	}
	return nil
}

// AddColumn appends a new column. The name must not already exist.
func (t *Table) AddColumn(name string, values []string) error {
	if t.Has(name) {
		return fmt.Errorf("%w: %q", ErrColumnExists, name)
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("add column %q: got %d values for %d rows", name, len(values), len(t.Rows))
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// DropColumn removes a column in place.
func (t *Table) DropColumn(name string) error {
	idx, err := t.Index(name)
	if err != nil {
		return err
	}
	t.Header = append(t.Header[:idx:idx], t.Header[idx+1:]...)
	for i, r := range t.Rows {
		t.Rows[i] = append(r[:idx:idx], r[idx+1:]...)
	}
	return nil
}

// Permute reorders rows so that row i of the result is row order[i] of t.
func (t *Table) Permute(order []int) error {
	if len(order) != len(t.Rows) {
		return fmt.Errorf("permute: got %d indices for %d rows", len(order), len(t.Rows))
	}
	rows := make([][]string, len(order))
	seen := make([]bool, len(order))
	for i, j := range order {
		if j < 0 || j >= len(t.Rows) || seen[j] {
			return fmt.Errorf("permute: invalid index %d", j)
		}
		seen[j] = true
		rows[i] = t.Rows[j]
	}
	t.Rows = rows
	return nil
}

// Subset returns a new table holding copies of the selected rows.
func (t *Table) Subset(rows []int) *Table {
	sub := make([][]string, 0, len(rows))
	for _, i := range rows {
		sub = append(sub, t.Rows[i])
	}
	return New(t.Header, sub)
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table { return New(t.Header, t.Rows) }

// Floats parses a column as float64. Empty cells become NaN.
func (t *Table) Floats(name string) ([]float64, error) {
	idx, err := t.Index(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		v, ok, err := ParseFloat(r[idx])
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i+1, err)
		}
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, nil
}

// Ints parses a column as integers. Integral floats such as "30.0" are
// accepted; empty cells are returned as invalid.
func (t *Table) Ints(name string) ([]NullInt, error) {
	idx, err := t.Index(name)
	if err != nil {
		return nil, err
	}
	out := make([]NullInt, len(t.Rows))
	for i, r := range t.Rows {
		v, ok, err := ParseInt(r[idx])
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i+1, err)
		}
		out[i] = NullInt{V: v, Valid: ok}
	}
	return out, nil
}

// IsMissing reports whether a cell counts as a missing value.
func IsMissing(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "na", "null", "none":
		return true
	}
	return false
}

// ParseFloat parses a numeric cell. ok is false for a missing cell.
func ParseFloat(s string) (v float64, ok bool, err error) {
	if IsMissing(s) {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false, fmt.Errorf("not a number: %q", s)
	}
	return v, true, nil
}

// ParseInt parses an integer cell. ok is false for a missing cell.
func ParseInt(s string) (v int64, ok bool, err error) {
	if IsMissing(s) {
		return 0, false, nil
	}
	raw := strings.TrimSpace(s)
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, true, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("not an integer: %q", s)
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false, fmt.Errorf("integer out of range: %q", s)
	}
	return int64(f), true, nil
}
