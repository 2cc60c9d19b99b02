// Package table provides the row-oriented variant table: reading and
// writing CSV/TSV/Excel files and resolving the variant identifier
// column used for querying.
package table

// Table is an in-memory tabular file. Cells are strings; columns can
// be appended after load, in which case existing rows read as empty
// in the new column.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]string
}

// New creates an empty table with the given columns.
func New(cols []string) *Table {
	t := &Table{
		cols:  append([]string(nil), cols...),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range t.cols {
		t.index[c] = i
	}
	return t
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return t.cols
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AppendRow adds a data row. Short rows are padded with empty cells;
// long rows are truncated to the current width.
func (t *Table) AppendRow(cells []string) {
	row := make([]string, len(t.cols))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// EnsureColumn returns the index of the named column, appending it
// (and widening every row) if it does not exist yet.
func (t *Table) EnsureColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	i := len(t.cols)
	t.cols = append(t.cols, name)
	t.index[name] = i
	for r := range t.rows {
		t.rows[r] = append(t.rows[r], "")
	}
	return i
}

// Set writes a cell, creating the column on first use.
func (t *Table) Set(row int, col, value string) {
	i := t.EnsureColumn(col)
	t.rows[row][i] = value
}

// Get reads a cell. Returns false when the column does not exist.
func (t *Table) Get(row int, col string) (string, bool) {
	i, ok := t.index[col]
	if !ok {
		return "", false
	}
	return t.rows[row][i], true
}

// Column returns all values of the named column in row order.
func (t *Table) Column(name string) ([]string, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	values := make([]string, len(t.rows))
	for r, row := range t.rows {
		values[r] = row[i]
	}
	return values, true
}

// Row returns the cells of one row.
func (t *Table) Row(i int) []string {
	return t.rows[i]
}
