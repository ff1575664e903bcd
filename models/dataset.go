package models

// Column is a single column of a loaded table, kept column-oriented so the
// metadata extractor can scan a value sequence without materializing rows.
// Values are the raw textual cells; an empty string is treated as null.
type Column struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Table represents one loaded tabular dataset (e.g. a parsed CSV file).
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// RowCount returns the number of rows in the table, derived from the longest
// column. Loaders are expected to produce equal-length columns.
func (t *Table) RowCount() int {
	rows := 0
	for _, c := range t.Columns {
		if len(c.Values) > rows {
			rows = len(c.Values)
		}
	}
	return rows
}

// Column returns the named column, or nil if the table has no such column.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}
