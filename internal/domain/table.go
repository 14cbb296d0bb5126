package domain

// Table is an ordered, string-typed tabular report.
type Table struct {
	Header []string
	Rows   [][]string
}

// AddRow appends a row.
func (t *Table) AddRow(row []string) {
	t.Rows = append(t.Rows, row)
}
