package dbcon

// Result holds the rows returned by a statement. It is fully buffered, so
// it stays valid after the DB moves on, and it can be iterated repeatedly.
type Result struct {
	columns []string
	rows    []map[string]any
	pos     int
}

func newResult(columns []string, rows []map[string]any) *Result {
	return &Result{columns: columns, rows: rows, pos: -1}
}

// Columns returns the column names in select order.
func (r *Result) Columns() []string { return r.columns }

// Len returns the number of rows.
func (r *Result) Len() int { return len(r.rows) }

// Rows returns all rows keyed by column name.
func (r *Result) Rows() []map[string]any { return r.rows }

// Row returns row i, or nil if i is out of range.
func (r *Result) Row(i int) map[string]any {
	if i < 0 || i >= len(r.rows) {
		return nil
	}
	return r.rows[i]
}

// Next advances to the next row and reports whether there is one.
//
//	for res.Next() {
//		fmt.Println(res.Current()["name"])
//	}
func (r *Result) Next() bool {
	if r.pos+1 < len(r.rows) {
		r.pos++
		return true
	}
	r.pos = len(r.rows)
	return false
}

// Current returns the row Next moved to, or nil before the first and after
// the last call of Next.
func (r *Result) Current() map[string]any {
	return r.Row(r.pos)
}

// Reset rewinds the cursor so Next starts from the first row again.
func (r *Result) Reset() { r.pos = -1 }

// Column returns the values of the named column, one per row.
func (r *Result) Column(name string) []any {
	out := make([]any, len(r.rows))
	for i, row := range r.rows {
		out[i] = row[name]
	}
	return out
}

// Cell returns the named column of the first row, or nil if there is no row.
// It is meant for single value queries such as SELECT COUNT(*).
func (r *Result) Cell(name string) any {
	if len(r.rows) == 0 {
		return nil
	}
	return r.rows[0][name]
}
