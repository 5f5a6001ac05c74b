package dbcon

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/syssam/dbcon/dialect/sql"
)

// PreliminaryQuery returns the statement Get(from) would run, without
// consuming any fragment.
func (d *DB) PreliminaryQuery(from string) string {
	head := d.selects
	if head == "" {
		head = "SELECT *"
	}
	return d.compose(head+" FROM "+d.EscapeIdentifierList(from), AllClauses)
}

// compose renders head followed by the fragments of set in statement order.
// A pending UNION goes before head.
func (d *DB) compose(head string, set Clauses) string {
	parts := make([]string, 0, 7)
	add := func(c Clauses, frag string) {
		if frag != "" && set.Has(c) {
			parts = append(parts, frag)
		}
	}
	add(ClauseUnion, d.union)
	parts = append(parts, head)
	add(ClauseJoin, d.join)
	add(ClauseWhere, d.where)
	add(ClauseGroup, d.group)
	add(ClauseOrder, d.order)
	add(ClauseLimit, d.limit)
	return strings.Join(parts, " ")
}

// prepare connects, builds the statement and consumes set. The fragments
// are kept if the connection cannot be established.
func (d *DB) prepare(ctx context.Context, set Clauses, build func() (string, error)) (string, error) {
	if err := d.Connect(ctx); err != nil {
		return "", err
	}
	query, berr := build()
	if err := NewAggregateError(d.consume(set), berr); err != nil {
		d.lastErr = err
		return "", err
	}
	return query, nil
}

// Get runs a SELECT against from built from every pending fragment and
// clears all of them.
func (d *DB) Get(ctx context.Context, from string) (*Result, error) {
	query, err := d.prepare(ctx, AllClauses, func() (string, error) {
		return d.PreliminaryQuery(from), nil
	})
	if err != nil {
		return nil, err
	}
	return d.runQuery(ctx, query)
}

// Query runs the caller supplied statement with the pending WHERE, ORDER BY
// and LIMIT fragments appended and returns its rows.
func (d *DB) Query(ctx context.Context, query string) (*Result, error) {
	return d.QueryWith(ctx, query, QueryClauses)
}

// QueryWith is like Query but appends and consumes the fragments in set.
// ClauseSelect is never used, the caller's statement provides the columns.
func (d *DB) QueryWith(ctx context.Context, query string, set Clauses) (*Result, error) {
	query, err := d.prepare(ctx, set, func() (string, error) {
		return d.compose(strings.TrimSpace(query), set&^ClauseSelect), nil
	})
	if err != nil {
		return nil, err
	}
	return d.runQuery(ctx, query)
}

// Exec is like Query but discards any result rows. LastInsertID and
// RowsAffected report on the statement.
func (d *DB) Exec(ctx context.Context, query string) error {
	return d.ExecWith(ctx, query, QueryClauses)
}

// ExecWith is like Exec but appends and consumes the fragments in set.
func (d *DB) ExecWith(ctx context.Context, query string, set Clauses) error {
	query, err := d.prepare(ctx, set, func() (string, error) {
		return d.compose(strings.TrimSpace(query), set&^ClauseSelect), nil
	})
	if err != nil {
		return err
	}
	return d.runExec(ctx, query)
}

// Insert adds one row to table. data is either a map keyed by column name,
// rendered in key order, or a slice or scalar giving the values of every
// column in table order. nil values are inserted as NULL. Insert consumes
// no fragment.
func (d *DB) Insert(ctx context.Context, table string, data any) error {
	query, err := d.prepare(ctx, NoClauses, func() (string, error) {
		into := "INSERT INTO " + d.EscapeIdentifier(table)
		if cols, vals, ok := columnValues(data); ok {
			if len(cols) == 0 {
				return "", &InputError{Method: "Insert", Input: table, Reason: "no columns"}
			}
			for i, c := range cols {
				cols[i] = d.EscapeIdentifier(c)
			}
			list, _ := d.valueList(vals, d.literal)
			return into + " (" + strings.Join(cols, ", ") + ") VALUES " + list, nil
		}
		list, n := d.valueList(data, d.literal)
		if n == 0 {
			return "", &InputError{Method: "Insert", Input: table, Reason: "no values"}
		}
		return into + " VALUES " + list, nil
	})
	if err != nil {
		return err
	}
	return d.runExec(ctx, query)
}

// Update sets the columns of data in table on the rows selected by the
// pending WHERE, ORDER BY and LIMIT fragments, which it consumes. Column
// names are quoted like every other identifier.
func (d *DB) Update(ctx context.Context, table string, data map[string]any) error {
	query, err := d.prepare(ctx, QueryClauses, func() (string, error) {
		if len(data) == 0 {
			return "", &InputError{Method: "Update", Input: table, Reason: "no columns"}
		}
		cols := slices.Sorted(maps.Keys(data))
		set := make([]string, len(cols))
		for i, c := range cols {
			set[i] = d.EscapeIdentifier(c) + " = " + d.literal(data[c])
		}
		return d.compose("UPDATE "+d.EscapeIdentifier(table)+" SET "+strings.Join(set, ", "), QueryClauses), nil
	})
	if err != nil {
		return err
	}
	return d.runExec(ctx, query)
}

// Delete removes the rows of table selected by the pending WHERE, ORDER BY
// and LIMIT fragments, which it consumes.
func (d *DB) Delete(ctx context.Context, table string) error {
	query, err := d.prepare(ctx, QueryClauses, func() (string, error) {
		return d.compose("DELETE FROM "+d.EscapeIdentifier(table), QueryClauses), nil
	})
	if err != nil {
		return err
	}
	return d.runExec(ctx, query)
}

func (d *DB) runQuery(ctx context.Context, query string) (*Result, error) {
	d.lastQuery = query
	eq, err := d.execer(ctx)
	if err != nil {
		return nil, err
	}
	var rows sql.Rows
	if err := eq.Query(ctx, query, []any{}, &rows); err != nil {
		return nil, d.fail(ctx, query, err)
	}
	columns, data, err := sql.ScanMaps(rows)
	if err != nil {
		return nil, d.fail(ctx, query, err)
	}
	d.lastErr = nil
	return newResult(columns, data), nil
}

func (d *DB) runExec(ctx context.Context, query string) error {
	d.lastQuery = query
	eq, err := d.execer(ctx)
	if err != nil {
		return err
	}
	var res sql.Result
	if err := eq.Exec(ctx, query, []any{}, &res); err != nil {
		return d.fail(ctx, query, err)
	}
	// Not every driver reports both values.
	d.lastInsertID, _ = res.LastInsertId()
	d.rowsAffected, _ = res.RowsAffected()
	d.lastErr = nil
	return nil
}

// fail records a driver error and wraps it with the statement.
func (d *DB) fail(ctx context.Context, query string, err error) error {
	d.lastErr = err
	d.log.WarnContext(ctx, "statement failed", "sql", query, "error", err)
	qerr := &QueryError{Query: query, Err: err}
	if sql.IsConstraintError(err) {
		return NewConstraintError(err.Error(), qerr)
	}
	return qerr
}

// columnValues splits a string keyed map into its sorted keys and the
// matching values. ok is false if data is not such a map.
func columnValues(data any) (cols []string, vals []any, ok bool) {
	if m, isMap := data.(map[string]any); isMap {
		cols = slices.Sorted(maps.Keys(m))
		vals = make([]any, len(cols))
		for i, c := range cols {
			vals[i] = m[c]
		}
		return cols, vals, true
	}
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, nil, false
	}
	keys := rv.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int { return strings.Compare(a.String(), b.String()) })
	for _, k := range keys {
		cols = append(cols, k.String())
		vals = append(vals, rv.MapIndex(k).Interface())
	}
	return cols, vals, true
}
