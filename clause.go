package dbcon

import (
	"strconv"
	"strings"

	"github.com/syssam/dbcon/dialect"
	"github.com/syssam/dbcon/dialect/sql"
)

// Clauses is a set of builder fragments. Terminal methods take one to
// declare which fragments they consume.
type Clauses uint8

// Clause fragments.
const (
	ClauseSelect Clauses = 1 << iota
	ClauseJoin
	ClauseWhere
	ClauseGroup
	ClauseOrder
	ClauseLimit
	ClauseUnion
)

// Common fragment sets.
const (
	// NoClauses consumes nothing.
	NoClauses Clauses = 0
	// QueryClauses is what Query, Exec, Update and Delete append to
	// their statement.
	QueryClauses = ClauseWhere | ClauseOrder | ClauseLimit
	// AllClauses is what Get consumes.
	AllClauses = ClauseSelect | ClauseJoin | ClauseWhere | ClauseGroup | ClauseOrder | ClauseLimit | ClauseUnion
)

// Has reports whether c contains every clause of o.
func (c Clauses) Has(o Clauses) bool { return c&o == o }

// Join kinds accepted by JoinKind.
var joinKinds = map[string]bool{
	"INNER":       true,
	"CROSS":       true,
	"LEFT":        true,
	"RIGHT":       true,
	"LEFT OUTER":  true,
	"RIGHT OUTER": true,
	"FULL":        true,
	"FULL OUTER":  true,
	"NATURAL":     true,
}

// clauses holds the accumulated fragments. Each is empty or starts with its
// keyword.
type clauses struct {
	selects string
	join    string
	where   string
	group   string
	order   string
	limit   string
	union   string
	errs    []clauseError
}

// clauseError is an input error held until its clause is consumed.
type clauseError struct {
	clause Clauses
	err    error
}

// reset clears the fragments in set.
func (c *clauses) reset(set Clauses) {
	if set.Has(ClauseSelect) {
		c.selects = ""
	}
	if set.Has(ClauseJoin) {
		c.join = ""
	}
	if set.Has(ClauseWhere) {
		c.where = ""
	}
	if set.Has(ClauseGroup) {
		c.group = ""
	}
	if set.Has(ClauseOrder) {
		c.order = ""
	}
	if set.Has(ClauseLimit) {
		c.limit = ""
	}
	if set.Has(ClauseUnion) {
		c.union = ""
	}
}

// consume clears the fragments in set and returns the input errors
// recorded against them. Errors of clauses outside set stay pending.
func (c *clauses) consume(set Clauses) error {
	c.reset(set)
	var errs []error
	kept := c.errs[:0]
	for _, e := range c.errs {
		if set.Has(e.clause) {
			errs = append(errs, e.err)
		} else {
			kept = append(kept, e)
		}
	}
	c.errs = kept
	return NewAggregateError(errs...)
}

func (c *clauses) reject(clause Clauses, method, input, reason string) {
	c.errs = append(c.errs, clauseError{
		clause: clause,
		err:    &InputError{Method: method, Input: input, Reason: reason},
	})
}

// Pending returns the set of fragments currently populated.
func (d *DB) Pending() Clauses {
	var set Clauses
	for _, f := range []struct {
		v string
		c Clauses
	}{
		{d.selects, ClauseSelect}, {d.join, ClauseJoin}, {d.where, ClauseWhere},
		{d.group, ClauseGroup}, {d.order, ClauseOrder}, {d.limit, ClauseLimit},
		{d.union, ClauseUnion},
	} {
		if f.v != "" {
			set |= f.c
		}
	}
	return set
}

// Reset discards every accumulated fragment and input error.
func (d *DB) Reset() *DB {
	d.reset(AllClauses)
	d.errs = nil
	return d
}

// Select adds a comma separated column list, quoting every column and
// optional "AS alias".
func (d *DB) Select(cols string) *DB {
	return d.addSelect(d.EscapeIdentifierList(cols))
}

// SelectRaw adds expr to the column list as is. Use it for function calls
// and other expressions that cannot be quoted as identifiers.
func (d *DB) SelectRaw(expr string) *DB {
	return d.addSelect(strings.TrimSpace(expr))
}

func (d *DB) addSelect(cols string) *DB {
	if d.selects == "" {
		d.selects = "SELECT " + cols
	} else {
		d.selects += ", " + cols
	}
	return d
}

// Join adds an INNER JOIN of table on the equality condition on.
func (d *DB) Join(table, on string) *DB {
	return d.JoinKind("INNER", table, on)
}

// LeftJoin adds a LEFT JOIN.
func (d *DB) LeftJoin(table, on string) *DB {
	return d.JoinKind("LEFT", table, on)
}

// RightJoin adds a RIGHT JOIN.
func (d *DB) RightJoin(table, on string) *DB {
	return d.JoinKind("RIGHT", table, on)
}

// JoinKind adds "<kind> JOIN <table> ON <on>". Table may carry an alias.
func (d *DB) JoinKind(kind, table, on string) *DB {
	k := strings.ToUpper(strings.Join(strings.Fields(kind), " "))
	if k == "" {
		k = "INNER"
	}
	if !joinKinds[k] {
		d.reject(ClauseJoin, "JoinKind", kind, "unknown join kind")
		return d
	}
	frag := k + " JOIN " + d.EscapeIdentifierList(table) + " ON " + d.EscapeJoinCondition(on)
	if d.join == "" {
		d.join = frag
	} else {
		d.join += " " + frag
	}
	return d
}

// Where adds "col = val". An optional collation compares with
// "_utf8 'val' COLLATE <collation>".
func (d *DB) Where(col string, val any, collate ...string) *DB {
	return d.predicate("Where", d.EscapeIdentifier(col)+"= ", d.EscapeValue(val), collate)
}

// WhereNot adds "col <> val".
func (d *DB) WhereNot(col string, val any, collate ...string) *DB {
	return d.predicate("WhereNot", d.EscapeIdentifier(col)+"<> ", d.EscapeValue(val), collate)
}

// Like adds "col LIKE '%val%'".
func (d *DB) Like(col string, val any, collate ...string) *DB {
	return d.predicate("Like", d.EscapeIdentifier(col)+" LIKE ", "%"+d.EscapeValue(val)+"%", collate)
}

// NotLike adds "col NOT LIKE '%val%'".
func (d *DB) NotLike(col string, val any, collate ...string) *DB {
	return d.predicate("NotLike", d.EscapeIdentifier(col)+" NOT LIKE ", "%"+d.EscapeValue(val)+"%", collate)
}

// WhereIn adds "col IN (...)". values is a slice or a single scalar.
func (d *DB) WhereIn(col string, values any) *DB {
	list, n := d.valueList(values, d.quote)
	if n == 0 {
		d.reject(ClauseWhere, "WhereIn", col, "empty value list")
		return d
	}
	d.addWhere(d.EscapeIdentifier(col) + " IN " + list)
	return d
}

// predicate renders lhs followed by the quoted escaped value.
func (d *DB) predicate(method, lhs, escaped string, collate []string) *DB {
	var charset, suffix string
	if len(collate) > 0 && collate[0] != "" {
		if !sql.IsValidIdentifier(collate[0]) {
			d.reject(ClauseWhere, method, collate[0], "invalid collation name")
			return d
		}
		charset, suffix = "_utf8 ", " COLLATE "+collate[0]
	}
	d.addWhere(lhs + charset + "'" + escaped + "'" + suffix)
	return d
}

func (d *DB) addWhere(pred string) {
	if d.where == "" {
		d.where = "WHERE " + pred
	} else {
		d.where += " AND " + pred
	}
}

// OrderBy adds col to the ORDER BY list. dir is ASC (default) or DESC.
func (d *DB) OrderBy(col string, dir ...string) *DB {
	direction := "ASC"
	if len(dir) > 0 && dir[0] != "" {
		direction = strings.ToUpper(strings.TrimSpace(dir[0]))
	}
	if direction != "ASC" && direction != "DESC" {
		d.reject(ClauseOrder, "OrderBy", dir[0], "direction must be ASC or DESC")
		return d
	}
	frag := d.EscapeIdentifier(col) + " " + direction
	if d.order == "" {
		d.order = "ORDER BY " + frag
	} else {
		d.order += ", " + frag
	}
	return d
}

// GroupBy adds one or more comma separated columns to the GROUP BY list.
func (d *DB) GroupBy(cols string) *DB {
	frag := d.EscapeIdentifierList(cols)
	if d.group == "" {
		d.group = "GROUP BY " + frag
	} else {
		d.group += ", " + frag
	}
	return d
}

// Limit sets LIMIT count, or LIMIT offset,count. The last call wins.
// PostgreSQL gets the equivalent LIMIT count OFFSET offset.
func (d *DB) Limit(count int, offset ...int) *DB {
	if count < 0 {
		d.reject(ClauseLimit, "Limit", strconv.Itoa(count), "negative count")
		return d
	}
	if len(offset) == 0 {
		d.limit = "LIMIT " + strconv.Itoa(count)
		return d
	}
	if offset[0] < 0 {
		d.reject(ClauseLimit, "Limit", strconv.Itoa(offset[0]), "negative offset")
		return d
	}
	if d.dialect == dialect.Postgres {
		d.limit = "LIMIT " + strconv.Itoa(count) + " OFFSET " + strconv.Itoa(offset[0])
		return d
	}
	d.limit = "LIMIT " + strconv.Itoa(offset[0]) + "," + strconv.Itoa(count)
	return d
}

// Union stores the query built so far against table from as the first
// half of a UNION. The other fragments stay pending and apply to the
// second query as well, which the next Get runs.
func (d *DB) Union(from string) *DB {
	d.union = d.PreliminaryQuery(from) + " UNION"
	return d
}
