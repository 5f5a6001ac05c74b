package dbcon

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/syssam/dbcon/dialect"
)

// aliasRe matches the AS keyword of "expr AS alias" in any case.
var aliasRe = regexp.MustCompile(`(?i)\s+as\s+`)

// EscapeValue escapes a scalar so it is safe between single quotes.
// Booleans render as 1/0, times as "2006-01-02 15:04:05" and nil as "".
func (d *DB) EscapeValue(v any) string {
	return dialect.EscapeString(d.dialect, stringify(v))
}

// EscapeIdentifier quotes a possibly dotted identifier: every segment is
// trimmed and quoted on its own, so "db.users" becomes `db`.`users`.
// A "*" segment stays bare.
func (d *DB) EscapeIdentifier(col string) string {
	parts := strings.Split(col, ".")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "*" {
			parts[i] = p
			continue
		}
		parts[i] = dialect.QuoteIdent(d.dialect, p)
	}
	return strings.Join(parts, ".")
}

// EscapeIdentifierList quotes a comma separated identifier list where each
// element may carry an "AS alias" suffix.
func (d *DB) EscapeIdentifierList(cols string) string {
	items := strings.Split(cols, ",")
	for i, item := range items {
		if loc := aliasRe.FindStringIndex(item); loc != nil {
			alias := strings.TrimSpace(item[loc[1]:])
			items[i] = d.EscapeIdentifier(item[:loc[0]]) + " AS " + dialect.QuoteIdent(d.dialect, alias)
			continue
		}
		items[i] = d.EscapeIdentifier(item)
	}
	return strings.Join(items, ", ")
}

// EscapeJoinCondition quotes both sides of an "a.col = b.col" condition.
// An expression without "=" is quoted as one identifier and left for the
// server to reject.
func (d *DB) EscapeJoinCondition(expr string) string {
	left, right, ok := strings.Cut(expr, "=")
	if !ok {
		return d.EscapeIdentifier(expr)
	}
	return d.EscapeIdentifier(left) + " = " + d.EscapeIdentifier(right)
}

// quote renders v as a quoted, escaped literal.
func (d *DB) quote(v any) string {
	return "'" + d.EscapeValue(v) + "'"
}

// literal is quote with nil rendered as NULL, for INSERT and UPDATE data.
func (d *DB) literal(v any) string {
	if v == nil {
		return "NULL"
	}
	return d.quote(v)
}

// valueList renders a slice (or a single scalar) as "('a', 'b')".
func (d *DB) valueList(values any, render func(any) string) (string, int) {
	items := flatten(values)
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = render(v)
	}
	return "(" + strings.Join(out, ", ") + ")", len(items)
}

// flatten returns the elements of a slice or array, or v itself for scalars.
// []byte is a scalar.
func flatten(v any) []any {
	if v == nil {
		return []any{nil}
	}
	if items, ok := v.([]any); ok {
		return items
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return []any{v}
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items
	default:
		return []any{v}
	}
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return "0"
	case time.Time:
		return v.Format(time.DateTime)
	case []byte:
		return string(v)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
