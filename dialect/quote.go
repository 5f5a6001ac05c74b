package dialect

import (
	"strings"

	"github.com/lib/pq"
)

// QuoteIdent quotes a single identifier segment (no dot splitting) for the
// given dialect. Quote characters inside the segment are doubled.
func QuoteIdent(name, ident string) string {
	switch name {
	case Postgres, SQLite:
		return pq.QuoteIdentifier(ident)
	default:
		if !strings.Contains(ident, "`") {
			return "`" + ident + "`"
		}
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
}

// EscapeString escapes s so it can be placed between single quotes in a
// statement of the given dialect. PostgreSQL literals are escaped for
// standard_conforming_strings = on, where a backslash is an ordinary
// character; ConnectStatements sets it.
func EscapeString(name, s string) string {
	switch name {
	case Postgres, SQLite:
		if !strings.Contains(s, "'") {
			return s
		}
		return strings.ReplaceAll(s, "'", "''")
	default:
		return escapeBackslash(s)
	}
}

// escapeBackslash mirrors mysql_real_escape_string for the default sql_mode
// (NO_BACKSLASH_ESCAPES disabled). All escaped characters are ASCII, so
// multi-byte UTF-8 sequences pass through untouched.
func escapeBackslash(s string) string {
	if !strings.ContainsAny(s, "\x00\n\r\\'\"\x1a") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\x00':
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\x1a':
			b.WriteString(`\Z`)
		case '\\', '\'', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ConnectStatements returns the statements run right after connecting.
// They force UTF-8 client encoding and, on PostgreSQL, the string literal
// rules EscapeString relies on.
func ConnectStatements(name string) []string {
	switch name {
	case MySQL:
		return []string{"SET NAMES utf8"}
	case Postgres:
		return []string{
			"SET client_encoding TO 'UTF8'",
			"SET standard_conforming_strings = on",
		}
	default:
		return nil
	}
}
