package mysql

import "regexp"

// identifier limits table names to what can be safely backquoted.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

func quote(name string) string { return "`" + name + "`" }

func selectAllSQL(table string) string { return "SELECT * FROM " + quote(table) }

// probeColumnsSQL returns no rows but a full column list.
func probeColumnsSQL(table string) string { return "SELECT * FROM " + quote(table) + " LIMIT 0" }

func deleteAllSQL(table string) string { return "DELETE FROM " + quote(table) }

// insertRowsPrefix is followed by one "(?,?,...)" group per row.
func insertRowsPrefix(table string, cols []string) string {
	q := make([]byte, 0, 64)
	q = append(q, "INSERT INTO "+quote(table)+"\n  ("...)
	for i, c := range cols {
		if i > 0 {
			q = append(q, ", "...)
		}
		q = append(q, quote(c)...)
	}
	q = append(q, ")\nVALUES "...)
	return string(q)
}
