// Package catalogs implements the per-engine catalog queries behind
// introspect.Catalog. Each engine registers itself with the connector in an
// init function, mirroring the database/sql driver registration it relies on.
package catalogs

import (
	"database/sql"

	"dbscanner/internal/introspect"
)

// scanForeignKeys drains a result set whose columns are, in order:
// constraint name, child table, child column, referenced table, referenced
// column. Every engine's foreign-key queries are written to that shape.
func scanForeignKeys(rows *sql.Rows) ([]introspect.ForeignKey, error) {
	defer rows.Close()

	var keys []introspect.ForeignKey
	for rows.Next() {
		var fk introspect.ForeignKey
		if err := rows.Scan(&fk.Constraint, &fk.ChildTable, &fk.ChildColumn, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, err
		}
		keys = append(keys, fk)
	}
	return keys, rows.Err()
}

// nullableCount converts a scanned aggregate into the *int64 the scanner
// expects: engines report "no statistics" either as no row or as NULL.
func nullableCount(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
