package catalogs

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"dbscanner/internal/db"
	"dbscanner/internal/introspect"
)

// sqliteCatalog implements introspect.Catalog for SQLite.
// PRAGMA arguments cannot be bound as parameters; interpolation is safe here
// because every table name is validated against the identifier pattern
// before a catalog is invoked.
type sqliteCatalog struct{}

func (sqliteCatalog) TableColumns(ctx context.Context, conn *sql.DB, table string) ([]introspect.Column, error) {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info('%s')", table))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var cols []introspect.Column
	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		cols = append(cols, introspect.Column{
			Name:     name,
			DataType: ctype,
			Nullable: notnull == 0,
			// SQLite has no declared length or identity columns; an
			// INTEGER primary key is a rowid alias that auto-assigns,
			// the closest native equivalent of identity.
			PrimaryKey: pk != 0,
			Identity:   pk != 0 && strings.EqualFold(ctype, "INTEGER"),
		})
	}
	return cols, rows.Err()
}

func (sqliteCatalog) RowCount(ctx context.Context, conn *sql.DB, table string) (*int64, error) {
	var count int64
	if err := conn.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, table)).Scan(&count); err != nil {
		return nil, fmt.Errorf("query row count: %w", err)
	}
	return &count, nil
}

func (sqliteCatalog) ParentForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]introspect.ForeignKey, error) {
	return sqliteKeysOf(ctx, conn, table, "")
}

// ChildForeignKeys walks every user table's foreign-key list because SQLite
// only exposes the outgoing keys of a table, never the incoming ones.
func (sqliteCatalog) ChildForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]introspect.ForeignKey, error) {
	tr, err := conn.QueryContext(ctx, `
        SELECT name FROM sqlite_master
        WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
        ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer tr.Close()

	var names []string
	for tr.Next() {
		var name string
		if err := tr.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		names = append(names, name)
	}
	if err := tr.Err(); err != nil {
		return nil, err
	}

	var keys []introspect.ForeignKey
	for _, name := range names {
		if name == table {
			continue // self-references already appear as parent keys
		}
		edges, err := sqliteKeysOf(ctx, conn, name, table)
		if err != nil {
			return nil, err
		}
		keys = append(keys, edges...)
	}
	return keys, nil
}

// sqliteKeysOf returns the outgoing foreign keys of child, optionally
// filtered to those referencing a single table. SQLite foreign keys are
// unnamed, so a stable constraint name is synthesized from the child table
// and the key's id.
func sqliteKeysOf(ctx context.Context, conn *sql.DB, child, referencedFilter string) ([]introspect.ForeignKey, error) {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT "id", "table", "from", "to" FROM pragma_foreign_key_list('%s') ORDER BY "id", "seq"`, child))
	if err != nil {
		return nil, fmt.Errorf("query foreign keys for %s: %w", child, err)
	}
	defer rows.Close()

	var keys []introspect.ForeignKey
	for rows.Next() {
		var id int
		var referenced, from string
		var to sql.NullString
		if err := rows.Scan(&id, &referenced, &from, &to); err != nil {
			return nil, fmt.Errorf("scan foreign key for %s: %w", child, err)
		}
		if referencedFilter != "" && referenced != referencedFilter {
			continue
		}
		keys = append(keys, introspect.ForeignKey{
			Constraint:       fmt.Sprintf("fk_%s_%d", child, id),
			ChildTable:       child,
			ChildColumn:      from,
			ReferencedTable:  referenced,
			ReferencedColumn: to.String, // empty when the key targets the implicit primary key
		})
	}
	return keys, rows.Err()
}

func init() {
	db.Register("sqlite", sqliteCatalog{})
	db.Register("sqlite3", sqliteCatalog{})
}
