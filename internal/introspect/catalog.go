package introspect

import (
	"context"
	"database/sql"
)

// Catalog runs the four read-only catalog queries for one database engine.
// Implementations live in internal/db/catalogs and register themselves with
// the connector; the scanner only sees this interface.
//
// All methods take the table name already validated by ValidTableName.
type Catalog interface {
	// TableColumns returns the column definitions of table in ordinal
	// order. An empty result means the table does not exist or is not
	// visible to the connected user.
	TableColumns(ctx context.Context, conn *sql.DB, table string) ([]Column, error)

	// RowCount returns the table's row count, or nil when the engine has
	// no statistics row for it.
	RowCount(ctx context.Context, conn *sql.DB, table string) (*int64, error)

	// ParentForeignKeys returns the edges where table is the child side,
	// i.e. the keys pointing at table's parents.
	ParentForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]ForeignKey, error)

	// ChildForeignKeys returns the edges where table is the referenced
	// side, i.e. the keys of table's children.
	ChildForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]ForeignKey, error)
}
