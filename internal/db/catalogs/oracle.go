//go:build oracle
// +build oracle

package catalogs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/godror/godror"

	"dbscanner/internal/db"
	"dbscanner/internal/introspect"
)

// oracleCatalog implements introspect.Catalog for Oracle via the user_*
// dictionary views, so lookups are scoped to the connected schema. Oracle
// stores identifiers in upper case; callers are expected to pass table names
// as stored.
type oracleCatalog struct{}

func (oracleCatalog) TableColumns(ctx context.Context, conn *sql.DB, table string) ([]introspect.Column, error) {
	rows, err := conn.QueryContext(ctx, `
        SELECT tc.column_name, tc.data_type, tc.char_length,
               CASE WHEN pk.column_name IS NOT NULL THEN 1 ELSE 0 END,
               CASE WHEN tc.nullable = 'Y' THEN 1 ELSE 0 END,
               CASE WHEN ic.column_name IS NOT NULL THEN 1 ELSE 0 END
        FROM user_tab_columns tc
        LEFT JOIN (
            SELECT acc.column_name
            FROM user_cons_columns acc
            JOIN user_constraints ac ON acc.constraint_name = ac.constraint_name
            WHERE ac.constraint_type = 'P' AND acc.table_name = :1
        ) pk ON tc.column_name = pk.column_name
        LEFT JOIN user_tab_identity_cols ic
          ON ic.table_name = tc.table_name AND ic.column_name = tc.column_name
        WHERE tc.table_name = :2
        ORDER BY tc.column_id`, table, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var cols []introspect.Column
	for rows.Next() {
		var col introspect.Column
		var charLen sql.NullInt64
		var pk, nullable, identity int
		if err := rows.Scan(&col.Name, &col.DataType, &charLen, &pk, &nullable, &identity); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		// char_length is 0 for non-character types
		if charLen.Valid && charLen.Int64 > 0 {
			col.MaxLength = &charLen.Int64
		}
		col.PrimaryKey = pk == 1
		col.Nullable = nullable == 1
		col.Identity = identity == 1
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (oracleCatalog) RowCount(ctx context.Context, conn *sql.DB, table string) (*int64, error) {
	// num_rows is populated by statistics gathering and NULL before the
	// first analyze, same contract as the other engines.
	var count sql.NullInt64
	err := conn.QueryRowContext(ctx, `
        SELECT num_rows FROM user_tables WHERE table_name = :1`, table).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query row count: %w", err)
	}
	return nullableCount(count), nil
}

func (oracleCatalog) ParentForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]introspect.ForeignKey, error) {
	rows, err := conn.QueryContext(ctx, oracleForeignKeyQuery("acc.table_name"), table)
	if err != nil {
		return nil, fmt.Errorf("query parent foreign keys: %w", err)
	}
	return scanForeignKeys(rows)
}

func (oracleCatalog) ChildForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]introspect.ForeignKey, error) {
	rows, err := conn.QueryContext(ctx, oracleForeignKeyQuery("rcc.table_name"), table)
	if err != nil {
		return nil, fmt.Errorf("query child foreign keys: %w", err)
	}
	return scanForeignKeys(rows)
}

func oracleForeignKeyQuery(filterColumn string) string {
	return fmt.Sprintf(`
        SELECT ac.constraint_name, acc.table_name, acc.column_name, rcc.table_name, rcc.column_name
        FROM user_constraints ac
        JOIN user_cons_columns acc ON ac.constraint_name = acc.constraint_name
        JOIN user_cons_columns rcc ON ac.r_constraint_name = rcc.constraint_name AND acc.position = rcc.position
        WHERE ac.constraint_type = 'R' AND %s = :1
        ORDER BY ac.constraint_name, acc.position`, filterColumn)
}

func init() {
	db.Register("godror", oracleCatalog{})
	db.Register("oracle", oracleCatalog{})
}
