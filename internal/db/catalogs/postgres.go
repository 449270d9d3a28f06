package catalogs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dbscanner/internal/db"
	"dbscanner/internal/introspect"
)

// pgCatalog implements introspect.Catalog using information_schema and
// pg_catalog queries.
type pgCatalog struct{}

func (pgCatalog) TableColumns(ctx context.Context, conn *sql.DB, table string) ([]introspect.Column, error) {
	// Same name-only PK join as the sqlserver catalog.
	rows, err := conn.QueryContext(ctx, `
        SELECT c.column_name, c.data_type, c.character_maximum_length,
               pk.column_name IS NOT NULL,
               c.is_nullable = 'YES',
               c.is_identity = 'YES' OR COALESCE(c.column_default, '') LIKE 'nextval(%'
        FROM information_schema.columns c
        LEFT JOIN (
            SELECT k.column_name
            FROM information_schema.table_constraints t
            JOIN information_schema.key_column_usage k
              ON t.constraint_name = k.constraint_name AND t.table_schema = k.table_schema
            WHERE t.constraint_type = 'PRIMARY KEY' AND k.table_name = $1
        ) pk ON c.column_name = pk.column_name
        WHERE c.table_name = $2
        ORDER BY c.ordinal_position`, table, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var cols []introspect.Column
	for rows.Next() {
		var col introspect.Column
		var maxLen sql.NullInt64
		if err := rows.Scan(&col.Name, &col.DataType, &maxLen, &col.PrimaryKey, &col.Nullable, &col.Identity); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		if maxLen.Valid {
			col.MaxLength = &maxLen.Int64
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (pgCatalog) RowCount(ctx context.Context, conn *sql.DB, table string) (*int64, error) {
	// Statistics-based, like the sqlserver partition stats; a table the
	// stats collector has not seen yet simply has no row here.
	var count sql.NullInt64
	err := conn.QueryRowContext(ctx, `
        SELECT n_live_tup FROM pg_stat_user_tables WHERE relname = $1`, table).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query row count: %w", err)
	}
	return nullableCount(count), nil
}

func (pgCatalog) ParentForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]introspect.ForeignKey, error) {
	rows, err := conn.QueryContext(ctx, pgForeignKeyQuery("src.relname"), table)
	if err != nil {
		return nil, fmt.Errorf("query parent foreign keys: %w", err)
	}
	return scanForeignKeys(rows)
}

func (pgCatalog) ChildForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]introspect.ForeignKey, error) {
	rows, err := conn.QueryContext(ctx, pgForeignKeyQuery("tgt.relname"), table)
	if err != nil {
		return nil, fmt.Errorf("query child foreign keys: %w", err)
	}
	return scanForeignKeys(rows)
}

// pgForeignKeyQuery builds the FK edge query filtered on one side of the
// relationship. Only the first column of each constraint is reported, which
// matches the single-column scope of the scanner.
func pgForeignKeyQuery(filterColumn string) string {
	return fmt.Sprintf(`
        SELECT con.conname, src.relname, sa.attname, tgt.relname, ta.attname
        FROM pg_constraint con
        JOIN pg_class src ON con.conrelid = src.oid
        JOIN pg_class tgt ON con.confrelid = tgt.oid
        JOIN pg_attribute sa ON sa.attrelid = src.oid AND sa.attnum = con.conkey[1]
        JOIN pg_attribute ta ON ta.attrelid = tgt.oid AND ta.attnum = con.confkey[1]
        WHERE con.contype = 'f' AND %s = $1
        ORDER BY con.conname`, filterColumn)
}

func init() {
	db.Register("postgres", pgCatalog{})
}
