package catalogs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dbscanner/internal/db"
	"dbscanner/internal/introspect"
)

// mssqlCatalog implements introspect.Catalog for Microsoft SQL Server.
type mssqlCatalog struct{}

func (mssqlCatalog) TableColumns(ctx context.Context, conn *sql.DB, table string) ([]introspect.Column, error) {
	// The PK subquery is joined on column name only, not on the full
	// constraint; a same-named column of a composite key elsewhere can be
	// flagged as primary. Inherited behavior, kept as-is.
	rows, err := conn.QueryContext(ctx, `
        SELECT c.COLUMN_NAME, c.DATA_TYPE, c.CHARACTER_MAXIMUM_LENGTH,
               CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 1 ELSE 0 END AS PRIMARY_KEY,
               CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END AS NULLABLE,
               COLUMNPROPERTY(OBJECT_ID(@object), c.COLUMN_NAME, 'IsIdentity') AS IS_IDENTITY
        FROM INFORMATION_SCHEMA.COLUMNS c
        LEFT JOIN (
            SELECT k.COLUMN_NAME
            FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS t
            JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE k
              ON t.CONSTRAINT_NAME = k.CONSTRAINT_NAME AND t.TABLE_SCHEMA = k.TABLE_SCHEMA
            WHERE t.CONSTRAINT_TYPE = 'PRIMARY KEY' AND k.TABLE_NAME = @pktable
        ) pk ON c.COLUMN_NAME = pk.COLUMN_NAME
        WHERE c.TABLE_NAME = @table
        ORDER BY c.ORDINAL_POSITION`,
		sql.Named("object", table), sql.Named("pktable", table), sql.Named("table", table))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var cols []introspect.Column
	for rows.Next() {
		var col introspect.Column
		var maxLen, identity sql.NullInt64
		var pk, nullable int
		if err := rows.Scan(&col.Name, &col.DataType, &maxLen, &pk, &nullable, &identity); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		if maxLen.Valid {
			col.MaxLength = &maxLen.Int64
		}
		col.PrimaryKey = pk == 1
		col.Nullable = nullable == 1
		col.Identity = identity.Valid && identity.Int64 == 1
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (mssqlCatalog) RowCount(ctx context.Context, conn *sql.DB, table string) (*int64, error) {
	// Partition stats cover heaps (index 0) and clustered indexes (index 1);
	// a table without a stats row yields NULL, not an error.
	var count sql.NullInt64
	err := conn.QueryRowContext(ctx, `
        SELECT SUM(p.row_count)
        FROM sys.dm_db_partition_stats p
        WHERE p.object_id = OBJECT_ID(@table) AND p.index_id IN (0, 1)`,
		sql.Named("table", table)).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query row count: %w", err)
	}
	return nullableCount(count), nil
}

func (mssqlCatalog) ParentForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]introspect.ForeignKey, error) {
	rows, err := conn.QueryContext(ctx, mssqlForeignKeyQuery("fkc.parent_object_id"), sql.Named("table", table))
	if err != nil {
		return nil, fmt.Errorf("query parent foreign keys: %w", err)
	}
	return scanForeignKeys(rows)
}

func (mssqlCatalog) ChildForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]introspect.ForeignKey, error) {
	rows, err := conn.QueryContext(ctx, mssqlForeignKeyQuery("fkc.referenced_object_id"), sql.Named("table", table))
	if err != nil {
		return nil, fmt.Errorf("query child foreign keys: %w", err)
	}
	return scanForeignKeys(rows)
}

// mssqlForeignKeyQuery builds the FK edge query filtered on one side of the
// relationship; filterObject is a column of sys.foreign_key_columns.
func mssqlForeignKeyQuery(filterObject string) string {
	return fmt.Sprintf(`
        SELECT fk.name AS constraint_name,
               OBJECT_NAME(fkc.parent_object_id) AS child_table,
               c.name AS child_column,
               OBJECT_NAME(fkc.referenced_object_id) AS referenced_table,
               rc.name AS referenced_column
        FROM sys.foreign_keys fk
        JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
        JOIN sys.columns c ON fkc.parent_object_id = c.object_id AND fkc.parent_column_id = c.column_id
        JOIN sys.columns rc ON fkc.referenced_object_id = rc.object_id AND fkc.referenced_column_id = rc.column_id
        WHERE OBJECT_NAME(%s) = @table
        ORDER BY fk.name, fkc.constraint_column_id`, filterObject)
}

func init() {
	db.Register("sqlserver", mssqlCatalog{})
	db.Register("mssql", mssqlCatalog{})
}
