package catalogs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dbscanner/internal/db"
	"dbscanner/internal/introspect"
)

// myCatalog implements introspect.Catalog for MySQL (information_schema).
// All lookups are scoped to the schema of the current connection.
type myCatalog struct{}

func (myCatalog) TableColumns(ctx context.Context, conn *sql.DB, table string) ([]introspect.Column, error) {
	rows, err := conn.QueryContext(ctx, `
        SELECT column_name, data_type, character_maximum_length,
               column_key = 'PRI', is_nullable = 'YES', extra LIKE '%auto_increment%'
        FROM information_schema.columns
        WHERE table_schema = DATABASE() AND table_name = ?
        ORDER BY ordinal_position`, table)
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

func (myCatalog) RowCount(ctx context.Context, conn *sql.DB, table string) (*int64, error) {
	// TABLE_ROWS is an estimate for InnoDB and NULL for some engines.
	var count sql.NullInt64
	err := conn.QueryRowContext(ctx, `
        SELECT table_rows FROM information_schema.tables
        WHERE table_schema = DATABASE() AND table_name = ?`, table).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query row count: %w", err)
	}
	return nullableCount(count), nil
}

func (myCatalog) ParentForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]introspect.ForeignKey, error) {
	rows, err := conn.QueryContext(ctx, `
        SELECT constraint_name, table_name, column_name, referenced_table_name, referenced_column_name
        FROM information_schema.key_column_usage
        WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL
        ORDER BY constraint_name, ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("query parent foreign keys: %w", err)
	}
	return scanForeignKeys(rows)
}

func (myCatalog) ChildForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]introspect.ForeignKey, error) {
	rows, err := conn.QueryContext(ctx, `
        SELECT constraint_name, table_name, column_name, referenced_table_name, referenced_column_name
        FROM information_schema.key_column_usage
        WHERE referenced_table_schema = DATABASE() AND referenced_table_name = ?
        ORDER BY constraint_name, ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("query child foreign keys: %w", err)
	}
	return scanForeignKeys(rows)
}

func init() {
	db.Register("mysql", myCatalog{})
	db.Register("mariadb", myCatalog{})
}
