package catalogs

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"dbscanner/internal/introspect"
)

// openFixture builds the orders/customers/order_items schema in an
// in-memory database. A single pooled connection keeps every statement on
// the same in-memory instance.
func openFixture(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	stmts := []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE orders (
            id INTEGER PRIMARY KEY,
            customer_id INTEGER NOT NULL REFERENCES customers(id),
            note TEXT
        )`,
		`CREATE TABLE order_items (
            id INTEGER PRIMARY KEY,
            order_id INTEGER REFERENCES orders(id),
            qty INTEGER NOT NULL
        )`,
		`INSERT INTO customers (name) VALUES ('alice'), ('bob')`,
		`INSERT INTO orders (customer_id) VALUES (1), (1), (2)`,
		`INSERT INTO order_items (order_id, qty) VALUES (1, 2), (1, 1), (2, 5), (3, 1)`,
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return conn
}

func TestSQLiteTableColumns(t *testing.T) {
	conn := openFixture(t)
	ctx := context.Background()

	cols, err := sqliteCatalog{}.TableColumns(ctx, conn, "orders")
	if err != nil {
		t.Fatalf("TableColumns: %v", err)
	}
	want := []introspect.Column{
		{Name: "id", DataType: "INTEGER", PrimaryKey: true, Nullable: true, Identity: true},
		{Name: "customer_id", DataType: "INTEGER"},
		{Name: "note", DataType: "TEXT", Nullable: true},
	}
	if len(cols) != len(want) {
		t.Fatalf("got %d columns, wanted %d: %+v", len(cols), len(want), cols)
	}
	for i, w := range want {
		if cols[i] != w {
			t.Errorf("column %d: got %+v, wanted %+v", i, cols[i], w)
		}
	}
}

func TestSQLiteTableColumnsUnknownTable(t *testing.T) {
	conn := openFixture(t)

	cols, err := sqliteCatalog{}.TableColumns(context.Background(), conn, "no_such_table")
	if err != nil {
		t.Fatalf("TableColumns: %v", err)
	}
	if len(cols) != 0 {
		t.Errorf("got columns for a missing table: %+v", cols)
	}
}

func TestSQLiteRowCount(t *testing.T) {
	conn := openFixture(t)

	count, err := sqliteCatalog{}.RowCount(context.Background(), conn, "orders")
	if err != nil {
		t.Fatalf("RowCount: %v", err)
	}
	if count == nil || *count != 3 {
		t.Errorf("got %v, wanted 3", count)
	}
}

func TestSQLiteForeignKeys(t *testing.T) {
	conn := openFixture(t)
	ctx := context.Background()

	parents, err := sqliteCatalog{}.ParentForeignKeys(ctx, conn, "orders")
	if err != nil {
		t.Fatalf("ParentForeignKeys: %v", err)
	}
	if len(parents) != 1 {
		t.Fatalf("got %d parent keys, wanted 1: %+v", len(parents), parents)
	}
	p := parents[0]
	if p.ChildTable != "orders" || p.ChildColumn != "customer_id" ||
		p.ReferencedTable != "customers" || p.ReferencedColumn != "id" {
		t.Errorf("parent key: %+v", p)
	}

	children, err := sqliteCatalog{}.ChildForeignKeys(ctx, conn, "orders")
	if err != nil {
		t.Fatalf("ChildForeignKeys: %v", err)
	}
	if len(children) != 1 {
		t.Fatalf("got %d child keys, wanted 1: %+v", len(children), children)
	}
	c := children[0]
	if c.ChildTable != "order_items" || c.ChildColumn != "order_id" ||
		c.ReferencedTable != "orders" || c.ReferencedColumn != "id" {
		t.Errorf("child key: %+v", c)
	}
}

// TestSQLiteAggregate runs the whole scanner against the fixture schema.
func TestSQLiteAggregate(t *testing.T) {
	conn := openFixture(t)

	agg, err := introspect.NewScanner(conn, sqliteCatalog{}).Aggregate(context.Background(), "orders")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(agg.CentralTables) != 1 || agg.CentralTables[0].TableName != "orders" {
		t.Fatalf("central tables: %+v", agg.CentralTables)
	}
	if agg.CentralTables[0].TotalRows == nil || *agg.CentralTables[0].TotalRows != 3 {
		t.Errorf("central total_rows: %+v", agg.CentralTables[0].TotalRows)
	}
	if len(agg.ParentTables) != 1 || agg.ParentTables[0].TableName != "customers" {
		t.Errorf("parent tables: %+v", agg.ParentTables)
	}
	if len(agg.ChildTables) != 1 || agg.ChildTables[0].TableName != "order_items" {
		t.Errorf("child tables: %+v", agg.ChildTables)
	}
	if len(agg.Constraints) != 2 {
		t.Errorf("constraints: %+v", agg.Constraints)
	}
}
