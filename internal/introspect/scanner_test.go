package introspect

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

// stubCatalog serves canned catalog data and can be told to fail a single
// query step.
type stubCatalog struct {
	columns  map[string][]Column
	counts   map[string]int64
	parents  map[string][]ForeignKey
	children map[string][]ForeignKey

	failOn string // one of "columns", "count", "parents", "children"
	calls  map[string]int
}

func (c *stubCatalog) record(op string) error {
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[op]++
	if c.failOn == op {
		return errors.New("simulated failure")
	}
	return nil
}

func (c *stubCatalog) TableColumns(_ context.Context, _ *sql.DB, table string) ([]Column, error) {
	if err := c.record("columns"); err != nil {
		return nil, err
	}
	return c.columns[table], nil
}

func (c *stubCatalog) RowCount(_ context.Context, _ *sql.DB, table string) (*int64, error) {
	if err := c.record("count"); err != nil {
		return nil, err
	}
	if n, ok := c.counts[table]; ok {
		return &n, nil
	}
	return nil, nil
}

func (c *stubCatalog) ParentForeignKeys(_ context.Context, _ *sql.DB, table string) ([]ForeignKey, error) {
	if err := c.record("parents"); err != nil {
		return nil, err
	}
	return c.parents[table], nil
}

func (c *stubCatalog) ChildForeignKeys(_ context.Context, _ *sql.DB, table string) ([]ForeignKey, error) {
	if err := c.record("children"); err != nil {
		return nil, err
	}
	return c.children[table], nil
}

func idColumn() Column {
	return Column{Name: "id", DataType: "int", PrimaryKey: true, Identity: true}
}

// ordersCatalog models orders referencing customers, with order_items
// referencing orders.
func ordersCatalog() *stubCatalog {
	return &stubCatalog{
		columns: map[string][]Column{
			"orders":      {idColumn(), {Name: "customer_id", DataType: "int"}},
			"customers":   {idColumn(), {Name: "name", DataType: "varchar", Nullable: true}},
			"order_items": {idColumn(), {Name: "order_id", DataType: "int"}},
		},
		counts: map[string]int64{"orders": 100, "customers": 7, "order_items": 250},
		parents: map[string][]ForeignKey{
			"orders": {{Constraint: "FK_orders_customers", ChildTable: "orders", ChildColumn: "customer_id",
				ReferencedTable: "customers", ReferencedColumn: "id"}},
		},
		children: map[string][]ForeignKey{
			"orders": {{Constraint: "FK_order_items_orders", ChildTable: "order_items", ChildColumn: "order_id",
				ReferencedTable: "orders", ReferencedColumn: "id"}},
		},
	}
}

func TestFetchUnknownTable(t *testing.T) {
	cat := ordersCatalog()
	sc := NewScanner(nil, cat)

	_, err := sc.Fetch(context.Background(), "no_such_table")
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("got err %v, wanted ErrTableNotFound", err)
	}
	if cat.calls["count"] != 0 {
		t.Errorf("row count queried for an unknown table")
	}
}

func TestFetchMissingRowCount(t *testing.T) {
	cat := ordersCatalog()
	delete(cat.counts, "orders")
	sc := NewScanner(nil, cat)

	meta, err := sc.Fetch(context.Background(), "orders")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if meta.TotalRows != nil {
		t.Errorf("got total_rows %v, wanted nil", *meta.TotalRows)
	}
	if len(meta.Columns) != 2 {
		t.Errorf("got %d columns, wanted 2", len(meta.Columns))
	}
}

func TestAggregateOrders(t *testing.T) {
	sc := NewScanner(nil, ordersCatalog())

	agg, err := sc.Aggregate(context.Background(), "orders")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if len(agg.CentralTables) != 1 || agg.CentralTables[0].TableName != "orders" {
		t.Fatalf("central tables: %+v", agg.CentralTables)
	}
	if agg.CentralTables[0].TotalRows == nil || *agg.CentralTables[0].TotalRows != 100 {
		t.Errorf("central total_rows: %+v", agg.CentralTables[0].TotalRows)
	}
	if len(agg.ParentTables) != 1 || agg.ParentTables[0].TableName != "customers" {
		t.Errorf("parent tables: %+v", agg.ParentTables)
	}
	if len(agg.ChildTables) != 1 || agg.ChildTables[0].TableName != "order_items" {
		t.Errorf("child tables: %+v", agg.ChildTables)
	}

	if len(agg.Constraints) != 2 {
		t.Fatalf("got %d constraints, wanted 2", len(agg.Constraints))
	}
	// parent-direction edges come before child-direction edges
	if agg.Constraints[0].Constraint != "FK_orders_customers" {
		t.Errorf("first constraint: %+v", agg.Constraints[0])
	}
	if agg.Constraints[1].Constraint != "FK_order_items_orders" {
		t.Errorf("second constraint: %+v", agg.Constraints[1])
	}
}

func TestAggregateNotFoundSkipsRelationships(t *testing.T) {
	cat := ordersCatalog()
	sc := NewScanner(nil, cat)

	_, err := sc.Aggregate(context.Background(), "no_such_table")
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("got err %v, wanted ErrTableNotFound", err)
	}
	if cat.calls["parents"] != 0 || cat.calls["children"] != 0 {
		t.Errorf("relationship queries ran for an unknown central table: %v", cat.calls)
	}
}

func TestResolveDeduplicatesRelatedTables(t *testing.T) {
	cat := ordersCatalog()
	cat.parents["orders"] = append(cat.parents["orders"], ForeignKey{
		Constraint: "FK_orders_billing_customer", ChildTable: "orders", ChildColumn: "billing_customer_id",
		ReferencedTable: "customers", ReferencedColumn: "id",
	})
	sc := NewScanner(nil, cat)

	rel, err := sc.Resolve(context.Background(), "orders")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(rel.Parents) != 1 || rel.Parents[0].TableName != "customers" {
		t.Errorf("parents not deduplicated: %+v", rel.Parents)
	}
	// both edges survive deduplication of the metadata list
	if len(rel.Constraints) != 3 {
		t.Errorf("got %d constraints, wanted 3", len(rel.Constraints))
	}
}

func TestResolveSkipsDroppedRelatedTable(t *testing.T) {
	cat := ordersCatalog()
	delete(cat.columns, "order_items") // dropped since the FK was recorded
	sc := NewScanner(nil, cat)

	rel, err := sc.Resolve(context.Background(), "orders")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(rel.Children) != 0 {
		t.Errorf("dropped table still listed: %+v", rel.Children)
	}
	if len(rel.Constraints) != 2 {
		t.Errorf("edge of dropped table missing: %+v", rel.Constraints)
	}
}

func TestAggregateAbortsOnQueryFailure(t *testing.T) {
	for _, step := range []string{"count", "parents", "children"} {
		t.Run(step, func(t *testing.T) {
			cat := ordersCatalog()
			cat.failOn = step
			sc := NewScanner(nil, cat)

			_, err := sc.Aggregate(context.Background(), "orders")
			if err == nil {
				t.Fatalf("expected an error, did not receive one")
			}
			if errors.Is(err, ErrTableNotFound) {
				t.Errorf("query failure reported as not-found: %v", err)
			}
		})
	}
}

func TestValidTableName(t *testing.T) {
	var tests = []struct {
		name  string
		valid bool
	}{
		{"orders", true},
		{"Order_Items2", true},
		{"_x", true},
		{"", false},
		{"orders; DROP TABLE x", false},
		{"orders!", false},
		{"or-ders", false},
		{"schema.orders", false},
	}

	for _, tt := range tests {
		if got := ValidTableName(tt.name); got != tt.valid {
			t.Errorf("ValidTableName(%q) = %v, wanted %v", tt.name, got, tt.valid)
		}
	}
}
