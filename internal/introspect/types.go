// Package introspect holds the table-metadata document types and the
// scanner that assembles them from catalog queries.
package introspect

import "regexp"

// Column describes one column of a table. JSON field names follow the
// catalog-view column names exposed to API consumers.
type Column struct {
	Name       string `json:"COLUMN_NAME"`
	DataType   string `json:"DATA_TYPE"`
	MaxLength  *int64 `json:"CHARACTER_MAXIMUM_LENGTH"`
	PrimaryKey bool   `json:"PRIMARY_KEY"`
	Nullable   bool   `json:"NULLABLE"`
	Identity   bool   `json:"IDENTITY"`
}

// TableMetadata is one table's column list plus its row count.
// TotalRows is nil when the engine has no statistics row for the table.
type TableMetadata struct {
	TableName string   `json:"table_name"`
	TotalRows *int64   `json:"total_rows"`
	Columns   []Column `json:"columns"`
}

// ForeignKey is a single foreign-key edge from a child table/column to the
// referenced (parent) table/column.
type ForeignKey struct {
	Constraint       string `json:"ConstraintName"`
	ChildTable       string `json:"ChildTable"`
	ChildColumn      string `json:"ChildColumn"`
	ReferencedTable  string `json:"ReferencedTable"`
	ReferencedColumn string `json:"ReferencedColumn"`
}

// Aggregate is the full response document for one table: the central table's
// metadata, the metadata of its one-hop foreign-key neighbours in both
// directions, and the raw edges.
type Aggregate struct {
	CentralTables []TableMetadata `json:"central_table_metadata"`
	ParentTables  []TableMetadata `json:"parent_tables_metadata"`
	ChildTables   []TableMetadata `json:"child_tables_metadata"`
	Constraints   []ForeignKey    `json:"constraint_details"`
}

// EmptyAggregate returns a document with all sections present but empty,
// so every list serializes as [] rather than null.
func EmptyAggregate() Aggregate {
	return Aggregate{
		CentralTables: []TableMetadata{},
		ParentTables:  []TableMetadata{},
		ChildTables:   []TableMetadata{},
		Constraints:   []ForeignKey{},
	}
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidTableName reports whether name is a plain identifier. Table names are
// validated before any query runs; some engines cannot bind the name as a
// query parameter everywhere, so nothing outside this pattern may pass.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}
