package introspect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrTableNotFound reports that a table has no visible columns in the
// catalog, meaning it does not exist or is hidden from the connected user.
var ErrTableNotFound = errors.New("table not found in catalog")

// Scanner assembles metadata documents for one request over one connection.
// It holds no state beyond the connection and catalog it was built with and
// is discarded when the request ends.
type Scanner struct {
	conn    *sql.DB
	catalog Catalog
}

func NewScanner(conn *sql.DB, catalog Catalog) *Scanner {
	return &Scanner{conn: conn, catalog: catalog}
}

// Fetch returns the column list and row count for table.
// Returns ErrTableNotFound when the catalog has no columns for it; a missing
// statistics row only leaves TotalRows nil.
func (s *Scanner) Fetch(ctx context.Context, table string) (TableMetadata, error) {
	cols, err := s.catalog.TableColumns(ctx, s.conn, table)
	if err != nil {
		return TableMetadata{}, fmt.Errorf("query columns for %s: %w", table, err)
	}
	if len(cols) == 0 {
		return TableMetadata{}, fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}

	rows, err := s.catalog.RowCount(ctx, s.conn, table)
	if err != nil {
		return TableMetadata{}, fmt.Errorf("query row count for %s: %w", table, err)
	}

	return TableMetadata{TableName: table, TotalRows: rows, Columns: cols}, nil
}

// Related holds the one-hop foreign-key neighbourhood of a table.
type Related struct {
	Parents     []TableMetadata
	Children    []TableMetadata
	Constraints []ForeignKey
}

// Resolve gathers the foreign keys around table in both directions and
// fetches the metadata of each distinct related table once, in first-seen
// order. Constraints keep parent-direction edges before child-direction
// edges, each in query order. A related table that has disappeared from the
// catalog is skipped in the metadata lists but its edges remain.
func (s *Scanner) Resolve(ctx context.Context, table string) (Related, error) {
	rel := Related{
		Parents:     []TableMetadata{},
		Children:    []TableMetadata{},
		Constraints: []ForeignKey{},
	}

	parentKeys, err := s.catalog.ParentForeignKeys(ctx, s.conn, table)
	if err != nil {
		return Related{}, fmt.Errorf("query parent foreign keys for %s: %w", table, err)
	}
	childKeys, err := s.catalog.ChildForeignKeys(ctx, s.conn, table)
	if err != nil {
		return Related{}, fmt.Errorf("query child foreign keys for %s: %w", table, err)
	}
	rel.Constraints = append(rel.Constraints, parentKeys...)
	rel.Constraints = append(rel.Constraints, childKeys...)

	parentNames := make([]string, 0, len(parentKeys))
	for _, fk := range parentKeys {
		parentNames = append(parentNames, fk.ReferencedTable)
	}
	childNames := make([]string, 0, len(childKeys))
	for _, fk := range childKeys {
		childNames = append(childNames, fk.ChildTable)
	}

	if rel.Parents, err = s.fetchDistinct(ctx, parentNames); err != nil {
		return Related{}, err
	}
	if rel.Children, err = s.fetchDistinct(ctx, childNames); err != nil {
		return Related{}, err
	}
	return rel, nil
}

// fetchDistinct fetches each distinct name once, preserving first-seen
// order and dropping tables the catalog no longer knows.
func (s *Scanner) fetchDistinct(ctx context.Context, names []string) ([]TableMetadata, error) {
	out := []TableMetadata{}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		meta, err := s.Fetch(ctx, name)
		if errors.Is(err, ErrTableNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

// Aggregate builds the full metadata document for table. The central table
// is fetched first; if it is unknown no relationship query runs. Any query
// failure aborts the whole aggregation, so a partial document is never
// returned.
func (s *Scanner) Aggregate(ctx context.Context, table string) (Aggregate, error) {
	central, err := s.Fetch(ctx, table)
	if err != nil {
		return Aggregate{}, err
	}

	rel, err := s.Resolve(ctx, table)
	if err != nil {
		return Aggregate{}, err
	}

	return Aggregate{
		CentralTables: []TableMetadata{central},
		ParentTables:  rel.Parents,
		ChildTables:   rel.Children,
		Constraints:   rel.Constraints,
	}, nil
}
