// Package db maps dialect names to catalog implementations and opens
// per-request database connections.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"dbscanner/internal/introspect"
	"dbscanner/pkg/config"
)

var dialects = map[string]introspect.Catalog{}

// Register makes a Catalog available under name.
func Register(name string, c introspect.Catalog) {
	dialects[strings.ToLower(name)] = c
}

// listRegistered returns the registered dialect keys (for diagnostics).
func listRegistered() []string {
	keys := make([]string, 0, len(dialects))
	for k := range dialects {
		keys = append(keys, k)
	}
	return keys
}

// RegisteredDialects is a helper that allows main to print registered dialects.
func RegisteredDialects() []string {
	return listRegistered()
}

// Open connects to the database and returns the connection together with the
// catalog for its dialect. The connection is verified with a ping bounded by
// timeout. The caller owns the handle and must close it on every exit path.
func Open(driver, dsn string, timeout time.Duration) (*sql.DB, introspect.Catalog, error) {
	driver = config.NormalizeDriver(driver)
	catalog, ok := dialects[driver]
	if !ok {
		return nil, nil, fmt.Errorf("dialect not registered: %q (available: %v)", driver, listRegistered())
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, catalog, nil
}
