// Package dialect provides database dialect abstraction for perch.
//
// This package defines the interfaces and types used for database-specific
// operations, allowing perch to support multiple database backends. Two
// dialects are supported:
//
//	dialect.SQLite   = "sqlite"
//	dialect.Postgres = "postgres"
//
// # Paramstyle
//
// Dialects differ in how they mark bind parameters. SQLite uses positional
// question marks, PostgreSQL uses dollar ordinals:
//
//	dialect.Question.String(3) // "?"
//	dialect.Dollar.String(3)   // "$3"
//
// # Driver Interface
//
// The package defines the Driver interface for database operations:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The ExecQuerier interface is the subset implemented by both Driver and Tx,
// so code that only runs statements can accept either.
//
// # Usage
//
// Opening a database connection:
//
//	import (
//	    "github.com/perch-db/perch/dialect"
//	    "github.com/perch-db/perch/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// # Sub-packages
//
//   - dialect/sql: SQL rendering, driver implementation, and the execution
//     layer with schema healing.
package dialect
