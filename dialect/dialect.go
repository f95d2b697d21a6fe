package dialect

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"
)

// Dialect names recognized by the renderer and the execution layer.
const (
	// SQLite is the sqlite dialect. Statements use ? placeholders.
	SQLite = "sqlite"
	// Postgres is the postgres dialect. Statements use $N placeholders.
	Postgres = "postgres"
)

// Paramstyle describes how a dialect marks bind parameters in a statement.
type Paramstyle int

const (
	// Question marks parameters with ?, position implied by order.
	Question Paramstyle = iota
	// Dollar marks parameters with $1, $2, ... ordinals.
	Dollar
)

// String returns the placeholder token for the n-th parameter (1-based).
func (p Paramstyle) String(n int) string {
	if p == Dollar {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// ExecQuerier wraps the two basic Exec and Query methods. It is implemented
// by both Driver and Tx, so code that only runs statements can accept either.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in
	// SQL, INSERT or UPDATE. It scans the result into the pointer v. For
	// SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT. It
	// scans the result into the pointer v. For SQL drivers, it is
	// *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all database operations.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction. The provided context is used
	// until the transaction is committed or rolled back.
	Tx(ctx context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps transactional operations. Statements run on a Tx participate in
// the transaction until Commit or Rollback.
type Tx interface {
	ExecQuerier
	driver.Tx
}

type nopTx struct {
	Driver
}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

// NopTx returns a Tx with a no-op Commit / Rollback.
func NopTx(d Driver) Tx {
	return nopTx{d}
}

// DebugDriver is a driver that logs all driver operations.
type DebugDriver struct {
	Driver              // underlying driver.
	log    *slog.Logger // log function. defaults to slog.Default().
}

// Debug gets a driver and an optional logger, and returns a new debugged
// driver that prints all outgoing operations.
func Debug(d Driver, logger ...*slog.Logger) Driver {
	l := slog.Default()
	if len(logger) == 1 {
		l = logger[0]
	}
	return &DebugDriver{d, l}
}

// Exec logs its params and calls the underlying driver Exec method.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log.Log(ctx, slog.LevelDebug, "driver.Exec", slog.String("query", query), slog.Any("args", args))
	return d.Driver.Exec(ctx, query, args, v)
}

// Query logs its params and calls the underlying driver Query method.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log.Log(ctx, slog.LevelDebug, "driver.Query", slog.String("query", query), slog.Any("args", args))
	return d.Driver.Query(ctx, query, args, v)
}

// Tx adds a log-id for the transaction and calls the underlying driver Tx
// command.
func (d *DebugDriver) Tx(ctx context.Context) (Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	d.log.Log(ctx, slog.LevelDebug, "driver.Tx started")
	return &DebugTx{tx, d.log, ctx}, nil
}

// DebugTx is a transaction implementation that logs all transaction
// operations.
type DebugTx struct {
	Tx                // underlying transaction.
	log *slog.Logger  // log function. defaults to slog.Default().
	ctx context.Context //nolint:containedctx
}

// Exec logs its params and calls the underlying transaction Exec method.
func (d *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	d.log.Log(ctx, slog.LevelDebug, "tx.Exec", slog.String("query", query), slog.Any("args", args))
	return d.Tx.Exec(ctx, query, args, v)
}

// Query logs its params and calls the underlying transaction Query method.
func (d *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	d.log.Log(ctx, slog.LevelDebug, "tx.Query", slog.String("query", query), slog.Any("args", args))
	return d.Tx.Query(ctx, query, args, v)
}

// Commit logs this step and calls the underlying transaction Commit method.
func (d *DebugTx) Commit() error {
	d.log.Log(d.ctx, slog.LevelDebug, "tx.Commit")
	return d.Tx.Commit()
}

// Rollback logs this step and calls the underlying transaction Rollback
// method.
func (d *DebugTx) Rollback() error {
	d.log.Log(d.ctx, slog.LevelDebug, "tx.Rollback")
	return d.Tx.Rollback()
}
