// Package sql renders queries into dialect-specific SQL and executes them.
//
// The package has two halves. The Renderer turns a query into one
// statement plus its argument list, deterministically, for one dialect:
//
//	r := sql.NewRenderer(dialect.Postgres)
//	stmt, args, err := r.Get(q)
//	// SELECT id, email FROM users WHERE created_at >= $1 ORDER BY created_at DESC LIMIT 10
//
// The Interface binds a renderer to a database/sql driver and runs queries
// end to end:
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	itf := sql.NewInterface(drv)
//	it, err := itf.Get(ctx, q)
//	for it.Next() {
//	    row := it.Row()
//	}
//
// # Dialects
//
// SQLite statements use ? placeholders, NULL comparisons with IS / IS NOT,
// strftime date extraction, and LIMIT -1 for an offset without a limit.
// PostgreSQL statements use $N placeholders, IS [NOT] DISTINCT FROM,
// EXTRACT date parts, LIMIT ALL, and RETURNING for generated keys.
//
// # Failure handling
//
// Driver errors are classified into the root taxonomy. The Interface heals
// what it can: a missing table is created (tables referenced by foreign
// keys first, concurrent creations deduplicated) and the statement retried
// once; missing addable columns are added and retried once; a closed
// connection retries up to three times with linear backoff. Unique
// violations and malformed statements always propagate.
//
// # Transactions
//
// Interface.Begin starts a transaction. Nested Begin calls map to
// savepoints, so inner rollbacks do not tear down the outer transaction.
//
// # Observability
//
// NewStatsDriver wraps any driver with query counters and slow-query
// detection; dialect.Debug wraps one with statement logging. Both slot
// between the Interface and the raw driver.
package sql
