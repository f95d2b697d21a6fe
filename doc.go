// Package perch is an object-relational mapping library for SQLite and
// PostgreSQL built around three layers: typed table schemas, a fluent
// backend-agnostic query builder, and deterministic per-dialect SQL
// rendering.
//
// # Layers
//
// The layers are strictly ordered. Schemas describe tables, queries are
// built against schemas, and renderers turn queries into SQL:
//
//	schema  ->  query  ->  dialect/sql
//
// A query never contains SQL text and a renderer never mutates a query.
// Rendering the same query twice always produces the same statement and
// the same argument list.
//
// # Defining a schema
//
//	users := schema.New("users",
//	    schema.Serial("id"),
//	    schema.String("email").SetRequired().SetMaxSize(255).SetUnique(),
//	    schema.String("name").SetMaxSize(100),
//	    schema.Time("created_at").SetRequired(),
//	)
//
// # Building and rendering a query
//
//	q := query.New(users).
//	    Select("id", "email").
//	    Gte("created_at", cutoff).
//	    Desc("created_at").
//	    Limit(10)
//
//	stmt, args, err := sql.NewRenderer(dialect.Postgres).Get(q)
//
// # Executing
//
// The dialect/sql package also provides an execution layer that binds a
// renderer to a database/sql driver, classifies backend failures into the
// error taxonomy defined in this package, and heals missing tables and
// columns on the fly. See [github.com/perch-db/perch/dialect/sql].
//
// # Errors
//
// Failures are reported through typed errors declared here. Each type has
// a matching predicate (IsConstruction, IsTableMissing, IsUnique, ...) and
// bridges to a package sentinel via errors.Is, so both styles work:
//
//	if perch.IsUnique(err) { ... }
//	if errors.Is(err, perch.ErrUniqueViolation) { ... }
package perch
