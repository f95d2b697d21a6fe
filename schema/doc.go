// Package schema provides the building blocks for describing tables.
//
// A Schema is an ordered set of typed fields plus indexes. Fields are
// created with kind constructors and configured by chaining:
//
//	users := schema.New("users",
//	    schema.Serial("id"),
//	    schema.String("email").SetRequired().SetMaxSize(255).SetUnique(),
//	    schema.String("name").SetMaxSize(100),
//	    schema.Time("created_at").SetRequired(),
//	)
//
// Chained configuration never fails mid-expression; invalid combinations
// surface when the schema is assembled. New panics on assembly errors
// (schemas are package-level declarations), Build returns them.
//
// # Kinds
//
//	schema.Bool("active")           // BOOLEAN
//	schema.Int("count")             // INTEGER / BIGINT (by size)
//	schema.Serial("id")             // auto-increment integer primary key
//	schema.Float("score")           // REAL / DOUBLE PRECISION
//	schema.Decimal("price", 10, 2)  // NUMERIC(10,2)
//	schema.String("name")           // VARCHAR / TEXT
//	schema.Bytes("blob")            // BLOB / BYTEA
//	schema.Time("created_at")       // TIMESTAMP / TIMESTAMPTZ
//	schema.Date("born")             // DATE
//	schema.JSON("meta")             // TEXT / JSONB, via JSONCodec
//	schema.UUID("token")            // CHARACTER(36) / UUID
//	schema.Object("payload")        // BLOB / BYTEA, via ObjectCodec
//
// # Foreign keys
//
// Ref fields reference another schema's primary key and inherit its storage
// kind. Required refs cascade, optional refs null out:
//
//	posts := schema.New("posts",
//	    schema.Serial("id"),
//	    schema.Ref("user_id", users).SetRequired(),
//	    schema.String("title").SetRequired(),
//	)
//
// # Indexes
//
// Unique fields materialize as unique single-field indexes automatically.
// Composite indexes are declared alongside the fields:
//
//	schema.NewIndexed("events", fields,
//	    schema.IndexFields("kind", "created_at"),
//	    schema.IndexFields("source_id").SetUnique(),
//	)
//
// # Registries
//
// A Registry maps table names to schemas. Registries are explicit values,
// created with NewRegistry and passed where needed.
package schema
