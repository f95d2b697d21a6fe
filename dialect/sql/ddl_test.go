package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perch-db/perch/dialect"
	"github.com/perch-db/perch/schema"
)

func TestCreateTable(t *testing.T) {
	s := schema.New("users",
		schema.Serial("id"),
		schema.String("email").SetRequired().SetMaxSize(255),
		schema.Int("hits").SetDefault(0),
	)

	t.Run("sqlite", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		stmt, err := r.CreateTable(s)
		require.NoError(t, err)
		assert.Equal(t,
			"CREATE TABLE IF NOT EXISTS users (id INTEGER PRIMARY KEY, email VARCHAR(255) NOT NULL, hits INTEGER DEFAULT 0)",
			stmt,
		)
	})

	t.Run("postgres", func(t *testing.T) {
		r := NewRenderer(dialect.Postgres)
		stmt, err := r.CreateTable(s)
		require.NoError(t, err)
		assert.Equal(t,
			"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, email VARCHAR(255) NOT NULL, hits INTEGER DEFAULT 0)",
			stmt,
		)
	})
}

func TestCreateTableForeignKeys(t *testing.T) {
	owners := schema.New("owners", schema.Serial("id"), schema.String("name"))

	t.Run("required_cascades", func(t *testing.T) {
		pets := schema.New("pets",
			schema.Serial("id"),
			schema.Ref("owner_id", owners).SetRequired(),
		)
		r := NewRenderer(dialect.SQLite)
		stmt, err := r.CreateTable(pets)
		require.NoError(t, err)
		assert.Equal(t,
			"CREATE TABLE IF NOT EXISTS pets (id INTEGER PRIMARY KEY, owner_id INTEGER NOT NULL REFERENCES owners (id) ON UPDATE CASCADE ON DELETE CASCADE)",
			stmt,
		)
	})

	t.Run("optional_sets_null", func(t *testing.T) {
		pets := schema.New("pets",
			schema.Serial("id"),
			schema.Ref("owner_id", owners),
		)
		r := NewRenderer(dialect.SQLite)
		stmt, err := r.CreateTable(pets)
		require.NoError(t, err)
		assert.Equal(t,
			"CREATE TABLE IF NOT EXISTS pets (id INTEGER PRIMARY KEY, owner_id INTEGER REFERENCES owners (id) ON UPDATE CASCADE ON DELETE SET NULL)",
			stmt,
		)
	})

	t.Run("postgres_ref_to_serial", func(t *testing.T) {
		pets := schema.New("pets",
			schema.Serial("id"),
			schema.Ref("owner_id", owners).SetRequired(),
		)
		r := NewRenderer(dialect.Postgres)
		stmt, err := r.CreateTable(pets)
		require.NoError(t, err)
		assert.Equal(t,
			"CREATE TABLE IF NOT EXISTS pets (id BIGSERIAL PRIMARY KEY, owner_id BIGINT NOT NULL REFERENCES owners (id) ON UPDATE CASCADE ON DELETE CASCADE)",
			stmt,
		)
	})
}

func TestCreateTableCompositeKey(t *testing.T) {
	s := schema.New("grants",
		schema.Int("user_id").SetPK(),
		schema.Int("role_id").SetPK(),
	)
	r := NewRenderer(dialect.SQLite)
	stmt, err := r.CreateTable(s)
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS grants (user_id INTEGER, role_id INTEGER, PRIMARY KEY (user_id, role_id))",
		stmt,
	)
}

func TestColumnTypes(t *testing.T) {
	tests := []struct {
		name     string
		field    *schema.Field
		sqlite   string
		postgres string
	}{
		{"bool", schema.Bool("f"), "BOOLEAN", "BOOLEAN"},
		{"int", schema.Int("f"), "INTEGER", "INTEGER"},
		{"float", schema.Float("f"), "REAL", "DOUBLE PRECISION"},
		{"decimal", schema.Decimal("f", 10, 2), "NUMERIC", "NUMERIC(10, 2)"},
		{"string", schema.String("f"), "TEXT", "TEXT"},
		{"fixed_string", schema.String("f").SetSize(2), "CHARACTER(2)", "CHARACTER(2)"},
		{"bounded_string", schema.String("f").SetMaxSize(80), "VARCHAR(80)", "VARCHAR(80)"},
		{"ignorecase_string", schema.String("f").SetIgnoreCase(), "TEXT COLLATE NOCASE", "CITEXT"},
		{"bytes", schema.Bytes("f"), "BLOB", "BYTEA"},
		{"time", schema.Time("f"), "TIMESTAMP", "TIMESTAMPTZ"},
		{"date", schema.Date("f"), "DATE", "DATE"},
		{"json", schema.JSON("f"), "TEXT", "JSONB"},
		{"uuid", schema.UUID("f"), "CHARACTER(36)", "UUID"},
		{"object", schema.Object("f"), "BLOB", "BYTEA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := schema.New("t", schema.Serial("id"), tt.field)
			lite, err := NewRenderer(dialect.SQLite).CreateTable(s)
			require.NoError(t, err)
			assert.Contains(t, lite, "f "+tt.sqlite)

			pg, err := NewRenderer(dialect.Postgres).CreateTable(s)
			require.NoError(t, err)
			assert.Contains(t, pg, "f "+tt.postgres)
		})
	}
}

func TestPostgresIgnoreCaseBounds(t *testing.T) {
	s := schema.New("t",
		schema.Serial("id"),
		schema.String("name").SetIgnoreCase().SetMinSize(2).SetMaxSize(40),
	)
	stmt, err := NewRenderer(dialect.Postgres).CreateTable(s)
	require.NoError(t, err)
	assert.Contains(t, stmt, "name CITEXT CHECK (char_length(name) >= 2) CHECK (char_length(name) <= 40)")
}

func TestPostgresGeneratedUUIDKey(t *testing.T) {
	s := schema.New("t", schema.UUID("id").SetPK().AutoGenerate())
	stmt, err := NewRenderer(dialect.Postgres).CreateTable(s)
	require.NoError(t, err)
	assert.Contains(t, stmt, "id UUID DEFAULT gen_random_uuid() PRIMARY KEY")
}

func TestCreateIndexes(t *testing.T) {
	s := schema.NewIndexed("users",
		[]*schema.Field{
			schema.Serial("id"),
			schema.String("email").SetUnique(),
			schema.String("city"),
			schema.String("street"),
		},
		schema.IndexFields("city", "street"),
	)

	t.Run("sqlite", func(t *testing.T) {
		stmts := NewRenderer(dialect.SQLite).CreateIndexes(s)
		require.Len(t, stmts, 2)
		assert.Equal(t, "CREATE UNIQUE INDEX IF NOT EXISTS users_email ON users (email)", stmts[0])
		assert.Equal(t, "CREATE INDEX IF NOT EXISTS users_city_street ON users (city, street)", stmts[1])
	})

	t.Run("postgres", func(t *testing.T) {
		stmts := NewRenderer(dialect.Postgres).CreateIndexes(s)
		require.Len(t, stmts, 2)
		assert.Equal(t, "CREATE UNIQUE INDEX IF NOT EXISTS users_email ON users USING BTREE (email)", stmts[0])
		assert.Equal(t, "CREATE INDEX IF NOT EXISTS users_city_street ON users USING BTREE (city, street)", stmts[1])
	})
}

func TestAddColumn(t *testing.T) {
	s := schema.New("users", schema.Serial("id"))
	r := NewRenderer(dialect.SQLite)

	t.Run("optional", func(t *testing.T) {
		stmt, err := r.AddColumn(s, schema.String("nickname"))
		require.NoError(t, err)
		assert.Equal(t, "ALTER TABLE users ADD COLUMN nickname TEXT", stmt)
	})

	t.Run("required_with_default", func(t *testing.T) {
		stmt, err := r.AddColumn(s, schema.String("plan").SetRequired().SetDefault("free"))
		require.NoError(t, err)
		assert.Equal(t, "ALTER TABLE users ADD COLUMN plan TEXT NOT NULL DEFAULT 'free'", stmt)
	})

	t.Run("required_without_default", func(t *testing.T) {
		_, err := r.AddColumn(s, schema.String("plan").SetRequired())
		require.Error(t, err)
	})
}

func TestTableIntrospection(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		assert.Equal(t,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'",
			r.TableNames(),
		)
		stmt, args := r.TableColumns("users")
		assert.Equal(t, "SELECT name FROM pragma_table_info(?)", stmt)
		assert.Equal(t, []any{"users"}, args)
	})

	t.Run("postgres", func(t *testing.T) {
		r := NewRenderer(dialect.Postgres)
		assert.Equal(t,
			"SELECT tablename FROM pg_tables WHERE schemaname = ANY(current_schemas(false))",
			r.TableNames(),
		)
		stmt, args := r.TableColumns("users")
		assert.Equal(t, "SELECT column_name FROM information_schema.columns WHERE table_name = $1", stmt)
		assert.Equal(t, []any{"users"}, args)
	})
}
