package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perch-db/perch"
	"github.com/perch-db/perch/dialect"
	"github.com/perch-db/perch/query"
	"github.com/perch-db/perch/schema"
)

func itemsSchema() *schema.Schema {
	return schema.New("items",
		schema.Serial("id"),
		schema.Int("foo"),
		schema.String("bar"),
		schema.Int("hits"),
	)
}

func TestInsert(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		q := query.New(itemsSchema()).Set("foo", 1).Set("bar", "a")

		stmt, args, err := r.Insert(q)
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO items (foo, bar) VALUES (?, ?)", stmt)
		assert.Equal(t, []any{1, "a"}, args)
	})

	t.Run("postgres_returning", func(t *testing.T) {
		r := NewRenderer(dialect.Postgres)
		q := query.New(itemsSchema()).Set("foo", 1).Set("bar", "a")

		stmt, args, err := r.Insert(q)
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO items (foo, bar) VALUES ($1, $2) RETURNING id", stmt)
		assert.Equal(t, []any{1, "a"}, args)
	})

	t.Run("no_values", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		_, _, err := r.Insert(query.New(itemsSchema()))
		require.Error(t, err)
		assert.True(t, perch.IsConstruction(err))
	})

	t.Run("increment_rejected", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		q := query.New(itemsSchema()).Incr("hits", 1)
		_, _, err := r.Insert(q)
		require.Error(t, err)
		assert.True(t, perch.IsConstruction(err))
	})
}

func TestInsertMany(t *testing.T) {
	r := NewRenderer(dialect.Postgres)
	s := itemsSchema()

	t.Run("multi_row", func(t *testing.T) {
		stmt, args, err := r.InsertMany(s, []string{"foo", "bar"}, [][]any{
			{1, "a"},
			{2, "b"},
		})
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO items (foo, bar) VALUES ($1, $2), ($3, $4)", stmt)
		assert.Equal(t, []any{1, "a", 2, "b"}, args)
	})

	t.Run("arity_mismatch", func(t *testing.T) {
		_, _, err := r.InsertMany(s, []string{"foo", "bar"}, [][]any{{1}})
		require.Error(t, err)
		assert.True(t, perch.IsConstruction(err))
	})

	t.Run("unknown_field", func(t *testing.T) {
		_, _, err := r.InsertMany(s, []string{"nope"}, [][]any{{1}})
		require.Error(t, err)
		assert.True(t, perch.IsConstruction(err))
	})

	t.Run("no_rows", func(t *testing.T) {
		_, _, err := r.InsertMany(s, []string{"foo"}, nil)
		require.Error(t, err)
		assert.True(t, perch.IsConstruction(err))
	})
}

func TestUpdate(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		r := NewRenderer(dialect.Postgres)
		q := query.New(itemsSchema()).Set("bar", "b").Eq("foo", 1)

		stmt, args, err := r.Update(q)
		require.NoError(t, err)
		assert.Equal(t, "UPDATE items SET bar = $1 WHERE foo = $2", stmt)
		assert.Equal(t, []any{"b", 1}, args)
	})

	t.Run("increment", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		q := query.New(itemsSchema()).Incr("hits", 2).Eq("foo", 1)

		stmt, args, err := r.Update(q)
		require.NoError(t, err)
		assert.Equal(t, "UPDATE items SET hits = COALESCE(hits, 0) + ? WHERE foo = ?", stmt)
		assert.Equal(t, []any{2, 1}, args)
	})

	t.Run("subquery_value", func(t *testing.T) {
		r := NewRenderer(dialect.Postgres)
		sub := query.New(itemsSchema()).Select("hits").Eq("foo", 9)
		q := query.New(itemsSchema()).Set("hits", sub).Eq("foo", 1)

		stmt, args, err := r.Update(q)
		require.NoError(t, err)
		assert.Equal(t,
			"UPDATE items SET hits = (SELECT hits FROM items WHERE foo = $1) WHERE foo = $2",
			stmt,
		)
		assert.Equal(t, []any{9, 1}, args)
	})

	t.Run("refuses_without_predicate", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		_, _, err := r.Update(query.New(itemsSchema()).Set("bar", "b"))
		require.Error(t, err)
		assert.True(t, perch.IsConstruction(err))
	})

	t.Run("refuses_without_sets", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		_, _, err := r.Update(query.New(itemsSchema()).Eq("foo", 1))
		require.Error(t, err)
		assert.True(t, perch.IsConstruction(err))
	})
}

func TestUpsert(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		q := query.New(itemsSchema()).Set("foo", 1).Set("bar", "a")
		update := query.New(itemsSchema()).Set("bar", "b")

		stmt, args, err := r.Upsert(q, update, "foo")
		require.NoError(t, err)
		assert.Equal(t,
			"INSERT INTO items (foo, bar) VALUES (?, ?) ON CONFLICT (foo) DO UPDATE SET bar = ?",
			stmt,
		)
		assert.Equal(t, []any{1, "a", "b"}, args)
	})

	t.Run("postgres_returning_after_conflict", func(t *testing.T) {
		r := NewRenderer(dialect.Postgres)
		q := query.New(itemsSchema()).Set("foo", 1).Set("bar", "a")
		update := query.New(itemsSchema()).Set("bar", "b")

		stmt, args, err := r.Upsert(q, update, "foo")
		require.NoError(t, err)
		assert.Equal(t,
			"INSERT INTO items (foo, bar) VALUES ($1, $2) ON CONFLICT (foo) DO UPDATE SET bar = $3 RETURNING id",
			stmt,
		)
		assert.Equal(t, []any{1, "a", "b"}, args)
	})

	t.Run("nil_update_does_nothing", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		q := query.New(itemsSchema()).Set("foo", 1).Set("bar", "a")

		stmt, args, err := r.Upsert(q, nil, "foo")
		require.NoError(t, err)
		assert.Equal(t,
			"INSERT INTO items (foo, bar) VALUES (?, ?) ON CONFLICT (foo) DO NOTHING",
			stmt,
		)
		assert.Equal(t, []any{1, "a"}, args)
	})

	t.Run("conflict_must_be_inserted", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		q := query.New(itemsSchema()).Set("bar", "a")

		_, _, err := r.Upsert(q, nil, "foo")
		require.Error(t, err)
		assert.True(t, perch.IsConstruction(err))
	})

	t.Run("conflict_cannot_be_updated", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		q := query.New(itemsSchema()).Set("foo", 1).Set("bar", "a")
		update := query.New(itemsSchema()).Set("foo", 2)

		_, _, err := r.Upsert(q, update, "foo")
		require.Error(t, err)
		assert.True(t, perch.IsConstruction(err))
	})

	t.Run("no_conflict_fields", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		q := query.New(itemsSchema()).Set("foo", 1)

		_, _, err := r.Upsert(q, nil)
		require.Error(t, err)
		assert.True(t, perch.IsConstruction(err))
	})
}

func TestDelete(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		r := NewRenderer(dialect.Postgres)
		q := query.New(itemsSchema()).Eq("foo", 1).Lt("hits", 10)

		stmt, args, err := r.Delete(q)
		require.NoError(t, err)
		assert.Equal(t, "DELETE FROM items WHERE foo = $1 AND hits < $2", stmt)
		assert.Equal(t, []any{1, 10}, args)
	})

	t.Run("refuses_without_predicate", func(t *testing.T) {
		r := NewRenderer(dialect.SQLite)
		_, _, err := r.Delete(query.New(itemsSchema()))
		require.Error(t, err)
		assert.True(t, perch.IsConstruction(err))
	})
}
