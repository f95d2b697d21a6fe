package dialect_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perch-db/perch/dialect"
)

func TestParamstyle(t *testing.T) {
	t.Run("Question", func(t *testing.T) {
		assert.Equal(t, "?", dialect.Question.String(1))
		assert.Equal(t, "?", dialect.Question.String(7))
	})

	t.Run("Dollar", func(t *testing.T) {
		assert.Equal(t, "$1", dialect.Dollar.String(1))
		assert.Equal(t, "$7", dialect.Dollar.String(7))
	})
}

type recordDriver struct {
	dialect.Driver
	execs   []string
	queries []string
}

func (d *recordDriver) Exec(_ context.Context, query string, _, _ any) error {
	d.execs = append(d.execs, query)
	return nil
}

func (d *recordDriver) Query(_ context.Context, query string, _, _ any) error {
	d.queries = append(d.queries, query)
	return nil
}

func (d *recordDriver) Tx(context.Context) (dialect.Tx, error) {
	return dialect.NopTx(d), nil
}

func (d *recordDriver) Dialect() string { return dialect.SQLite }

func TestDebugDriver(t *testing.T) {
	rec := &recordDriver{}
	drv := dialect.Debug(rec)

	err := drv.Exec(context.Background(), "INSERT INTO users (email) VALUES (?)", []any{"a@b.c"}, nil)
	require.NoError(t, err)
	err = drv.Query(context.Background(), "SELECT * FROM users", []any{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"INSERT INTO users (email) VALUES (?)"}, rec.execs)
	assert.Equal(t, []string{"SELECT * FROM users"}, rec.queries)

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	err = tx.Exec(context.Background(), "DELETE FROM users WHERE id = ?", []any{1}, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, "DELETE FROM users WHERE id = ?", rec.execs[1])
}

func TestNopTx(t *testing.T) {
	rec := &recordDriver{}
	tx := dialect.NopTx(rec)
	assert.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback())
}
