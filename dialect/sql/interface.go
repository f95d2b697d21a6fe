package sql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/perch-db/perch"
	"github.com/perch-db/perch/dialect"
	"github.com/perch-db/perch/query"
	"github.com/perch-db/perch/schema"
)

// A Row is one fetched record, keyed by column name.
type Row map[string]any

const (
	// maxCloseRetries bounds retries after a closed-connection failure.
	maxCloseRetries = 3
	// closeBackoff is the linear backoff unit between those retries.
	closeBackoff = 100 * time.Millisecond
)

// Interface binds a driver to a renderer and runs queries end to end:
// render, execute, classify failures, and heal schema drift. Missing
// tables are created (referenced tables first) and missing addable columns
// are added, each followed by exactly one retry. Closed connections retry
// with linear backoff. Unique violations always propagate.
type Interface struct {
	drv dialect.Driver
	r   *Renderer
	log *slog.Logger
	sf  singleflight.Group
}

// InterfaceOption configures an Interface.
type InterfaceOption func(*Interface)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) InterfaceOption {
	return func(i *Interface) {
		i.log = l
	}
}

// NewInterface returns an Interface for the driver. The renderer follows
// the driver's dialect. Any dialect.Driver works, including the stats and
// debug wrappers.
func NewInterface(drv dialect.Driver, opts ...InterfaceOption) *Interface {
	i := &Interface{
		drv: drv,
		r:   NewRenderer(drv.Dialect()),
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Renderer returns the underlying renderer.
func (i *Interface) Renderer() *Renderer {
	return i.r
}

// Driver returns the underlying driver.
func (i *Interface) Driver() dialect.Driver {
	return i.drv
}

// run executes op with failure classification and healing. The sch may be
// nil for statements with nothing to heal.
func (i *Interface) run(ctx context.Context, sch *schema.Schema, op func(context.Context) error) error {
	table := ""
	if sch != nil {
		table = sch.Table
	}
	var healedTable, healedColumn bool
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		cerr := i.r.Classify(table, err)
		switch {
		case perch.IsTableMissing(cerr) && sch != nil && !healedTable:
			healedTable = true
			i.log.InfoContext(ctx, "healing missing table", slog.String("table", table))
			if herr := i.CreateTable(ctx, sch); herr != nil {
				return cerr
			}
		case perch.IsColumnMissing(cerr) && sch != nil && !healedColumn:
			healedColumn = true
			i.log.InfoContext(ctx, "healing missing columns", slog.String("table", table))
			if herr := i.AddMissingColumns(ctx, sch); herr != nil {
				return cerr
			}
		case perch.IsClose(cerr) && attempt < maxCloseRetries-1:
			wait := time.Duration(attempt+1) * closeBackoff
			i.log.WarnContext(ctx, "connection closed, retrying",
				slog.Int("attempt", attempt+1), slog.Duration("backoff", wait))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			return cerr
		}
	}
}

func (i *Interface) exec(ctx context.Context, stmt string, args []any) (Result, error) {
	i.log.DebugContext(ctx, "exec", slog.String("stmt", stmt), slog.Any("args", args))
	var res Result
	if err := i.drv.Exec(ctx, stmt, args, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (i *Interface) query(ctx context.Context, sch *schema.Schema, stmt string, args []any) ([]Row, error) {
	i.log.DebugContext(ctx, "query", slog.String("stmt", stmt), slog.Any("args", args))
	var rows Rows
	if err := i.drv.Query(ctx, stmt, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for n := range vals {
			ptrs[n] = &vals[n]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for n, c := range cols {
			row[c] = decodeValue(sch, c, vals[n])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// decodeValue runs a field's codec over fetched bytes, so json and object
// columns come back as values instead of raw blobs.
func decodeValue(sch *schema.Schema, column string, v any) any {
	if sch == nil {
		return v
	}
	f := sch.Field(column)
	if f == nil || f.Codec == nil {
		return v
	}
	data, ok := v.([]byte)
	if !ok {
		if s, ok := v.(string); ok {
			data = []byte(s)
		} else {
			return v
		}
	}
	var out any
	if err := f.Codec.Decode(data, &out); err != nil {
		return v
	}
	return out
}

// encodeSets returns a copy of the query with codec values encoded and
// schema defaults filled in for fields the caller did not set.
func (i *Interface) encodeSets(q *query.Query, withDefaults bool) (*query.Query, error) {
	sch := q.Schema()
	c := q.Clone()
	set := make(map[string]bool, len(c.Sets()))
	for _, s := range c.Sets() {
		set[s.Field] = true
		f := sch.Field(s.Field)
		if f == nil || f.Codec == nil {
			continue
		}
		switch s.Value.(type) {
		case *query.Query, query.Increment, []byte, nil:
		default:
			data, err := f.Codec.Encode(s.Value)
			if err != nil {
				return nil, fmt.Errorf("encode field %q: %w", s.Field, err)
			}
			s.Value = data
		}
	}
	if !withDefaults {
		return c, nil
	}
	for _, f := range sch.Fields {
		if set[f.Name] || f.AutoIncrement {
			continue
		}
		switch {
		case f.DefaultFunc != nil:
			c.Set(f.Name, f.DefaultFunc())
		case f.Default != nil:
			c.Set(f.Name, f.Default)
		}
	}
	return c, nil
}

// Get runs a SELECT and returns an iterator over the fetched page. A query
// that can never match rows skips the round trip.
func (i *Interface) Get(ctx context.Context, q *query.Query) (*Iterator, error) {
	if !q.CanGet() {
		return &Iterator{}, nil
	}
	stmt, args, err := i.r.Get(q)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := i.run(ctx, q.Schema(), func(ctx context.Context) error {
		var qerr error
		rows, qerr = i.query(ctx, q.Schema(), stmt, args)
		return qerr
	}); err != nil {
		return nil, err
	}
	return newIterator(rows, q.Bounds()), nil
}

// GetOne runs a SELECT for a single row. It returns nil without error when
// no row matches.
func (i *Interface) GetOne(ctx context.Context, q *query.Query) (Row, error) {
	if !q.CanGet() {
		return nil, nil
	}
	stmt, args, err := i.r.GetOne(q)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := i.run(ctx, q.Schema(), func(ctx context.Context) error {
		var qerr error
		rows, qerr = i.query(ctx, q.Schema(), stmt, args)
		return qerr
	}); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Count runs a SELECT count and returns the number of matching rows.
func (i *Interface) Count(ctx context.Context, q *query.Query) (int64, error) {
	if !q.CanGet() {
		return 0, nil
	}
	stmt, args, err := i.r.Count(q)
	if err != nil {
		return 0, err
	}
	var rows []Row
	if err := i.run(ctx, q.Schema(), func(ctx context.Context) error {
		var qerr error
		rows, qerr = i.query(ctx, nil, stmt, args)
		return qerr
	}); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["ct"]), nil
}

func toInt64(v any) int64 {
	switch v := v.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case []byte:
		var n int64
		fmt.Sscan(string(v), &n)
		return n
	default:
		return 0
	}
}

// Insert runs an INSERT built from the query's set values, filling in
// schema defaults for unset fields, and returns the primary key of the new
// row.
func (i *Interface) Insert(ctx context.Context, q *query.Query) (any, error) {
	c, err := i.encodeSets(q, true)
	if err != nil {
		return nil, err
	}
	stmt, args, err := i.r.Insert(c)
	if err != nil {
		return nil, err
	}
	return i.runReturning(ctx, c, stmt, args)
}

// Upsert runs INSERT ... ON CONFLICT over the given conflict fields and
// returns the primary key of the inserted or updated row. The update query
// carries the assignments applied when the row already exists; nil means
// do nothing on conflict.
func (i *Interface) Upsert(ctx context.Context, q, update *query.Query, conflict ...string) (any, error) {
	c, err := i.encodeSets(q, true)
	if err != nil {
		return nil, err
	}
	if update != nil {
		if update, err = i.encodeSets(update, false); err != nil {
			return nil, err
		}
	}
	stmt, args, err := i.r.Upsert(c, update, conflict...)
	if err != nil {
		return nil, err
	}
	return i.runReturning(ctx, c, stmt, args)
}

// runReturning executes an insert-like statement and extracts the primary
// key: from the RETURNING row where the dialect has one, from the driver's
// last-insert id otherwise.
func (i *Interface) runReturning(ctx context.Context, q *query.Query, stmt string, args []any) (any, error) {
	sch := q.Schema()
	var pk any
	err := i.run(ctx, sch, func(ctx context.Context) error {
		if i.r.v.returning() {
			rows, err := i.query(ctx, sch, stmt, args)
			if err != nil {
				return err
			}
			if len(rows) > 0 {
				if f := sch.PK(); f != nil {
					pk = rows[0][f.Name]
				}
			}
			return nil
		}
		res, err := i.exec(ctx, stmt, args)
		if err != nil {
			return err
		}
		if f := sch.PK(); f != nil && f.AutoIncrement {
			id, err := res.LastInsertId()
			if err == nil {
				pk = id
			}
			return nil
		}
		// The caller supplied the key.
		for _, s := range q.Sets() {
			if f := sch.PK(); f != nil && s.Field == f.Name {
				pk = s.Value
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pk, nil
}

// InsertMany runs one multi-row INSERT. Field codecs apply per value;
// encoding works on a copy so the caller's rows stay untouched.
func (i *Interface) InsertMany(ctx context.Context, sch *schema.Schema, fields []string, rows [][]any) error {
	encoded := rows
	copied := false
	for fi, name := range fields {
		f := sch.Field(name)
		if f == nil || f.Codec == nil {
			continue
		}
		if !copied {
			encoded = make([][]any, len(rows))
			for ri, row := range rows {
				encoded[ri] = append([]any(nil), row...)
			}
			copied = true
		}
		for ri := range encoded {
			if _, ok := encoded[ri][fi].([]byte); ok {
				continue
			}
			data, err := f.Codec.Encode(encoded[ri][fi])
			if err != nil {
				return fmt.Errorf("encode field %q: %w", name, err)
			}
			encoded[ri][fi] = data
		}
	}
	stmt, args, err := i.r.InsertMany(sch, fields, encoded)
	if err != nil {
		return err
	}
	return i.run(ctx, sch, func(ctx context.Context) error {
		_, err := i.exec(ctx, stmt, args)
		return err
	})
}

// Update runs an UPDATE and returns the number of affected rows.
func (i *Interface) Update(ctx context.Context, q *query.Query) (int64, error) {
	c, err := i.encodeSets(q, false)
	if err != nil {
		return 0, err
	}
	stmt, args, err := i.r.Update(c)
	if err != nil {
		return 0, err
	}
	return i.runAffected(ctx, q.Schema(), stmt, args)
}

// Delete runs a DELETE and returns the number of affected rows.
func (i *Interface) Delete(ctx context.Context, q *query.Query) (int64, error) {
	stmt, args, err := i.r.Delete(q)
	if err != nil {
		return 0, err
	}
	return i.runAffected(ctx, q.Schema(), stmt, args)
}

func (i *Interface) runAffected(ctx context.Context, sch *schema.Schema, stmt string, args []any) (int64, error) {
	var affected int64
	err := i.run(ctx, sch, func(ctx context.Context) error {
		res, err := i.exec(ctx, stmt, args)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// CreateTable creates the schema's table and indexes. Tables referenced by
// foreign keys are created first. Concurrent creations of the same table
// collapse into one.
func (i *Interface) CreateTable(ctx context.Context, sch *schema.Schema) error {
	return i.createTable(ctx, sch, map[string]bool{})
}

func (i *Interface) createTable(ctx context.Context, sch *schema.Schema, seen map[string]bool) error {
	if seen[sch.Table] {
		return nil
	}
	seen[sch.Table] = true
	for _, ref := range sch.Refs() {
		if err := i.createTable(ctx, ref, seen); err != nil {
			return err
		}
	}
	_, err, _ := i.sf.Do(sch.Table, func() (any, error) {
		stmt, err := i.r.CreateTable(sch)
		if err != nil {
			return nil, err
		}
		if _, err := i.exec(ctx, stmt, nil); err != nil {
			return nil, i.r.Classify(sch.Table, err)
		}
		return nil, i.CreateIndexes(ctx, sch)
	})
	return err
}

// CreateIndexes creates the schema's indexes.
func (i *Interface) CreateIndexes(ctx context.Context, sch *schema.Schema) error {
	for _, stmt := range i.r.CreateIndexes(sch) {
		if _, err := i.exec(ctx, stmt, nil); err != nil {
			return i.r.Classify(sch.Table, err)
		}
	}
	return nil
}

// AddMissingColumns adds schema fields the backing table does not have
// yet. Only addable columns qualify; a required field without a default
// fails the heal and the original error propagates.
func (i *Interface) AddMissingColumns(ctx context.Context, sch *schema.Schema) error {
	stmt, args := i.r.TableColumns(sch.Table)
	rows, err := i.query(ctx, nil, stmt, args)
	if err != nil {
		return i.r.Classify(sch.Table, err)
	}
	existing := make(map[string]bool, len(rows))
	for _, row := range rows {
		for _, v := range row {
			existing[toString(v)] = true
		}
	}
	for _, f := range sch.Fields {
		if existing[f.Name] {
			continue
		}
		alter, err := i.r.AddColumn(sch, f)
		if err != nil {
			return err
		}
		i.log.InfoContext(ctx, "adding missing column",
			slog.String("table", sch.Table), slog.String("column", f.Name))
		if _, err := i.exec(ctx, alter, nil); err != nil {
			return i.r.Classify(sch.Table, err)
		}
	}
	return nil
}

// TableNames lists the user tables of the connected database.
func (i *Interface) TableNames(ctx context.Context) ([]string, error) {
	rows, err := i.query(ctx, nil, i.r.TableNames(), nil)
	if err != nil {
		return nil, i.r.Classify("", err)
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		for _, v := range row {
			names = append(names, toString(v))
		}
	}
	return names, nil
}

func toString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Render returns the query as debug SQL with inlined literals.
func (i *Interface) Render(q *query.Query) (string, error) {
	return i.r.Render(q)
}

// A Txn is one transaction, possibly nested. The outermost level maps to
// BEGIN/COMMIT; inner levels map to savepoints on the same connection.
type Txn struct {
	i     *Interface
	tx    dialect.Tx
	depth int
}

// Begin starts a transaction.
func (i *Interface) Begin(ctx context.Context) (*Txn, error) {
	tx, err := i.drv.Tx(ctx)
	if err != nil {
		return nil, i.r.Classify("", err)
	}
	return &Txn{i: i, tx: tx}, nil
}

// Begin nests one level deeper with a savepoint.
func (t *Txn) Begin(ctx context.Context) error {
	t.depth++
	return t.tx.Exec(ctx, fmt.Sprintf("SAVEPOINT perch_%d", t.depth), []any{}, nil)
}

// Commit releases the current savepoint, or commits the transaction at the
// outermost level.
func (t *Txn) Commit(ctx context.Context) error {
	if t.depth > 0 {
		err := t.tx.Exec(ctx, fmt.Sprintf("RELEASE SAVEPOINT perch_%d", t.depth), []any{}, nil)
		t.depth--
		return err
	}
	return t.tx.Commit()
}

// Rollback rolls back to the current savepoint, or rolls back the whole
// transaction at the outermost level.
func (t *Txn) Rollback(ctx context.Context) error {
	if t.depth > 0 {
		err := t.tx.Exec(ctx, fmt.Sprintf("ROLLBACK TO SAVEPOINT perch_%d", t.depth), []any{}, nil)
		t.depth--
		return err
	}
	return t.tx.Rollback()
}

// Exec runs a statement inside the transaction.
func (t *Txn) Exec(ctx context.Context, stmt string, args []any) error {
	return t.tx.Exec(ctx, stmt, args, nil)
}
