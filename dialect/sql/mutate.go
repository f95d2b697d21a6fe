package sql

import (
	"strings"

	"github.com/perch-db/perch"
	"github.com/perch-db/perch/query"
	"github.com/perch-db/perch/schema"
)

// Insert renders an INSERT from the query's set values. On dialects with
// RETURNING the generated primary key comes back in the result set;
// elsewhere the execution layer reads the driver's last-insert id.
func (r *Renderer) Insert(q *query.Query) (string, []any, error) {
	if err := r.check(q); err != nil {
		return "", nil, err
	}
	sets := q.Sets()
	if len(sets) == 0 {
		return "", nil, perch.NewConstructionError("insert", "no values to insert")
	}
	b := &build{style: r.v.paramstyle()}
	b.write("INSERT INTO ")
	b.write(q.Schema().Table)
	b.write(" (")
	for i, s := range sets {
		if i > 0 {
			b.write(", ")
		}
		b.write(s.Field)
	}
	b.write(") VALUES (")
	for i, s := range sets {
		if i > 0 {
			b.write(", ")
		}
		if err := r.setValue(b, s, false); err != nil {
			return "", nil, err
		}
	}
	b.write(")")
	r.appendReturning(b, q.Schema())
	return b.String(), b.args, nil
}

// InsertMany renders one multi-row INSERT. Every row must supply a value
// for every named field, in field order.
func (r *Renderer) InsertMany(s *schema.Schema, fields []string, rows [][]any) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, perch.NewConstructionError("insert", "no fields to insert")
	}
	if len(rows) == 0 {
		return "", nil, perch.NewConstructionError("insert", "no rows to insert")
	}
	for _, f := range fields {
		if !s.Has(f) {
			return "", nil, perch.NewConstructionError("insert", "schema %q has no field %q", s.Table, f)
		}
	}
	b := &build{style: r.v.paramstyle()}
	b.write("INSERT INTO ")
	b.write(s.Table)
	b.write(" (")
	b.write(strings.Join(fields, ", "))
	b.write(") VALUES ")
	for ri, row := range rows {
		if len(row) != len(fields) {
			return "", nil, perch.NewConstructionError("insert", "row %d has %d values for %d fields", ri, len(row), len(fields))
		}
		if ri > 0 {
			b.write(", ")
		}
		b.write("(")
		for vi, v := range row {
			if vi > 0 {
				b.write(", ")
			}
			b.arg(v)
		}
		b.write(")")
	}
	return b.String(), b.args, nil
}

// Update renders an UPDATE from the query's set values and predicates. An
// update with no predicate is rejected; a full-table update must say so
// with an explicit always-true predicate.
func (r *Renderer) Update(q *query.Query) (string, []any, error) {
	if err := r.check(q); err != nil {
		return "", nil, err
	}
	sets := q.Sets()
	if len(sets) == 0 {
		return "", nil, perch.NewConstructionError("update", "no values to set")
	}
	if len(q.Wheres()) == 0 {
		return "", nil, perch.NewConstructionError("update", "refusing to update without a predicate")
	}
	b := &build{style: r.v.paramstyle()}
	b.write("UPDATE ")
	b.write(q.Schema().Table)
	b.write(" SET ")
	for i, s := range sets {
		if i > 0 {
			b.write(", ")
		}
		b.write(s.Field)
		b.write(" = ")
		if err := r.setValue(b, s, true); err != nil {
			return "", nil, err
		}
	}
	b.write(" WHERE ")
	if err := r.wheres(b, q); err != nil {
		return "", nil, err
	}
	return b.String(), b.args, nil
}

// Upsert renders INSERT ... ON CONFLICT DO UPDATE. The query's set values
// are the inserted row; update carries the assignments applied when the
// row already exists. Conflict fields must be a subset of the inserted
// fields and disjoint from the updated ones; the validation runs before
// any SQL is produced. A nil or empty update renders DO NOTHING.
func (r *Renderer) Upsert(q *query.Query, update *query.Query, conflict ...string) (string, []any, error) {
	if err := r.check(q); err != nil {
		return "", nil, err
	}
	sets := q.Sets()
	if len(sets) == 0 {
		return "", nil, perch.NewConstructionError("upsert", "no values to insert")
	}
	if len(conflict) == 0 {
		return "", nil, perch.NewConstructionError("upsert", "no conflict fields")
	}
	inserted := make(map[string]bool, len(sets))
	for _, s := range sets {
		inserted[s.Field] = true
	}
	conflicted := make(map[string]bool, len(conflict))
	for _, f := range conflict {
		if !inserted[f] {
			return "", nil, perch.NewConstructionError("upsert", "conflict field %q is not among the inserted fields", f)
		}
		conflicted[f] = true
	}
	var updates []*query.SetValue
	if update != nil {
		updates = update.Sets()
	}
	for _, s := range updates {
		if conflicted[s.Field] {
			return "", nil, perch.NewConstructionError("upsert", "conflict field %q cannot also be updated", s.Field)
		}
		if !q.Schema().Has(s.Field) {
			return "", nil, perch.NewConstructionError("upsert", "schema %q has no field %q", q.Schema().Table, s.Field)
		}
	}
	stmt, args, err := r.Insert(q)
	if err != nil {
		return "", nil, err
	}
	b := &build{style: r.v.paramstyle()}
	b.args = args
	b.n = len(args)
	// Splice the conflict clause before any RETURNING tail.
	base, returning, _ := strings.Cut(stmt, " RETURNING ")
	b.write(base)
	b.write(" ON CONFLICT (")
	b.write(strings.Join(conflict, ", "))
	b.write(")")
	if len(updates) == 0 {
		b.write(" DO NOTHING")
	} else {
		b.write(" DO UPDATE SET ")
		for i, s := range updates {
			if i > 0 {
				b.write(", ")
			}
			b.write(s.Field)
			b.write(" = ")
			if err := r.setValue(b, s, true); err != nil {
				return "", nil, err
			}
		}
	}
	if returning != "" {
		b.write(" RETURNING ")
		b.write(returning)
	}
	return b.String(), b.args, nil
}

// Delete renders a DELETE. Like Update it refuses to run without a
// predicate.
func (r *Renderer) Delete(q *query.Query) (string, []any, error) {
	if err := r.check(q); err != nil {
		return "", nil, err
	}
	if len(q.Wheres()) == 0 {
		return "", nil, perch.NewConstructionError("delete", "refusing to delete without a predicate")
	}
	b := &build{style: r.v.paramstyle()}
	b.write("DELETE FROM ")
	b.write(q.Schema().Table)
	b.write(" WHERE ")
	if err := r.wheres(b, q); err != nil {
		return "", nil, err
	}
	return b.String(), b.args, nil
}

// setValue renders one assigned value: a subquery, an increment, or a
// plain bind argument. Increments are only meaningful in UPDATE.
func (r *Renderer) setValue(b *build, s *query.SetValue, update bool) error {
	switch v := s.Value.(type) {
	case *query.Query:
		b.write("(")
		if err := r.selectInto(b, v, selectOpts{}); err != nil {
			return err
		}
		b.write(")")
	case query.Increment:
		if !update {
			return perch.NewConstructionError("insert", "field %q: increment needs an existing row", s.Field)
		}
		b.writef("COALESCE(%s, 0) + ", s.Field)
		b.arg(v.Delta)
	default:
		b.arg(s.Value)
	}
	return nil
}

func (r *Renderer) appendReturning(b *build, s *schema.Schema) {
	if !r.v.returning() {
		return
	}
	if pk := s.PK(); pk != nil {
		b.write(" RETURNING ")
		b.write(pk.Name)
	}
}
