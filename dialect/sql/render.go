package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/perch-db/perch"
	"github.com/perch-db/perch/dialect"
	"github.com/perch-db/perch/query"
	"github.com/perch-db/perch/schema"
)

// vocab is the per-dialect vocabulary. The renderer owns the statement
// shape; the vocabulary owns every point where the dialects disagree.
type vocab interface {
	dialect() string
	paramstyle() dialect.Paramstyle

	// nullSymbol returns the comparison symbol used when the operand is
	// NULL, for the eq and ne operators.
	nullSymbol(op query.Op) string
	// datePart renders the extraction of one date component from a column.
	datePart(part, column string) string
	// sortByValues writes one ORDER BY entry that sorts rows by their
	// position in the value list.
	sortByValues(b *build, field string, direction int, values []any)
	// unboundedLimit is the LIMIT operand meaning "no limit", used when an
	// offset is set without a limit.
	unboundedLimit() string
	// returning reports whether INSERT can hand back the generated key
	// with a RETURNING clause. Without it the execution layer falls back
	// to the driver's last-insert id.
	returning() bool
	// compoundWrap returns the text placed around a compound operand that
	// carries its own ordering or window.
	compoundWrap() (head, tail string)

	// columnType renders the datatype portion of a column definition.
	columnType(f *schema.Field) (string, error)
	// indexSQL renders one CREATE INDEX statement.
	indexSQL(table string, ix *schema.Index) string
	// tableNamesSQL lists the user tables of the connected database.
	tableNamesSQL() string
	// tableColumnsSQL lists the column names of one table.
	tableColumnsSQL(table string) (stmt string, args []any)

	// classify translates a driver error into the root taxonomy. It
	// returns the input unchanged when the error carries no known signal.
	classify(table string, err error) error
}

// A Renderer turns queries into SQL for one dialect. Renderers are
// stateless and safe for concurrent use; rendering the same query twice
// yields the same statement and argument list.
type Renderer struct {
	v vocab
}

// NewRenderer returns the renderer for the named dialect. It panics on an
// unknown name; the dialect set is fixed at compile time.
func NewRenderer(name string) *Renderer {
	switch name {
	case dialect.SQLite:
		return &Renderer{v: sqliteVocab{}}
	case dialect.Postgres:
		return &Renderer{v: postgresVocab{}}
	default:
		panic(perch.NewConstructionError("renderer", "unknown dialect %q", name))
	}
}

// Dialect returns the renderer's dialect name.
func (r *Renderer) Dialect() string {
	return r.v.dialect()
}

// Classify translates a driver error into the root taxonomy. Errors that
// carry no known signal come back unchanged.
func (r *Renderer) Classify(table string, err error) error {
	return r.v.classify(table, err)
}

// build accumulates one statement: SQL text, bind arguments, and the
// placeholder counter that keeps both in step.
type build struct {
	sb     strings.Builder
	args   []any
	n      int
	style  dialect.Paramstyle
	inline bool
}

func (b *build) write(s string) {
	b.sb.WriteString(s)
}

func (b *build) writef(format string, args ...any) {
	fmt.Fprintf(&b.sb, format, args...)
}

// arg emits a placeholder for v, or the literal itself in inline mode.
func (b *build) arg(v any) {
	if b.inline {
		b.write(literal(v))
		return
	}
	b.n++
	b.write(b.style.String(b.n))
	b.args = append(b.args, v)
}

func (b *build) String() string {
	return b.sb.String()
}

// literal renders a value as a SQL literal for debug output. Numbers stay
// bare, everything else is single-quoted.
func literal(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
	}
}

// selectOpts shape one rendered SELECT.
type selectOpts struct {
	count bool // count(...) AS ct projection, no sort or bounds
	one   bool // force LIMIT 1 when the query has no limit
}

// Get renders a SELECT.
func (r *Renderer) Get(q *query.Query) (string, []any, error) {
	return r.renderSelect(q, selectOpts{})
}

// GetOne renders a SELECT for a single row. A query without a limit gets
// LIMIT 1.
func (r *Renderer) GetOne(q *query.Query) (string, []any, error) {
	return r.renderSelect(q, selectOpts{one: true})
}

// Count renders a SELECT count(...) AS ct. Ordering and bounds do not
// change the count and are dropped. A compound query is counted over the
// composed row set.
func (r *Renderer) Count(q *query.Query) (string, []any, error) {
	return r.renderSelect(q, selectOpts{count: true})
}

// Where renders only the WHERE clause of the query, without the keyword.
// Useful for splicing into hand-written statements.
func (r *Renderer) Where(q *query.Query) (string, []any, error) {
	if err := r.check(q); err != nil {
		return "", nil, err
	}
	b := &build{style: r.v.paramstyle()}
	if err := r.wheres(b, q); err != nil {
		return "", nil, err
	}
	return b.String(), b.args, nil
}

// Render renders the query with values inlined as literals instead of
// placeholders. Debug output only; never execute it.
func (r *Renderer) Render(q *query.Query) (string, error) {
	if err := r.check(q); err != nil {
		return "", err
	}
	b := &build{style: r.v.paramstyle(), inline: true}
	if err := r.selectInto(b, q, selectOpts{}); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (r *Renderer) check(q *query.Query) error {
	if err := q.Err(); err != nil {
		return err
	}
	if q.Schema() == nil {
		return perch.NewConstructionError("render", "query has no schema")
	}
	return nil
}

func (r *Renderer) renderSelect(q *query.Query, opts selectOpts) (string, []any, error) {
	if err := r.check(q); err != nil {
		return "", nil, err
	}
	b := &build{style: r.v.paramstyle()}
	if err := r.selectInto(b, q, opts); err != nil {
		return "", nil, err
	}
	return b.String(), b.args, nil
}

// selectInto writes a full SELECT into b, so subqueries and compound
// branches share one placeholder sequence.
func (r *Renderer) selectInto(b *build, q *query.Query, opts selectOpts) error {
	compounds := q.Compounds()
	if opts.count && len(compounds) > 0 {
		// Counting branch by branch would miss UNION deduplication, so the
		// whole composition becomes a derived table.
		b.write("SELECT count(*) AS ct FROM (")
		if err := r.selectInto(b, q, selectOpts{}); err != nil {
			return err
		}
		b.write(") AS t")
		return nil
	}
	wrap := len(compounds) > 0 && (len(q.Sorts()) > 0 || q.Bounds().HasBounds())
	var tail string
	if wrap {
		head, t := r.v.compoundWrap()
		b.write(head)
		tail = t
	}
	b.write("SELECT ")
	r.projection(b, q, opts)
	b.write(" FROM ")
	b.write(q.Schema().Table)
	if len(q.Wheres()) > 0 {
		b.write(" WHERE ")
		if err := r.wheres(b, q); err != nil {
			return err
		}
	}
	if !opts.count {
		if wrap {
			if err := r.orderAndBounds(b, q, opts); err != nil {
				return err
			}
			b.write(tail)
		}
		for _, c := range compounds {
			b.write(" ")
			b.write(c.Operator)
			b.write(" ")
			if err := r.compoundBranch(b, c.Query); err != nil {
				return err
			}
		}
		if !wrap {
			if err := r.orderAndBounds(b, q, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) compoundBranch(b *build, q *query.Query) error {
	if err := r.check(q); err != nil {
		return err
	}
	// A branch with its own ordering or window cannot stand bare next to
	// the set operator. The dialect decides how to isolate it.
	if len(q.Sorts()) > 0 || q.Bounds().HasBounds() {
		head, tail := r.v.compoundWrap()
		b.write(head)
		if err := r.selectInto(b, q, selectOpts{}); err != nil {
			return err
		}
		b.write(tail)
		return nil
	}
	return r.selectInto(b, q, selectOpts{})
}

func (r *Renderer) projection(b *build, q *query.Query, opts selectOpts) {
	selects := q.Selects()
	switch {
	case opts.count && q.IsDistinct() && len(selects) == 1:
		b.writef("count(DISTINCT %s) AS ct", selects[0])
	case opts.count:
		b.write("count(*) AS ct")
	case len(selects) == 0:
		b.write("*")
	default:
		if q.IsDistinct() {
			b.write("DISTINCT ")
		}
		b.write(strings.Join(selects, ", "))
	}
}

// wheres writes the predicate list. Predicates marked Or merge with their
// predecessor into a parenthesized OR group; groups join with AND.
func (r *Renderer) wheres(b *build, q *query.Query) error {
	groups, err := r.orGroups(q)
	if err != nil {
		return err
	}
	for gi, group := range groups {
		if gi > 0 {
			b.write(" AND ")
		}
		if len(group) > 1 {
			b.write("(")
		}
		for pi, p := range group {
			if pi > 0 {
				b.write(" OR ")
			}
			if err := r.predicate(b, q, p); err != nil {
				return err
			}
		}
		if len(group) > 1 {
			b.write(")")
		}
	}
	return nil
}

func (r *Renderer) orGroups(q *query.Query) ([][]*query.Predicate, error) {
	var groups [][]*query.Predicate
	for _, p := range q.Wheres() {
		if p.Or && len(groups) > 0 {
			last := len(groups) - 1
			groups[last] = append(groups[last], p)
			continue
		}
		groups = append(groups, []*query.Predicate{p})
	}
	return groups, nil
}

var symbols = map[query.Op]string{
	query.OpEq:      "=",
	query.OpNe:      "!=",
	query.OpGt:      ">",
	query.OpGte:     ">=",
	query.OpLt:      "<",
	query.OpLte:     "<=",
	query.OpLike:    "LIKE",
	query.OpNotLike: "NOT LIKE",
}

func (r *Renderer) predicate(b *build, q *query.Query, p *query.Predicate) error {
	switch p.Op {
	case query.OpRaw:
		return r.rawPredicate(b, p)
	case query.OpIn, query.OpNotIn:
		return r.inPredicate(b, q, p)
	}
	symbol, ok := symbols[p.Op]
	if !ok {
		return perch.NewConstructionError("render", "unknown operator %q", p.Op)
	}
	if len(p.Parts) > 0 {
		return r.partsPredicate(b, q, p, symbol)
	}
	if p.Value == nil && (p.Op == query.OpEq || p.Op == query.OpNe) {
		symbol = r.v.nullSymbol(p.Op)
	}
	if sub, ok := p.Value.(*query.Query); ok {
		b.writef("%s %s (", p.Field, symbol)
		if err := r.selectInto(b, sub, selectOpts{}); err != nil {
			return err
		}
		b.write(")")
		return nil
	}
	b.writef("%s %s ", p.Field, symbol)
	b.arg(p.Value)
	return nil
}

// partsPredicate compares date components of a temporal field. Every part
// is one extraction comparison; parts join with AND.
func (r *Renderer) partsPredicate(b *build, q *query.Query, p *query.Predicate, symbol string) error {
	f := q.Schema().Field(p.Field)
	if f == nil || !f.Kind.Temporal() {
		return perch.NewUnsupportedError(p.Field, "date parts require a time or date field")
	}
	if len(p.Parts) > 1 {
		b.write("(")
	}
	for i, part := range p.Parts {
		if i > 0 {
			b.write(" AND ")
		}
		if !validPart(part.Name) {
			return perch.NewUnsupportedError(p.Field, "unknown date part %q", part.Name)
		}
		switch part.Value.(type) {
		case []any, []string, []int, []int64:
			return perch.NewConstructionError("render",
				"field %q part %q: list values need the in or nin operator", p.Field, part.Name)
		}
		b.writef("%s %s ", r.v.datePart(part.Name, p.Field), symbol)
		b.arg(part.Value)
	}
	if len(p.Parts) > 1 {
		b.write(")")
	}
	return nil
}

func validPart(name string) bool {
	switch name {
	case query.PartYear, query.PartMonth, query.PartDay,
		query.PartHour, query.PartMinute, query.PartSecond:
		return true
	}
	return false
}

// inPredicate renders IN and NOT IN. An empty list gets a row filter that
// keeps the statement valid: IN over nothing matches no row, NOT IN over
// nothing matches every row.
func (r *Renderer) inPredicate(b *build, q *query.Query, p *query.Predicate) error {
	if len(p.Parts) > 0 {
		return r.partsInPredicate(b, q, p)
	}
	if sub, ok := p.Value.(*query.Query); ok {
		if p.Op == query.OpIn {
			b.writef("%s IN (", p.Field)
		} else {
			b.writef("%s NOT IN (", p.Field)
		}
		if err := r.selectInto(b, sub, selectOpts{}); err != nil {
			return err
		}
		b.write(")")
		return nil
	}
	values, err := anySlice(p.Value)
	if err != nil {
		return perch.NewConstructionError("render", "field %q: %v", p.Field, err)
	}
	if len(values) == 0 {
		if p.Op == query.OpIn {
			b.writef("%s <> %s", p.Field, p.Field)
		} else {
			b.writef("%s = %s", p.Field, p.Field)
		}
		return nil
	}
	if p.Op == query.OpIn {
		b.writef("%s IN (", p.Field)
	} else {
		b.writef("%s NOT IN (", p.Field)
	}
	for i, v := range values {
		if i > 0 {
			b.write(", ")
		}
		b.arg(v)
	}
	b.write(")")
	return nil
}

// partsInPredicate tests date components of a temporal field for list
// membership. Each part expands into one IN test; parts join with AND.
func (r *Renderer) partsInPredicate(b *build, q *query.Query, p *query.Predicate) error {
	f := q.Schema().Field(p.Field)
	if f == nil || !f.Kind.Temporal() {
		return perch.NewUnsupportedError(p.Field, "date parts require a time or date field")
	}
	symbol := "IN"
	if p.Op == query.OpNotIn {
		symbol = "NOT IN"
	}
	if len(p.Parts) > 1 {
		b.write("(")
	}
	for i, part := range p.Parts {
		if i > 0 {
			b.write(" AND ")
		}
		if !validPart(part.Name) {
			return perch.NewUnsupportedError(p.Field, "unknown date part %q", part.Name)
		}
		values, err := partValues(part.Value)
		if err != nil {
			return perch.NewConstructionError("render", "field %q part %q: %v", p.Field, part.Name, err)
		}
		if len(values) == 0 {
			if p.Op == query.OpIn {
				b.writef("%s <> %s", p.Field, p.Field)
			} else {
				b.writef("%s = %s", p.Field, p.Field)
			}
			continue
		}
		b.writef("%s %s (", r.v.datePart(part.Name, p.Field), symbol)
		for vi, v := range values {
			if vi > 0 {
				b.write(", ")
			}
			b.arg(v)
		}
		b.write(")")
	}
	if len(p.Parts) > 1 {
		b.write(")")
	}
	return nil
}

// partValues normalizes a part value for membership tests: a slice stays a
// list, a scalar becomes a one-element list.
func partValues(v any) ([]any, error) {
	switch v.(type) {
	case nil:
		return nil, nil
	case []any, []string, []int, []int64:
		return anySlice(v)
	default:
		return []any{v}, nil
	}
}

func anySlice(v any) ([]any, error) {
	switch v := v.(type) {
	case []any:
		return v, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("IN wants a slice, got %T", v)
	}
}

// rawPredicate splices a caller-written fragment. Question marks in the
// fragment become this dialect's placeholders; the argument count must
// match exactly.
func (r *Renderer) rawPredicate(b *build, p *query.Predicate) error {
	args, _ := p.Value.([]any)
	want := strings.Count(p.Raw, "?")
	if want != len(args) {
		return &perch.PlaceholderError{Want: want, Got: len(args)}
	}
	rest := p.Raw
	for _, a := range args {
		head, tail, _ := strings.Cut(rest, "?")
		b.write(head)
		b.arg(a)
		rest = tail
	}
	b.write(rest)
	return nil
}

func (r *Renderer) orderAndBounds(b *build, q *query.Query, opts selectOpts) error {
	if sorts := q.Sorts(); len(sorts) > 0 {
		b.write(" ORDER BY ")
		for i, s := range sorts {
			if i > 0 {
				b.write(", ")
			}
			if len(s.Values) > 0 {
				r.v.sortByValues(b, s.Field, s.Direction, s.Values)
				continue
			}
			dir := "ASC"
			if s.Direction < 0 {
				dir = "DESC"
			}
			b.writef("%s %s", s.Field, dir)
		}
	}
	bounds := q.Bounds()
	one := opts.one && !bounds.HasLimit()
	switch {
	case one:
		b.write(" LIMIT 1")
		if bounds.HasOffset() {
			b.writef(" OFFSET %d", bounds.Offset())
		}
	case bounds.HasLimit():
		b.writef(" LIMIT %d", bounds.RenderLimit())
		if bounds.HasOffset() {
			b.writef(" OFFSET %d", bounds.Offset())
		}
	case bounds.HasOffset():
		// Offset without limit needs the dialect's "no limit" operand.
		b.writef(" LIMIT %s OFFSET %d", r.v.unboundedLimit(), bounds.Offset())
	}
	return nil
}
