package query

import (
	"github.com/perch-db/perch"
	"github.com/perch-db/perch/schema"
)

// An Op identifies a predicate operator. The renderer maps ops to dialect
// symbols; the zero Op is invalid.
type Op int

const (
	OpInvalid Op = iota
	OpEq
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
	OpIn
	OpNotIn
	OpLike
	OpNotLike
	OpRaw

	endOps
)

var opNames = [...]string{
	OpInvalid: "invalid",
	OpEq:      "eq",
	OpNe:      "ne",
	OpGt:      "gt",
	OpGte:     "gte",
	OpLt:      "lt",
	OpLte:     "lte",
	OpIn:      "in",
	OpNotIn:   "nin",
	OpLike:    "like",
	OpNotLike: "nlike",
	OpRaw:     "raw",
}

// String returns the token name of the op.
func (o Op) String() string {
	if o > OpInvalid && o < endOps {
		return opNames[o]
	}
	return opNames[OpInvalid]
}

// Valid reports whether o is a declared operator.
func (o Op) Valid() bool {
	return o > OpInvalid && o < endOps
}

// A Part selects one component of a temporal field for comparison, like the
// day or the year. A predicate carrying parts compares each component in
// declaration order instead of the whole value. Under In and NotIn a part's
// value may be a list; the component is then tested for membership.
type Part struct {
	Name  string
	Value any
}

// Date part names accepted by the renderer.
const (
	PartYear   = "year"
	PartMonth  = "month"
	PartDay    = "day"
	PartHour   = "hour"
	PartMinute = "minute"
	PartSecond = "second"
)

// Year selects the year component.
func Year(v any) Part { return Part{PartYear, v} }

// Month selects the month component.
func Month(v any) Part { return Part{PartMonth, v} }

// Day selects the day component.
func Day(v any) Part { return Part{PartDay, v} }

// Hour selects the hour component.
func Hour(v any) Part { return Part{PartHour, v} }

// Minute selects the minute component.
func Minute(v any) Part { return Part{PartMinute, v} }

// Second selects the second component.
func Second(v any) Part { return Part{PartSecond, v} }

// A Predicate is one WHERE condition. Or joins the predicate to the
// previous one with OR instead of AND; the renderer groups maximal OR runs
// in parentheses.
type Predicate struct {
	Op    Op
	Field string
	Value any
	Parts []Part
	Or    bool

	// Raw SQL predicate. Set only when Op is OpRaw; Value then holds the
	// bind arguments as []any.
	Raw string
}

// A Sort orders results by a field. Direction is +1 for ascending, -1 for
// descending. A non-empty Values list orders rows by their position in the
// list instead of by natural field order.
type Sort struct {
	Direction int
	Field     string
	Values    []any
}

// An Increment adds a delta to the stored value instead of replacing it.
// Used as a SetValue value; renders as COALESCE(field, 0) + delta.
type Increment struct {
	Delta int
}

// A SetValue assigns a value to a field in INSERT and UPDATE statements.
// Value may be a plain value, an Increment, or a *Query subquery.
type SetValue struct {
	Field string
	Value any
}

// Compound set operators.
const (
	CompoundUnion    = "UNION"
	CompoundUnionAll = "UNION ALL"
)

// A Compound attaches another query with a set operator.
type Compound struct {
	Operator string
	Query    *Query
}

// A Query is the backend-agnostic description of one statement: projection,
// predicates, ordering, bounds, set values, and compound branches. Queries
// contain no SQL. All fluent methods return the receiver; configuration
// errors are remembered and surfaced by Err and at render time.
type Query struct {
	schema *schema.Schema

	selects   []string
	distinct  bool
	wheres    []*Predicate
	sorts     []*Sort
	bounds    Bounds
	sets      []*SetValue
	compounds []*Compound

	// canGet is cleared when a predicate can never match, like IN over an
	// empty list. The execution layer skips the round trip; rendering still
	// produces the contradiction row filter.
	canGet bool
	orNext bool
	err    error
}

// New returns an empty query against the given schema.
func New(s *schema.Schema) *Query {
	return &Query{schema: s, canGet: true}
}

// Schema returns the schema the query was built against.
func (q *Query) Schema() *schema.Schema {
	return q.schema
}

// Err returns the first configuration error, or nil.
func (q *Query) Err() error {
	return q.err
}

// CanGet reports whether the query can possibly match rows. It is false
// after an In predicate over an empty list.
func (q *Query) CanGet() bool {
	return q.canGet
}

func (q *Query) fail(op, format string, args ...any) *Query {
	if q.err == nil {
		q.err = perch.NewConstructionError(op, format, args...)
	}
	return q
}

func (q *Query) checkField(op, field string) bool {
	if q.schema != nil && !q.schema.Has(field) {
		q.fail(op, "schema %q has no field %q", q.schema.Table, field)
		return false
	}
	return true
}

// Select appends fields to the projection. Order and duplicates are
// preserved. An empty projection renders as *.
func (q *Query) Select(fields ...string) *Query {
	for _, f := range fields {
		if !q.checkField("select", f) {
			return q
		}
	}
	q.selects = append(q.selects, fields...)
	return q
}

// Distinct makes the projection DISTINCT.
func (q *Query) Distinct() *Query {
	q.distinct = true
	return q
}

// Selects returns the projection in declaration order.
func (q *Query) Selects() []string {
	return q.selects
}

// IsDistinct reports whether the projection is DISTINCT.
func (q *Query) IsDistinct() bool {
	return q.distinct
}

// Or joins the next predicate to the previous one with OR instead of AND.
func (q *Query) Or() *Query {
	q.orNext = true
	return q
}

func (q *Query) where(op Op, field string, value any, parts []Part) *Query {
	if !q.checkField(op.String(), field) {
		return q
	}
	if len(parts) > 0 {
		if f := q.fieldOf(field); f != nil && !f.Kind.Temporal() {
			return q.fail(op.String(), "field %q is not temporal, date parts need a time or date field", field)
		}
	}
	p := &Predicate{Op: op, Field: field, Value: value, Parts: parts, Or: q.orNext}
	q.orNext = false
	q.wheres = append(q.wheres, p)
	return q
}

func (q *Query) fieldOf(name string) *schema.Field {
	if q.schema == nil {
		return nil
	}
	return q.schema.Field(name)
}

// Eq adds field = value. With parts, each named component of the field is
// compared instead.
func (q *Query) Eq(field string, value any, parts ...Part) *Query {
	return q.where(OpEq, field, value, parts)
}

// Ne adds field != value.
func (q *Query) Ne(field string, value any, parts ...Part) *Query {
	return q.where(OpNe, field, value, parts)
}

// Gt adds field > value.
func (q *Query) Gt(field string, value any, parts ...Part) *Query {
	return q.where(OpGt, field, value, parts)
}

// Gte adds field >= value.
func (q *Query) Gte(field string, value any, parts ...Part) *Query {
	return q.where(OpGte, field, value, parts)
}

// Lt adds field < value.
func (q *Query) Lt(field string, value any, parts ...Part) *Query {
	return q.where(OpLt, field, value, parts)
}

// Lte adds field <= value.
func (q *Query) Lte(field string, value any, parts ...Part) *Query {
	return q.where(OpLte, field, value, parts)
}

// In adds field IN (values...). The value may be a slice or a *Query
// subquery. With parts, each named component of the field is tested for
// membership instead. An empty list can never match; the query remembers
// that and renders a row filter that is false for every row.
func (q *Query) In(field string, value any, parts ...Part) *Query {
	if len(parts) == 0 && emptyList(value) {
		q.canGet = false
	}
	return q.where(OpIn, field, value, parts)
}

// NotIn adds field NOT IN (values...). An empty list matches every row.
func (q *Query) NotIn(field string, value any, parts ...Part) *Query {
	return q.where(OpNotIn, field, value, parts)
}

// emptyList reports whether v is a slice with no elements, across the
// slice kinds the renderer accepts.
func emptyList(v any) bool {
	switch v := v.(type) {
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case []int:
		return len(v) == 0
	case []int64:
		return len(v) == 0
	}
	return false
}

// Like adds field LIKE pattern.
func (q *Query) Like(field string, pattern string) *Query {
	return q.where(OpLike, field, pattern, nil)
}

// NotLike adds field NOT LIKE pattern.
func (q *Query) NotLike(field string, pattern string) *Query {
	return q.where(OpNotLike, field, pattern, nil)
}

// Between adds low <= field <= high.
func (q *Query) Between(field string, low, high any) *Query {
	return q.Gte(field, low).Lte(field, high)
}

// Raw adds a raw SQL predicate with bind arguments. The fragment is joined
// like any other predicate; the caller owns its correctness.
func (q *Query) Raw(fragment string, args ...any) *Query {
	p := &Predicate{Op: OpRaw, Raw: fragment, Value: args, Or: q.orNext}
	q.orNext = false
	q.wheres = append(q.wheres, p)
	return q
}

// Wheres returns the predicates in declaration order.
func (q *Query) Wheres() []*Predicate {
	return q.wheres
}

// Sort appends an ordering. Direction must be +1 or -1. A non-empty values
// list orders rows by their position in the list.
func (q *Query) Sort(direction int, field string, values ...any) *Query {
	if direction != 1 && direction != -1 {
		return q.fail("sort", "direction must be +1 or -1, got %d", direction)
	}
	if !q.checkField("sort", field) {
		return q
	}
	q.sorts = append(q.sorts, &Sort{Direction: direction, Field: field, Values: values})
	return q
}

// Asc appends ascending orderings.
func (q *Query) Asc(fields ...string) *Query {
	for _, f := range fields {
		q.Sort(1, f)
	}
	return q
}

// Desc appends descending orderings.
func (q *Query) Desc(fields ...string) *Query {
	for _, f := range fields {
		q.Sort(-1, f)
	}
	return q
}

// Sorts returns the orderings in declaration order.
func (q *Query) Sorts() []*Sort {
	return q.sorts
}

// Limit caps the number of returned rows. Negative values are rejected.
func (q *Query) Limit(n int) *Query {
	if err := q.bounds.SetLimit(n); err != nil {
		q.fail("bounds", "%v", err)
	}
	return q
}

// Offset skips rows before the first returned one. Setting an offset clears
// any page. Negative values are rejected.
func (q *Query) Offset(n int) *Query {
	if err := q.bounds.SetOffset(n); err != nil {
		q.fail("bounds", "%v", err)
	}
	return q
}

// Page selects a 1-based page of limit-sized chunks. Setting a page clears
// any offset. Negative values are rejected.
func (q *Query) Page(n int) *Query {
	if err := q.bounds.SetPage(n); err != nil {
		q.fail("bounds", "%v", err)
	}
	return q
}

// Bounds returns the query bounds.
func (q *Query) Bounds() *Bounds {
	return &q.bounds
}

// Set assigns a value to a field for INSERT and UPDATE. The value may be a
// plain value, an Increment, or a *Query subquery.
func (q *Query) Set(field string, value any) *Query {
	if !q.checkField("set", field) {
		return q
	}
	q.sets = append(q.sets, &SetValue{Field: field, Value: value})
	return q
}

// Incr adds delta to the stored value on UPDATE instead of replacing it.
func (q *Query) Incr(field string, delta int) *Query {
	return q.Set(field, Increment{Delta: delta})
}

// Sets returns the set values in declaration order.
func (q *Query) Sets() []*SetValue {
	return q.sets
}

// Union attaches another query with UNION.
func (q *Query) Union(other *Query) *Query {
	q.compounds = append(q.compounds, &Compound{Operator: CompoundUnion, Query: other})
	return q
}

// UnionAll attaches another query with UNION ALL.
func (q *Query) UnionAll(other *Query) *Query {
	q.compounds = append(q.compounds, &Compound{Operator: CompoundUnionAll, Query: other})
	return q
}

// Compounds returns the attached compound branches.
func (q *Query) Compounds() []*Compound {
	return q.compounds
}

// Clone returns a deep copy of the query for branching. The schema pointer
// is shared; predicate values are not copied.
func (q *Query) Clone() *Query {
	c := &Query{
		schema:   q.schema,
		distinct: q.distinct,
		bounds:   q.bounds,
		canGet:   q.canGet,
		orNext:   q.orNext,
		err:      q.err,
	}
	c.selects = append([]string(nil), q.selects...)
	for _, p := range q.wheres {
		cp := *p
		cp.Parts = append([]Part(nil), p.Parts...)
		c.wheres = append(c.wheres, &cp)
	}
	for _, s := range q.sorts {
		cs := *s
		cs.Values = append([]any(nil), s.Values...)
		c.sorts = append(c.sorts, &cs)
	}
	for _, s := range q.sets {
		cs := *s
		c.sets = append(c.sets, &cs)
	}
	for _, cm := range q.compounds {
		c.compounds = append(c.compounds, &Compound{Operator: cm.Operator, Query: cm.Query.Clone()})
	}
	return c
}
