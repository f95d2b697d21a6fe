package query

import (
	"strings"

	"github.com/perch-db/perch"
)

// dispatchFunc applies one tokenized operation to a query.
type dispatchFunc func(q *Query, field string, values []any, parts []Part) *Query

// dispatch is the operator token table. Every token a query string can
// carry is listed here; there is no reflective fallback.
var dispatch = map[string]dispatchFunc{
	"eq": func(q *Query, f string, vs []any, ps []Part) *Query {
		return q.Eq(f, first(vs), ps...)
	},
	"ne": func(q *Query, f string, vs []any, ps []Part) *Query {
		return q.Ne(f, first(vs), ps...)
	},
	"gt": func(q *Query, f string, vs []any, ps []Part) *Query {
		return q.Gt(f, first(vs), ps...)
	},
	"gte": func(q *Query, f string, vs []any, ps []Part) *Query {
		return q.Gte(f, first(vs), ps...)
	},
	"lt": func(q *Query, f string, vs []any, ps []Part) *Query {
		return q.Lt(f, first(vs), ps...)
	},
	"lte": func(q *Query, f string, vs []any, ps []Part) *Query {
		return q.Lte(f, first(vs), ps...)
	},
	"in": func(q *Query, f string, vs []any, ps []Part) *Query {
		return q.In(f, vs, ps...)
	},
	"nin": func(q *Query, f string, vs []any, ps []Part) *Query {
		return q.NotIn(f, vs, ps...)
	},
	"like": func(q *Query, f string, vs []any, _ []Part) *Query {
		s, _ := first(vs).(string)
		return q.Like(f, s)
	},
	"nlike": func(q *Query, f string, vs []any, _ []Part) *Query {
		s, _ := first(vs).(string)
		return q.NotLike(f, s)
	},
	"asc": func(q *Query, f string, vs []any, _ []Part) *Query {
		return q.Sort(1, f, vs...)
	},
	"desc": func(q *Query, f string, vs []any, _ []Part) *Query {
		return q.Sort(-1, f, vs...)
	},
	"select": func(q *Query, f string, _ []any, _ []Part) *Query {
		return q.Select(f)
	},
	"set": func(q *Query, f string, vs []any, _ []Part) *Query {
		return q.Set(f, first(vs))
	},
}

func first(vs []any) any {
	if len(vs) == 0 {
		return nil
	}
	return vs[0]
}

// Dispatch applies a tokenized operation of the form <op>_<field> to the
// query, like "eq_email" or "desc_created_at". Part arguments are split
// out of args. Unknown operators return a construction error; the token
// table above is the complete set.
func (q *Query) Dispatch(token string, args ...any) (*Query, error) {
	op, field, ok := strings.Cut(token, "_")
	if !ok || field == "" {
		return q, perch.NewConstructionError("dispatch", "token %q is not of the form <op>_<field>", token)
	}
	fn, ok := dispatch[op]
	if !ok {
		return q, perch.NewConstructionError("dispatch", "unknown operator %q in token %q", op, token)
	}
	var (
		values []any
		parts  []Part
	)
	for _, a := range args {
		if p, ok := a.(Part); ok {
			parts = append(parts, p)
			continue
		}
		values = append(values, a)
	}
	before := q.err
	fn(q, field, values, parts)
	if q.err != nil && before == nil {
		err := q.err
		q.err = nil
		return q, err
	}
	return q, nil
}

// Tokens returns the operator tokens the dispatch table accepts, for
// callers that validate query strings up front. Order is unspecified.
func Tokens() []string {
	tokens := make([]string, 0, len(dispatch))
	for t := range dispatch {
		tokens = append(tokens, t)
	}
	return tokens
}
