// Package query builds backend-agnostic query descriptions.
//
// A Query collects projection, predicates, ordering, bounds, set values,
// and compound branches against one schema. It contains no SQL; the
// dialect/sql package renders it. All methods return the receiver, so a
// query reads as one chain:
//
//	q := query.New(users).
//	    Select("id", "email").
//	    Gte("created_at", cutoff).
//	    Or().Eq("admin", true).
//	    Desc("created_at").
//	    Limit(10)
//
// Configuration mistakes (bad sort direction, negative bounds, unknown
// fields) do not interrupt the chain; the first one is remembered and
// returned by Err and again at render time.
//
// # Date parts
//
// Comparisons against time and date fields can target components of the
// value instead of the whole:
//
//	q.Eq("created_at", nil, query.Day(21), query.Month(6))
//
// # Pagination
//
// Limit, Offset, and Page describe the window. Offset and page are
// mutually exclusive; setting one clears the other. With pagination turned
// on the renderer asks for one extra row so a fetch knows whether more
// rows exist.
//
// # Tokenized dispatch
//
// Dispatch applies operations named by <op>_<field> tokens, like
// "eq_email" or "desc_created_at", from a fixed operator table. Unknown
// operators are construction errors.
package query
