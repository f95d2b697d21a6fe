package sql

import (
	"context"

	"github.com/perch-db/perch/query"
)

// DefaultChunk is the page size All uses when the query has no limit.
const DefaultChunk = 5000

// An Iterator walks one fetched page. When the query asked for pagination
// the fetch read one extra row; the iterator hides it and reports it
// through HasMore.
type Iterator struct {
	rows    []Row
	idx     int
	hasMore bool
}

func newIterator(rows []Row, bounds *query.Bounds) *Iterator {
	it := &Iterator{rows: rows}
	if bounds.Paginate() && bounds.HasLimit() && len(rows) > bounds.Limit() {
		it.rows = rows[:bounds.Limit()]
		it.hasMore = true
	}
	return it
}

// Next advances the iterator and reports whether a row is available.
func (it *Iterator) Next() bool {
	if it.idx >= len(it.rows) {
		return false
	}
	it.idx++
	return true
}

// Row returns the current row. Next must have returned true.
func (it *Iterator) Row() Row {
	return it.rows[it.idx-1]
}

// Values returns the named columns of the current row, in the given order.
func (it *Iterator) Values(fields ...string) []any {
	row := it.Row()
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = row[f]
	}
	return out
}

// Len returns the number of rows in the page.
func (it *Iterator) Len() int {
	return len(it.rows)
}

// HasMore reports whether another page exists past this one.
func (it *Iterator) HasMore() bool {
	return it.hasMore
}

// Rows returns the remaining rows without advancing.
func (it *Iterator) Rows() []Row {
	return it.rows[it.idx:]
}

// An AllIterator walks every matching row, fetching limit-sized pages as
// it goes. The source query is not mutated.
type AllIterator struct {
	itf   *Interface
	q     *query.Query
	page  int
	cur   *Iterator
	done  bool
	chunk int
}

// All returns an iterator over every row the query matches. A query
// without a limit pages by DefaultChunk.
func (i *Interface) All(q *query.Query) *AllIterator {
	chunk := q.Bounds().Limit()
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	return &AllIterator{itf: i, q: q, chunk: chunk, page: 1}
}

// Next returns the next row, or nil when the rows are exhausted.
func (a *AllIterator) Next(ctx context.Context) (Row, error) {
	for {
		if a.cur != nil && a.cur.Next() {
			return a.cur.Row(), nil
		}
		if a.done {
			return nil, nil
		}
		page := a.q.Clone().Limit(a.chunk).Page(a.page)
		page.Bounds().SetPaginate(true)
		it, err := a.itf.Get(ctx, page)
		if err != nil {
			return nil, err
		}
		a.cur = it
		a.page++
		if !it.HasMore() {
			a.done = true
		}
		if it.Len() == 0 {
			return nil, nil
		}
	}
}
