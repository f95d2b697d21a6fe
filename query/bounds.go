package query

import (
	"github.com/perch-db/perch"
)

// Bounds holds the LIMIT/OFFSET window of a query. Offset and page are
// mutually exclusive: setting one clears the other. Page is 1-based and
// translates to offset (page-1)*limit.
type Bounds struct {
	limit  int
	offset int
	page   int

	hasLimit  bool
	hasOffset bool
	hasPage   bool

	// paginate makes Limit render one row larger than asked, so a fetch
	// can tell whether another page exists without a second query.
	paginate bool
}

// SetLimit sets the row cap. Negative values are rejected.
func (b *Bounds) SetLimit(n int) error {
	if n < 0 {
		return perch.NewConstructionError("bounds", "limit must be non-negative, got %d", n)
	}
	b.limit = n
	b.hasLimit = true
	return nil
}

// SetOffset sets the number of skipped rows and clears any page.
func (b *Bounds) SetOffset(n int) error {
	if n < 0 {
		return perch.NewConstructionError("bounds", "offset must be non-negative, got %d", n)
	}
	b.offset = n
	b.hasOffset = true
	b.page = 0
	b.hasPage = false
	return nil
}

// SetPage sets the 1-based page and clears any offset.
func (b *Bounds) SetPage(n int) error {
	if n < 0 {
		return perch.NewConstructionError("bounds", "page must be non-negative, got %d", n)
	}
	b.page = n
	b.hasPage = true
	b.offset = 0
	b.hasOffset = false
	return nil
}

// SetPaginate turns the over-fetch row on or off.
func (b *Bounds) SetPaginate(v bool) {
	b.paginate = v
}

// Paginate reports whether the over-fetch row is on.
func (b *Bounds) Paginate() bool {
	return b.paginate
}

// HasLimit reports whether a positive limit is set.
func (b *Bounds) HasLimit() bool {
	return b.hasLimit && b.limit > 0
}

// HasBounds reports whether any of limit, offset, or page is set.
func (b *Bounds) HasBounds() bool {
	return b.hasLimit || b.hasOffset || b.hasPage
}

// Limit returns the configured limit.
func (b *Bounds) Limit() int {
	return b.limit
}

// RenderLimit returns the limit to put in SQL: one larger than configured
// when pagination is on.
func (b *Bounds) RenderLimit() int {
	if b.paginate && b.limit > 0 {
		return b.limit + 1
	}
	return b.limit
}

// Offset returns the effective offset. A page translates to
// (page-1)*limit.
func (b *Bounds) Offset() int {
	if b.hasPage {
		page := b.page
		if page > 0 {
			page--
		}
		return page * b.limit
	}
	return b.offset
}

// HasOffset reports whether the effective offset is positive.
func (b *Bounds) HasOffset() bool {
	return b.Offset() > 0
}
