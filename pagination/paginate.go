// Package pagination derives pages from a cached collection. It performs no
// I/O and never touches the cache.
package pagination

import "errors"

var (
	ErrInvalidPageSize   = errors.New("pagination: page size must be at least 1")
	ErrInvalidPageNumber = errors.New("pagination: page number must be at least 1")
)

// Page is one page of a collection.
type Page[T any] struct {
	// Items is empty, never nil, when the page is past the end.
	Items []T

	// Number is the requested 1-based page.
	Number int

	// Count is the number of pages, at least 1.
	Count int
}

// HasNext reports whether a later page exists.
func (p Page[T]) HasNext() bool { return p.Number < p.Count }

// HasPrev reports whether an earlier page exists.
func (p Page[T]) HasPrev() bool { return p.Number > 1 }

// Paginate returns page pageNumber of items split into pages of pageSize.
// A page past the end is empty, not an error. Items shares the backing
// array of items.
func Paginate[T any](items []T, pageSize, pageNumber int) (Page[T], error) {
	if pageSize < 1 {
		return Page[T]{}, ErrInvalidPageSize
	}
	if pageNumber < 1 {
		return Page[T]{}, ErrInvalidPageNumber
	}

	page := Page[T]{Items: []T{}, Number: pageNumber, Count: PageCount(len(items), pageSize)}
	if pageNumber > page.Count {
		return page, nil
	}
	start := (pageNumber - 1) * pageSize
	if start >= len(items) {
		return page, nil
	}
	end := min(start+pageSize, len(items))
	page.Items = items[start:end:end]
	return page, nil
}

// PageCount is ceil(total/pageSize), at least 1.
func PageCount(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 1
	}
	return (total-1)/pageSize + 1
}

// Clamp moves pageNumber into [1, count].
func Clamp(pageNumber, count int) int {
	return max(1, min(pageNumber, max(count, 1)))
}

// Numbers returns 1..count, for rendering page links.
func Numbers(count int) []int {
	n := make([]int, 0, max(count, 0))
	for i := 1; i <= count; i++ {
		n = append(n, i)
	}
	return n
}
