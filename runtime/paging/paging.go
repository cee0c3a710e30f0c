// Package paging iterates list operations that return an opaque next_offset cursor.
package paging

import (
	"context"
	"iter"
)

// Page is one response of a list operation.
type Page[T any] struct {
	Items []T
	// NextOffset is empty on the last page.
	NextOffset string
}

// Fetch loads the page starting at offset. The first call receives "".
type Fetch[T any] func(ctx context.Context, offset string) (Page[T], error)

// Iterator walks every item of a list operation, fetching pages on demand.
type Iterator[T any] struct {
	fetch  Fetch[T]
	page   Page[T]
	pos    int
	offset string
	done   bool
	item   T
	err    error
}

// New returns an iterator starting at the first page.
func New[T any](fetch Fetch[T]) *Iterator[T] {
	return &Iterator[T]{fetch: fetch, pos: -1}
}

// Next advances to the next item. It returns false when the items are exhausted or
// a fetch failed; check Err.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	for it.pos < 0 || it.pos+1 >= len(it.page.Items) {
		if it.done {
			return false
		}
		page, err := it.fetch(ctx, it.offset)
		if err != nil {
			it.err = err
			return false
		}
		prev := it.offset
		it.page, it.pos = page, -1
		it.offset = page.NextOffset
		// a repeated cursor ends the walk
		it.done = page.NextOffset == "" || page.NextOffset == prev
		if len(page.Items) > 0 {
			break
		}
	}
	it.pos++
	it.item = it.page.Items[it.pos]
	return true
}

// Item returns the current item.
func (it *Iterator[T]) Item() T { return it.item }

// Offset returns the cursor of the page after the current one.
func (it *Iterator[T]) Offset() string { return it.offset }

// Err returns the fetch error that stopped iteration, if any.
func (it *Iterator[T]) Err() error { return it.err }

// All yields every item, then the fetch error if one stopped iteration.
func All[T any](ctx context.Context, fetch Fetch[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := New(fetch)
		for it.Next(ctx) {
			if !yield(it.Item(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect gathers up to limit items. A limit of zero or less collects everything.
func Collect[T any](ctx context.Context, fetch Fetch[T], limit int) ([]T, error) {
	var out []T
	for item, err := range All(ctx, fetch) {
		if err != nil {
			return out, err
		}
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
