package storage

import (
	"context"
	"iter"
)

// Entry is a single key/value pair held by a [Backend].
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Backend is an ordered key/value store. Entries are listed in ascending
// order of their encoded keys, so time-sortable keys list oldest first.
type Backend[K, V any] interface {
	// Get returns the value stored under key, and whether it was found.
	Get(ctx context.Context, key K) (value V, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key K, value V) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key K) error

	// List returns up to pageSize entries starting at pageToken (inclusive),
	// and the token of the next page, which is nil on the last page. A nil
	// pageSize means DefaultListPageSize; sizes below 1 list one entry.
	List(ctx context.Context, pageSize *int, pageToken *K) (entries iter.Seq2[K, V], nextPageToken *K, err error)

	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

// DefaultListPageSize is the page size used when List is given none.
const DefaultListPageSize = 25

func ptr[T any](v T) *T {
	return &v
}

// ListLimit resolves the pageSize argument of [Backend.List] to the number
// of entries to return.
func ListLimit(pageSize *int) int {
	if pageSize == nil {
		return DefaultListPageSize
	}
	return max(*pageSize, 1)
}

// PageSize returns a page size argument for [Backend.List].
func PageSize(pageSize int) *int {
	return ptr(pageSize)
}

// PageToken returns a page token argument for [Backend.List].
func PageToken[T any](pageToken T) *T {
	return ptr(pageToken)
}

// All walks every page of b and returns the entries in list order. A
// pageSize below 1 walks pages of DefaultListPageSize.
func All[K, V any](ctx context.Context, b Backend[K, V], pageSize int) ([]Entry[K, V], error) {
	if pageSize < 1 {
		pageSize = DefaultListPageSize
	}

	var (
		all  []Entry[K, V]
		next *K
	)

	for {
		entries, token, err := b.List(ctx, PageSize(pageSize), next)
		if err != nil {
			return nil, err
		}

		for k, v := range entries {
			all = append(all, Entry[K, V]{Key: k, Value: v})
		}

		if token == nil {
			return all, nil
		}
		next = token
	}
}

// Seq adapts a slice of entries into the iterator List returns.
func Seq[K, V any](entries []Entry[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}
