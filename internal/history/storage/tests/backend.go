package tests

import (
	"testing"

	"github.com/picatz/batchgpt"
	"github.com/picatz/batchgpt/internal/history/storage"
	"github.com/shoenig/test/must"
)

// keys lists the entries of a page in order.
func keys[V any](t *testing.T, b storage.Backend[string, V], pageSize *int, pageToken *string) ([]string, *string) {
	t.Helper()

	entries, next, err := b.List(t.Context(), pageSize, pageToken)
	must.NoError(t, err)

	var out []string
	for k := range entries {
		out = append(out, k)
	}
	return out, next
}

// BackendSuite tests a backend implementation of the storage package, using
// the provided backend instance to perform the tests. The backend must be
// empty.
func BackendSuite(t *testing.T, backend storage.Backend[string, string]) {
	t.Helper()

	ctx := t.Context()

	// Inserted out of order, listed in key order.
	for _, k := range []string{"b-1", "a-2", "a-1"} {
		must.NoError(t, backend.Set(ctx, k, "value of "+k))
	}

	value, ok, err := backend.Get(ctx, "a-2")
	must.NoError(t, err)
	must.True(t, ok)
	must.Eq(t, "value of a-2", value)

	_, ok, err = backend.Get(ctx, "missing")
	must.NoError(t, err)
	must.False(t, ok)

	must.NoError(t, backend.Set(ctx, "a-2", "replaced"))
	value, ok, err = backend.Get(ctx, "a-2")
	must.NoError(t, err)
	must.True(t, ok)
	must.Eq(t, "replaced", value)

	page, next := keys(t, backend, storage.PageSize(2), nil)
	must.Eq(t, []string{"a-1", "a-2"}, page)
	must.NotNil(t, next)

	page, next = keys(t, backend, storage.PageSize(2), next)
	must.Eq(t, []string{"b-1"}, page)
	must.Nil(t, next)

	page, next = keys(t, backend, nil, nil)
	must.Eq(t, []string{"a-1", "a-2", "b-1"}, page)
	must.Nil(t, next)

	for _, size := range []int{0, -1} {
		page, next = keys(t, backend, storage.PageSize(size), nil)
		must.Eq(t, []string{"a-1"}, page)
		must.NotNil(t, next)
		must.Eq(t, "a-2", *next)
	}

	all, err := storage.All(ctx, backend, 0)
	must.NoError(t, err)
	must.Len(t, 3, all)

	must.NoError(t, backend.Delete(ctx, "a-2"))
	must.NoError(t, backend.Delete(ctx, "never-set"))

	all, err = storage.All(ctx, backend, 1)
	must.NoError(t, err)
	remaining := make([]string, len(all))
	for i, e := range all {
		remaining[i] = e.Key
	}
	must.Eq(t, []string{"a-1", "b-1"}, remaining)

	must.NoError(t, backend.Flush(ctx))
}

type batchSnapshot struct {
	ID            string                 `json:"id"`
	Status        string                 `json:"status"`
	RequestCounts batchgpt.RequestCounts `json:"request_counts"`
}

// BackendSuite_batch_snapshots checks that structured values, including
// ordered request counters, survive a round trip through the backend.
func BackendSuite_batch_snapshots(t *testing.T, b storage.Backend[string, batchSnapshot]) {
	t.Helper()

	ctx := t.Context()

	first := batchSnapshot{
		ID:     "batch_1",
		Status: "in_progress",
		RequestCounts: batchgpt.RequestCounts{
			{Key: "total", Value: int64(10)},
			{Key: "completed", Value: int64(4)},
			{Key: "failed", Value: int64(1)},
		},
	}
	second := batchSnapshot{ID: "batch_2", Status: "completed"}

	must.NoError(t, b.Set(ctx, "0001", first))
	must.NoError(t, b.Set(ctx, "0002", second))

	value, ok, err := b.Get(ctx, "0001")
	must.NoError(t, err)
	must.True(t, ok)
	must.Eq(t, first, value)
	must.Eq(t, "{total: 10, completed: 4, failed: 1}", batchgpt.FormatRequestCounts(value.RequestCounts))

	page, next := keys(t, b, storage.PageSize(1), nil)
	must.Eq(t, []string{"0001"}, page)
	must.NotNil(t, next)

	entries, next, err := b.List(ctx, nil, next)
	must.NoError(t, err)
	must.Nil(t, next)

	for key, value := range entries {
		must.Eq(t, "0002", key)
		must.Eq(t, second.Status, value.Status)
	}
}

// NewBatchSnapshotCodec returns the codec used with BackendSuite_batch_snapshots.
func NewBatchSnapshotCodec() storage.Codec[string, batchSnapshot] {
	return &storage.StringKeyCodec[batchSnapshot]{}
}
