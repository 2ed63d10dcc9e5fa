package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/picatz/batchgpt"
	"github.com/picatz/batchgpt/internal/history"
	"github.com/shoenig/test/must"
	"go.uber.org/zap/zaptest"
)

// tick returns a clock that advances by one millisecond per call.
func tick(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
}

func counts(total, completed int64) batchgpt.RequestCounts {
	return batchgpt.RequestCounts{
		{Key: "total", Value: total},
		{Key: "completed", Value: completed},
		{Key: "failed", Value: int64(0)},
	}
}

func record(t *testing.T, store history.Store) {
	t.Helper()

	rec := history.NewRecorder(store)
	rec.SetClock(tick(time.Unix(1700000000, 0)))

	ctx := t.Context()
	must.NoError(t, rec.Record(ctx, "status_all_batches",
		batchgpt.BatchRecord{ID: "b1", Status: "in_progress", RequestCounts: counts(4, 1)},
		batchgpt.BatchRecord{ID: "b2", Status: "completed", RequestCounts: counts(2, 2)},
	))
	must.NoError(t, rec.Record(ctx, "status_single_batch",
		batchgpt.BatchRecord{ID: "b1", Status: "completed", RequestCounts: counts(4, 4)},
	))
}

func TestList(t *testing.T) {
	store, err := history.Open(t.Context(), history.BackendMemory, "", nil)
	must.NoError(t, err)
	record(t, store)

	all, err := history.List(t.Context(), store, history.Query{})
	must.NoError(t, err)
	must.Len(t, 3, all)

	must.Eq(t, "b1", all[0].BatchID)
	must.Eq(t, "in_progress", all[0].Status)
	must.Eq(t, "b2", all[1].BatchID)
	must.Eq(t, "b1", all[2].BatchID)
	must.Eq(t, "status_single_batch", all[2].Operation)

	for _, obs := range all {
		must.NotEq(t, "", obs.Key)
	}
}

func TestList_query(t *testing.T) {
	store, err := history.Open(t.Context(), history.BackendMemory, "", nil)
	must.NoError(t, err)
	record(t, store)

	b1, err := history.List(t.Context(), store, history.Query{BatchID: "b1"})
	must.NoError(t, err)
	must.Len(t, 2, b1)
	must.Eq(t, "in_progress", b1[0].Status)
	must.Eq(t, "completed", b1[1].Status)

	latest, err := history.List(t.Context(), store, history.Query{Limit: 1})
	must.NoError(t, err)
	must.Len(t, 1, latest)
	must.Eq(t, "status_single_batch", latest[0].Operation)

	none, err := history.List(t.Context(), store, history.Query{BatchID: "nope"})
	must.NoError(t, err)
	must.SliceEmpty(t, none)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		backend string
		path    string
	}{
		{history.BackendPebble, filepath.Join(dir, "pebble", "history")},
		{history.BackendSQLite, filepath.Join(dir, "sqlite", "history.db")},
		{history.BackendMemory, ""},
	}

	for _, tc := range cases {
		t.Run(tc.backend, func(t *testing.T) {
			store, err := history.Open(t.Context(), tc.backend, tc.path, zaptest.NewLogger(t))
			must.NoError(t, err)
			defer store.Close(context.Background())

			record(t, store)

			all, err := history.List(t.Context(), store, history.Query{})
			must.NoError(t, err)
			must.Len(t, 3, all)
			must.Eq(t, counts(4, 1), all[0].RequestCounts)
			must.True(t, all[0].ObservedAt.Equal(time.Unix(1700000000, int64(time.Millisecond))))
		})
	}
}

func TestOpen_unknown_backend(t *testing.T) {
	_, err := history.Open(t.Context(), "redis", "", nil)
	must.ErrorContains(t, err, `unknown history backend "redis"`)
}

func TestRender(t *testing.T) {
	r := batchgpt.Renderer{Normalizer: batchgpt.Normalizer{Location: time.UTC}}

	must.Eq(t, []string{history.NoObservationsMessage}, history.Render(r, nil))

	lines := history.Render(r, []history.Observation{{
		Operation:     "status_single_batch",
		BatchID:       "b1",
		Status:        "completed",
		RequestCounts: counts(4, 4),
		ObservedAt:    time.Unix(1700000000, 0),
	}})

	must.Eq(t, []string{
		"Observed At: 2023-11-14 22:13:20 UTC",
		"Operation: status_single_batch",
		"Batch ID: b1",
		"Status: completed",
		"Request Counts: {total: 4, completed: 4, failed: 0}",
		"---",
	}, lines)
}

func TestDefaultPath(t *testing.T) {
	must.Eq(t, filepath.Join(history.DefaultDir, "history"), history.DefaultPath(history.BackendPebble))
	must.Eq(t, filepath.Join(history.DefaultDir, "history.db"), history.DefaultPath(history.BackendSQLite))
}
