package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/picatz/batchgpt/internal/history/storage"
	"github.com/picatz/batchgpt/internal/history/storage/sqlite"
	"github.com/picatz/batchgpt/internal/history/storage/tests"
	"github.com/shoenig/test/must"
)

func TestBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	b, err := sqlite.NewBackend(t.Context(), path, &storage.StringKeyCodec[string]{})
	must.NoError(t, err)
	t.Cleanup(func() { b.Close(t.Context()) })

	tests.BackendSuite(t, b)
}

func TestBackend_batch_snapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	b, err := sqlite.NewBackend(t.Context(), path, tests.NewBatchSnapshotCodec())
	must.NoError(t, err)
	t.Cleanup(func() { b.Close(t.Context()) })

	tests.BackendSuite_batch_snapshots(t, b)
}
