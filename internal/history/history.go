// Package history records the batch statuses the harness observes, so a
// batch can be followed across invocations.
package history

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/picatz/batchgpt"
	"github.com/picatz/batchgpt/internal/history/storage"
	"github.com/picatz/batchgpt/internal/history/storage/memory"
	pebbleStorage "github.com/picatz/batchgpt/internal/history/storage/pebble"
	"github.com/picatz/batchgpt/internal/history/storage/sqlite"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// DefaultDir holds the history database unless configured otherwise. On
// Unix-like systems it is ~/.batchgpt, on Windows %USERPROFILE%/.batchgpt.
var DefaultDir = filepath.Join(cmp.Or(os.Getenv("HOME"), os.Getenv("USERPROFILE")), ".batchgpt")

// DefaultPath returns where backend keeps its data by default: a directory
// for pebble, a single file for sqlite.
func DefaultPath(backend string) string {
	if backend == BackendSQLite {
		return filepath.Join(DefaultDir, "history.db")
	}
	return filepath.Join(DefaultDir, "history")
}

// Backend names accepted by [Open].
const (
	BackendPebble = "pebble"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendPebble, BackendSQLite, BackendMemory}

// Observation is one batch status seen by one operation.
type Observation struct {
	Key           string                 `json:"-"`
	Operation     string                 `json:"operation"`
	BatchID       string                 `json:"batch_id"`
	Status        string                 `json:"status"`
	RequestCounts batchgpt.RequestCounts `json:"request_counts,omitempty"`
	ObservedAt    time.Time              `json:"observed_at"`
}

// Store is the storage backend observations are kept in.
type Store = storage.Backend[string, Observation]

// pebbleLogger routes pebble's own logging through zap.
type pebbleLogger struct {
	log *zap.SugaredLogger
}

func (l pebbleLogger) Infof(format string, args ...any)  { l.log.Debugf(format, args...) }
func (l pebbleLogger) Errorf(format string, args ...any) { l.log.Errorf(format, args...) }
func (l pebbleLogger) Fatalf(format string, args ...any) { l.log.Fatalf(format, args...) }

func (l pebbleLogger) Eventf(ctx context.Context, format string, args ...any) {}
func (l pebbleLogger) IsTracingEnabled(ctx context.Context) bool              { return false }

// Open opens the named backend at path. The memory backend ignores path. A
// nil logger discards storage engine logs.
func Open(ctx context.Context, backend, path string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	codec := &storage.StringKeyCodec[Observation]{}

	switch backend {
	case BackendPebble, "":
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		b, err := pebbleStorage.NewBackend(path, &pebble.Options{
			LoggerAndTracer: pebbleLogger{log: logger.Named("pebble").Sugar()},
		}, codec)
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendSQLite:
		b, err := sqlite.NewBackend(ctx, path, codec)
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendMemory:
		return memory.NewBackend[string, Observation](), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

// Recorder appends observations to a store.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder returns a recorder writing to store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record stores one observation per batch. The keys are KSUIDs, which sort
// by creation time, so listing the store yields observations oldest first.
func (r *Recorder) Record(ctx context.Context, operation string, batches ...batchgpt.BatchRecord) error {
	for _, b := range batches {
		now := r.now()

		id, err := ksuid.NewRandomWithTime(now)
		if err != nil {
			return fmt.Errorf("failed to generate observation key: %w", err)
		}

		obs := Observation{
			Operation:     operation,
			BatchID:       b.ID,
			Status:        b.Status,
			RequestCounts: b.RequestCounts,
			ObservedAt:    now.UTC(),
		}

		if err := r.store.Set(ctx, id.String(), obs); err != nil {
			return fmt.Errorf("failed to record batch %q: %w", b.ID, err)
		}
	}
	return nil
}

// Query narrows [List]. A zero Query returns everything.
type Query struct {
	// BatchID keeps only observations of this batch.
	BatchID string

	// Limit keeps only the most recent observations, if positive.
	Limit int
}

// List returns the observations matching q, oldest first.
func List(ctx context.Context, store Store, q Query) ([]Observation, error) {
	entries, err := storage.All(ctx, store, storage.DefaultListPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	var out []Observation
	for _, e := range entries {
		if q.BatchID != "" && e.Value.BatchID != q.BatchID {
			continue
		}
		obs := e.Value
		obs.Key = e.Key
		out = append(out, obs)
	}

	// KSUID order has one second resolution.
	slices.SortStableFunc(out, func(a, b Observation) int {
		return a.ObservedAt.Compare(b.ObservedAt)
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, nil
}

// NoObservationsMessage is printed when the history has nothing to show.
const NoObservationsMessage = "No recorded batch observations"

// Render formats observations in the batch block layout, each followed by
// the listing separator.
func Render(r batchgpt.Renderer, observations []Observation) []string {
	if len(observations) == 0 {
		return []string{NoObservationsMessage}
	}

	var lines []string
	for _, obs := range observations {
		lines = append(lines,
			"Observed At: "+r.Normalizer.Normalize(obs.ObservedAt.Unix()),
			"Operation: "+obs.Operation,
			"Batch ID: "+obs.BatchID,
			"Status: "+obs.Status,
			"Request Counts: "+batchgpt.FormatRequestCounts(obs.RequestCounts),
			batchgpt.ListingSeparator,
		)
	}
	return lines
}
