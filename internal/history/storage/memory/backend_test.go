package memory_test

import (
	"testing"

	"github.com/picatz/batchgpt/internal/history/storage/memory"
	"github.com/picatz/batchgpt/internal/history/storage/tests"
)

func TestBackend(t *testing.T) {
	tests.BackendSuite(t, memory.NewBackend[string, string]())
}
