// Package storage provides the pluggable key/value layer behind the batch
// status history. Backends are provided for pebble (the default), sqlite,
// and process memory.
package storage
