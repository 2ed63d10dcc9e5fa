package storage

import (
	"encoding/json"
	"fmt"
)

var (
	_ Codec[any, any]    = (*JSONCodec[any, any])(nil)
	_ Codec[string, any] = (*StringKeyCodec[any])(nil)
)

// JSONCodec encodes both keys and values as JSON.
type JSONCodec[K, V any] struct{}

// EncodeKey encodes a key into a JSON byte slice for a storage backend.
func (c *JSONCodec[K, V]) EncodeKey(key K) ([]byte, error) {
	return json.Marshal(key)
}

// DecodeKey decodes a JSON byte slice into a key from a storage backend.
func (c *JSONCodec[K, V]) DecodeKey(data []byte) (K, error) {
	var key K
	if err := json.Unmarshal(data, &key); err != nil {
		return key, fmt.Errorf("failed to decode key %q: %w", data, err)
	}
	return key, nil
}

// EncodeValue encodes a value into a JSON byte slice for a storage backend.
func (c *JSONCodec[K, V]) EncodeValue(value V) ([]byte, error) {
	return json.Marshal(value)
}

// DecodeValue decodes a JSON byte slice into a value from a storage backend.
func (c *JSONCodec[K, V]) DecodeValue(data []byte) (V, error) {
	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to decode value: %w", err)
	}
	return value, nil
}

// StringKeyCodec stores string keys as their raw bytes, so entries are
// ordered exactly like the key strings, and values as JSON.
type StringKeyCodec[V any] struct {
	JSONCodec[string, V]
}

// EncodeKey returns the key bytes.
func (c *StringKeyCodec[V]) EncodeKey(key string) ([]byte, error) {
	return []byte(key), nil
}

// DecodeKey returns the key string.
func (c *StringKeyCodec[V]) DecodeKey(data []byte) (string, error) {
	return string(data), nil
}
