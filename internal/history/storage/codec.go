package storage

// Codec encodes keys and values for a byte-oriented backend. Backends
// order entries by the encoded key bytes, so a codec decides list order.
type Codec[K, V any] interface {
	EncodeKey(K) ([]byte, error)
	DecodeKey([]byte) (K, error)
	EncodeValue(V) ([]byte, error)
	DecodeValue([]byte) (V, error)
}
