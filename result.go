package batchgpt

// Result is the outcome of a single operation: either a payload or a
// failure message. Callers render both branches themselves.
type Result[T any] struct {
	value   T
	message string
	failed  bool
}

// Success returns a successful Result carrying v.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Failure returns a failed Result carrying a user-facing message.
func Failure[T any](message string) Result[T] {
	return Result[T]{message: message, failed: true}
}

// FailureFrom returns a failed Result carrying err's message.
func FailureFrom[T any](err error) Result[T] {
	return Failure[T](err.Error())
}

// Failed reports whether the operation failed.
func (r Result[T]) Failed() bool {
	return r.failed
}

// Value returns the payload and whether the operation succeeded.
func (r Result[T]) Value() (T, bool) {
	return r.value, !r.failed
}

// Message returns the failure message, or "" on success.
func (r Result[T]) Message() string {
	return r.message
}
