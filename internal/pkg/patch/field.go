// Package patch holds tri-state request fields for partial updates:
// a field can be absent, explicitly null, or carry a value.
package patch

import (
	"bytes"
	"encoding/json"
)

type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// UnmarshalJSON is only called for keys present in the payload, which is how Set is detected.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// HasValue reports whether the field was sent with a non-null value.
func (f Field[T]) HasValue() bool {
	return f.Set && !f.Null
}

// Ptr returns nil for null, otherwise a pointer to the value. Callers check Set first.
func (f Field[T]) Ptr() *T {
	if f.Null {
		return nil
	}
	v := f.Value
	return &v
}
