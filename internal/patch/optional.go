package patch

import (
	"bytes"
	"encoding/json"
)

// Optional represents a field that may or may not be set in a patch.
// Distinguishes between:
//   - Not set (absent from the payload) - zero value, set=false
//   - Set to nil (explicit null, clear the field) - value=nil, set=true
//   - Set to value - value=&T, set=true
type Optional[T any] struct {
	value *T
	set   bool
}

// NewOptional creates an Optional with a value
func NewOptional[T any](val T) Optional[T] {
	return Optional[T]{value: &val, set: true}
}

// Unset creates an explicitly unset Optional (set to nil)
func Unset[T any]() Optional[T] {
	return Optional[T]{value: nil, set: true}
}

// IsSet returns true if this field was explicitly set (even if to nil)
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Value returns the pointer value (nil if unset or not set)
func (o Optional[T]) Value() *T {
	return o.value
}

// IsUnset returns true if field was set but value is nil
func (o Optional[T]) IsUnset() bool {
	return o.set && o.value == nil
}

// HasValue returns true if set and has non-nil value
func (o Optional[T]) HasValue() bool {
	return o.set && o.value != nil
}

// UnmarshalJSON is only invoked by encoding/json when the key is present,
// so an absent key stays not set while `null` becomes unset.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.value = &v
	return nil
}
