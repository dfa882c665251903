package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Map is an ordered key/value collection. Keys are int or string and
// iteration follows insertion order.
//
// Map is the runtime value produced by hash literals ({a: 1}) and is
// accepted anywhere a Go map is.
type Map struct {
	keys   []any
	values map[any]any
	next   int
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[any]any)}
}

// NormalizeKey converts a Go value to a Map key. Integer kinds become
// int, floats are truncated, booleans become 0/1 and strings stay as-is.
// It returns false for values that cannot be used as keys.
func NormalizeKey(k any) (any, bool) {
	switch v := k.(type) {
	case string:
		return v, true
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return nil, false
	}
}

// Set inserts or replaces the value for key. Keys that cannot be
// normalized are reported as an error.
func (m *Map) Set(key, value any) error {
	k, ok := NormalizeKey(key)
	if !ok {
		return fmt.Errorf("invalid map key type %T", key)
	}
	if _, exists := m.values[k]; !exists {
		m.keys = append(m.keys, k)
	}
	m.values[k] = value
	if i, isInt := k.(int); isInt && i >= m.next {
		m.next = i + 1
	}
	return nil
}

// Append stores value under the next integer key.
func (m *Map) Append(value any) {
	_ = m.Set(m.next, value)
}

// Get retrieves a value by key.
func (m *Map) Get(key any) (any, bool) {
	k, ok := NormalizeKey(key)
	if !ok {
		return nil, false
	}
	v, ok := m.values[k]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	out := make([]any, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the values in insertion order.
func (m *Map) Values() []any {
	out := make([]any, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.values[k]
	}
	return out
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// IsList reports whether the keys are exactly 0..n-1 in order.
func (m *Map) IsList() bool {
	for i, k := range m.keys {
		if n, ok := k.(int); !ok || n != i {
			return false
		}
	}
	return true
}

// MapOf builds a Map from alternating key, value arguments.
func MapOf(kv ...any) *Map {
	m := NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		_ = m.Set(kv[i], kv[i+1])
	}
	return m
}

// MarshalJSON preserves key order during marshaling.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key := fmt.Sprint(k)
		keyBytes, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valueBytes, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
