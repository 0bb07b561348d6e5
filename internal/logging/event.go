package logging

import (
	"bytes"
	"encoding/json"
)

// Event is a structured log event: an insertion-ordered mapping of field
// names to values. Setting an existing key keeps its original position.
type Event struct {
	keys   []string
	values map[string]any
}

// NewEvent creates an empty event.
func NewEvent() *Event {
	return &Event{values: make(map[string]any)}
}

// EventOf builds an event from alternating key/value arguments.
// A trailing key without a value is stored with a nil value.
func EventOf(kv ...any) *Event {
	ev := NewEvent()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		var value any
		if i+1 < len(kv) {
			value = kv[i+1]
		}
		ev.Set(key, value)
	}
	return ev
}

// Set stores value under key.
func (e *Event) Set(key string, value any) {
	if _, exists := e.values[key]; !exists {
		e.keys = append(e.keys, key)
	}
	e.values[key] = value
}

// Get returns the value stored under key.
func (e *Event) Get(key string) (any, bool) {
	v, ok := e.values[key]
	return v, ok
}

// Has reports whether key is present.
func (e *Event) Has(key string) bool {
	_, ok := e.values[key]
	return ok
}

// Delete removes key, keeping the order of the remaining fields.
func (e *Event) Delete(key string) {
	if _, ok := e.values[key]; !ok {
		return
	}
	delete(e.values, key)
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of fields.
func (e *Event) Len() int {
	return len(e.keys)
}

// Keys returns the field names in insertion order.
func (e *Event) Keys() []string {
	keys := make([]string, len(e.keys))
	copy(keys, e.keys)
	return keys
}

// Range calls fn for each field in insertion order until fn returns false.
func (e *Event) Range(fn func(key string, value any) bool) {
	for _, k := range e.keys {
		if !fn(k, e.values[k]) {
			return
		}
	}
}

// MarshalJSON encodes the event as a JSON object, preserving field order.
// Error values are encoded as their message.
func (e *Event) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range e.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		v := e.values[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		value, err := json.Marshal(v)
		if err != nil {
			// Unencodable values fall back to their string form
			value, _ = json.Marshal(stringify(v))
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
