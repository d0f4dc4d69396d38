// Dynamic MI values: strings, arrays (lists) and mappings (tuples).
package gdbmi

import (
	"bytes"
	"encoding/json"
)

// ValueKind is the shape of a Value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueArray
	ValueMapping
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueArray:
		return "array"
	case ValueMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is one MI value. The zero Value is the empty string.
type Value struct {
	kind  ValueKind
	text  string
	items []Value
	m     *Mapping
}

// String returns a string Value.
func String(s string) Value {
	return Value{kind: ValueString, text: s}
}

// Array returns an array Value holding items.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: ValueArray, items: items}
}

// MappingValue wraps m as a Value.
func MappingValue(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: ValueMapping, m: m}
}

func (v Value) Kind() ValueKind { return v.kind }

// Text returns the string content, or "" for arrays and mappings.
func (v Value) Text() string { return v.text }

// Items returns the array elements, or nil for other kinds.
func (v Value) Items() []Value { return v.items }

// Mapping returns the mapping, or nil for other kinds.
func (v Value) Mapping() *Mapping { return v.m }

// Equal reports deep equality, including mapping key order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.text == o.text
	case ValueArray:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	default:
		return v.m.Equal(o.m)
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueArray:
		return json.Marshal(v.items)
	case ValueMapping:
		return v.m.MarshalJSON()
	default:
		return json.Marshal(v.text)
	}
}

// Mapping is an insertion-ordered set of key/value pairs.
type Mapping struct {
	keys []string
	vals map[string]Value
}

func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]Value)}
}

// Add inserts key. gdb occasionally repeats a key inside one tuple (see
// sourceware bug 22217, e.g. thread-ids={thread-id="1",thread-id="2"}); the
// values are then collected into an array instead of the last one winning.
func (m *Mapping) Add(key string, v Value) {
	old, ok := m.vals[key]
	if !ok {
		m.keys = append(m.keys, key)
		m.vals[key] = v
		return
	}
	if old.kind == ValueArray {
		items := make([]Value, len(old.items), len(old.items)+1)
		copy(items, old.items)
		m.vals[key] = Array(append(items, v)...)
		return
	}
	m.vals[key] = Array(old, v)
}

func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Text returns the string stored under key, or "" when it is missing or not
// a string.
func (m *Mapping) Text(key string) string {
	v, ok := m.Get(key)
	if !ok || v.kind != ValueString {
		return ""
	}
	return v.text
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *Mapping) Equal(o *Mapping) bool {
	if m.Len() != o.Len() {
		return false
	}
	for i, k := range m.Keys() {
		if o.keys[i] != k || !m.vals[k].Equal(o.vals[k]) {
			return false
		}
	}
	return true
}

func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := m.vals[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
