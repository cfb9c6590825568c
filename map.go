package treediff

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Map is a mapping that keeps keys in the order they were first set. Keys may
// be any comparable value. Diff walks a Map in insertion order, where native
// go maps are walked in sorted key order
type Map struct {
	keys   []interface{}
	values map[interface{}]interface{}
}

// NewMap creates a Map from alternating key, value arguments
func NewMap(kvs ...interface{}) *Map {
	if len(kvs)%2 != 0 {
		panic("treediff.NewMap: odd number of arguments")
	}
	m := &Map{values: make(map[interface{}]interface{}, len(kvs)/2)}
	for i := 0; i < len(kvs); i += 2 {
		m.Set(kvs[i], kvs[i+1])
	}
	return m
}

// Len is the number of keys in the map
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the map's keys in insertion order
func (m *Map) Keys() []interface{} {
	if m == nil {
		return nil
	}
	keys := make([]interface{}, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Get returns the value for key & whether the map holds it
func (m *Map) Get(key interface{}) (interface{}, bool) {
	if m == nil || !hashable(key) {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set assigns a value to key. New keys are added to the end of the order,
// existing keys keep their position
func (m *Map) Set(key, value interface{}) {
	if m.values == nil {
		m.values = map[interface{}]interface{}{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key, reporting whether it was present
func (m *Map) Delete(key interface{}) bool {
	if m == nil || !hashable(key) {
		return false
	}
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// MarshalJSON writes the map as a JSON object in key order. Non-string keys
// are printed with fmt. A map that contains itself fails with ErrCycle
func (m *Map) MarshalJSON() ([]byte, error) {
	if cyclic(m) {
		return nil, ErrCycle
	}
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, ok := k.(string)
		if !ok {
			name = fmt.Sprint(k)
		}
		kd, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(kd)
		buf.WriteByte(':')
		vd, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vd)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
