package halyard

import (
	"fmt"
	"reflect"
)

// Provenance records the source file and 1-based line a parsed value came
// from. It is metadata only: two structurally equal values with different
// provenance still compare equal.
type Provenance struct {
	File string
	Line int
}

// Mapping is a string-keyed mapping that iterates in insertion order and
// carries optional provenance. It is the mapping shape produced by the
// loader.
type Mapping struct {
	keys []string
	vals map[string]any

	prov    Provenance
	hasProv bool
}

// NewMapping creates an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]any)}
}

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.keys) }

// Get returns the value stored under key and whether it is present.
func (m *Mapping) Get(key string) (any, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Set stores value under key. An existing key keeps its insertion position;
// a new key is appended.
func (m *Mapping) Set(key string, value any) {
	if m.vals == nil {
		m.vals = make(map[string]any)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

// Delete removes key if present.
func (m *Mapping) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Mapping) Range(fn func(key string, value any) bool) {
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Merge copies every entry of other into m in other's insertion order,
// overwriting existing keys.
func (m *Mapping) Merge(other *Mapping) {
	if other == nil {
		return
	}
	other.Range(func(key string, value any) bool {
		m.Set(key, value)
		return true
	})
}

// Plain lowers the mapping to a plain map[string]any, recursively stripping
// provenance wrappers.
func (m *Mapping) Plain() map[string]any {
	plain := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		plain[k] = Plain(m.vals[k])
	}
	return plain
}

// Equal reports structural equality with other, ignoring provenance.
func (m *Mapping) Equal(other *Mapping) bool {
	if m == nil || other == nil {
		return m == other
	}
	return reflect.DeepEqual(m.Plain(), other.Plain())
}

// AttachProvenance records the source file and line. It overwrites any
// previous provenance and never fails.
func (m *Mapping) AttachProvenance(file string, line int) {
	m.prov = Provenance{File: file, Line: line}
	m.hasProv = true
}

// Provenance returns the attached provenance, if any.
func (m *Mapping) Provenance() (Provenance, bool) { return m.prov, m.hasProv }

// Sequence is an ordered sequence of values with optional provenance.
type Sequence struct {
	items []any

	prov    Provenance
	hasProv bool
}

// NewSequence creates an empty Sequence.
func NewSequence() *Sequence { return &Sequence{} }

// Len returns the number of items.
func (s *Sequence) Len() int { return len(s.items) }

// At returns the item at index i.
func (s *Sequence) At(i int) any { return s.items[i] }

// Append adds an item to the end of the sequence.
func (s *Sequence) Append(value any) { s.items = append(s.items, value) }

// Items returns a copy of the items in order.
func (s *Sequence) Items() []any {
	items := make([]any, len(s.items))
	copy(items, s.items)
	return items
}

// Plain lowers the sequence to a plain []any, recursively stripping
// provenance wrappers.
func (s *Sequence) Plain() []any {
	plain := make([]any, len(s.items))
	for i, item := range s.items {
		plain[i] = Plain(item)
	}
	return plain
}

// Equal reports structural equality with other, ignoring provenance.
func (s *Sequence) Equal(other *Sequence) bool {
	if s == nil || other == nil {
		return s == other
	}
	return reflect.DeepEqual(s.Plain(), other.Plain())
}

// AttachProvenance records the source file and line. It overwrites any
// previous provenance and never fails.
func (s *Sequence) AttachProvenance(file string, line int) {
	s.prov = Provenance{File: file, Line: line}
	s.hasProv = true
}

// Provenance returns the attached provenance, if any.
func (s *Sequence) Provenance() (Provenance, bool) { return s.prov, s.hasProv }

// String is a string scalar with optional provenance. Non-string scalars
// (ints, bools, floats, null) pass through the loader as native Go values.
type String struct {
	value string

	prov    Provenance
	hasProv bool
}

// NewString creates a String with the given value.
func NewString(value string) *String { return &String{value: value} }

// Value returns the underlying string.
func (s *String) Value() string { return s.value }

// String implements fmt.Stringer, printing the underlying value.
func (s *String) String() string { return s.value }

// AttachProvenance records the source file and line. It overwrites any
// previous provenance and never fails.
func (s *String) AttachProvenance(file string, line int) {
	s.prov = Provenance{File: file, Line: line}
	s.hasProv = true
}

// Provenance returns the attached provenance, if any.
func (s *String) Provenance() (Provenance, bool) { return s.prov, s.hasProv }

// Input is the placeholder produced by the !input tag. Substituting it with
// a concrete value is left to a later template-expansion stage; consumers
// pattern-match on this type.
type Input struct {
	Name string
}

// Plain recursively lowers a loaded value to its plain Go equivalent:
// *Mapping to map[string]any, *Sequence to []any, *String to string. Other
// values are returned unchanged.
func Plain(v any) any {
	switch t := v.(type) {
	case *Mapping:
		return t.Plain()
	case *Sequence:
		return t.Plain()
	case *String:
		return t.Value()
	default:
		return v
	}
}

// ProvenanceOf returns the provenance attached to a loaded value, if the
// value can carry one and it was attached.
func ProvenanceOf(v any) (Provenance, bool) {
	switch t := v.(type) {
	case *Mapping:
		return t.Provenance()
	case *Sequence:
		return t.Provenance()
	case *String:
		return t.Provenance()
	default:
		return Provenance{}, false
	}
}

// scalarString renders a scalar loaded value as a string, the way it would
// appear in the YAML source.
func scalarString(v any) string {
	switch t := v.(type) {
	case *String:
		return t.Value()
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
