package halyard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapping_InsertionOrder(t *testing.T) {
	m := NewMapping()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("c", 3)

	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())

	t.Run("overwrite keeps position", func(t *testing.T) {
		m.Set("a", 99)
		assert.Equal(t, []string{"b", "a", "c"}, m.Keys())

		v, ok := m.Get("a")
		require.True(t, ok)
		assert.Equal(t, 99, v)
	})

	t.Run("delete removes key", func(t *testing.T) {
		m.Delete("a")
		assert.Equal(t, []string{"b", "c"}, m.Keys())
		_, ok := m.Get("a")
		assert.False(t, ok)

		// Deleting a missing key is a no-op.
		m.Delete("missing")
		assert.Equal(t, 2, m.Len())
	})
}

func TestMapping_Range(t *testing.T) {
	m := NewMapping()
	m.Set("one", 1)
	m.Set("two", 2)
	m.Set("three", 3)

	var seen []string
	m.Range(func(key string, value any) bool {
		seen = append(seen, key)
		return key != "two"
	})
	assert.Equal(t, []string{"one", "two"}, seen)
}

func TestMapping_Merge(t *testing.T) {
	m := NewMapping()
	m.Set("x", 1)
	m.Set("y", 2)

	other := NewMapping()
	other.Set("y", 20)
	other.Set("z", 30)

	m.Merge(other)
	assert.Equal(t, map[string]any{"x": 1, "y": 20, "z": 30}, m.Plain())
	assert.Equal(t, []string{"x", "y", "z"}, m.Keys())

	// Merging nil is a no-op.
	m.Merge(nil)
	assert.Equal(t, 3, m.Len())
}

func TestEquality_IgnoresProvenance(t *testing.T) {
	t.Run("mapping", func(t *testing.T) {
		a := NewMapping()
		a.Set("host", NewString("localhost"))
		b := NewMapping()
		b.Set("host", NewString("localhost"))

		a.AttachProvenance("config.yaml", 3)
		assert.True(t, a.Equal(b))
		assert.Equal(t, b.Plain(), a.Plain())
	})

	t.Run("sequence", func(t *testing.T) {
		a := NewSequence()
		a.Append(1)
		a.Append(NewString("two"))
		b := NewSequence()
		b.Append(1)
		b.Append(NewString("two"))

		a.AttachProvenance("config.yaml", 7)
		assert.True(t, a.Equal(b))
		assert.Equal(t, []any{1, "two"}, a.Plain())
	})

	t.Run("string prints as its value", func(t *testing.T) {
		s := NewString("hello")
		s.AttachProvenance("config.yaml", 1)
		assert.Equal(t, "hello", s.String())
		assert.Equal(t, "hello", s.Value())
	})
}

func TestAttachProvenance_Idempotent(t *testing.T) {
	m := NewMapping()
	m.Set("key", "value")

	_, ok := m.Provenance()
	assert.False(t, ok, "provenance should be absent before attach")

	m.AttachProvenance("a.yaml", 5)
	m.AttachProvenance("a.yaml", 5)

	prov, ok := m.Provenance()
	require.True(t, ok)
	assert.Equal(t, Provenance{File: "a.yaml", Line: 5}, prov)
	assert.Equal(t, map[string]any{"key": "value"}, m.Plain())

	t.Run("overwrite", func(t *testing.T) {
		m.AttachProvenance("b.yaml", 9)
		prov, ok := m.Provenance()
		require.True(t, ok)
		assert.Equal(t, Provenance{File: "b.yaml", Line: 9}, prov)
	})
}

func TestPlain_Nested(t *testing.T) {
	inner := NewMapping()
	inner.Set("port", 5432)
	inner.AttachProvenance("db.yaml", 1)

	seq := NewSequence()
	seq.Append(NewString("a"))
	seq.Append(inner)

	m := NewMapping()
	m.Set("items", seq)
	m.Set("name", NewString("svc"))

	assert.Equal(t, map[string]any{
		"items": []any{"a", map[string]any{"port": 5432}},
		"name":  "svc",
	}, m.Plain())

	// Plain scalars pass through unchanged.
	assert.Equal(t, 42, Plain(42))
	assert.Nil(t, Plain(nil))
}

func TestProvenanceOf(t *testing.T) {
	s := NewString("v")
	s.AttachProvenance("x.yaml", 2)

	prov, ok := ProvenanceOf(s)
	require.True(t, ok)
	assert.Equal(t, "x.yaml", prov.File)
	assert.Equal(t, 2, prov.Line)

	_, ok = ProvenanceOf(42)
	assert.False(t, ok)
	_, ok = ProvenanceOf(NewSequence())
	assert.False(t, ok)
}

func TestAttachProvenanceHelper_NoMark(t *testing.T) {
	m := NewMapping()
	attachProvenance(m, "x.yaml", 0)
	_, ok := m.Provenance()
	assert.False(t, ok, "line 0 means no start mark, nothing to stamp")
}

func TestScalarString(t *testing.T) {
	assert.Equal(t, "abc", scalarString(NewString("abc")))
	assert.Equal(t, "abc", scalarString("abc"))
	assert.Equal(t, "42", scalarString(42))
	assert.Equal(t, "true", scalarString(true))
	assert.Equal(t, "", scalarString(nil))
}
