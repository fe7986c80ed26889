package halyard

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is fs.ErrNotExist", func(t *testing.T) {
		_, err := NewLoader().LoadFile(filepath.Join(dir, "absent.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, fs.ErrNotExist)

		var loadErr *LoadError
		assert.False(t, errors.As(err, &loadErr), "a missing file must not be wrapped")
	})

	t.Run("empty document is nil", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		writeFile(t, path, "")
		v, err := NewLoader().LoadFile(path)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("invalid UTF-8 is wrapped", func(t *testing.T) {
		path := filepath.Join(dir, "binary.yaml")
		require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x01}, 0o644))
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)

		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, path, loadErr.Path)
	})

	t.Run("provenance names the file", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		writeFile(t, path, "first: 1\ngreeting: hello\n")
		v, err := NewLoader().LoadFile(path)
		require.NoError(t, err)

		cfg := v.(*Mapping)
		prov, ok := cfg.Provenance()
		require.True(t, ok)
		assert.Equal(t, path, prov.File)
		assert.Equal(t, 1, prov.Line)

		greeting, _ := cfg.Get("greeting")
		prov, ok = ProvenanceOf(greeting)
		require.True(t, ok)
		assert.Equal(t, path, prov.File)
		assert.Equal(t, 2, prov.Line)
	})
}

func TestLoader_LoadMapping(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty document becomes empty mapping", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		writeFile(t, path, "")
		cfg, err := NewLoader().LoadMapping(path)
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Len())
	})

	t.Run("non-mapping top level fails", func(t *testing.T) {
		path := filepath.Join(dir, "list.yaml")
		writeFile(t, path, "- 1\n- 2\n")
		_, err := NewLoader().LoadMapping(path)
		require.Error(t, err)

		var typeErr *TypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, path, typeErr.Path)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("missing file passes through", func(t *testing.T) {
		_, err := NewLoader().LoadMapping(filepath.Join(dir, "absent.yaml"))
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})
}

func TestLoader_Parse(t *testing.T) {
	t.Run("stream name sentinels", func(t *testing.T) {
		v, err := NewLoader().ParseString("key: value")
		require.NoError(t, err)
		prov, ok := v.(*Mapping).Provenance()
		require.True(t, ok)
		assert.Equal(t, "<unicode string>", prov.File)

		v, err = NewLoader().Parse([]byte("key: value"))
		require.NoError(t, err)
		prov, ok = v.(*Mapping).Provenance()
		require.True(t, ok)
		assert.Equal(t, "<byte string>", prov.File)
	})

	t.Run("scalar typing", func(t *testing.T) {
		v, err := NewLoader().ParseString("int: 7\nfloat: 1.5\nbool: true\nnull_value:\nstr: hello\nquoted: '123'\n")
		require.NoError(t, err)

		cfg := v.(*Mapping)
		assert.Equal(t, map[string]any{
			"int":        7,
			"float":      1.5,
			"bool":       true,
			"null_value": nil,
			"str":        "hello",
			"quoted":     "123",
		}, cfg.Plain())

		// Only strings carry provenance; native scalars pass through.
		str, _ := cfg.Get("str")
		_, ok := str.(*String)
		assert.True(t, ok)
		n, _ := cfg.Get("int")
		assert.IsType(t, 0, n)
	})

	t.Run("nested containers are stamped", func(t *testing.T) {
		v, err := NewLoader().ParseString("outer:\n  inner:\n    - a\n")
		require.NoError(t, err)

		outer, _ := v.(*Mapping).Get("outer")
		prov, ok := ProvenanceOf(outer)
		require.True(t, ok)
		assert.Equal(t, 2, prov.Line)

		inner, _ := outer.(*Mapping).Get("inner")
		prov, ok = ProvenanceOf(inner)
		require.True(t, ok)
		assert.Equal(t, 3, prov.Line)
	})

	t.Run("anchors and merge keys", func(t *testing.T) {
		v, err := NewLoader().ParseString("base: &b\n  x: 1\nother:\n  <<: *b\n  y: 2\n")
		require.NoError(t, err)

		other, _ := v.(*Mapping).Get("other")
		assert.Equal(t, map[string]any{"x": 1, "y": 2}, other.(*Mapping).Plain())
	})

	t.Run("syntax error surfaces as ParseError", func(t *testing.T) {
		_, err := NewLoader().ParseString("key: [unclosed")
		require.Error(t, err)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "<unicode string>", parseErr.Name)
	})

	t.Run("directive error is not retried as a parse error", func(t *testing.T) {
		_, err := NewLoader().ParseString("x: !env_var HALYARD_NO_SUCH_VAR")
		require.Error(t, err)

		var parseErr *ParseError
		assert.False(t, errors.As(err, &parseErr))
		var dirErr *DirectiveError
		assert.True(t, errors.As(err, &dirErr))
	})
}

func TestLoader_ParsedEqualsPlain(t *testing.T) {
	content := "a: 1\nb:\n  - x\n  - y\nc: text\n"

	v1, err := NewLoader().ParseString(content)
	require.NoError(t, err)
	v2, err := NewLoader().Parse([]byte(content))
	require.NoError(t, err)

	// Same structure parsed under different stream names compares equal:
	// provenance is not part of value identity.
	assert.True(t, v1.(*Mapping).Equal(v2.(*Mapping)))
	assert.Equal(t, map[string]any{
		"a": 1,
		"b": []any{"x", "y"},
		"c": "text",
	}, Plain(v1))
}
