package halyard

import (
	"errors"
	"io/fs"
	"os"
	"unicode/utf8"

	log "github.com/charmbracelet/log"
)

// Stream name sentinels used when parsing from memory. Relative !include
// paths in such streams resolve against the working directory.
const (
	streamNameString = "<unicode string>"
	streamNameBytes  = "<byte string>"
)

// maxIncludeDepth bounds !include nesting so that include cycles fail with a
// directive error instead of unbounded recursion.
const maxIncludeDepth = 64

// Loader parses YAML documents, resolving directives and stamping every
// mapping, sequence and string with its source file and line. The zero value
// is usable; configure secret resolution with WithSecrets.
//
// A Loader performs nested includes in-line on the calling goroutine; it is
// not synchronized for concurrent use when sharing a Secrets instance.
type Loader struct {
	secrets *Secrets
}

// Option configures a Loader.
type Option func(*Loader)

// WithSecrets enables !secret resolution against the given store. The store
// is inherited by every nested include of a load.
func WithSecrets(s *Secrets) Option {
	return func(l *Loader) { l.secrets = s }
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// document is the per-parse state: the stream's logical name (which resolves
// relative includes and acts as the requester path for secrets) and the
// current include-nesting depth.
type document struct {
	loader *Loader
	name   string
	depth  int
}

// LoadFile loads a YAML file. A missing file is reported as fs.ErrNotExist,
// unwrapped, so callers can distinguish "no config present" from real
// failures; any other I/O or text-decoding failure is wrapped in a
// LoadError. An empty document yields nil.
func (l *Loader) LoadFile(path string) (any, error) {
	return l.loadFile(path, 0)
}

// LoadMapping is like LoadFile but guarantees a mapping top level: an empty
// document becomes an empty Mapping, anything else fails with a TypeError.
func (l *Loader) LoadMapping(path string) (*Mapping, error) {
	loaded, err := l.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		return NewMapping(), nil
	}
	mapping, ok := loaded.(*Mapping)
	if !ok {
		return nil, &TypeError{Path: path}
	}
	return mapping, nil
}

// Parse parses a YAML document from a byte slice.
func (l *Loader) Parse(content []byte) (any, error) {
	return l.parse(content, streamNameBytes, 0)
}

// ParseString parses a YAML document from a string.
func (l *Loader) ParseString(content string) (any, error) {
	return l.parse([]byte(content), streamNameString, 0)
}

func (l *Loader) loadFile(path string, depth int) (any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	if !utf8.Valid(content) {
		err := errors.New("file is not valid UTF-8")
		log.Error("unable to read file", "path", path, "error", err)
		return nil, &LoadError{Path: path, Err: err}
	}
	return l.parse(content, path, depth)
}

// parse runs the primary backend and, on a syntax failure only, retries with
// the diagnostic backend so the surfaced message carries an annotated source
// excerpt. Directive and nested-include failures propagate without a retry.
func (l *Loader) parse(content []byte, name string, depth int) (any, error) {
	doc := &document{loader: l, name: name, depth: depth}

	value, err := primaryBackend.parse(content, doc)
	if err == nil {
		return value, nil
	}
	var syn *syntaxError
	if !errors.As(err, &syn) {
		return nil, err
	}
	log.Debug("parse failed, retrying with diagnostic backend",
		"name", name, "backend", fallbackBackend.name(), "error", syn.err)

	value, err = fallbackBackend.parse(content, doc)
	if err == nil {
		return value, nil
	}
	if errors.As(err, &syn) {
		log.Error(formatDiag(syn.err))
		return nil, &ParseError{Name: name, Err: syn.err}
	}
	return nil, err
}
