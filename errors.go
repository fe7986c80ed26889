package halyard

import (
	"errors"
	"fmt"
)

// Sentinel errors for secret resolution.
var (
	// ErrSecretNotDefined is returned when a secret lookup exhausts the
	// ancestor chain without a match.
	ErrSecretNotDefined = errors.New("secret not defined")

	// ErrMalformedSecrets is returned when a secrets.yaml file does not
	// contain a mapping at its top level.
	ErrMalformedSecrets = errors.New("secrets must be a mapping")
)

// LoadError wraps an I/O or text-decoding failure while reading a file.
// A missing top-level file is not wrapped; it is reported as fs.ErrNotExist.
type LoadError struct {
	Path string
	Err  error
}

// Error formats the failure with the offending path.
func (e *LoadError) Error() string {
	return fmt.Sprintf("unable to read file %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ParseError reports malformed YAML. Err carries the diagnostic backend's
// message, which includes an annotated source excerpt.
type ParseError struct {
	Name string // logical stream name
	Err  error
}

// Error formats the failure with the stream name.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid YAML in %s: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DirectiveError reports a failed tag directive: a missing argument, an
// undefined environment variable or secret, an unreadable included file.
// File and Line locate the offending tag in its source.
type DirectiveError struct {
	Tag  string
	File string
	Line int
	Msg  string
	Err  error
}

// Error formats the failure as "file:line: !tag: message".
func (e *DirectiveError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.File == "" {
		return fmt.Sprintf("%s: %s", e.Tag, msg)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Tag, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Tag, msg)
}

func (e *DirectiveError) Unwrap() error { return e.Err }

// TypeError reports a top-level document that was required to be a mapping
// but is not.
type TypeError struct {
	Path string
}

// Error names the offending file.
func (e *TypeError) Error() string {
	return fmt.Sprintf("YAML file %s does not contain a mapping", e.Path)
}
