package halyard

// backend is one of the interchangeable parser strategies. Both walk their
// parser's node tree through the same construction contract: default
// mapping/sequence/string nodes become provenance-stamped values, custom
// tags dispatch through the directive registry.
type backend interface {
	name() string
	parse(content []byte, doc *document) (any, error)
}

// syntaxError marks a failure of a backend's own parser, distinguishing it
// from directive and loader errors carried up from nested includes. Only
// syntax errors trigger the fallback to the diagnostic backend.
// The backend pair the facade works with: primary first, diagnostic on
// syntax failure.
var (
	primaryBackend  backend = fastBackend{}
	fallbackBackend backend = diagBackend{}
)

type syntaxError struct {
	err error
}

func (e *syntaxError) Error() string { return e.err.Error() }

func (e *syntaxError) Unwrap() error { return e.err }
