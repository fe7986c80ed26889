package halyard

import (
	"fmt"
	"math"

	goyaml "github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
)

// diagBackend parses with goccy/go-yaml. It is slower than the primary
// backend but renders source-annotated error messages, so it is the one the
// facade falls back to when a parse fails.
type diagBackend struct{}

func (diagBackend) name() string { return "goccy" }

func (diagBackend) parse(content []byte, doc *document) (any, error) {
	file, err := parser.ParseBytes(content, 0)
	if err != nil {
		return nil, &syntaxError{err: err}
	}
	if len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return nil, nil
	}
	w := &goccyWalker{doc: doc, anchors: make(map[string]ast.Node)}
	return w.construct(file.Docs[0].Body)
}

// formatDiag renders a goccy parse error with its annotated source excerpt.
func formatDiag(err error) string {
	return goyaml.FormatError(err, false, true)
}

// goccyWalker constructs loader values from a goccy AST, tracking anchors
// seen so far so aliases can be expanded.
type goccyWalker struct {
	doc     *document
	anchors map[string]ast.Node
}

func (w *goccyWalker) construct(n ast.Node) (any, error) {
	switch t := n.(type) {
	case *ast.MappingNode:
		mapping := NewMapping()
		for _, kv := range t.Values {
			if err := w.constructPair(mapping, kv); err != nil {
				return nil, err
			}
		}
		return attachProvenance(mapping, w.doc.name, nodeLine(n)), nil

	case *ast.MappingValueNode:
		// A single-pair block mapping parses to a bare MappingValueNode.
		mapping := NewMapping()
		if err := w.constructPair(mapping, t); err != nil {
			return nil, err
		}
		return attachProvenance(mapping, w.doc.name, nodeLine(n)), nil

	case *ast.SequenceNode:
		seq := NewSequence()
		for _, item := range t.Values {
			value, err := w.construct(item)
			if err != nil {
				return nil, err
			}
			seq.Append(value)
		}
		return attachProvenance(seq, w.doc.name, nodeLine(n)), nil

	case *ast.StringNode:
		return attachProvenance(NewString(t.Value), w.doc.name, nodeLine(n)), nil

	case *ast.LiteralNode:
		return attachProvenance(NewString(t.Value.Value), w.doc.name, nodeLine(n)), nil

	case *ast.IntegerNode:
		return normalizeInt(t.Value), nil

	case *ast.FloatNode:
		return t.Value, nil

	case *ast.BoolNode:
		return t.Value, nil

	case *ast.NullNode:
		return nil, nil

	case *ast.InfinityNode:
		return t.Value, nil

	case *ast.NanNode:
		return math.NaN(), nil

	case *ast.TagNode:
		return w.constructTag(t)

	case *ast.AnchorNode:
		w.anchors[t.Name.GetToken().Value] = t.Value
		return w.construct(t.Value)

	case *ast.AliasNode:
		name := t.Value.GetToken().Value
		target, ok := w.anchors[name]
		if !ok {
			return nil, &syntaxError{err: fmt.Errorf("unknown anchor %q", name)}
		}
		return w.construct(target)
	}
	return nil, &syntaxError{err: fmt.Errorf("unsupported YAML node %T", n)}
}

func (w *goccyWalker) constructPair(mapping *Mapping, kv *ast.MappingValueNode) error {
	if _, ok := kv.Key.(*ast.MergeKeyNode); ok {
		return w.mergeInto(mapping, kv.Value)
	}
	key := mapKeyString(kv.Key)
	value, err := w.construct(kv.Value)
	if err != nil {
		return err
	}
	mapping.Set(key, value)
	return nil
}

// mergeInto applies a "<<" merge key: entries of the referenced mapping (or
// sequence of mappings) that are not already present.
func (w *goccyWalker) mergeInto(mapping *Mapping, n ast.Node) error {
	if seq, ok := n.(*ast.SequenceNode); ok {
		for _, item := range seq.Values {
			if err := w.mergeInto(mapping, item); err != nil {
				return err
			}
		}
		return nil
	}
	value, err := w.construct(n)
	if err != nil {
		return err
	}
	sub, ok := value.(*Mapping)
	if !ok {
		return &syntaxError{err: fmt.Errorf("cannot merge %T into mapping", value)}
	}
	sub.Range(func(key string, v any) bool {
		if _, exists := mapping.Get(key); !exists {
			mapping.Set(key, v)
		}
		return true
	})
	return nil
}

func (w *goccyWalker) constructTag(t *ast.TagNode) (any, error) {
	tag := t.Start.Value
	if !isCustomTag(tag) {
		return w.constructStandardTag(t, tag)
	}
	line := nodeLine(t)
	var body string
	switch v := t.Value.(type) {
	case *ast.StringNode:
		body = v.Value
	case *ast.NullNode:
		body = ""
	case *ast.IntegerNode, *ast.FloatNode, *ast.BoolNode:
		body = v.GetToken().Value
	default:
		return nil, &DirectiveError{Tag: tag, File: w.doc.name, Line: line, Msg: "needs a scalar argument"}
	}
	return resolveTag(w.doc, tagNode{tag: tag, value: body, line: line})
}

// constructStandardTag handles core-schema "!!" tags. Containers walk
// normally so nested values keep their provenance; !!str wraps the scalar
// text; everything else (!!int, !!bool, !!binary, !!timestamp, ...) decodes
// through goccy so the result matches what the primary backend produces.
func (w *goccyWalker) constructStandardTag(t *ast.TagNode, tag string) (any, error) {
	switch t.Value.(type) {
	case *ast.MappingNode, *ast.MappingValueNode, *ast.SequenceNode:
		return w.construct(t.Value)
	}
	if tag == "!!str" {
		if s, ok := t.Value.(*ast.StringNode); ok {
			return attachProvenance(NewString(s.Value), w.doc.name, nodeLine(t)), nil
		}
		if tok := t.Value.GetToken(); tok != nil {
			return attachProvenance(NewString(tok.Value), w.doc.name, nodeLine(t)), nil
		}
	}
	var value any
	if err := goyaml.NodeToValue(t, &value); err != nil {
		return nil, &syntaxError{err: err}
	}
	return normalizeInt(value), nil
}

// normalizeInt converts goccy's uint64/int64 integers to int where the value
// fits, matching the primary backend.
func normalizeInt(v any) any {
	switch num := v.(type) {
	case uint64:
		if num <= math.MaxInt {
			return int(num)
		}
	case int64:
		if num >= math.MinInt && num <= math.MaxInt {
			return int(num)
		}
	}
	return v
}

func mapKeyString(key ast.MapKeyNode) string {
	if s, ok := key.(*ast.StringNode); ok {
		return s.Value
	}
	if tok := key.GetToken(); tok != nil {
		return tok.Value
	}
	return ""
}

func nodeLine(n ast.Node) int {
	if tok := n.GetToken(); tok != nil && tok.Position != nil {
		return tok.Position.Line
	}
	return 0
}
