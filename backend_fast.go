package halyard

import (
	"fmt"
	"strings"

	yamlv3 "gopkg.in/yaml.v3"
)

// fastBackend parses with gopkg.in/yaml.v3 and constructs loader values from
// its node tree. It is the primary backend.
type fastBackend struct{}

func (fastBackend) name() string { return "yaml.v3" }

func (fastBackend) parse(content []byte, doc *document) (any, error) {
	var root yamlv3.Node
	if err := yamlv3.Unmarshal(content, &root); err != nil {
		return nil, &syntaxError{err: err}
	}
	if root.Kind == 0 {
		// Empty document.
		return nil, nil
	}
	return constructV3(doc, &root)
}

// isCustomTag reports whether tag is a local tag like "!include", as opposed
// to a resolved standard tag like "!!str".
func isCustomTag(tag string) bool {
	return strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!")
}

func constructV3(doc *document, n *yamlv3.Node) (any, error) {
	switch n.Kind {
	case yamlv3.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return constructV3(doc, n.Content[0])

	case yamlv3.AliasNode:
		return constructV3(doc, n.Alias)

	case yamlv3.MappingNode:
		if isCustomTag(n.Tag) {
			return nil, &DirectiveError{Tag: n.Tag, File: doc.name, Line: n.Line, Msg: "needs a scalar argument"}
		}
		mapping := NewMapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			if keyNode.Tag == "!!merge" {
				if err := mergeIntoV3(doc, mapping, valueNode); err != nil {
					return nil, err
				}
				continue
			}
			value, err := constructV3(doc, valueNode)
			if err != nil {
				return nil, err
			}
			mapping.Set(keyNode.Value, value)
		}
		return attachProvenance(mapping, doc.name, n.Line), nil

	case yamlv3.SequenceNode:
		if isCustomTag(n.Tag) {
			return nil, &DirectiveError{Tag: n.Tag, File: doc.name, Line: n.Line, Msg: "needs a scalar argument"}
		}
		seq := NewSequence()
		for _, item := range n.Content {
			value, err := constructV3(doc, item)
			if err != nil {
				return nil, err
			}
			seq.Append(value)
		}
		return attachProvenance(seq, doc.name, n.Line), nil

	case yamlv3.ScalarNode:
		if isCustomTag(n.Tag) {
			return resolveTag(doc, tagNode{tag: n.Tag, value: n.Value, line: n.Line})
		}
		if n.Tag == "!!str" {
			return attachProvenance(NewString(n.Value), doc.name, n.Line), nil
		}
		var value any
		if err := n.Decode(&value); err != nil {
			return nil, &syntaxError{err: err}
		}
		return value, nil
	}
	return nil, &syntaxError{err: fmt.Errorf("unsupported node kind %d", n.Kind)}
}

// mergeIntoV3 applies a "<<" merge key: entries of the referenced mapping
// (or sequence of mappings) that are not already present.
func mergeIntoV3(doc *document, mapping *Mapping, n *yamlv3.Node) error {
	switch n.Kind {
	case yamlv3.AliasNode:
		return mergeIntoV3(doc, mapping, n.Alias)
	case yamlv3.MappingNode:
		value, err := constructV3(doc, n)
		if err != nil {
			return err
		}
		sub, ok := value.(*Mapping)
		if !ok {
			return &syntaxError{err: fmt.Errorf("cannot merge %s into mapping", n.Tag)}
		}
		sub.Range(func(key string, v any) bool {
			if _, exists := mapping.Get(key); !exists {
				mapping.Set(key, v)
			}
			return true
		})
		return nil
	case yamlv3.SequenceNode:
		for _, item := range n.Content {
			if err := mergeIntoV3(doc, mapping, item); err != nil {
				return err
			}
		}
		return nil
	}
	return &syntaxError{err: fmt.Errorf("cannot merge %s into mapping", n.Tag)}
}
