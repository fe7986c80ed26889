package halyard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/charmbracelet/log"
)

// YAML tags understood by the loader.
const (
	TagInclude              = "!include"
	TagIncludeDirNamed      = "!include_dir_named"
	TagIncludeDirMergeNamed = "!include_dir_merge_named"
	TagIncludeDirList       = "!include_dir_list"
	TagIncludeDirMergeList  = "!include_dir_merge_list"
	TagEnvVar               = "!env_var"
	TagSecret               = "!secret"
	TagInput                = "!input"
)

// tagNode is the backend-independent view of a tagged scalar node.
type tagNode struct {
	tag   string
	value string
	line  int
}

// resolverFunc produces a value from a tagged node within a document.
type resolverFunc func(doc *document, node tagNode) (any, error)

// resolvers is the process-wide directive dispatch table. It is built once
// and never mutated; both backends dispatch through it.
var resolvers = map[string]resolverFunc{
	TagInclude:              requireArg(includeFile),
	TagIncludeDirNamed:      requireArg(includeDirNamed),
	TagIncludeDirMergeNamed: requireArg(includeDirMergeNamed),
	TagIncludeDirList:       requireArg(includeDirList),
	TagIncludeDirMergeList:  requireArg(includeDirMergeList),
	TagEnvVar:               requireArg(envVar),
	TagSecret:               requireArg(secretValue),
	TagInput:                requireArg(inputPlaceholder),
}

// resolveTag dispatches a custom-tagged node to its directive resolver.
func resolveTag(doc *document, node tagNode) (any, error) {
	resolver, ok := resolvers[node.tag]
	if !ok {
		return nil, &DirectiveError{Tag: node.tag, File: doc.name, Line: node.line, Msg: "unknown tag"}
	}
	return resolver(doc, node)
}

// requireArg rejects tags written without an argument.
func requireArg(fn resolverFunc) resolverFunc {
	return func(doc *document, node tagNode) (any, error) {
		if node.value == "" {
			return nil, &DirectiveError{Tag: node.tag, File: doc.name, Line: node.line, Msg: "needs an argument"}
		}
		return fn(doc, node)
	}
}

// resolvePath resolves a directive argument against the directory of the
// referencing file. Absolute arguments are used as-is.
func resolvePath(doc *document, arg string) string {
	if filepath.IsAbs(arg) {
		return arg
	}
	return filepath.Join(filepath.Dir(doc.name), arg)
}

// loadNested loads a file on behalf of an include directive, enforcing the
// nesting bound so include cycles fail instead of recursing unbounded.
func loadNested(doc *document, node tagNode, path string) (any, error) {
	if doc.depth+1 > maxIncludeDepth {
		return nil, &DirectiveError{
			Tag: node.tag, File: doc.name, Line: node.line,
			Msg: fmt.Sprintf("include nesting deeper than %d levels, possible include cycle", maxIncludeDepth),
		}
	}
	return doc.loader.loadFile(path, doc.depth+1)
}

// includeFile resolves !include: load another YAML file and embed it.
// The path is resolved against the directory of the referencing file, and
// the result is stamped with the location of the reference.
func includeFile(doc *document, node tagNode) (any, error) {
	path := resolvePath(doc, node.value)
	loaded, err := loadNested(doc, node, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &DirectiveError{
				Tag: node.tag, File: doc.name, Line: node.line,
				Msg: fmt.Sprintf("unable to read file %s", path), Err: err,
			}
		}
		return nil, err
	}
	if loaded == nil {
		loaded = NewMapping()
	}
	return attachProvenance(loaded, doc.name, node.line), nil
}

// includeDirNamed resolves !include_dir_named: a mapping from each file's
// basename without extension to its loaded content.
func includeDirNamed(doc *document, node tagNode) (any, error) {
	dir := resolvePath(doc, node.value)
	mapping := NewMapping()
	for _, fname := range findYAMLFiles(dir) {
		loaded, err := loadNested(doc, node, fname)
		if err != nil {
			return nil, err
		}
		if loaded == nil {
			// An empty file included by !include_dir_named is an
			// empty mapping.
			loaded = NewMapping()
		}
		key := strings.TrimSuffix(filepath.Base(fname), filepath.Ext(fname))
		mapping.Set(key, loaded)
	}
	return attachProvenance(mapping, doc.name, node.line), nil
}

// includeDirMergeNamed resolves !include_dir_merge_named: every loaded
// mapping's keys flattened into one mapping, later files overwriting earlier
// ones. Non-mapping file contents are ignored.
func includeDirMergeNamed(doc *document, node tagNode) (any, error) {
	dir := resolvePath(doc, node.value)
	mapping := NewMapping()
	for _, fname := range findYAMLFiles(dir) {
		loaded, err := loadNested(doc, node, fname)
		if err != nil {
			return nil, err
		}
		if sub, ok := loaded.(*Mapping); ok {
			mapping.Merge(sub)
		}
	}
	return attachProvenance(mapping, doc.name, node.line), nil
}

// includeDirList resolves !include_dir_list: each file's loaded content as
// one sequence element. Files that parse to an absent value are omitted.
func includeDirList(doc *document, node tagNode) (any, error) {
	dir := resolvePath(doc, node.value)
	seq := NewSequence()
	for _, fname := range findYAMLFiles(dir) {
		loaded, err := loadNested(doc, node, fname)
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			seq.Append(loaded)
		}
	}
	return attachProvenance(seq, doc.name, node.line), nil
}

// includeDirMergeList resolves !include_dir_merge_list: every loaded
// sequence's elements concatenated into one sequence. Non-sequence contents
// are ignored.
func includeDirMergeList(doc *document, node tagNode) (any, error) {
	dir := resolvePath(doc, node.value)
	seq := NewSequence()
	for _, fname := range findYAMLFiles(dir) {
		loaded, err := loadNested(doc, node, fname)
		if err != nil {
			return nil, err
		}
		if sub, ok := loaded.(*Sequence); ok {
			for _, item := range sub.Items() {
				seq.Append(item)
			}
		}
	}
	return attachProvenance(seq, doc.name, node.line), nil
}

// envVar resolves !env_var NAME [default...]: the variable's value, or the
// space-joined default when the variable is unset and a default is given.
func envVar(doc *document, node tagNode) (any, error) {
	args := strings.Fields(node.value)
	if len(args) == 0 {
		return nil, &DirectiveError{Tag: node.tag, File: doc.name, Line: node.line, Msg: "needs an argument"}
	}
	if value, ok := os.LookupEnv(args[0]); ok {
		return value, nil
	}
	if len(args) > 1 {
		return strings.Join(args[1:], " "), nil
	}
	log.Error("environment variable not defined", "name", node.value)
	return nil, &DirectiveError{
		Tag: node.tag, File: doc.name, Line: node.line,
		Msg: fmt.Sprintf("environment variable %s not defined", node.value),
	}
}

// secretValue resolves !secret through the store configured for this parse,
// using the current stream's name as the requester path.
func secretValue(doc *document, node tagNode) (any, error) {
	if doc.loader.secrets == nil {
		return nil, &DirectiveError{Tag: node.tag, File: doc.name, Line: node.line, Msg: "secrets not supported in this file"}
	}
	value, err := doc.loader.secrets.Get(doc.name, node.value)
	if err != nil {
		return nil, &DirectiveError{Tag: node.tag, File: doc.name, Line: node.line, Err: err}
	}
	return value, nil
}

// inputPlaceholder resolves !input to a named placeholder; substitution
// happens in a later template-expansion stage.
func inputPlaceholder(doc *document, node tagNode) (any, error) {
	return Input{Name: node.value}, nil
}

// findYAMLFiles returns every *.yaml file under dir, recursively. Hidden
// files and directories (leading dot) and secrets.yaml are excluded. The
// result is ordered lexicographically by base filename, with the full path
// as tie-break; merge and list directives rely on this ordering for
// deterministic precedence. A missing or unreadable directory yields an
// empty result.
func findYAMLFiles(dir string) []string {
	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || name == secretsFile {
			return nil
		}
		if ok, _ := filepath.Match("*.yaml", name); ok {
			files = append(files, path)
		}
		return nil
	})
	sort.SliceStable(files, func(i, j int) bool {
		bi, bj := filepath.Base(files[i]), filepath.Base(files[j])
		if bi != bj {
			return bi < bj
		}
		return files[i] < files[j]
	})
	return files
}
