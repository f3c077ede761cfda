package metadata

import (
	"errors"
	"fmt"
	"strings"
)

// ValueKind describes the type a simplified value is coerced to once the
// normalization chain has run.
type ValueKind uint8

const (
	// KindText keeps the simplified value as a string.
	KindText ValueKind = iota
	// KindInteger parses the simplified value as an integer, keeping the text
	// when it does not parse.
	KindInteger
)

// Normalizer is a pure text transform applied to a detailed value.
type Normalizer func(string) string

// FieldDefinition maps a label path found in a document to an output key.
type FieldDefinition struct {
	// Key is the slash-joined label path as written in documents, e.g. "Repository".
	Key string
	// OutputKey is the row key the simplified value is stored under.
	OutputKey string
	// Normalize runs in declaration order to derive the simplified value.
	Normalize []Normalizer
	// DropDetailed suppresses the <key>_detailed companion value.
	DropDetailed bool
	// Kind controls coercion of the simplified value.
	Kind ValueKind
}

var (
	ErrFieldKeyRequired       = errors.New("metadata registry: field key is required")
	ErrFieldOutputKeyRequired = errors.New("metadata registry: output key is required")
	ErrFieldDuplicate         = errors.New("metadata registry: duplicate field key")
)

// Registry is an ordered, immutable set of field definitions. Declaration
// order drives sorting during reformatting.
type Registry struct {
	fields []FieldDefinition
	index  map[string]int
}

// NewRegistry validates and indexes the supplied definitions.
func NewRegistry(defs ...FieldDefinition) (*Registry, error) {
	reg := &Registry{
		fields: make([]FieldDefinition, 0, len(defs)),
		index:  make(map[string]int, len(defs)),
	}
	for _, def := range defs {
		key := strings.TrimSpace(def.Key)
		if key == "" {
			return nil, ErrFieldKeyRequired
		}
		if strings.TrimSpace(def.OutputKey) == "" {
			return nil, fmt.Errorf("%w: %s", ErrFieldOutputKeyRequired, key)
		}
		if _, exists := reg.index[key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrFieldDuplicate, key)
		}
		def.Key = key
		def.Normalize = append([]Normalizer(nil), def.Normalize...)
		reg.index[key] = len(reg.fields)
		reg.fields = append(reg.fields, def)
	}
	return reg, nil
}

// MustNewRegistry panics when the definitions are invalid.
func MustNewRegistry(defs ...FieldDefinition) *Registry {
	reg, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return reg
}

// Lookup resolves an exact label path.
func (r *Registry) Lookup(key string) (FieldDefinition, bool) {
	if r == nil {
		return FieldDefinition{}, false
	}
	idx, ok := r.index[key]
	if !ok {
		return FieldDefinition{}, false
	}
	return r.fields[idx], true
}

// Rank returns the declaration position of key.
func (r *Registry) Rank(key string) (int, bool) {
	if r == nil {
		return 0, false
	}
	idx, ok := r.index[key]
	return idx, ok
}

// Len reports the number of definitions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// Fields returns a copy of the definitions in declaration order.
func (r *Registry) Fields() []FieldDefinition {
	if r == nil {
		return nil
	}
	out := make([]FieldDefinition, len(r.fields))
	copy(out, r.fields)
	return out
}

// OutputKeys lists distinct output keys in first-declaration order.
func (r *Registry) OutputKeys() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.fields))
	keys := make([]string, 0, len(r.fields))
	for _, def := range r.fields {
		if _, ok := seen[def.OutputKey]; ok {
			continue
		}
		seen[def.OutputKey] = struct{}{}
		keys = append(keys, def.OutputKey)
	}
	return keys
}

var (
	linkChain     = []Normalizer{StripMarkdownLinks, StripBrackets}
	repoChain     = []Normalizer{StripHTML, StripMarkdownLinks, StripBrackets}
	relationChain = linkChain
)

// DefaultFields returns the catalog field table used by engine and parser
// documents.
func DefaultFields() []FieldDefinition {
	return []FieldDefinition{
		{Key: "Homepage", OutputKey: "homepage"},
		{Key: "NPM", OutputKey: "npm"},

		// Repository is the primary source, GitHub a mirror, Sources a non-git reference.
		{Key: "Repository", OutputKey: "repository", Normalize: repoChain},
		{Key: "Branch", OutputKey: "branch", Normalize: repoChain, DropDetailed: true},
		{Key: "GitHub", OutputKey: "github", Normalize: repoChain},
		{Key: "Sources", OutputKey: "sources"},
		{Key: "LOC", OutputKey: "loc", Normalize: []Normalizer{StripTrailingBrackets}, Kind: KindInteger},
		{Key: "Language", OutputKey: "language", Normalize: []Normalizer{StripBrackets}},
		{Key: "License", OutputKey: "license", Normalize: []Normalizer{StripBrackets, SimplifyLicense}},

		{Key: "Org", OutputKey: "org"},
		{Key: "Standard", OutputKey: "standard", Normalize: []Normalizer{StripBrackets}},
		{Key: "Years", OutputKey: "years"},

		{Key: "Ancestor", OutputKey: "ancestors", Normalize: relationChain, DropDetailed: true},
		{Key: "Ancestors", OutputKey: "ancestors", Normalize: relationChain, DropDetailed: true},
		{Key: "Fork", OutputKey: "forks", Normalize: relationChain, DropDetailed: true},
		{Key: "Forks", OutputKey: "forks", Normalize: relationChain, DropDetailed: true},
		{Key: "Predecessor", OutputKey: "predecessors", Normalize: relationChain, DropDetailed: true},
		{Key: "Predecessors", OutputKey: "predecessors", Normalize: relationChain, DropDetailed: true},
		{Key: "Successor", OutputKey: "successors", Normalize: relationChain, DropDetailed: true},
		{Key: "Successors", OutputKey: "successors", Normalize: relationChain, DropDetailed: true},

		{Key: "Type", OutputKey: "type"},
		{Key: "Features", OutputKey: "features"},
		{Key: "Parser", OutputKey: "parser", Normalize: linkChain},
		{Key: "Runtime platform", OutputKey: "platform", Normalize: linkChain},
		{Key: "Interpreter", OutputKey: "interpreter", Normalize: linkChain},
		{Key: "JIT", OutputKey: "jit"},
		{Key: "GC", OutputKey: "gc", Normalize: linkChain},
		{Key: "Regex engine", OutputKey: "regex", Normalize: linkChain},
		{Key: "DLL", OutputKey: "dll"},
	}
}

// DefaultRegistry builds a registry from DefaultFields.
func DefaultRegistry() *Registry {
	return MustNewRegistry(DefaultFields()...)
}
