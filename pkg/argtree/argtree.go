// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package argtree compiles a schema.Node into an immutable tree of argument
// groups, choice points, and leaf arguments, parses raw command-line tokens
// against that tree, and instantiates a typed value from the parsed input.
//
// The pipeline per invocation is Compile -> Parse -> Instantiate. The tree
// never changes after Compile; Parse only populates a side table from leaf
// identity to the raw tokens it consumed. Nothing in this package holds
// process-wide state, so independent invocations may run concurrently.
package argtree

import (
	"fmt"
	"strings"

	"github.com/typeflag/typeflag/pkg/schema"
)

// Arity bounds how many value tokens a leaf consumes. Max of -1 means
// unbounded.
type Arity struct {
	Min int
	Max int
}

// Exactly returns an arity consuming exactly n tokens.
func Exactly(n int) Arity { return Arity{Min: n, Max: n} }

var (
	// ZeroOrMore consumes tokens until the next recognized flag or end of
	// input.
	ZeroOrMore = Arity{Min: 0, Max: -1}
	// OneOrMore is ZeroOrMore with at least one token required.
	OneOrMore = Arity{Min: 1, Max: -1}
)

func (a Arity) String() string {
	switch {
	case a.Max == -1 && a.Min == 0:
		return "zero or more"
	case a.Max == -1:
		return fmt.Sprintf("at least %d", a.Min)
	case a.Min == a.Max:
		return fmt.Sprintf("exactly %d", a.Min)
	}
	return fmt.Sprintf("%d-%d", a.Min, a.Max)
}

// Node is a compiled tree node: *Group, *Choice, or *Leaf.
type Node interface {
	FlagPath() string
}

// leafClass selects the conversion strategy for a leaf's raw tokens.
type leafClass int

const (
	scalarLeaf leafClass = iota
	literalLeaf
	sequenceLeaf
	tupleLeaf
	mappingLeaf
)

// Leaf is a single terminal command-line argument.
type Leaf struct {
	Path     []string // structural path of field/variant names from the root
	Token    string   // canonical flag token, without leading dashes
	Help     string
	Arity    Arity
	Required bool // no default and not optional
	Optional bool // absent input instantiates to an explicit absent value

	Positional bool
	Negatable  bool // boolean leaf; accepts a --no- prefixed form

	class    leafClass
	elemKind schema.ScalarKind   // scalar/sequence element kind
	elems    []schema.ScalarKind // tuple element kinds, in order
	keyKind  schema.ScalarKind   // mapping key kind
	valKind  schema.ScalarKind   // mapping value kind
	literals []string            // literal constant set

	def any // resolved default, schema.Missing when none
	src *schema.Node
}

// FlagPath returns the dotted structural path used in error messages.
func (l *Leaf) FlagPath() string { return strings.Join(l.Path, ".") }

// Default returns the leaf's resolved default and whether one exists.
func (l *Leaf) Default() (any, bool) {
	if schema.IsMissing(l.def) {
		return nil, false
	}
	return l.def, true
}

// Child is one named member of a Group, in declaration order.
type Child struct {
	Name string
	Node Node
}

// Group is a compiled record: an ordered collection of child nodes.
type Group struct {
	Path     []string
	Children []Child
	Optional bool // an absent optional group instantiates to nil

	src *schema.Node
}

func (g *Group) FlagPath() string { return strings.Join(g.Path, ".") }

// Branch is one named alternative of a Choice.
type Branch struct {
	Name        string
	Description string
	Group       *Group
}

// Choice is a compiled union: a subcommand-style dispatch over named
// branches, exactly one of which is selected per invocation.
type Choice struct {
	Path     []string
	Branches []Branch
	// Default names the branch selected when the variant token is omitted;
	// empty means the selection is required.
	Default string

	src *schema.Node
}

func (c *Choice) FlagPath() string { return strings.Join(c.Path, ".") }

// BranchNamed returns the branch with the given name.
func (c *Choice) BranchNamed(name string) (Branch, bool) {
	for _, b := range c.Branches {
		if b.Name == name {
			return b, true
		}
	}
	return Branch{}, false
}

// Tree is the compiled argument tree for one type description.
type Tree struct {
	Root Node
}

// Values maps leaf identity to the raw tokens it consumed and choice
// identity to the selected branch. Built once per Parse call, read-only
// afterward.
type Values struct {
	raw    map[*Leaf][]string
	chosen map[*Choice]string
	// explicit marks choices resolved by a selector token rather than by
	// default fallback.
	explicit map[*Choice]bool
}

func newValues() *Values {
	return &Values{
		raw:      make(map[*Leaf][]string),
		chosen:   make(map[*Choice]string),
		explicit: make(map[*Choice]bool),
	}
}

// Raw returns the raw tokens consumed by a leaf, if any were supplied.
func (v *Values) Raw(l *Leaf) ([]string, bool) {
	toks, ok := v.raw[l]
	return toks, ok
}

// Chosen returns the branch name selected at a choice point, if any.
func (v *Values) Chosen(c *Choice) (string, bool) {
	name, ok := v.chosen[c]
	return name, ok
}

// Tagged wraps an instantiated union value with the identity of the branch
// that produced it.
type Tagged struct {
	Variant string
	Value   any
}
