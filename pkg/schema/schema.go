// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind identifies the shape of a Node. The set is closed: the compiler
// switches exhaustively over it and adding a kind is a deliberate extension.
type Kind int

const (
	KindScalar Kind = iota
	KindLiteral
	KindSequence
	KindTuple
	KindMapping
	KindOptional
	KindRecord
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindLiteral:
		return "literal"
	case KindSequence:
		return "sequence"
	case KindTuple:
		return "tuple"
	case KindMapping:
		return "mapping"
	case KindOptional:
		return "optional"
	case KindRecord:
		return "record"
	case KindUnion:
		return "union"
	}
	return "unknown"
}

// ScalarKind identifies the element parser for a scalar leaf.
type ScalarKind int

const (
	Bool ScalarKind = iota
	Int
	Uint
	Float
	String
	Path
	Duration
	URL
	UUID
	Version
)

func (k ScalarKind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	case String:
		return "string"
	case Path:
		return "path"
	case Duration:
		return "duration"
	case URL:
		return "url"
	case UUID:
		return "uuid"
	case Version:
		return "version"
	}
	return "unknown"
}

// missing is the sentinel type behind Missing. It is unexported so no caller
// value can collide with it.
type missing struct{}

func (missing) String() string { return "MISSING" }

// Missing marks "no default provided, must come from input". It is
// distinguishable from every representable domain value, including nil.
var Missing any = missing{}

// IsMissing reports whether v is the Missing sentinel.
func IsMissing(v any) bool {
	_, ok := v.(missing)
	return ok
}

// Field is one named member of a Record node.
type Field struct {
	Name       string // declared field name
	Flag       string // token override from the `flag` tag, if any
	Help       string
	Positional bool
	Node       *Node
	Index      int // struct field index, -1 when not reflect-backed
}

// UnionVariant is one named branch of a Union node. Node must be a Record.
type UnionVariant struct {
	Name        string
	Description string
	Node        *Node
}

// Node is the internal, language-neutral description of a caller's type.
// Exactly one of the kind-specific groups of fields is meaningful, selected
// by Kind. The graph is acyclic; the adapter rejects self-referential types.
type Node struct {
	Kind Kind

	Scalar   ScalarKind     // KindScalar
	Literals []string       // KindLiteral
	Elem     *Node          // KindSequence, KindOptional element; KindMapping value
	FixedLen int            // KindSequence: 0 means unbounded
	Key      *Node          // KindMapping
	Elems    []*Node        // KindTuple
	Fields   []Field        // KindRecord
	Variants []UnionVariant // KindUnion

	// DefaultVariant names the default-selected branch of a Union, if any.
	DefaultVariant string

	// Type is the originating Go type, when the node was derived from one.
	// The instantiator uses it to produce real Go values; a nil Type yields
	// generic containers instead.
	Type reflect.Type

	// Default is the resolved default value for this node, or Missing.
	Default any
}

// Scalar constructs a scalar node with no default.
func ScalarNode(kind ScalarKind) *Node {
	return &Node{Kind: KindScalar, Scalar: kind, Default: Missing}
}

// LiteralNode constructs a literal node restricted to the given constants.
func LiteralNode(allowed ...string) *Node {
	return &Node{Kind: KindLiteral, Literals: allowed, Default: Missing}
}

// SequenceNode constructs a sequence node. fixedLen of 0 means unbounded.
func SequenceNode(elem *Node, fixedLen int) *Node {
	return &Node{Kind: KindSequence, Elem: elem, FixedLen: fixedLen, Default: Missing}
}

// TupleNode constructs a fixed-arity, possibly heterogeneous tuple node.
func TupleNode(elems ...*Node) *Node {
	return &Node{Kind: KindTuple, Elems: elems, Default: Missing}
}

// MappingNode constructs a key-value mapping node.
func MappingNode(key, value *Node) *Node {
	return &Node{Kind: KindMapping, Key: key, Elem: value, Default: Missing}
}

// OptionalNode wraps inner so that an absent value is representable.
func OptionalNode(inner *Node) *Node {
	return &Node{Kind: KindOptional, Elem: inner, Default: Missing}
}

// RecordNode constructs a record node from fields in declaration order.
// Field.Index only matters on reflect-backed records (Type != nil).
func RecordNode(fields ...Field) *Node {
	return &Node{Kind: KindRecord, Fields: fields, Default: Missing}
}

// UnionOf constructs a union node from named variants. Every variant must be
// a record; the parser dispatches on the variant name as a bare token.
func UnionOf(variants ...UnionVariant) (*Node, error) {
	if len(variants) == 0 {
		return nil, &UnsupportedTypeError{Reason: "union with no variants"}
	}
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v.Node == nil || v.Node.Kind != KindRecord {
			return nil, &UnsupportedTypeError{Reason: fmt.Sprintf("union variant %q is not a record", v.Name)}
		}
		if seen[v.Name] {
			return nil, &UnsupportedTypeError{Reason: fmt.Sprintf("duplicate union variant %q", v.Name)}
		}
		seen[v.Name] = true
	}
	return &Node{Kind: KindUnion, Variants: variants, Default: Missing}, nil
}

// VariantOf builds a union variant from a prototype value. The prototype's
// fields become the variant's defaults; use Missing-valued fields (via
// FromType plus WithDefault) when a field must come from input.
func VariantOf(name string, prototype any, description string) (UnionVariant, error) {
	node, err := FromValue(prototype)
	if err != nil {
		return UnionVariant{}, err
	}
	return UnionVariant{Name: name, Description: description, Node: node}, nil
}

// UnsupportedTypeError reports a type construct with no defined mapping:
// self-referential records, non-record union variants, un-introspectable
// opaque types, or an unresolvable flag collision.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Path   []string
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	var b strings.Builder
	b.WriteString("unsupported type")
	if e.Type != nil {
		fmt.Fprintf(&b, " %v", e.Type)
	}
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " at %s", strings.Join(e.Path, "."))
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}
