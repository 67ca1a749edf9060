// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argtree

import (
	"fmt"

	"github.com/typeflag/typeflag/pkg/schema"
)

// Compile turns a type description into an argument tree. Compilation is
// deterministic: the same node always yields the same flag tokens, arities,
// and required-ness.
func Compile(sn *schema.Node) (*Tree, error) {
	c := &compiler{}
	root, err := c.compile(sn, nil, false)
	if err != nil {
		return nil, err
	}
	if err := assignTokens(c.scope, nil); err != nil {
		return nil, err
	}
	// A branch's flags surface alongside its ancestors' when the branch is
	// default-selected, so every enclosing token is off limits to it.
	for _, b := range c.branches {
		if err := c.nameBranch(b); err != nil {
			return nil, err
		}
	}
	return &Tree{Root: root}, nil
}

type compiler struct {
	// scope collects the leaves of the current naming scope. Each union
	// branch is its own argument tree and therefore its own scope.
	scope    []*Leaf
	branches []*branchScope
	// cur is the branch scope currently being filled, nil at the root.
	cur *branchScope
}

type branchScope struct {
	leaves []*Leaf
	parent *branchScope
	named  bool
}

// nameBranch assigns tokens to one branch scope, reserving the tokens of
// the root scope and of every ancestor branch. Parents are named first so
// their tokens are final.
func (c *compiler) nameBranch(b *branchScope) error {
	if b.named {
		return nil
	}
	if b.parent != nil {
		if err := c.nameBranch(b.parent); err != nil {
			return err
		}
	}
	reserved := make(map[string]bool)
	for _, l := range c.scope {
		reserved[l.Token] = true
	}
	for p := b.parent; p != nil; p = p.parent {
		for _, l := range p.leaves {
			reserved[l.Token] = true
		}
	}
	if err := assignTokens(b.leaves, reserved); err != nil {
		return err
	}
	b.named = true
	return nil
}

func (c *compiler) compile(sn *schema.Node, path []string, optional bool) (Node, error) {
	switch sn.Kind {
	case schema.KindScalar:
		return c.leaf(sn, path, optional, func(l *Leaf) {
			l.class = scalarLeaf
			l.elemKind = sn.Scalar
			l.Arity = Exactly(1)
			l.Negatable = sn.Scalar == schema.Bool
		}), nil
	case schema.KindLiteral:
		if len(sn.Literals) == 0 {
			return nil, &schema.UnsupportedTypeError{Path: path, Reason: "literal with empty constant set"}
		}
		return c.leaf(sn, path, optional, func(l *Leaf) {
			l.class = literalLeaf
			l.literals = sn.Literals
			l.Arity = Exactly(1)
		}), nil
	case schema.KindSequence:
		kind, ok := elementKind(sn.Elem)
		if !ok {
			return nil, &schema.UnsupportedTypeError{Path: path, Reason: "sequence of non-scalar elements"}
		}
		return c.leaf(sn, path, optional, func(l *Leaf) {
			l.class = sequenceLeaf
			l.elemKind = kind
			l.literals = sn.Elem.Literals
			if sn.FixedLen > 0 {
				l.Arity = Exactly(sn.FixedLen)
			} else {
				l.Arity = ZeroOrMore
			}
		}), nil
	case schema.KindTuple:
		kinds := make([]schema.ScalarKind, 0, len(sn.Elems))
		for _, e := range sn.Elems {
			kind, ok := elementKind(e)
			if !ok {
				return nil, &schema.UnsupportedTypeError{Path: path, Reason: "tuple of non-scalar elements"}
			}
			kinds = append(kinds, kind)
		}
		return c.leaf(sn, path, optional, func(l *Leaf) {
			l.class = tupleLeaf
			l.elems = kinds
			l.Arity = Exactly(len(kinds))
		}), nil
	case schema.KindMapping:
		keyKind, ok := elementKind(sn.Key)
		if !ok {
			return nil, &schema.UnsupportedTypeError{Path: path, Reason: "mapping with non-scalar keys"}
		}
		valKind, ok := elementKind(sn.Elem)
		if !ok {
			return nil, &schema.UnsupportedTypeError{Path: path, Reason: "mapping with non-scalar values"}
		}
		return c.leaf(sn, path, optional, func(l *Leaf) {
			l.class = mappingLeaf
			l.keyKind = keyKind
			l.valKind = valKind
			l.Arity = ZeroOrMore
		}), nil
	case schema.KindOptional:
		return c.compile(sn.Elem, path, true)
	case schema.KindRecord:
		return c.record(sn, path, optional)
	case schema.KindUnion:
		return c.union(sn, path)
	}
	return nil, &schema.UnsupportedTypeError{Path: path, Reason: fmt.Sprintf("no compilation rule for %s", sn.Kind)}
}

func (c *compiler) leaf(sn *schema.Node, path []string, optional bool, fill func(*Leaf)) *Leaf {
	l := &Leaf{
		Path:     path,
		Optional: optional,
		def:      sn.Default,
		src:      sn,
	}
	fill(l)
	l.Required = schema.IsMissing(l.def) && !l.Optional && l.Arity.Min > 0
	if len(path) == 0 {
		// A bare scalar at the root still needs a token.
		l.Path = []string{"value"}
	}
	c.scope = append(c.scope, l)
	return l
}

func (c *compiler) record(sn *schema.Node, path []string, optional bool) (*Group, error) {
	g := &Group{Path: path, Optional: optional, src: sn}
	for i := range sn.Fields {
		f := &sn.Fields[i]
		seg := f.Flag
		if seg == "" || seg == "-" {
			seg = kebab(f.Name)
		}
		childPath := append(append([]string{}, path...), seg)
		child, err := c.compile(f.Node, childPath, false)
		if err != nil {
			return nil, err
		}
		if l, ok := child.(*Leaf); ok {
			if f.Help != "" {
				l.Help = f.Help
			}
			l.Positional = f.Positional
		}
		g.Children = append(g.Children, Child{Name: seg, Node: child})
	}
	return g, nil
}

func (c *compiler) union(sn *schema.Node, path []string) (*Choice, error) {
	ch := &Choice{Path: path, Default: sn.DefaultVariant, src: sn}
	for _, v := range sn.Variants {
		if v.Node.Kind != schema.KindRecord {
			return nil, &schema.UnsupportedTypeError{Path: path, Reason: fmt.Sprintf("union variant %q is not a record", v.Name)}
		}
		branchPath := append(append([]string{}, path...), kebab(v.Name))

		// Each branch is its own argument tree with its own naming scope.
		outer, outerCur := c.scope, c.cur
		b := &branchScope{parent: outerCur}
		c.scope, c.cur = nil, b
		g, err := c.record(v.Node, branchPath, false)
		if err != nil {
			return nil, err
		}
		b.leaves = c.scope
		c.branches = append(c.branches, b)
		c.scope, c.cur = outer, outerCur

		ch.Branches = append(ch.Branches, Branch{Name: kebab(v.Name), Description: v.Description, Group: g})
	}
	if ch.Default != "" {
		if _, ok := ch.BranchNamed(kebab(ch.Default)); !ok {
			return nil, &schema.UnsupportedTypeError{Path: path, Reason: fmt.Sprintf("default variant %q does not exist", ch.Default)}
		}
		ch.Default = kebab(ch.Default)
	}
	return ch, nil
}

// elementKind reports the scalar kind of a sequence/tuple/mapping element.
// Literal elements parse as restricted strings.
func elementKind(sn *schema.Node) (schema.ScalarKind, bool) {
	switch sn.Kind {
	case schema.KindScalar:
		return sn.Scalar, true
	case schema.KindLiteral:
		return schema.String, true
	}
	return 0, false
}
