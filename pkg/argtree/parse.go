// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argtree

import (
	"slices"
	"strings"
)

const (
	helpFlagLong  = "--help"
	helpFlagShort = "-h"
	negatedPrefix = "no-"
)

// scope is the set of arguments recognizable at one point of the parse. It
// starts as the flattened root group and grows as choice points dispatch
// into branches.
type scope struct {
	flags       map[string]*Leaf
	provenance  map[string]*Choice // which choice's branch contributed a flag
	positionals []*Leaf
	posIndex    int
	pending     []*Choice
	pendingFrom map[*Choice]*Choice
	// tentative records leaves merged from a default-selected branch before
	// any selector token confirmed it.
	tentative map[*Choice][]*Leaf
	// inOptional marks choices sitting beneath an optional group; their
	// required-selection check is deferred to instantiation, which knows
	// whether the group was present at all.
	inOptional map[*Choice]bool
	// current is the node whose usage is rendered on a help request.
	current Node
}

// Parse consumes tokens against the tree, depth-first and left-to-right.
// Flags may appear in any order within their group; bare tokens dispatch
// pending choice points or bind to positional leaves in declaration order.
// The first fatal mismatch wins. A help token stops parsing and returns a
// HelpError carrying the usage of the subtree it applies to.
func Parse(t *Tree, tokens []string) (*Values, error) {
	vals := newValues()
	sc := &scope{
		flags:       make(map[string]*Leaf),
		provenance:  make(map[string]*Choice),
		pendingFrom: make(map[*Choice]*Choice),
		tentative:   make(map[*Choice][]*Leaf),
		inOptional:  make(map[*Choice]bool),
		current:     t.Root,
	}
	sc.merge(t.Root, nil, false)

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if tok == helpFlagLong || tok == helpFlagShort {
			return nil, &HelpError{Usage: Usage(sc.current)}
		}

		if isFlagToken(tok) {
			var err error
			i, err = sc.consumeFlag(vals, tokens, i)
			if err != nil {
				return nil, err
			}
			continue
		}

		if choice, branch, ok := sc.dispatch(tok); ok {
			if err := sc.selectBranch(vals, choice, branch); err != nil {
				return nil, err
			}
			continue
		}

		leaf, err := sc.positionalAt(vals, tok)
		if err != nil {
			return nil, err
		}
		vals.raw[leaf] = append(vals.raw[leaf], tok)
	}

	// Choice points never reached by a selector token fall back to their
	// default-selected branch; a choice with no default is a required
	// selection.
	for _, ch := range sc.pending {
		if ch.Default == "" {
			if sc.inOptional[ch] {
				// The enclosing group may be absent entirely; the
				// instantiator settles it.
				continue
			}
			return nil, &MissingValueError{Path: ch.FlagPath()}
		}
		vals.chosen[ch] = ch.Default
	}
	return vals, nil
}

// merge flattens a subtree into the scope. Choice points become pending;
// a default-selected branch is merged tentatively so its flags are already
// recognizable when the selector token is omitted.
func (s *scope) merge(n Node, from *Choice, opt bool) {
	switch x := n.(type) {
	case *Leaf:
		if x.Positional {
			s.positionals = append(s.positionals, x)
		}
		s.flags[x.Token] = x
		s.provenance[x.Token] = from
		if from != nil {
			s.tentative[from] = append(s.tentative[from], x)
		}
	case *Group:
		for _, c := range x.Children {
			s.merge(c.Node, from, opt || x.Optional)
		}
	case *Choice:
		s.pending = append(s.pending, x)
		s.pendingFrom[x] = from
		if opt {
			s.inOptional[x] = true
		}
		if def, ok := x.BranchNamed(x.Default); ok {
			s.merge(def.Group, orChoice(from, x), opt)
		}
	}
}

// orChoice keeps the outermost tentative owner so unwinding a rejected
// default branch also unwinds everything nested beneath it.
func orChoice(outer, inner *Choice) *Choice {
	if outer != nil {
		return outer
	}
	return inner
}

// dispatch matches a bare token against pending choice points in
// declaration order.
func (s *scope) dispatch(tok string) (*Choice, Branch, bool) {
	for _, ch := range s.pending {
		if b, ok := ch.BranchNamed(tok); ok {
			return ch, b, true
		}
	}
	return nil, Branch{}, false
}

// selectBranch resolves a choice point to an explicitly named branch. If a
// different branch was tentatively merged as the default, its flags must not
// have consumed input already.
func (s *scope) selectBranch(vals *Values, choice *Choice, branch Branch) error {
	for _, l := range s.tentative[choice] {
		if _, bound := vals.raw[l]; bound && choice.Default != branch.Name {
			return &UnrecognizedTokenError{
				Token:    "--" + l.Token,
				Accepted: s.acceptedHere(),
			}
		}
	}
	// Drop the tentative merge before installing the selected branch.
	drop := make(map[*Leaf]bool, len(s.tentative[choice]))
	for _, l := range s.tentative[choice] {
		drop[l] = true
	}
	for tok, from := range s.provenance {
		if from == choice {
			delete(s.flags, tok)
			delete(s.provenance, tok)
		}
	}
	keptPos := s.positionals[:0]
	for i, l := range s.positionals {
		if drop[l] {
			if i < s.posIndex {
				s.posIndex--
			}
			continue
		}
		keptPos = append(keptPos, l)
	}
	s.positionals = keptPos
	delete(s.tentative, choice)
	// Drop the choice itself plus any nested choices the tentative default
	// branch contributed; the selected branch re-introduces its own.
	kept := s.pending[:0]
	for _, ch := range s.pending {
		if ch == choice || s.pendingFrom[ch] == choice {
			delete(s.pendingFrom, ch)
			continue
		}
		kept = append(kept, ch)
	}
	s.pending = kept
	// An explicit selection makes the subtree active regardless of any
	// optional ancestor.
	s.merge(branch.Group, nil, false)
	s.current = branch.Group
	vals.chosen[choice] = branch.Name
	vals.explicit[choice] = true
	return nil
}

// consumeFlag handles one flag token plus however many value tokens its
// leaf's arity requires. Returns the index of the last token consumed.
func (s *scope) consumeFlag(vals *Values, tokens []string, i int) (int, error) {
	name := strings.TrimLeft(tokens[i], "-")
	var inline string
	var hasInline bool
	if idx := strings.Index(name, "="); idx != -1 {
		inline = name[idx+1:]
		name = name[:idx]
		hasInline = true
	}

	leaf, ok := s.flags[name]
	negated := false
	if !ok && strings.HasPrefix(name, negatedPrefix) {
		if l, found := s.flags[strings.TrimPrefix(name, negatedPrefix)]; found && l.Negatable {
			leaf, ok, negated = l, true, true
		}
	}
	if !ok {
		return i, &UnrecognizedTokenError{Token: tokens[i], Accepted: s.acceptedHere()}
	}

	if leaf.Negatable {
		switch {
		case negated:
			vals.raw[leaf] = []string{"false"}
		case hasInline:
			vals.raw[leaf] = []string{inline}
		default:
			// Boolean flags never consume the next token.
			vals.raw[leaf] = []string{"true"}
		}
		return i, nil
	}

	if hasInline {
		// --flag=a,b,c carries every element for multi-valued leaves.
		if leaf.Arity.Max != 1 {
			s.bind(vals, leaf, splitInline(inline))
		} else {
			s.bind(vals, leaf, []string{inline})
		}
		return i, s.checkArity(leaf, vals.raw[leaf])
	}

	var consumed []string
	j := i
	for j+1 < len(tokens) {
		if leaf.Arity.Max >= 0 && len(consumed) == leaf.Arity.Max {
			break
		}
		next := tokens[j+1]
		if next == helpFlagLong || next == helpFlagShort {
			break
		}
		if isFlagToken(next) {
			break
		}
		// Unbounded leaves leave bare tokens for a pending variant name
		// once their minimum is satisfied.
		if leaf.Arity.Max == -1 && len(consumed) >= leaf.Arity.Min {
			if _, _, isVariant := s.dispatch(next); isVariant {
				break
			}
		}
		consumed = append(consumed, next)
		j++
	}
	if err := s.checkArity(leaf, consumed); err != nil {
		return j, err
	}
	s.bind(vals, leaf, consumed)
	return j, nil
}

// bind stores a flag occurrence's tokens. Repeating an unbounded flag
// accumulates; repeating a bounded one replaces the earlier occurrence.
func (s *scope) bind(vals *Values, leaf *Leaf, toks []string) {
	if leaf.Arity.Max == -1 {
		if prev, ok := vals.raw[leaf]; ok {
			vals.raw[leaf] = append(prev, toks...)
			return
		}
	}
	vals.raw[leaf] = toks
}

func (s *scope) checkArity(leaf *Leaf, toks []string) error {
	if len(toks) < leaf.Arity.Min {
		return &MissingValueError{Path: leaf.FlagPath(), Arity: leaf.Arity.String()}
	}
	// Inline forms can carry more elements than greedy consumption would
	// ever take; surplus is an error, not a truncation.
	if leaf.Arity.Max >= 0 && len(toks) > leaf.Arity.Max {
		return &UnrecognizedTokenError{Token: toks[leaf.Arity.Max]}
	}
	return nil
}

// positionalAt binds a bare token to the next open positional slot in
// declaration order. A variadic positional keeps absorbing tokens; a bounded
// one advances once full.
func (s *scope) positionalAt(vals *Values, tok string) (*Leaf, error) {
	for s.posIndex < len(s.positionals) {
		leaf := s.positionals[s.posIndex]
		if leaf.Arity.Max == -1 || len(vals.raw[leaf]) < leaf.Arity.Max {
			return leaf, nil
		}
		s.posIndex++
	}
	return nil, &UnrecognizedTokenError{Token: tok, Accepted: s.acceptedHere()}
}

// acceptedHere lists the tokens that would have been accepted at this point
// in the tree: flags, then pending variant names.
func (s *scope) acceptedHere() []string {
	out := make([]string, 0, len(s.flags)+len(s.pending))
	seen := make(map[string]bool)
	for tok := range s.flags {
		if !seen[tok] {
			out = append(out, "--"+tok)
			seen[tok] = true
		}
	}
	for _, ch := range s.pending {
		for _, b := range ch.Branches {
			if !seen[b.Name] {
				out = append(out, b.Name)
				seen[b.Name] = true
			}
		}
	}
	slices.Sort(out)
	return out
}

// isFlagToken reports whether tok should be treated as a flag rather than a
// value. Negative numbers are values.
func isFlagToken(tok string) bool {
	if len(tok) < 2 || tok[0] != '-' {
		return false
	}
	return !isNumeric(tok)
}

// isNumeric reports whether s looks like a (possibly signed) number.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	start := 0
	if s[0] == '-' || s[0] == '+' {
		if len(s) == 1 {
			return false
		}
		start = 1
	}
	hasDigit := false
	hasDot := false
	for i := start; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			hasDigit = true
		case s[i] == '.':
			if hasDot {
				return false
			}
			hasDot = true
		default:
			return false
		}
	}
	return hasDigit
}

func splitInline(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
