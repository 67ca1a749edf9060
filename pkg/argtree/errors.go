// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argtree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHelp is the sentinel behind HelpError. A help request is a terminal,
// non-error exit: parsing of the affected subtree stops and its usage is
// rendered instead.
var ErrHelp = errors.New("help requested")

// HelpError carries the rendered usage for the subtree where help was
// requested. errors.Is(err, ErrHelp) matches it.
type HelpError struct {
	Usage string
}

func (e *HelpError) Error() string { return "help requested" }

func (e *HelpError) Unwrap() error { return ErrHelp }

// MissingValueError reports a leaf or choice point that had no default and
// received no input.
type MissingValueError struct {
	Path  string // full flag path of the offending field
	Arity string // non-empty when too few tokens were supplied for an arity
}

func (e *MissingValueError) Error() string {
	if e.Arity != "" {
		return fmt.Sprintf("%s: requires %s value(s)", e.Path, e.Arity)
	}
	return fmt.Sprintf("%s: required value not provided", e.Path)
}

// ConversionError reports raw token(s) that could not be converted to the
// leaf's declared kind, including literal-set membership failures.
type ConversionError struct {
	Path     string
	Token    string
	Expected string // kind name or allowed literal set
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: invalid value %q (expected %s)", e.Path, e.Token, e.Expected)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// UnrecognizedTokenError reports an input token that matched no flag,
// positional slot, or variant name at its position.
type UnrecognizedTokenError struct {
	Token    string
	Accepted []string // tokens that would have been accepted at that point
}

func (e *UnrecognizedTokenError) Error() string {
	if len(e.Accepted) == 0 {
		return fmt.Sprintf("unrecognized token %q", e.Token)
	}
	return fmt.Sprintf("unrecognized token %q (expected one of: %s)", e.Token, strings.Join(e.Accepted, ", "))
}
