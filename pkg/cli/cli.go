// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cli is the entry point tying the pipeline together: adapt the
// caller's type, compile it into an argument tree, parse the invocation's
// tokens, and instantiate the result. It owns rendering errors and help to
// the process streams and choosing the exit status; the packages beneath it
// only return structured errors.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/typeflag/typeflag/pkg/argtree"
	"github.com/typeflag/typeflag/pkg/schema"
	"github.com/typeflag/typeflag/pkg/tui"
)

// Exit statuses: 0 means a value was produced or help was shown, 2 means a
// parse or instantiation failure.
const (
	ExitOK      = 0
	ExitFailure = 2
)

type options struct {
	prog       string
	node       *schema.Node
	defaultVal any
	defaultDoc map[string]any
	unions     schema.Unions
	out        io.Writer
	errOut     io.Writer
	color      bool
}

// Option configures one invocation.
type Option func(*options)

// WithProgName sets the program name shown in usage and error output.
func WithProgName(name string) Option {
	return func(o *options) { o.prog = name }
}

// WithNode supplies an explicit type description, bypassing the reflection
// adapter. Used by the presets layer and by callers that build unions by
// hand.
func WithNode(n *schema.Node) Option {
	return func(o *options) { o.node = n }
}

// WithDefault supplies an existing default value; its fields become
// per-field defaults the command line overrides.
func WithDefault(v any) Option {
	return func(o *options) { o.defaultVal = v }
}

// WithDefaultDoc supplies a nested document (for example a parsed YAML or
// TOML file from confload) as the existing default.
func WithDefaultDoc(doc map[string]any) Option {
	return func(o *options) { o.defaultDoc = doc }
}

// WithUnions binds interface-typed fields to union declarations.
func WithUnions(u schema.Unions) Option {
	return func(o *options) { o.unions = u }
}

// WithOutput redirects help output, which defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithErrOutput redirects error output, which defaults to stderr.
func WithErrOutput(w io.Writer) Option {
	return func(o *options) { o.errOut = w }
}

// WithColor forces colorized error output on or off.
func WithColor(enabled bool) Option {
	return func(o *options) { o.color = enabled }
}

// Run executes one invocation against the tokens in args and returns the
// instantiated value. A help request surfaces as an error matching
// argtree.ErrHelp; the caller decides how to render it. Run holds no shared
// state, so independent invocations may run concurrently.
func Run[T any](args []string, opts ...Option) (T, error) {
	v, _, err := run[T](args, opts...)
	return v, err
}

func run[T any](args []string, opts ...Option) (T, *argtree.Tree, error) {
	var zero T
	o := newOptions(opts)

	node := o.node
	if node == nil {
		var err error
		if o.defaultVal != nil {
			node, err = schema.FromValueWith(o.defaultVal, o.unions)
		} else {
			node, err = schema.FromTypeWith(reflect.TypeOf(&zero).Elem(), o.unions)
		}
		if err != nil {
			return zero, nil, err
		}
	}
	if o.defaultDoc != nil {
		// The caller may share the node across invocations; thread the
		// document's defaults into a copy.
		node = node.Clone()
		if err := schema.WithDefault(node, o.defaultDoc); err != nil {
			return zero, nil, err
		}
	}

	tree, err := argtree.Compile(node)
	if err != nil {
		return zero, nil, err
	}
	vals, err := argtree.Parse(tree, args)
	if err != nil {
		return zero, tree, err
	}
	out, err := argtree.Instantiate(tree, vals)
	if err != nil {
		return zero, tree, err
	}

	v, err := shape[T](out)
	return v, tree, err
}

func newOptions(opts []Option) *options {
	o := &options{out: os.Stdout, errOut: os.Stderr, color: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// shape converts the instantiator's output into the caller's type,
// unwrapping a union's variant tag when the caller asked for the branch
// type itself.
func shape[T any](out any) (T, error) {
	var zero T
	if v, ok := out.(T); ok {
		return v, nil
	}
	if tagged, ok := out.(argtree.Tagged); ok {
		if v, ok := tagged.Value.(T); ok {
			return v, nil
		}
	}
	return zero, fmt.Errorf("instantiated %T, expected %T", out, zero)
}

// Main is Run over os.Args with process-level rendering: help goes to
// stdout and exits 0, failures render the error plus usage to stderr and
// exit 2.
func Main[T any](opts ...Option) T {
	v, tree, err := run[T](os.Args[1:], opts...)
	if err == nil {
		return v
	}

	o := newOptions(opts)
	var help *argtree.HelpError
	if errors.As(err, &help) {
		fmt.Fprint(o.out, o.withProg(help.Usage))
		os.Exit(ExitOK)
	}

	c := tui.NewColorizer(o.color)
	fmt.Fprintf(o.errOut, "%s %v\n", c.Err("Error:"), err)
	if tree != nil {
		fmt.Fprintf(o.errOut, "\n%s", o.withProg(argtree.Usage(tree.Root)))
		fmt.Fprintln(o.errOut, c.Dim("\nRun with --help for more information."))
	}
	os.Exit(ExitFailure)
	return v
}

// withProg splices the program name into the usage synopsis line.
func (o *options) withProg(usage string) string {
	prog := o.prog
	if prog == "" {
		prog = filepath.Base(os.Args[0])
	}
	return strings.Replace(usage, "USAGE:\n    ", "USAGE:\n    "+prog+" ", 1)
}
