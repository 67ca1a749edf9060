// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package presets maps named base configurations onto a union whose branch
// names select a preset on the command line. A registry is caller-owned
// plain data: build one, register presets in the order they should appear
// in help output, and hand the resulting node to cli via WithNode.
package presets

import (
	"fmt"
	"strings"

	"github.com/typeflag/typeflag/pkg/schema"
)

// Registry collects named preset values of one configuration type.
// The zero value is not usable; construct with New. A registry is not safe
// for concurrent mutation, but the node it produces is immutable and may be
// shared across goroutines.
type Registry[T any] struct {
	entries     []entry[T]
	unions      schema.Unions
	defaultName string
}

type entry[T any] struct {
	name        string
	description string
	value       T
	missing     []string
}

// Option configures a registry at construction time.
type Option[T any] func(*Registry[T])

// WithUnions binds interface-typed fields inside the preset type to union
// declarations, keyed by dotted field path.
func WithUnions[T any](u schema.Unions) Option[T] {
	return func(r *Registry[T]) { r.unions = u }
}

// New returns an empty registry.
func New[T any](opts ...Option[T]) *Registry[T] {
	r := &Registry[T]{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EntryOption configures one registered preset.
type EntryOption func(*[]string)

// Missing marks fields of the preset as having no usable default, so the
// command line must supply them. Nested fields use dotted paths.
func Missing(fields ...string) EntryOption {
	return func(m *[]string) { *m = append(*m, fields...) }
}

// Add registers a preset under name. Names must be unique within the
// registry; the first registered preset becomes the default selection
// unless SetDefault says otherwise.
func (r *Registry[T]) Add(name string, value T, description string, opts ...EntryOption) error {
	for _, e := range r.entries {
		if e.name == name {
			return fmt.Errorf("preset %q already registered", name)
		}
	}
	e := entry[T]{name: name, description: description, value: value}
	for _, opt := range opts {
		opt(&e.missing)
	}
	r.entries = append(r.entries, e)
	if len(r.entries) == 1 {
		r.defaultName = name
	}
	return nil
}

// SetDefault changes which preset is selected when the invocation names
// none of them.
func (r *Registry[T]) SetDefault(name string) error {
	for _, e := range r.entries {
		if e.name == name {
			r.defaultName = name
			return nil
		}
	}
	return fmt.Errorf("preset %q not registered", name)
}

// Node builds the union describing every registered preset, ready for
// compilation. Each call builds a fresh node, so a long-lived registry can
// serve many commands.
func (r *Registry[T]) Node() (*schema.Node, error) {
	if len(r.entries) == 0 {
		return nil, fmt.Errorf("registry has no presets")
	}
	variants := make([]schema.UnionVariant, 0, len(r.entries))
	for _, e := range r.entries {
		node, err := schema.FromValueWith(e.value, r.unions)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", e.name, err)
		}
		for _, field := range e.missing {
			if err := schema.MarkMissing(node, strings.Split(field, ".")...); err != nil {
				return nil, fmt.Errorf("preset %q: %w", e.name, err)
			}
		}
		variants = append(variants, schema.UnionVariant{
			Name:        e.name,
			Description: e.description,
			Node:        node,
		})
	}
	node, err := schema.UnionOf(variants...)
	if err != nil {
		return nil, err
	}
	node.DefaultVariant = r.defaultName
	return node, nil
}
