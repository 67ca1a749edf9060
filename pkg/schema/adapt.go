// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// FilePath is a string whose values name filesystem paths. Fields of this
// type adapt to the Path scalar kind.
type FilePath string

var (
	durationType = reflect.TypeOf(time.Duration(0))
	urlType      = reflect.TypeOf(url.URL{})
	uuidType     = reflect.TypeOf(uuid.UUID{})
	versionType  = reflect.TypeOf(semver.Version{})
	filePathType = reflect.TypeOf(FilePath(""))
)

// Unions binds interface-typed struct fields to explicit union nodes, keyed
// by the dotted chain of Go field names from the adapted root (for example
// "Optimizer" or "Training.Schedule"). Go has no native sum types, so tagged
// unions are declared with UnionOf and attached here.
type Unions map[string]*Node

// FromType adapts a Go type into a Node. Supported constructs: booleans,
// integers, floats, strings, FilePath, time.Duration, url.URL, uuid.UUID,
// semver.Version, pointers (optional), slices (sequence), arrays (fixed
// sequence), maps (mapping), and structs (records). Struct tags recognized:
// `flag` (token override, "-" to skip), `help`, `default` (literal default),
// `enum` (comma-separated constant set), `pos` (positional). Anything else,
// including self-referential types and interface fields with no bound
// union, fails with UnsupportedTypeError.
func FromType(t reflect.Type) (*Node, error) {
	return FromTypeWith(t, nil)
}

// FromTypeWith is FromType with union bindings for interface-typed fields.
func FromTypeWith(t reflect.Type, unions Unions) (*Node, error) {
	a := &adapter{unions: unions, visiting: make(map[reflect.Type]bool)}
	return a.fromType(t, nil)
}

// FromValue adapts the dynamic type of v and threads v down as the existing
// default, so every nested field carries the per-field default extracted
// from it.
func FromValue(v any) (*Node, error) {
	return FromValueWith(v, nil)
}

// FromValueWith is FromValue with union bindings for interface-typed fields.
func FromValueWith(v any, unions Unions) (*Node, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, &UnsupportedTypeError{Reason: "nil value"}
	}
	node, err := FromTypeWith(rv.Type(), unions)
	if err != nil {
		return nil, err
	}
	if err := applyValueDefault(node, rv, nil); err != nil {
		return nil, err
	}
	return node, nil
}

type adapter struct {
	unions   Unions
	visiting map[reflect.Type]bool
}

func (a *adapter) fromType(t reflect.Type, path []string) (*Node, error) {
	if kind, ok := KindOfType(t); ok {
		return typedScalar(kind, t), nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		inner, err := a.fromType(t.Elem(), path)
		if err != nil {
			return nil, err
		}
		n := OptionalNode(inner)
		n.Type = t
		return n, nil
	case reflect.Slice:
		elem, err := a.fromType(t.Elem(), path)
		if err != nil {
			return nil, err
		}
		n := SequenceNode(elem, 0)
		n.Type = t
		return n, nil
	case reflect.Array:
		elem, err := a.fromType(t.Elem(), path)
		if err != nil {
			return nil, err
		}
		n := SequenceNode(elem, t.Len())
		n.Type = t
		return n, nil
	case reflect.Map:
		key, err := a.fromType(t.Key(), path)
		if err != nil {
			return nil, err
		}
		val, err := a.fromType(t.Elem(), path)
		if err != nil {
			return nil, err
		}
		n := MappingNode(key, val)
		n.Type = t
		return n, nil
	case reflect.Interface:
		if u, ok := a.unions[strings.Join(path, ".")]; ok {
			n := u.clone()
			n.Type = t
			return n, nil
		}
		return nil, &UnsupportedTypeError{Type: t, Path: path, Reason: "interface field with no bound union"}
	case reflect.Struct:
		return a.record(t, path)
	}
	return nil, &UnsupportedTypeError{Type: t, Path: path, Reason: "no mapping for this construct"}
}

// KindOfType reports the scalar kind a Go type adapts to, if any.
func KindOfType(t reflect.Type) (ScalarKind, bool) {
	switch t {
	case durationType:
		return Duration, true
	case urlType:
		return URL, true
	case uuidType:
		return UUID, true
	case versionType:
		return Version, true
	case filePathType:
		return Path, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return Bool, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Uint, true
	case reflect.Float32, reflect.Float64:
		return Float, true
	case reflect.String:
		return String, true
	}
	return 0, false
}

func typedScalar(kind ScalarKind, t reflect.Type) *Node {
	n := ScalarNode(kind)
	n.Type = t
	return n
}

func (a *adapter) record(t reflect.Type, path []string) (*Node, error) {
	if a.visiting[t] {
		return nil, &UnsupportedTypeError{Type: t, Path: path, Reason: "self-referential type"}
	}
	a.visiting[t] = true
	defer delete(a.visiting, t)

	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("flag") == "-" {
			continue
		}
		fpath := append(append([]string{}, path...), sf.Name)

		var node *Node
		if enum := sf.Tag.Get("enum"); enum != "" {
			if sf.Type.Kind() != reflect.String {
				return nil, &UnsupportedTypeError{Type: sf.Type, Path: fpath, Reason: "enum tag on non-string field"}
			}
			node = LiteralNode(splitEnum(enum)...)
			node.Type = sf.Type
		} else {
			var err error
			node, err = a.fromType(sf.Type, fpath)
			if err != nil {
				return nil, err
			}
		}

		if def := sf.Tag.Get("default"); def != "" {
			if err := applyTagDefault(node, def); err != nil {
				return nil, &UnsupportedTypeError{Type: sf.Type, Path: fpath, Reason: err.Error()}
			}
		}

		fields = append(fields, Field{
			Name:       sf.Name,
			Flag:       sf.Tag.Get("flag"),
			Help:       sf.Tag.Get("help"),
			Positional: sf.Tag.Get("pos") != "",
			Node:       node,
			Index:      i,
		})
	}

	n := RecordNode(fields...)
	n.Type = t
	return n, nil
}

func splitEnum(tag string) []string {
	parts := strings.Split(tag, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Clone deep-copies a node tree. Callers that thread per-invocation
// defaults into a shared node must work on a copy; the tree itself is
// never safe to mutate while shared.
func (n *Node) Clone() *Node { return n.clone() }

// clone deep-copies a node tree so threading defaults into one use of a
// shared union declaration never leaks into another.
func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Elem = n.Elem.clone()
	out.Key = n.Key.clone()
	if n.Literals != nil {
		out.Literals = append([]string{}, n.Literals...)
	}
	if n.Elems != nil {
		out.Elems = make([]*Node, len(n.Elems))
		for i, e := range n.Elems {
			out.Elems[i] = e.clone()
		}
	}
	if n.Fields != nil {
		out.Fields = make([]Field, len(n.Fields))
		for i, f := range n.Fields {
			f.Node = f.Node.clone()
			out.Fields[i] = f
		}
	}
	if n.Variants != nil {
		out.Variants = make([]UnionVariant, len(n.Variants))
		for i, v := range n.Variants {
			v.Node = v.Node.clone()
			out.Variants[i] = v
		}
	}
	return &out
}

// applyTagDefault parses a `default` tag literal into the node's default.
func applyTagDefault(node *Node, raw string) error {
	switch node.Kind {
	case KindScalar:
		v, err := ParseScalar(node.Scalar, raw)
		if err != nil {
			return fmt.Errorf("bad default %q: %w", raw, err)
		}
		node.Default = v
		return nil
	case KindLiteral:
		for _, allowed := range node.Literals {
			if raw == allowed {
				node.Default = raw
				return nil
			}
		}
		return fmt.Errorf("default %q not in enum set", raw)
	case KindOptional:
		if err := applyTagDefault(node.Elem, raw); err != nil {
			return err
		}
		node.Default = node.Elem.Default
		return nil
	}
	return fmt.Errorf("default tag unsupported on %s field", node.Kind)
}

// applyValueDefault threads an existing value down the node tree so nested
// nodes carry per-field defaults. The existing value wins over intrinsic
// (tag) defaults.
func applyValueDefault(node *Node, rv reflect.Value, path []string) error {
	if rv.Kind() == reflect.Interface && node.Kind == KindUnion {
		if rv.IsNil() {
			return nil // no default selection
		}
		rv = rv.Elem()
	}
	switch node.Kind {
	case KindScalar, KindLiteral, KindSequence, KindTuple, KindMapping:
		node.Default = rv.Interface()
		return nil
	case KindOptional:
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			// Present-but-absent: distinct from Missing.
			node.Default = nil
			return nil
		}
		if rv.Kind() == reflect.Pointer {
			rv = rv.Elem()
		}
		if err := applyValueDefault(node.Elem, rv, path); err != nil {
			return err
		}
		node.Default = node.Elem.Default
		return nil
	case KindRecord:
		if rv.Kind() != reflect.Struct {
			return &UnsupportedTypeError{Path: path, Reason: fmt.Sprintf("record default must be a struct, got %v", rv.Kind())}
		}
		for i := range node.Fields {
			f := &node.Fields[i]
			fv := rv.FieldByName(f.Name)
			if node.Type != nil && f.Index >= 0 && f.Index < rv.NumField() {
				fv = rv.Field(f.Index)
			}
			if !fv.IsValid() {
				continue
			}
			if err := applyValueDefault(f.Node, fv, append(path, f.Name)); err != nil {
				return err
			}
		}
		node.Default = rv.Interface()
		return nil
	case KindUnion:
		for i := range node.Variants {
			v := &node.Variants[i]
			if v.Node.Type != nil && v.Node.Type == rv.Type() {
				node.DefaultVariant = v.Name
				return applyValueDefault(v.Node, rv, append(path, v.Name))
			}
		}
		return &UnsupportedTypeError{Type: rv.Type(), Path: path, Reason: "default value matches no union variant"}
	}
	return &UnsupportedTypeError{Path: path, Reason: "cannot thread default"}
}

// WithDefault threads an existing default value onto node. The value may be
// a typed Go value or a generic nested document (map[string]any, []any,
// scalars) such as one produced by a confload loader. Map keys match either
// the declared field name or its flag token override, case-insensitively
// and ignoring dashes and underscores.
func WithDefault(node *Node, v any) error {
	if doc, ok := v.(map[string]any); ok {
		return applyDocDefault(node, doc, nil)
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return &UnsupportedTypeError{Reason: "nil default"}
	}
	return applyValueDefault(node, rv, nil)
}

func applyDocDefault(node *Node, doc map[string]any, path []string) error {
	if node.Kind == KindOptional {
		return applyDocDefault(node.Elem, doc, path)
	}
	if node.Kind != KindRecord {
		return &UnsupportedTypeError{Path: path, Reason: "document default requires a record"}
	}
	for i := range node.Fields {
		f := &node.Fields[i]
		val, ok := lookupDocKey(doc, f)
		if !ok {
			continue
		}
		fpath := append(path, f.Name)
		switch f.Node.Kind {
		case KindRecord:
			sub, ok := val.(map[string]any)
			if !ok {
				return &UnsupportedTypeError{Path: fpath, Reason: fmt.Sprintf("expected nested document, got %T", val)}
			}
			if err := applyDocDefault(f.Node, sub, fpath); err != nil {
				return err
			}
		case KindOptional:
			if sub, ok := val.(map[string]any); ok && f.Node.Elem.Kind == KindRecord {
				if err := applyDocDefault(f.Node, sub, fpath); err != nil {
					return err
				}
				continue
			}
			f.Node.Default = val
		default:
			f.Node.Default = val
		}
	}
	return nil
}

func lookupDocKey(doc map[string]any, f *Field) (any, bool) {
	if v, ok := doc[f.Name]; ok {
		return v, true
	}
	if f.Flag != "" {
		if v, ok := doc[f.Flag]; ok {
			return v, true
		}
	}
	for k, v := range doc {
		if strings.EqualFold(normalizeKey(k), normalizeKey(f.Name)) {
			return v, true
		}
	}
	return nil, false
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(k))
}

// MarkMissing clears the default on the field named by path, making it a
// required argument. Path segments name record fields or union variants.
func MarkMissing(node *Node, path ...string) error {
	if len(path) == 0 {
		node.Default = Missing
		if node.Kind == KindUnion {
			node.DefaultVariant = ""
		}
		return nil
	}
	switch node.Kind {
	case KindOptional:
		return MarkMissing(node.Elem, path...)
	case KindRecord:
		for i := range node.Fields {
			if node.Fields[i].Name == path[0] {
				return MarkMissing(node.Fields[i].Node, path[1:]...)
			}
		}
	case KindUnion:
		for i := range node.Variants {
			if node.Variants[i].Name == path[0] {
				return MarkMissing(node.Variants[i].Node, path[1:]...)
			}
		}
	}
	return fmt.Errorf("no field %q", strings.Join(path, "."))
}
