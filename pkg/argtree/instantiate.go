// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argtree

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/typeflag/typeflag/pkg/schema"
)

// Instantiate rebuilds a value of the original structured type from the
// parsed input. Instantiation is total: every leaf resolves to a concrete
// value, a default, or an explicit absent representation, or the call fails
// with the offending flag path. No partial result is returned on failure.
func Instantiate(t *Tree, vals *Values) (any, error) {
	v, _, err := instantiate(t.Root, vals)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func instantiate(n Node, vals *Values) (any, bool, error) {
	switch x := n.(type) {
	case *Leaf:
		return instantiateLeaf(x, vals)
	case *Group:
		return instantiateGroup(x, vals)
	case *Choice:
		return instantiateChoice(x, vals)
	}
	return nil, false, fmt.Errorf("unknown tree node %T", n)
}

func instantiateLeaf(l *Leaf, vals *Values) (any, bool, error) {
	if raw, ok := vals.Raw(l); ok {
		if len(raw) < l.Arity.Min {
			return nil, false, &MissingValueError{Path: l.FlagPath(), Arity: l.Arity.String()}
		}
		v, err := convertTokens(l, raw)
		if err != nil {
			return nil, false, err
		}
		return leafValue(l, v)
	}

	if def, ok := l.Default(); ok {
		if def == nil {
			// The explicit absent representation of an optional leaf.
			return nil, false, nil
		}
		return leafValue(l, def)
	}

	if l.Optional {
		return nil, false, nil
	}
	// Unbounded collections with nothing supplied are empty, not missing.
	if l.Arity.Min == 0 && l.Arity.Max == -1 {
		switch l.class {
		case sequenceLeaf:
			return leafValue(l, []any{})
		case mappingLeaf:
			return leafValue(l, []mapEntry{})
		}
	}
	return nil, false, &MissingValueError{Path: l.FlagPath()}
}

func instantiateGroup(g *Group, vals *Values) (any, bool, error) {
	if g.Optional && !anyInputBeneath(g, vals) {
		if def := g.src.Default; def == nil || schema.IsMissing(def) {
			return nil, false, nil
		}
	}

	if g.src.Type != nil && g.src.Type.Kind() == reflect.Struct {
		rv := reflect.New(g.src.Type).Elem()
		for i, child := range g.Children {
			f := g.src.Fields[i]
			v, present, err := instantiate(child.Node, vals)
			if err != nil {
				return nil, false, err
			}
			if !present {
				continue
			}
			if err := assign(rv.Field(f.Index), v); err != nil {
				return nil, false, &ConversionError{
					Path:     childPath(g, child),
					Token:    fmt.Sprintf("%v", v),
					Expected: f.Node.Kind.String(),
					Err:      err,
				}
			}
		}
		return rv.Interface(), true, nil
	}

	out := make(map[string]any, len(g.Children))
	for i, child := range g.Children {
		f := g.src.Fields[i]
		v, present, err := instantiate(child.Node, vals)
		if err != nil {
			return nil, false, err
		}
		if !present {
			continue
		}
		out[f.Name] = v
	}
	return out, true, nil
}

func instantiateChoice(c *Choice, vals *Values) (any, bool, error) {
	name, ok := vals.Chosen(c)
	if !ok {
		if c.Default == "" {
			return nil, false, &MissingValueError{Path: c.FlagPath()}
		}
		name = c.Default
	}
	branch, ok := c.BranchNamed(name)
	if !ok {
		return nil, false, &MissingValueError{Path: c.FlagPath()}
	}
	v, _, err := instantiate(branch.Group, vals)
	if err != nil {
		return nil, false, err
	}
	return Tagged{Variant: name, Value: v}, true, nil
}

// anyInputBeneath reports whether the user supplied anything for a subtree.
func anyInputBeneath(n Node, vals *Values) bool {
	switch x := n.(type) {
	case *Leaf:
		_, ok := vals.Raw(x)
		return ok
	case *Group:
		for _, c := range x.Children {
			if anyInputBeneath(c.Node, vals) {
				return true
			}
		}
	case *Choice:
		// A default fallback is not input; only a selector token counts.
		if vals.explicit[x] {
			return true
		}
		for _, b := range x.Branches {
			if anyInputBeneath(b.Group, vals) {
				return true
			}
		}
	}
	return false
}

func childPath(g *Group, c Child) string {
	if nested, ok := c.Node.(interface{ FlagPath() string }); ok {
		return nested.FlagPath()
	}
	return strings.Join(append(append([]string{}, g.Path...), c.Name), ".")
}

// mapEntry is the canonical form of one parsed mapping element.
type mapEntry struct {
	key any
	val any
}

// convertTokens converts a leaf's raw tokens into its canonical value via
// the stored element parser. Conversion failure names the flag path, the
// offending token, and the expected kind.
func convertTokens(l *Leaf, raw []string) (any, error) {
	switch l.class {
	case scalarLeaf:
		v, err := schema.ParseScalar(l.elemKind, raw[0])
		if err != nil {
			return nil, &ConversionError{Path: l.FlagPath(), Token: raw[0], Expected: l.elemKind.String(), Err: err}
		}
		return v, nil
	case literalLeaf:
		for _, allowed := range l.literals {
			if raw[0] == allowed {
				return raw[0], nil
			}
		}
		return nil, &ConversionError{
			Path:     l.FlagPath(),
			Token:    raw[0],
			Expected: "one of {" + strings.Join(l.literals, ", ") + "}",
		}
	case sequenceLeaf:
		out := make([]any, 0, len(raw))
		for _, tok := range raw {
			if len(l.literals) > 0 && !contains(l.literals, tok) {
				return nil, &ConversionError{
					Path:     l.FlagPath(),
					Token:    tok,
					Expected: "one of {" + strings.Join(l.literals, ", ") + "}",
				}
			}
			v, err := schema.ParseScalar(l.elemKind, tok)
			if err != nil {
				return nil, &ConversionError{Path: l.FlagPath(), Token: tok, Expected: l.elemKind.String(), Err: err}
			}
			out = append(out, v)
		}
		return out, nil
	case tupleLeaf:
		out := make([]any, 0, len(l.elems))
		for i, kind := range l.elems {
			v, err := schema.ParseScalar(kind, raw[i])
			if err != nil {
				return nil, &ConversionError{Path: l.FlagPath(), Token: raw[i], Expected: kind.String(), Err: err}
			}
			out = append(out, v)
		}
		return out, nil
	case mappingLeaf:
		out := make([]mapEntry, 0, len(raw))
		for _, tok := range raw {
			k, v, ok := strings.Cut(tok, "=")
			if !ok {
				return nil, &ConversionError{Path: l.FlagPath(), Token: tok, Expected: "KEY=VALUE"}
			}
			kv, err := schema.ParseScalar(l.keyKind, k)
			if err != nil {
				return nil, &ConversionError{Path: l.FlagPath(), Token: tok, Expected: l.keyKind.String() + " key", Err: err}
			}
			vv, err := schema.ParseScalar(l.valKind, v)
			if err != nil {
				return nil, &ConversionError{Path: l.FlagPath(), Token: tok, Expected: l.valKind.String() + " value", Err: err}
			}
			out = append(out, mapEntry{key: kv, val: vv})
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown leaf class")
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// leafValue shapes the canonical value into the leaf's Go type when the
// schema node carries one, or leaves it generic otherwise.
func leafValue(l *Leaf, v any) (any, bool, error) {
	t := l.src.Type
	if t == nil {
		if entries, ok := v.([]mapEntry); ok {
			out := make(map[string]any, len(entries))
			for _, e := range entries {
				out[schema.FormatScalar(e.key)] = e.val
			}
			return out, true, nil
		}
		return v, true, nil
	}
	target := reflect.New(t).Elem()
	if err := assign(target, v); err != nil {
		return nil, false, &ConversionError{
			Path:     l.FlagPath(),
			Token:    fmt.Sprintf("%v", v),
			Expected: t.String(),
			Err:      err,
		}
	}
	return target.Interface(), true, nil
}

// assign stores v into target, bridging canonical parser output, threaded
// Go defaults, and generic document values (YAML/TOML scalars, []any,
// map[string]any) into the target's type.
func assign(target reflect.Value, v any) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	t := target.Type()

	if rv.Type() == t {
		target.Set(rv)
		return nil
	}
	if t.Kind() == reflect.Interface {
		// A union result stores its branch value into the interface field;
		// the caller keeps the variant identity via the choice point.
		if tg, ok := v.(Tagged); ok {
			inner := reflect.ValueOf(tg.Value)
			if inner.IsValid() && inner.Type().Implements(t) {
				target.Set(inner)
				return nil
			}
		}
		if rv.Type().Implements(t) {
			target.Set(rv)
			return nil
		}
		return fmt.Errorf("%T does not implement %v", v, t)
	}
	if t.Kind() == reflect.Pointer {
		elem := reflect.New(t.Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}
		target.Set(elem)
		return nil
	}
	if rv.Type().ConvertibleTo(t) && convertCompatible(rv.Type(), t) {
		target.Set(rv.Convert(t))
		return nil
	}

	switch t.Kind() {
	case reflect.Slice:
		if items, ok := sliceItems(v); ok {
			out := reflect.MakeSlice(t, len(items), len(items))
			for i, item := range items {
				if err := assign(out.Index(i), item); err != nil {
					return err
				}
			}
			target.Set(out)
			return nil
		}
	case reflect.Array:
		if items, ok := sliceItems(v); ok {
			if len(items) != t.Len() {
				return fmt.Errorf("expected %d elements, got %d", t.Len(), len(items))
			}
			for i, item := range items {
				if err := assign(target.Index(i), item); err != nil {
					return err
				}
			}
			return nil
		}
	case reflect.Map:
		out := reflect.MakeMap(t)
		switch entries := v.(type) {
		case []mapEntry:
			for _, e := range entries {
				k := reflect.New(t.Key()).Elem()
				val := reflect.New(t.Elem()).Elem()
				if err := assign(k, e.key); err != nil {
					return err
				}
				if err := assign(val, e.val); err != nil {
					return err
				}
				out.SetMapIndex(k, val)
			}
			target.Set(out)
			return nil
		case map[string]any:
			for mk, mv := range entries {
				k := reflect.New(t.Key()).Elem()
				val := reflect.New(t.Elem()).Elem()
				if err := assign(k, mk); err != nil {
					return err
				}
				if err := assign(val, mv); err != nil {
					return err
				}
				out.SetMapIndex(k, val)
			}
			target.Set(out)
			return nil
		}
	}

	// Document defaults may carry scalars as strings.
	if s, ok := v.(string); ok {
		if kind, ok := schema.KindOfType(t); ok {
			parsed, err := schema.ParseScalar(kind, s)
			if err != nil {
				return err
			}
			return assign(target, parsed)
		}
	}
	return fmt.Errorf("cannot assign %T to %v", v, t)
}

func sliceItems(v any) ([]any, bool) {
	switch items := v.(type) {
	case []any:
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

// convertCompatible guards reflect conversions so that only sensible ones
// happen: numeric to numeric, string-kind to string-kind. It rejects Go's
// integer-to-string rune conversion.
func convertCompatible(from, to reflect.Type) bool {
	return (isNumericKind(from.Kind()) && isNumericKind(to.Kind())) ||
		(from.Kind() == reflect.String && to.Kind() == reflect.String) ||
		(from.Kind() == reflect.Bool && to.Kind() == reflect.Bool)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
