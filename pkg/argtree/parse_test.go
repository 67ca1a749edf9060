// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argtree

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/typeflag/typeflag/pkg/schema"
)

func TestParse_TokenRouting(t *testing.T) {
	type Config struct {
		Seed    int64
		Verbose bool
		Tags    []string
		Betas   [2]float64
		Name    string `pos:"true"`
	}
	tree := mustCompileType(t, Config{})

	tests := []struct {
		name   string
		tokens []string
		want   map[string][]string // leaf token -> raw values
	}{
		{
			name:   "separate value token",
			tokens: []string{"--seed", "7"},
			want:   map[string][]string{"seed": {"7"}},
		},
		{
			name:   "inline value",
			tokens: []string{"--seed=7"},
			want:   map[string][]string{"seed": {"7"}},
		},
		{
			name:   "negative number is a value",
			tokens: []string{"--seed", "-42"},
			want:   map[string][]string{"seed": {"-42"}},
		},
		{
			name:   "bool consumes no value",
			tokens: []string{"--verbose", "run1"},
			want:   map[string][]string{"verbose": {"true"}, "name": {"run1"}},
		},
		{
			name:   "bool negated",
			tokens: []string{"--no-verbose"},
			want:   map[string][]string{"verbose": {"false"}},
		},
		{
			name:   "bool inline",
			tokens: []string{"--verbose=false"},
			want:   map[string][]string{"verbose": {"false"}},
		},
		{
			name:   "greedy sequence stops at flag",
			tokens: []string{"--tags", "a", "b", "--seed", "7"},
			want:   map[string][]string{"tags": {"a", "b"}, "seed": {"7"}},
		},
		{
			name:   "inline comma list",
			tokens: []string{"--tags=a,b,c"},
			want:   map[string][]string{"tags": {"a", "b", "c"}},
		},
		{
			name:   "repeated unbounded flag accumulates",
			tokens: []string{"--tags", "a", "--tags", "b"},
			want:   map[string][]string{"tags": {"a", "b"}},
		},
		{
			name:   "repeated bounded flag keeps last",
			tokens: []string{"--seed", "1", "--seed", "2"},
			want:   map[string][]string{"seed": {"2"}},
		},
		{
			name:   "fixed arity consumes exactly",
			tokens: []string{"--betas", "0.9", "0.999", "run1"},
			want:   map[string][]string{"betas": {"0.9", "0.999"}, "name": {"run1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals, err := Parse(tree, tt.tokens)
			if err != nil {
				t.Fatalf("Parse(%v) error = %v", tt.tokens, err)
			}
			got := map[string][]string{}
			for leaf, raw := range vals.raw {
				got[leaf.Token] = raw
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%v) = %v, want %v", tt.tokens, got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	type Config struct {
		Seed  int64
		Betas [2]float64
	}
	tree := mustCompileType(t, Config{})

	t.Run("unrecognized flag", func(t *testing.T) {
		_, err := Parse(tree, []string{"--nope"})
		var ute *UnrecognizedTokenError
		if !errors.As(err, &ute) {
			t.Fatalf("error = %v, want UnrecognizedTokenError", err)
		}
		if ute.Token != "--nope" {
			t.Errorf("Token = %q, want --nope", ute.Token)
		}
		if !slices.Contains(ute.Accepted, "--seed") {
			t.Errorf("Accepted = %v, want to include --seed", ute.Accepted)
		}
	})

	t.Run("unrecognized bare token", func(t *testing.T) {
		_, err := Parse(tree, []string{"stray"})
		var ute *UnrecognizedTokenError
		if !errors.As(err, &ute) {
			t.Fatalf("error = %v, want UnrecognizedTokenError", err)
		}
	})

	t.Run("too few arity tokens", func(t *testing.T) {
		_, err := Parse(tree, []string{"--betas", "0.9"})
		var mve *MissingValueError
		if !errors.As(err, &mve) {
			t.Fatalf("error = %v, want MissingValueError", err)
		}
		if mve.Path != "betas" {
			t.Errorf("Path = %q, want betas", mve.Path)
		}
	})

	t.Run("too many arity tokens", func(t *testing.T) {
		// A fixed-arity flag stops consuming at its bound; the surplus token
		// has nowhere to go.
		_, err := Parse(tree, []string{"--betas", "0.9", "0.999", "1.0"})
		var ute *UnrecognizedTokenError
		if !errors.As(err, &ute) {
			t.Fatalf("error = %v, want UnrecognizedTokenError", err)
		}
		if ute.Token != "1.0" {
			t.Errorf("Token = %q, want 1.0", ute.Token)
		}
	})

	t.Run("too many inline elements", func(t *testing.T) {
		// The inline form carries every element at once; surplus is
		// rejected, never truncated.
		_, err := Parse(tree, []string{"--betas=0.9,0.999,1.0"})
		var ute *UnrecognizedTokenError
		if !errors.As(err, &ute) {
			t.Fatalf("error = %v, want UnrecognizedTokenError", err)
		}
		if ute.Token != "1.0" {
			t.Errorf("Token = %q, want 1.0", ute.Token)
		}
	})

	t.Run("flag with no value", func(t *testing.T) {
		_, err := Parse(tree, []string{"--seed"})
		var mve *MissingValueError
		if !errors.As(err, &mve) {
			t.Fatalf("error = %v, want MissingValueError", err)
		}
	})
}

func TestParse_Help(t *testing.T) {
	type Config struct {
		Seed int64 `help:"rng seed"`
	}
	tree := mustCompileType(t, Config{})

	for _, tok := range []string{"--help", "-h"} {
		_, err := Parse(tree, []string{tok})
		if !errors.Is(err, ErrHelp) {
			t.Fatalf("Parse(%q) error = %v, want ErrHelp", tok, err)
		}
		var he *HelpError
		if !errors.As(err, &he) {
			t.Fatalf("error = %v, want HelpError", err)
		}
		if he.Usage == "" {
			t.Error("HelpError.Usage is empty")
		}
	}

	// Help wins even when earlier tokens are present.
	_, err := Parse(tree, []string{"--seed", "7", "--help"})
	if !errors.Is(err, ErrHelp) {
		t.Fatalf("error = %v, want ErrHelp", err)
	}
}

func TestParse_ChoiceDispatch(t *testing.T) {
	type Adam struct {
		Lr    float64
		Betas [2]float64
	}
	type Sgd struct {
		Lr       float64
		Momentum float64
	}

	makeUnion := func(t *testing.T, defaultVariant string) *Tree {
		t.Helper()
		adam, err := schema.VariantOf("adam", Adam{Lr: 3e-4, Betas: [2]float64{0.9, 0.999}}, "")
		if err != nil {
			t.Fatal(err)
		}
		sgd, err := schema.VariantOf("sgd", Sgd{Lr: 0.01, Momentum: 0.9}, "")
		if err != nil {
			t.Fatal(err)
		}
		union, err := schema.UnionOf(adam, sgd)
		if err != nil {
			t.Fatal(err)
		}
		union.DefaultVariant = defaultVariant
		tree, err := Compile(union)
		if err != nil {
			t.Fatal(err)
		}
		return tree
	}

	t.Run("explicit selection", func(t *testing.T) {
		tree := makeUnion(t, "adam")
		vals, err := Parse(tree, []string{"sgd", "--lr", "0.5"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		choice := tree.Root.(*Choice)
		if name, _ := vals.Chosen(choice); name != "sgd" {
			t.Errorf("chosen = %q, want sgd", name)
		}
	})

	t.Run("omitted selector falls back to default", func(t *testing.T) {
		tree := makeUnion(t, "adam")
		vals, err := Parse(tree, nil)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if name, _ := vals.Chosen(tree.Root.(*Choice)); name != "adam" {
			t.Errorf("chosen = %q, want adam", name)
		}
	})

	t.Run("default branch flags usable without selector", func(t *testing.T) {
		tree := makeUnion(t, "adam")
		vals, err := Parse(tree, []string{"--lr", "0.5"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if name, _ := vals.Chosen(tree.Root.(*Choice)); name != "adam" {
			t.Errorf("chosen = %q, want adam", name)
		}
		got := map[string][]string{}
		for leaf, raw := range vals.raw {
			got[leaf.Token] = raw
		}
		if !reflect.DeepEqual(got["lr"], []string{"0.5"}) {
			t.Errorf("lr = %v, want [0.5]", got["lr"])
		}
	})

	t.Run("selector after default-branch flag is rejected", func(t *testing.T) {
		tree := makeUnion(t, "adam")
		_, err := Parse(tree, []string{"--lr", "0.5", "sgd"})
		var ute *UnrecognizedTokenError
		if !errors.As(err, &ute) {
			t.Fatalf("error = %v, want UnrecognizedTokenError", err)
		}
	})

	t.Run("re-selecting the default branch is fine", func(t *testing.T) {
		tree := makeUnion(t, "adam")
		vals, err := Parse(tree, []string{"--lr", "0.5", "adam"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if name, _ := vals.Chosen(tree.Root.(*Choice)); name != "adam" {
			t.Errorf("chosen = %q, want adam", name)
		}
	})

	t.Run("no default makes selection required", func(t *testing.T) {
		tree := makeUnion(t, "")
		_, err := Parse(tree, nil)
		var mve *MissingValueError
		if !errors.As(err, &mve) {
			t.Fatalf("error = %v, want MissingValueError", err)
		}
	})

	t.Run("selected branch renders its own help", func(t *testing.T) {
		tree := makeUnion(t, "adam")
		_, err := Parse(tree, []string{"sgd", "--help"})
		var he *HelpError
		if !errors.As(err, &he) {
			t.Fatalf("error = %v, want HelpError", err)
		}
		if !strings.Contains(he.Usage, "--momentum") {
			t.Errorf("usage after selecting sgd should list --momentum:\n%s", he.Usage)
		}
	})
}
