// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package presets

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/typeflag/typeflag/pkg/cli"
	"github.com/typeflag/typeflag/pkg/schema"
)

type experiment struct {
	BatchSize int
	Units     int
	Seed      int64
}

func newRegistry(t *testing.T) *Registry[experiment] {
	t.Helper()
	r := New[experiment]()
	if err := r.Add("small", experiment{BatchSize: 2048, Units: 64}, "small model", Missing("Seed")); err != nil {
		t.Fatal(err)
	}
	if err := r.Add("big", experiment{BatchSize: 4096, Units: 256}, "big model", Missing("Seed")); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRegistry_Node(t *testing.T) {
	r := newRegistry(t)
	node, err := r.Node()
	if err != nil {
		t.Fatalf("Node() error = %v", err)
	}
	if node.Kind != schema.KindUnion {
		t.Fatalf("Kind = %v, want union", node.Kind)
	}
	if len(node.Variants) != 2 {
		t.Fatalf("variants = %d, want 2", len(node.Variants))
	}
	// The first registered preset is the default.
	if node.DefaultVariant != "small" {
		t.Errorf("DefaultVariant = %q, want small", node.DefaultVariant)
	}
	// Seed carries no default on either variant.
	for _, v := range node.Variants {
		for _, f := range v.Node.Fields {
			if f.Name == "Seed" && !schema.IsMissing(f.Node.Default) {
				t.Errorf("%s.Seed default = %v, want Missing", v.Name, f.Node.Default)
			}
		}
	}
}

func TestRegistry_DuplicateAndUnknown(t *testing.T) {
	r := newRegistry(t)
	if err := r.Add("small", experiment{}, ""); err == nil {
		t.Error("Add of duplicate name should fail")
	}
	if err := r.SetDefault("medium"); err == nil {
		t.Error("SetDefault of unknown name should fail")
	}
	if err := r.SetDefault("big"); err != nil {
		t.Errorf("SetDefault(big) error = %v", err)
	}
	node, err := r.Node()
	if err != nil {
		t.Fatal(err)
	}
	if node.DefaultVariant != "big" {
		t.Errorf("DefaultVariant = %q, want big", node.DefaultVariant)
	}
}

func TestRegistry_EndToEnd(t *testing.T) {
	r := newRegistry(t)
	node, err := r.Node()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		want    experiment
		wantErr bool
	}{
		{
			name: "default preset with seed",
			args: []string{"--seed", "7"},
			want: experiment{BatchSize: 2048, Units: 64, Seed: 7},
		},
		{
			name: "named preset with override",
			args: []string{"big", "--seed", "7", "--units", "512"},
			want: experiment{BatchSize: 4096, Units: 512, Seed: 7},
		},
		{
			name:    "seed is required",
			args:    []string{"big"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cli.Run[experiment](tt.args, cli.WithNode(node))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Run() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegistry_NodesAreIndependent(t *testing.T) {
	r := newRegistry(t)
	first, err := r.Node()
	if err != nil {
		t.Fatal(err)
	}
	if err := r.SetDefault("big"); err != nil {
		t.Fatal(err)
	}
	second, err := r.Node()
	if err != nil {
		t.Fatal(err)
	}
	if first.DefaultVariant != "small" || second.DefaultVariant != "big" {
		t.Errorf("defaults = %q/%q, want small/big", first.DefaultVariant, second.DefaultVariant)
	}
	if _, err := New[experiment]().Node(); err == nil {
		t.Error("Node() on empty registry should fail")
	}
}
