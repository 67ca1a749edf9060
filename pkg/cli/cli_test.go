// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/typeflag/typeflag/pkg/argtree"
	"github.com/typeflag/typeflag/pkg/schema"
)

type trainConfig struct {
	BatchSize int     `default:"1024" help:"examples per step"`
	Rate      float64 `flag:"lr" default:"0.1"`
	Tags      []string
	Name      string `pos:"true" default:"run"`
}

func TestRun_FromType(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want trainConfig
	}{
		{
			name: "all defaults",
			args: nil,
			want: trainConfig{BatchSize: 1024, Rate: 0.1, Tags: []string{}, Name: "run"},
		},
		{
			name: "overrides",
			args: []string{"--batch-size", "2048", "--lr", "0.5", "--tags", "a", "b", "exp1"},
			want: trainConfig{BatchSize: 2048, Rate: 0.5, Tags: []string{"a", "b"}, Name: "exp1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Run[trainConfig](tt.args)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun_WithDefaultValue(t *testing.T) {
	base := trainConfig{BatchSize: 4096, Rate: 0.01, Tags: []string{"base"}, Name: "big"}
	got, err := Run[trainConfig]([]string{"--lr", "0.5"}, WithDefault(base))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := base
	want.Rate = 0.5
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRun_WithDefaultDoc(t *testing.T) {
	doc := map[string]any{
		"batch_size": 2048,
		"lr":         0.25,
	}
	got, err := Run[trainConfig](nil, WithDefaultDoc(doc))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := trainConfig{BatchSize: 2048, Rate: 0.25, Tags: []string{}, Name: "run"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRun_DefaultDocDoesNotStickToSharedNode(t *testing.T) {
	node, err := schema.FromType(reflect.TypeOf(trainConfig{}))
	if err != nil {
		t.Fatalf("FromType() error = %v", err)
	}

	got, err := Run[trainConfig](nil, WithNode(node), WithDefaultDoc(map[string]any{"batch_size": 9999}))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.BatchSize != 9999 {
		t.Fatalf("BatchSize = %d, want 9999", got.BatchSize)
	}

	// A later invocation sharing the node must not see the earlier doc.
	got, err = Run[trainConfig](nil, WithNode(node))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.BatchSize != 1024 {
		t.Errorf("BatchSize = %d, want 1024", got.BatchSize)
	}
}

func TestRun_HelpAndErrors(t *testing.T) {
	if _, err := Run[trainConfig]([]string{"--help"}); !errors.Is(err, argtree.ErrHelp) {
		t.Errorf("Run(--help) error = %v, want ErrHelp", err)
	}

	_, err := Run[trainConfig]([]string{"--nope"})
	var ute *argtree.UnrecognizedTokenError
	if !errors.As(err, &ute) {
		t.Errorf("Run(--nope) error = %v, want UnrecognizedTokenError", err)
	}
}

type stubOptimizer interface {
	stubOptimizer()
}

type adamStub struct {
	Lr float64
}

func (adamStub) stubOptimizer() {}

func TestRun_WithNodeUnwrapsVariant(t *testing.T) {
	adam, err := schema.VariantOf("adam", adamStub{Lr: 3e-4}, "")
	if err != nil {
		t.Fatal(err)
	}
	union, err := schema.UnionOf(adam)
	if err != nil {
		t.Fatal(err)
	}
	union.DefaultVariant = "adam"

	got, err := Run[adamStub]([]string{"--lr", "0.5"}, WithNode(union))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff(adamStub{Lr: 0.5}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
