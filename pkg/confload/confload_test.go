// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package confload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestYAML(t *testing.T) {
	doc, err := YAML([]byte(`
batch_size: 2048
log_dir: /tmp/runs
optimizer:
  lr: 0.01
tags:
  - a
  - b
`))
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	want := map[string]any{
		"batch_size": 2048,
		"log_dir":    "/tmp/runs",
		"optimizer":  map[string]any{"lr": 0.01},
		"tags":       []any{"a", "b"},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestYAML_Errors(t *testing.T) {
	if _, err := YAML([]byte("- just\n- a\n- list\n")); err == nil {
		t.Error("YAML() with a top-level list should fail")
	}
	if _, err := YAML([]byte("key: [unclosed")); err == nil {
		t.Error("YAML() with malformed input should fail")
	}
	doc, err := YAML(nil)
	if err != nil {
		t.Fatalf("YAML(nil) error = %v", err)
	}
	if len(doc) != 0 {
		t.Errorf("YAML(nil) = %v, want empty", doc)
	}
}

func TestTOML(t *testing.T) {
	doc, err := TOML([]byte(`
batch_size = 2048

[optimizer]
lr = 0.01
`))
	if err != nil {
		t.Fatalf("TOML() error = %v", err)
	}
	want := map[string]any{
		"batch_size": int64(2048),
		"optimizer":  map[string]any{"lr": 0.01},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEnv(t *testing.T) {
	doc, err := Env([]byte(`
# training defaults
BATCH_SIZE=2048
LOG_DIR="/tmp/my runs"
OPTIMIZER__LR=0.01
OPTIMIZER__MOMENTUM=0.9
`))
	if err != nil {
		t.Fatalf("Env() error = %v", err)
	}
	want := map[string]any{
		"batch_size": "2048",
		"log_dir":    "/tmp/my runs",
		"optimizer": map[string]any{
			"lr":       "0.01",
			"momentum": "0.9",
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing equals", "JUST_A_KEY"},
		{"empty key", "=value"},
		{"unterminated quote", `KEY="oops`},
		{"value then section", "A=1\nA__B=2"},
		{"section then value", "A__B=2\nA=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Env([]byte(tt.in)); err == nil {
				t.Errorf("Env(%q) should fail", tt.in)
			}
		})
	}
}

func TestFileLoaders(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(yamlPath, []byte("batch_size: 1024\n"), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := YAMLFile(yamlPath)
	if err != nil {
		t.Fatalf("YAMLFile() error = %v", err)
	}
	if doc["batch_size"] != 1024 {
		t.Errorf("batch_size = %v, want 1024", doc["batch_size"])
	}

	if _, err := YAMLFile(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("YAMLFile() on a missing file should fail")
	}

	tomlPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(tomlPath, []byte("batch_size = 1024\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := TOMLFile(tomlPath); err != nil {
		t.Errorf("TOMLFile() error = %v", err)
	}

	envPath := filepath.Join(dir, "train.env")
	if err := os.WriteFile(envPath, []byte("BATCH_SIZE=1024\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := EnvFile(envPath); err != nil {
		t.Errorf("EnvFile() error = %v", err)
	}
}
