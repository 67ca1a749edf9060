// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package confload

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAML decodes a YAML document into a default document. The top level must
// be a mapping.
func YAML(data []byte) (map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	m, ok := normalize(doc).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("yaml document is %T, expected a mapping", doc)
	}
	return m, nil
}

// YAMLFile reads and decodes a YAML file.
func YAMLFile(name string) (map[string]any, error) {
	data, err := readFile(name)
	if err != nil {
		return nil, err
	}
	return YAML(data)
}
