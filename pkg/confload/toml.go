// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package confload

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// TOML decodes a TOML document into a default document.
func TOML(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	return normalize(m).(map[string]any), nil
}

// TOMLFile reads and decodes a TOML file.
func TOMLFile(name string) (map[string]any, error) {
	data, err := readFile(name)
	if err != nil {
		return nil, err
	}
	return TOML(data)
}
