// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package confload

import (
	"fmt"
	"strings"
)

// Env parses KEY=VALUE lines into a default document. Blank lines and lines
// starting with # are skipped. A double underscore in a key descends into a
// nested mapping, so OPTIMIZER__LR=0.1 sets optimizer.lr. Values stay
// strings; the instantiator converts them against the target field's kind.
func Env(data []byte) (map[string]any, error) {
	doc := map[string]any{}
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing = in %q", i+1, line)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", i+1)
		}
		val = strings.TrimSpace(val)
		if unq, err := unquote(val); err != nil {
			return nil, fmt.Errorf("line %d: %v", i+1, err)
		} else {
			val = unq
		}
		if err := setPath(doc, strings.Split(strings.ToLower(key), "__"), val); err != nil {
			return nil, fmt.Errorf("line %d: %v", i+1, err)
		}
	}
	return doc, nil
}

// EnvFile reads and parses a KEY=VALUE file.
func EnvFile(name string) (map[string]any, error) {
	data, err := readFile(name)
	if err != nil {
		return nil, err
	}
	return Env(data)
}

func unquote(val string) (string, error) {
	if len(val) < 2 {
		return val, nil
	}
	q := val[0]
	if q != '"' && q != '\'' {
		return val, nil
	}
	if val[len(val)-1] != q {
		return "", fmt.Errorf("unterminated quote in %q", val)
	}
	return val[1 : len(val)-1], nil
}

func setPath(doc map[string]any, path []string, val string) error {
	for _, seg := range path[:len(path)-1] {
		next, ok := doc[seg]
		if !ok {
			m := map[string]any{}
			doc[seg] = m
			doc = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("key %s already set to a value", seg)
		}
		doc = m
	}
	last := path[len(path)-1]
	if _, ok := doc[last].(map[string]any); ok {
		return fmt.Errorf("key %s already set to a section", last)
	}
	doc[last] = val
	return nil
}
