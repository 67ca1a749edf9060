// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// ParseScalar converts a raw token into the canonical Go value for the given
// scalar kind: bool, int64, uint64, float64, string, FilePath,
// time.Duration, url.URL, uuid.UUID, or semver.Version.
func ParseScalar(kind ScalarKind, tok string) (any, error) {
	switch kind {
	case Bool:
		v, err := strconv.ParseBool(tok)
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", tok)
		}
		return v, nil
	case Int:
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", tok)
		}
		return v, nil
	case Uint:
		v, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected an unsigned integer, got %q", tok)
		}
		return v, nil
	case Float:
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", tok)
		}
		return v, nil
	case String:
		return tok, nil
	case Path:
		return FilePath(tok), nil
	case Duration:
		v, err := time.ParseDuration(tok)
		if err != nil {
			return nil, fmt.Errorf("expected a duration like 30s or 1h, got %q", tok)
		}
		return v, nil
	case URL:
		u, err := url.Parse(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid URL %q", tok)
		}
		return *u, nil
	case UUID:
		id, err := uuid.Parse(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID %q", tok)
		}
		return id, nil
	case Version:
		v, err := semver.NewVersion(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid semantic version %q", tok)
		}
		return *v, nil
	}
	return nil, fmt.Errorf("no parser for scalar kind %v", kind)
}

// FormatScalar renders a canonical scalar value back into the token that
// would reproduce it, the inverse of ParseScalar.
func FormatScalar(v any) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case time.Duration:
		return x.String()
	case url.URL:
		return x.String()
	case uuid.UUID:
		return x.String()
	case semver.Version:
		return x.String()
	case FilePath:
		return string(x)
	case string:
		return x
	}
	return fmt.Sprintf("%v", v)
}
