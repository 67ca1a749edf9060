// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tui colorizes terminal output for help and error rendering.
package tui

import (
	"os"

	"github.com/fatih/color"
)

// Colorizer gates colorized output on NO_COLOR and the terminal type. The
// zero value renders plain text.
type Colorizer struct {
	Enabled bool
}

func NewColorizer(enabled bool) Colorizer {
	if !enabled {
		return Colorizer{}
	}
	if os.Getenv("NO_COLOR") != "" {
		return Colorizer{}
	}
	term := os.Getenv("TERM")
	if term == "" || term == "dumb" {
		return Colorizer{}
	}
	return Colorizer{Enabled: true}
}

func (c Colorizer) wrap(attr color.Attribute, text string) string {
	if !c.Enabled {
		return text
	}
	p := color.New(attr)
	p.EnableColor()
	return p.Sprint(text)
}

// Err renders an error message in red.
func (c Colorizer) Err(text string) string { return c.wrap(color.FgRed, text) }

// Dim renders de-emphasized text, used for follow-up hints.
func (c Colorizer) Dim(text string) string { return c.wrap(color.Faint, text) }
