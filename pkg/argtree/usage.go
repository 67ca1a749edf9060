// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argtree

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/typeflag/typeflag/pkg/schema"
)

// Usage renders the usage text for one tree node: its positional arguments,
// its options, and, for a choice point, the available variant names.
func Usage(n Node) string {
	var leaves []*Leaf
	var choices []*Choice
	collectUsage(n, &leaves, &choices)

	width := termWidth()
	var b strings.Builder

	b.WriteString("USAGE:\n")
	b.WriteString("    [OPTIONS]")
	for _, ch := range choices {
		names := make([]string, 0, len(ch.Branches))
		for _, br := range ch.Branches {
			names = append(names, br.Name)
		}
		if ch.Default != "" {
			fmt.Fprintf(&b, " [%s]", strings.Join(names, "|"))
		} else {
			fmt.Fprintf(&b, " <%s>", strings.Join(names, "|"))
		}
	}
	for _, l := range leaves {
		if !l.Positional {
			continue
		}
		name := strings.ToUpper(strings.ReplaceAll(l.Token, ".", "-"))
		switch {
		case l.Arity.Max == -1 && l.Arity.Min > 0:
			fmt.Fprintf(&b, " <%s...>", name)
		case l.Arity.Max == -1:
			fmt.Fprintf(&b, " [%s...]", name)
		case l.Required:
			fmt.Fprintf(&b, " <%s>", name)
		default:
			fmt.Fprintf(&b, " [%s]", name)
		}
	}
	b.WriteString("\n\n")

	if hasPositionals(leaves) {
		b.WriteString("ARGUMENTS:\n")
		for _, l := range leaves {
			if !l.Positional {
				continue
			}
			name := strings.ToUpper(strings.ReplaceAll(l.Token, ".", "-"))
			writeAligned(&b, "    "+name, describeLeaf(l), width)
		}
		b.WriteString("\n")
	}

	if len(choices) > 0 {
		b.WriteString("COMMANDS:\n")
		for _, ch := range choices {
			for _, br := range ch.Branches {
				desc := br.Description
				if br.Name == ch.Default {
					if desc != "" {
						desc += " "
					}
					desc += "(default)"
				}
				writeAligned(&b, fmt.Sprintf("    %-12s", br.Name), desc, width)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("OPTIONS:\n")
	for _, l := range leaves {
		if l.Positional {
			continue
		}
		writeAligned(&b, "    "+flagSyntax(l), describeLeaf(l), width)
	}
	writeAligned(&b, "    -h, --help", "Show this help message", width)
	return b.String()
}

func collectUsage(n Node, leaves *[]*Leaf, choices *[]*Choice) {
	switch x := n.(type) {
	case *Leaf:
		*leaves = append(*leaves, x)
	case *Group:
		for _, c := range x.Children {
			collectUsage(c.Node, leaves, choices)
		}
	case *Choice:
		*choices = append(*choices, x)
	}
}

func hasPositionals(leaves []*Leaf) bool {
	for _, l := range leaves {
		if l.Positional {
			return true
		}
	}
	return false
}

func flagSyntax(l *Leaf) string {
	if l.Negatable {
		return fmt.Sprintf("--%s, --no-%s", l.Token, l.Token)
	}
	switch l.class {
	case literalLeaf:
		return fmt.Sprintf("--%s {%s}", l.Token, strings.Join(l.literals, ","))
	case sequenceLeaf:
		return fmt.Sprintf("--%s %s...", l.Token, strings.ToUpper(l.elemKind.String()))
	case tupleLeaf:
		parts := make([]string, len(l.elems))
		for i, k := range l.elems {
			parts[i] = strings.ToUpper(k.String())
		}
		return fmt.Sprintf("--%s %s", l.Token, strings.Join(parts, " "))
	case mappingLeaf:
		return fmt.Sprintf("--%s KEY=VALUE...", l.Token)
	}
	return fmt.Sprintf("--%s %s", l.Token, strings.ToUpper(l.elemKind.String()))
}

func describeLeaf(l *Leaf) string {
	desc := l.Help
	if def, ok := l.Default(); ok && def != nil {
		if desc != "" {
			desc += " "
		}
		desc += fmt.Sprintf("(default: %s)", schema.FormatScalar(def))
	} else if l.Required {
		if desc != "" {
			desc += " "
		}
		desc += "(required)"
	}
	return desc
}

// writeAligned writes one help row with the description column aligned and
// wrapped to the terminal width.
func writeAligned(b *strings.Builder, left, desc string, width int) {
	if desc == "" {
		b.WriteString(left)
		b.WriteString("\n")
		return
	}
	const col = 28
	pad := col - len(left)
	if pad < 1 {
		pad = 1
	}
	avail := width - col
	if avail < 20 {
		avail = 20
	}
	lines := wrapText(desc, avail)
	fmt.Fprintf(b, "%s%s%s\n", left, strings.Repeat(" ", pad), lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintf(b, "%s%s\n", strings.Repeat(" ", col), line)
	}
}

func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := words[0]
	for _, w := range words[1:] {
		if len(cur)+1+len(w) > width {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur += " " + w
	}
	return append(lines, cur)
}

func termWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
