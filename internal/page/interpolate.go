package page

import (
	"log/slog"
	"strings"
)

// maxDepth caps recursive expansion of nested variable names.
const maxDepth = 64

// Interpolate expands {name} references in s against n's scope chain.
//
// A backslash escapes a following brace, and doubled backslashes collapse to
// one literal backslash. The text between braces is itself interpolated
// before lookup, so a variable's name may be built from other variables; the
// looked-up value is appended as-is, without another pass. A missing
// variable substitutes UNDEFINED with a warning. A reference still open at
// the end of the string logs an error, contributes nothing, and ends the
// scan.
func (n *Node) Interpolate(s string) string {
	return n.interpolate(s, 0)
}

func (n *Node) interpolate(s string, depth int) string {
	if depth > maxDepth {
		slog.Error("variable nesting too deep", "depth", depth, "text", truncate(s, 39))
		return UndefinedValue
	}

	var out strings.Builder
	out.Grow(len(s))

	runes := []rune(s)
	prev := ' '
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '{':
			if prev == '\\' {
				// Escaped brace, add as normal.
				out.WriteRune(c)
				prev = c
				continue
			}
			// Capture the reference, tracking nested braces so inner
			// references do not close it early.
			var name strings.Builder
			braces := 0
			closed := false
			for i++; i < len(runes); i++ {
				c = runes[i]
				switch c {
				case '{':
					braces++
					name.WriteRune(c)
				case '}':
					if braces == 0 {
						closed = true
					} else {
						braces--
						name.WriteRune(c)
					}
				default:
					name.WriteRune(c)
				}
				if closed {
					break
				}
			}
			if !closed {
				slog.Error("unclosed variable reference", "text", truncate(s, 39))
				return out.String()
			}
			resolved := n.interpolate(name.String(), depth+1)
			value, ok := n.Lookup(resolved)
			if !ok {
				slog.Warn("undefined variable", "name", resolved)
				value = UndefinedValue
			}
			out.WriteString(value)
			prev = c
		case '\\':
			if prev == '\\' {
				out.WriteRune(c)
				c = ' '
			}
			prev = c
		default:
			out.WriteRune(c)
			prev = c
		}
	}
	return out.String()
}

// truncate clips s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
