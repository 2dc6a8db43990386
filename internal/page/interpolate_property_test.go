//go:build property

package page

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// escape quotes s so that interpolation reproduces it verbatim: backslashes
// are doubled and opening braces are escaped.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "{", `\{`)
	return s
}

// TestInterpolateProperties validates invariants of the variable scanner.
func TestInterpolateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234) // For reproducible results
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: text without braces or backslashes passes through untouched.
	properties.Property("plain text is identity", prop.ForAll(
		func(s string) bool {
			if strings.ContainsAny(s, `{\`) {
				return true // Only plain strings are in scope here.
			}
			n := NewRoot()
			return n.Interpolate(s) == s
		},
		gen.AnyString(),
	))

	// Property: escaping any string and interpolating it yields the original.
	properties.Property("escape round-trips", prop.ForAll(
		func(s string) bool {
			n := NewRoot()
			return n.Interpolate(escape(s)) == s
		},
		gen.AnyString(),
	))

	// Property: a defined variable always substitutes its exact value.
	properties.Property("defined variable substitutes", prop.ForAll(
		func(value string) bool {
			n := NewRoot()
			n.SetVar("v", value)
			return n.Interpolate("{v}") == value
		},
		gen.AnyString(),
	))

	// Property: definitions on an ancestor are visible at any depth.
	properties.Property("scope chain depth is transparent", prop.ForAll(
		func(value string, depth int) bool {
			root := NewRoot()
			root.SetVar("v", value)
			n := root
			for i := 0; i < depth; i++ {
				n = n.NewChild()
			}
			return n.Interpolate("{v}") == value
		},
		gen.AnyString(),
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}
