package parser

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resolved tags assigned by the YAML parser to plain scalars.
const (
	nullTag  = "!!null"
	boolTag  = "!!bool"
	intTag   = "!!int"
	floatTag = "!!float"
)

// maxValueSummary bounds how much of an offending value appears in an error
// log line.
const maxValueSummary = 100

// ScalarText returns the canonical text of a scalar node: booleans and
// numbers in their resolved form, everything else as written.
func ScalarText(n *yaml.Node) string {
	switch n.Tag {
	case boolTag:
		var b bool
		if err := n.Decode(&b); err == nil {
			return strconv.FormatBool(b)
		}
	case intTag:
		var i int64
		if err := n.Decode(&i); err == nil {
			return strconv.FormatInt(i, 10)
		}
	case floatTag:
		var f float64
		if err := n.Decode(&f); err == nil {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	}
	return n.Value
}

// valueSummary renders a YAML value for an error message, truncated to keep
// the log line readable.
func valueSummary(n *yaml.Node) string {
	return truncate(valueString(n), maxValueSummary)
}

// valueString formats a YAML value roughly as it looked in the source:
// sequences as [a,b,], mappings as {"k":"v",}, directive tags ahead of their
// values, nulls as NULL.
func valueString(n *yaml.Node) string {
	n = deref(n)
	if n == nil {
		return ""
	}
	if isDirective(n.Tag) {
		return n.Tag + " " + plainString(n)
	}
	return plainString(n)
}

func plainString(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) > 0 {
			return valueString(n.Content[0])
		}
		return ""
	case yaml.ScalarNode:
		if n.Tag == nullTag {
			return "NULL"
		}
		return ScalarText(n)
	case yaml.SequenceNode:
		var sb strings.Builder
		sb.WriteByte('[')
		for _, c := range n.Content {
			sb.WriteString(valueString(c))
			sb.WriteByte(',')
		}
		sb.WriteByte(']')
		return sb.String()
	case yaml.MappingNode:
		var sb strings.Builder
		sb.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := valueString(n.Content[i])
			v := deref(n.Content[i+1])
			sb.WriteByte('"')
			sb.WriteString(k)
			sb.WriteString(`":`)
			if v != nil && (v.Kind == yaml.SequenceNode || v.Kind == yaml.MappingNode) {
				sb.WriteString(valueString(v))
			} else {
				sb.WriteByte('"')
				sb.WriteString(valueString(v))
				sb.WriteByte('"')
			}
			sb.WriteByte(',')
		}
		sb.WriteByte('}')
		return sb.String()
	}
	return ""
}

// truncate clips s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
