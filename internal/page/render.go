package page

import "strings"

// HTML resolves the node and all its descendants into text.
//
// Four cases drive the output:
//   - no name, no content or children: empty
//   - no name, content or children: content, then each child (attributes ignored)
//   - name, no content or children: <name attrs/>
//   - name, content or children: <name attrs>content children</name>
//
// Content always renders before children, regardless of the order in which
// the document added them.
func (n *Node) HTML() string {
	var sb strings.Builder
	n.render(&sb)
	return sb.String()
}

func (n *Node) render(sb *strings.Builder) {
	hasBody := len(n.content) > 0 || len(n.children) > 0
	switch {
	case n.name == "":
		sb.WriteString(n.content)
		for _, c := range n.children {
			c.render(sb)
		}
	case !hasBody:
		sb.WriteByte('<')
		sb.WriteString(n.name)
		writeAttrs(sb, n.attrs)
		sb.WriteString("/>")
	default:
		sb.WriteByte('<')
		sb.WriteString(n.name)
		writeAttrs(sb, n.attrs)
		sb.WriteByte('>')
		sb.WriteString(n.content)
		for _, c := range n.children {
			c.render(sb)
		}
		sb.WriteString("</")
		sb.WriteString(n.name)
		sb.WriteByte('>')
	}
}

// writeAttrs renders attributes as ` key="value"` in insertion order. Values
// are written verbatim.
func writeAttrs(sb *strings.Builder, attrs []Attr) {
	for _, a := range attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Name)
		sb.WriteString(`="`)
		sb.WriteString(a.Value)
		sb.WriteByte('"')
	}
}
