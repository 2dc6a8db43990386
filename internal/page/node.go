// Package page implements the document tree that renders to HTML.
//
// A tree is built from YAML documents by the parser package. Each node is an
// HTML element, a text run, or a virtual grouping node, and carries its own
// variable scope. Lookups walk the parent chain, so a node sees everything
// its ancestors define unless a nearer definition shadows the name.
package page

// UndefinedValue is substituted when a variable reference cannot be resolved
// anywhere in the scope chain.
const UndefinedValue = "UNDEFINED"

// Attr is one rendered HTML attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the document tree. A node with a name renders as an
// HTML tag; a nameless node contributes only its content and children.
type Node struct {
	name     string
	content  string
	attrs    []Attr
	vars     map[string]string
	parent   *Node
	children []*Node
}

// NewRoot creates a detached, empty node to build a document under.
func NewRoot() *Node {
	return &Node{}
}

// NewChild appends an empty child to n and returns it.
func (n *Node) NewChild() *Node {
	child := &Node{parent: n}
	n.children = append(n.children, child)
	return child
}

// NewScratch creates a node parented to n for scope lookups without
// appending it to n's children. Directive arguments are evaluated on scratch
// nodes so their rendering can be captured as a string.
func (n *Node) NewScratch() *Node {
	return &Node{parent: n}
}

// Adopt appends a node created with NewScratch to n's children. Lets a
// caller build a subtree that only joins the document once it is known to be
// good.
func (n *Node) Adopt(child *Node) {
	n.children = append(n.children, child)
}

// Name returns the tag name; empty for content and virtual nodes.
func (n *Node) Name() string {
	return n.name
}

// SetName sets the tag name. The caller is expected to have interpolated it
// already.
func (n *Node) SetName(name string) {
	n.name = name
}

// Content returns the accumulated text content.
func (n *Node) Content() string {
	return n.content
}

// AddContent interpolates s in n's scope and appends it to the content.
func (n *Node) AddContent(s string) {
	n.content += n.Interpolate(s)
}

// AddRawContent appends s without interpolation. Used for !INCLUDE_RAW and
// captured command output.
func (n *Node) AddRawContent(s string) {
	n.content += s
}

// AddAttr appends an attribute. Duplicate names are kept, not merged.
func (n *Node) AddAttr(name, value string) {
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
}

// Attrs returns the attributes in insertion order.
func (n *Node) Attrs() []Attr {
	return n.attrs
}

// Parent returns the enclosing node, or nil at the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the child nodes in document order.
func (n *Node) Children() []*Node {
	return n.children
}

// SetVar binds a variable in n's scope. The value is stored as given: the
// defining directive has already interpolated key and value exactly once, and
// lookups do not interpolate again.
func (n *Node) SetVar(name, value string) {
	if n.vars == nil {
		n.vars = make(map[string]string)
	}
	n.vars[name] = value
}

// Lookup resolves a variable by searching n's scope and then each ancestor's
// in turn. The nearest definition wins.
func (n *Node) Lookup(name string) (string, bool) {
	for cur := n; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return "", false
}
