// Package parser builds page node trees from YAML documents, evaluating
// directives as it descends.
package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/pagewright/internal/page"
	"github.com/cameronsjo/pagewright/internal/sandbox"
	"github.com/cameronsjo/pagewright/internal/site"
)

// Parser turns YAML documents into page nodes. It tracks the directory of
// the file currently being parsed so relative includes resolve, and records
// every file it touches for the rebuild cache. A Parser handles one page at
// a time and is not safe for concurrent use.
type Parser struct {
	sandbox *sandbox.Sandbox
	exec    site.ExecConfig

	// Directory of the file being parsed. !INCLUDE swaps it for the
	// included file's directory so that file's own relative paths
	// resolve against its location.
	dir string

	// Canonical paths of files currently being parsed, for include
	// cycle detection.
	including map[string]bool

	reads  []string
	copied []string
}

// New creates a parser confined to sb. Shell command directives are governed
// by exec.
func New(sb *sandbox.Sandbox, exec site.ExecConfig) *Parser {
	return &Parser{
		sandbox:   sb,
		exec:      exec,
		including: make(map[string]bool),
	}
}

// Reads returns every file the parser opened: the page itself plus anything
// included or copied from.
func (p *Parser) Reads() []string {
	return p.reads
}

// Copied returns the destination paths written by !COPY and !COPY_DIR.
func (p *Parser) Copied() []string {
	return p.copied
}

// ParseFile reads the page at path and applies each of its YAML documents to
// root. The path must be canonical and inside the input root, which is what
// sandbox.ResolveInput returns. An error means the file could not be read or
// is not valid YAML; problems inside individual directives are logged and
// skipped instead.
func (p *Parser) ParseFile(path string, root *page.Node) error {
	if p.including[path] {
		return fmt.Errorf("include cycle at %s", path)
	}
	p.including[path] = true
	defer delete(p.including, path)

	prevDir := p.dir
	p.dir = filepath.Dir(path)
	defer func() { p.dir = prevDir }()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	p.reads = append(p.reads, path)

	return p.Parse(f, path, root)
}

// Parse decodes each YAML document from r and applies it to root. Multiple
// documents accumulate on the same node. name only labels parse errors.
func (p *Parser) Parse(r io.Reader, name string, root *page.Node) error {
	dec := yaml.NewDecoder(r)
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		p.addValue(root, &doc)
	}
}

// addValue applies one YAML value to target: scalars append content,
// sequences and mappings grow the tree, and application tags dispatch to
// directives.
func (p *Parser) addValue(target *page.Node, n *yaml.Node) {
	n = deref(n)
	if n == nil {
		return
	}
	if isDirective(n.Tag) {
		p.evalDirective(target, n)
		return
	}
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			p.addValue(target, c)
		}
	case yaml.ScalarNode:
		if n.Tag == nullTag {
			return
		}
		target.AddContent(ScalarText(n))
	case yaml.SequenceNode:
		p.addSequence(target, n)
	case yaml.MappingNode:
		p.addMapping(target, n)
	}
}

// addSequence flattens each element into its own nameless child, keeping
// document order. Tagged elements dispatch against target itself, and a
// mapping whose keys all resolve to "_"-prefixed names collapses into
// attributes on target instead of becoming a child.
func (p *Parser) addSequence(target *page.Node, seq *yaml.Node) {
	for _, item := range seq.Content {
		item = deref(item)
		if item == nil {
			continue
		}
		if isDirective(item.Tag) {
			p.evalDirective(target, item)
			continue
		}
		if item.Kind == yaml.MappingNode {
			p.addSequenceMapping(target, item)
			continue
		}
		p.addValue(target.NewChild(), item)
	}
}

// addSequenceMapping handles a mapping in sequence position. When every key
// interpolates to a "_"-prefixed name the pairs become attributes of target;
// otherwise the mapping is an ordinary nameless child.
func (p *Parser) addSequenceMapping(target *page.Node, m *yaml.Node) {
	keys := p.renderKeys(target, m)
	attrsOnly := len(keys) > 0
	for _, k := range keys {
		if !strings.HasPrefix(k, "_") {
			attrsOnly = false
			break
		}
	}
	if attrsOnly {
		for i, k := range keys {
			target.AddAttr(strings.TrimPrefix(k, "_"), p.renderValue(target, m.Content[i*2+1]))
		}
		return
	}
	p.applyMapping(target.NewChild(), m, keys)
}

// addMapping turns each key/value pair into a named child of target.
// "_"-prefixed keys become attributes instead.
func (p *Parser) addMapping(target *page.Node, m *yaml.Node) {
	p.applyMapping(target, m, p.renderKeys(target, m))
}

// renderKeys interpolates every mapping key in target's scope.
func (p *Parser) renderKeys(target *page.Node, m *yaml.Node) []string {
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys = append(keys, p.renderValue(target, m.Content[i]))
	}
	return keys
}

// applyMapping adds pre-rendered keys with their values to target.
func (p *Parser) applyMapping(target *page.Node, m *yaml.Node, keys []string) {
	for i, k := range keys {
		v := m.Content[i*2+1]
		if strings.HasPrefix(k, "_") {
			target.AddAttr(strings.TrimPrefix(k, "_"), p.renderValue(target, v))
			continue
		}
		child := target.NewChild()
		child.SetName(k)
		p.addValue(child, v)
	}
}

// renderValue evaluates a YAML value on a scratch child of parent and
// returns its rendering. Directive arguments and mapping keys go through
// here so nested structures and variables resolve in scope without touching
// the tree.
func (p *Parser) renderValue(parent *page.Node, n *yaml.Node) string {
	scratch := parent.NewScratch()
	p.addValue(scratch, n)
	return scratch.HTML()
}

// deref follows alias nodes to their anchor targets.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// isDirective reports whether tag is an application tag like !DEF, as
// opposed to a standard !!str style tag or no tag at all.
func isDirective(tag string) bool {
	return len(tag) > 1 && tag[0] == '!' && tag[1] != '!'
}
