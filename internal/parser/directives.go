package parser

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/pagewright/internal/fileutil"
	"github.com/cameronsjo/pagewright/internal/page"
)

// evalDirective dispatches a tagged value to its directive. Unknown tags log
// a warning and are skipped.
func (p *Parser) evalDirective(target *page.Node, n *yaml.Node) {
	switch n.Tag {
	case "!DEF":
		p.def(target, n)
	case "!IF":
		p.ifElse(target, n)
	case "!FOREACH":
		p.forEach(target, n)
	case "!INCLUDE":
		p.include(target, n)
	case "!INCLUDE_RAW":
		p.includeRaw(target, n)
	case "!COPY":
		p.copyFile(target, n)
	case "!COPY_DIR":
		p.copyDir(target, n)
	case "!SHELL_CMD":
		p.shellCommand(target, n)
	default:
		slog.Warn("no matching directive", "tag", n.Tag)
	}
}

// def registers a variable on target, visible to target and its descendants.
//
//	!DEF [name, value]
func (p *Parser) def(target *page.Node, n *yaml.Node) {
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		slog.Error("invalid !DEF arguments", "got", valueSummary(n))
		return
	}
	name := p.renderValue(target, n.Content[0])
	value := p.renderValue(target, n.Content[1])
	slog.Debug("registering variable", "name", name)
	target.SetVar(name, value)
}

// ifElse appends the then branch when the condition renders to a non-empty
// string, the else branch (when present) otherwise.
//
//	!IF [condition, then, else?]
func (p *Parser) ifElse(target *page.Node, n *yaml.Node) {
	if n.Kind != yaml.SequenceNode || len(n.Content) < 2 || len(n.Content) > 3 {
		slog.Error("invalid !IF arguments", "got", valueSummary(n))
		return
	}
	if p.renderValue(target, n.Content[0]) != "" {
		p.addValue(target, n.Content[1])
	} else if len(n.Content) == 3 {
		p.addValue(target, n.Content[2])
	}
}

// forEach stamps out a template once per row. Each row gets a fresh nameless
// child with the row's values bound to the key names, so bindings never leak
// between iterations.
//
//	!FOREACH [[key, ...], template, [value, ...], ...]
//
// Every row must be a sequence with exactly one value per key; a single bad
// row invalidates the whole directive before any child is created.
func (p *Parser) forEach(target *page.Node, n *yaml.Node) {
	if n.Kind != yaml.SequenceNode || len(n.Content) < 3 {
		slog.Error("invalid !FOREACH arguments", "got", valueSummary(n))
		return
	}
	keysNode := deref(n.Content[0])
	if keysNode == nil || keysNode.Kind != yaml.SequenceNode {
		slog.Error("invalid !FOREACH arguments", "got", valueSummary(n))
		return
	}
	rows := n.Content[2:]
	for _, row := range rows {
		r := deref(row)
		if r == nil || r.Kind != yaml.SequenceNode || len(r.Content) != len(keysNode.Content) {
			slog.Error("invalid !FOREACH row", "got", valueSummary(n))
			return
		}
	}

	keys := make([]string, len(keysNode.Content))
	for i, k := range keysNode.Content {
		keys[i] = p.renderValue(target, k)
	}
	template := n.Content[1]
	for _, row := range rows {
		child := target.NewChild()
		for i, v := range deref(row).Content {
			child.SetVar(keys[i], p.renderValue(child, v))
		}
		p.addValue(child, template)
	}
}

// include parses another page file into a new child of target. The child
// only joins the tree if the whole file parses, so a broken include leaves
// the document untouched. Relative paths inside the included file resolve
// against its own directory.
//
//	!INCLUDE path
func (p *Parser) include(target *page.Node, n *yaml.Node) {
	path, ok := p.directivePath(target, n, "!INCLUDE")
	if !ok {
		return
	}
	child := target.NewScratch()
	if err := p.ParseFile(path, child); err != nil {
		slog.Error("include failed", "path", path, "err", err)
		return
	}
	target.Adopt(child)
}

// includeRaw inserts a file's bytes verbatim as a new child, with no parsing
// and no interpolation.
//
//	!INCLUDE_RAW path
func (p *Parser) includeRaw(target *page.Node, n *yaml.Node) {
	path, ok := p.directivePath(target, n, "!INCLUDE_RAW")
	if !ok {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("include failed", "path", path, "err", err)
		return
	}
	p.reads = append(p.reads, path)
	target.NewChild().AddRawContent(string(data))
}

// copyFile copies a source file to the mirrored location under the output
// root, preserving its path relative to the input root.
//
//	!COPY path
func (p *Parser) copyFile(target *page.Node, n *yaml.Node) {
	src, ok := p.directivePath(target, n, "!COPY")
	if !ok {
		return
	}
	dst, err := p.sandbox.OutputFor(src)
	if err != nil {
		slog.Error("!COPY rejected", "path", src, "err", err)
		return
	}
	if err := fileutil.CopyFile(src, dst); err != nil {
		slog.Error("copy failed", "src", src, "dst", dst, "err", err)
		return
	}
	p.reads = append(p.reads, src)
	p.copied = append(p.copied, dst)
	slog.Debug("copied file", "src", src, "dst", dst)
}

// copyDir recursively copies a source directory to the mirrored location
// under the output root.
//
//	!COPY_DIR path
func (p *Parser) copyDir(target *page.Node, n *yaml.Node) {
	src, ok := p.directivePath(target, n, "!COPY_DIR")
	if !ok {
		return
	}
	dst, err := p.sandbox.OutputFor(src)
	if err != nil {
		slog.Error("!COPY_DIR rejected", "path", src, "err", err)
		return
	}
	files, err := fileutil.CopyDir(src, dst)
	if err != nil {
		slog.Error("copy failed", "src", src, "dst", dst, "err", err)
		return
	}
	for _, rel := range files {
		p.reads = append(p.reads, filepath.Join(src, rel))
		p.copied = append(p.copied, filepath.Join(dst, rel))
	}
	slog.Debug("copied directory", "src", src, "dst", dst, "files", len(files))
}

// shellCommand runs a program and inserts its stdout verbatim as a new
// child.
//
//	!SHELL_CMD command
//
// The command line is interpolated, then split on whitespace and run
// directly from the input root: no shell, no globbing, no redirection.
// Nothing runs unless exec.enabled is set in pagewright.yaml and the program
// name is allowlisted there.
func (p *Parser) shellCommand(target *page.Node, n *yaml.Node) {
	if n.Kind != yaml.ScalarNode {
		slog.Error("invalid !SHELL_CMD arguments", "got", valueSummary(n))
		return
	}
	argv := strings.Fields(target.Interpolate(ScalarText(n)))
	if len(argv) == 0 {
		slog.Error("invalid !SHELL_CMD arguments", "got", valueSummary(n))
		return
	}
	if !p.exec.Enabled {
		slog.Error("shell commands are disabled, enable exec in pagewright.yaml", "command", argv[0])
		return
	}
	if !p.exec.Allows(argv[0]) {
		slog.Error("command is not allowlisted", "command", argv[0])
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.exec.Timeout())
	defer cancel()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = p.sandbox.InputRoot()
	out, err := cmd.Output()
	if err != nil {
		slog.Error("command failed", "command", strings.Join(argv, " "), "err", err)
		return
	}
	target.NewChild().AddRawContent(string(out))
}

// directivePath renders a directive's single path argument and resolves it
// inside the input root. Reports ok=false, after logging, when the argument
// has the wrong shape or the path is missing or escapes the root.
func (p *Parser) directivePath(target *page.Node, n *yaml.Node, tag string) (string, bool) {
	if n.Kind != yaml.ScalarNode {
		slog.Error("invalid path argument", "tag", tag, "got", valueSummary(n))
		return "", false
	}
	ref := target.Interpolate(ScalarText(n))
	if ref == "" {
		slog.Error("invalid path argument", "tag", tag, "got", valueSummary(n))
		return "", false
	}
	resolved, err := p.sandbox.ResolveInput(p.dir, ref)
	if err != nil {
		slog.Error("path rejected", "tag", tag, "path", ref, "err", err)
		return "", false
	}
	return resolved, true
}
