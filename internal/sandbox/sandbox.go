// Package sandbox confines template file access to the project roots.
//
// Directives like !INCLUDE and !COPY take user-supplied paths. The sandbox
// resolves them against the input root and rejects anything that escapes it,
// including escapes through symlinks. Output paths are mirrored lexically
// under the output root.
package sandbox

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Sandbox validates paths referenced by templates and maps input paths to
// their mirrored locations under the output root.
type Sandbox struct {
	inputRoot  string
	outputRoot string
}

// New canonicalizes both roots and returns a sandbox. Both directories must
// exist, and the roots must be distinct.
func New(inputRoot, outputRoot string) (*Sandbox, error) {
	in, err := canonicalize(inputRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve input root: %w", err)
	}
	out, err := canonicalize(outputRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve output root: %w", err)
	}
	if in == out {
		return nil, errors.New("input and output roots are the same directory")
	}
	return &Sandbox{inputRoot: in, outputRoot: out}, nil
}

// InputRoot returns the canonical input root.
func (s *Sandbox) InputRoot() string {
	return s.inputRoot
}

// OutputRoot returns the canonical output root.
func (s *Sandbox) OutputRoot() string {
	return s.outputRoot
}

// ResolveInput resolves ref relative to base, a directory inside the input
// root. A ref starting with the path separator is rooted at the input root
// instead. An empty base falls back to the input root. The result is
// canonicalized, so it must exist, and a result outside the input root is an
// error even when reached through a symlink.
func (s *Sandbox) ResolveInput(base, ref string) (string, error) {
	var candidate string
	switch {
	case filepath.IsAbs(ref):
		candidate = filepath.Join(s.inputRoot, ref)
	case base != "":
		candidate = filepath.Join(base, ref)
	default:
		candidate = filepath.Join(s.inputRoot, ref)
	}

	resolved, err := canonicalize(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", ref, err)
	}
	if !within(s.inputRoot, resolved) {
		return "", fmt.Errorf("%s escapes the input root", ref)
	}
	return resolved, nil
}

// OutputFor maps a canonical input path to its mirror under the output root.
// The destination need not exist, but it must stay a lexical descendant of
// the output root.
func (s *Sandbox) OutputFor(inputPath string) (string, error) {
	rel, err := filepath.Rel(s.inputRoot, inputPath)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", inputPath, err)
	}
	dest := filepath.Join(s.outputRoot, rel)
	if !within(s.outputRoot, dest) {
		return "", fmt.Errorf("%s is outside the input root", inputPath)
	}
	return dest, nil
}

// canonicalize makes path absolute and resolves symlinks.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// within reports whether path is root itself or a descendant of root. Both
// arguments must already be absolute and clean.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
