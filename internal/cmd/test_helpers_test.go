package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/pagewright/internal/scaffold"
)

// resetFlags restores every flag variable to its default so cobra state
// doesn't leak between tests.
func resetFlags(t *testing.T) {
	t.Helper()
	verbose, debug, quiet, silent = false, false, false, false
	inputOverride, outputOverride = "", ""
	strictBuild = false
	jobsOverride = 0
	defines = nil
	serveAddr = ""
	checkOnly = false
	newKind = scaffold.KindPage
	initTemplate = ""
}

// executeCmd executes the root command with the given args and returns the output.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	buf := new(bytes.Buffer)
	// Important: Set args BEFORE setting output buffers
	rootCmd.SetArgs(args)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	err := rootCmd.Execute()
	return buf.String(), err
}

// mustWrite writes a file, creating parent directories as needed.
func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeProject lays out a minimal project and returns its root.
func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "pagewright.yaml"), "input: site\noutput: public\n")
	mustWrite(t, filepath.Join(root, "site", "index.page"), "h1: Welcome\n")
	return root
}
