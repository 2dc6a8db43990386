package gitinfo_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/pagewright/internal/gitinfo"
)

// initRepo creates a repository with a single commit and returns its hash.
func initRepo(t *testing.T, dir string) string {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.page"), []byte("p: hi"), 0644))
	_, err = wt.Add("index.page")
	require.NoError(t, err)

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.org",
			When:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestVars(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	hash := initRepo(t, dir)

	vars, err := gitinfo.Vars(dir)
	require.NoError(t, err)

	assert.Equal(t, hash, vars[gitinfo.VarCommit])
	assert.Equal(t, hash[:7], vars[gitinfo.VarCommitShort])
	assert.Equal(t, "master", vars[gitinfo.VarBranch])

	_, err = time.Parse(time.RFC3339, vars[gitinfo.VarCommitTime])
	assert.NoError(t, err)
}

func TestVarsFromSubdirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	hash := initRepo(t, dir)

	sub := filepath.Join(dir, "site", "pages")
	require.NoError(t, os.MkdirAll(sub, 0755))

	vars, err := gitinfo.Vars(sub)
	require.NoError(t, err)
	assert.Equal(t, hash, vars[gitinfo.VarCommit])
}

func TestVarsOutsideRepository(t *testing.T) {
	t.Parallel()

	vars, err := gitinfo.Vars(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestVarsEmptyRepository(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	vars, err := gitinfo.Vars(dir)
	require.NoError(t, err)
	assert.Empty(t, vars)
}
