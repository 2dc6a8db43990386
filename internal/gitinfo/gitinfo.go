// Package gitinfo exposes the state of the site's git checkout as page
// variables.
package gitinfo

import (
	"errors"
	"fmt"
	"time"

	git "github.com/go-git/go-git/v5"
)

// Variable names injected into every page of a site under version control.
const (
	VarCommit      = "GIT_COMMIT"
	VarCommitShort = "GIT_COMMIT_SHORT"
	VarBranch      = "GIT_BRANCH"
	VarCommitTime  = "GIT_COMMIT_TIME"
)

// shortLen matches the abbreviated hash length git itself defaults to.
const shortLen = 7

// Vars returns page variables describing the repository containing dir,
// searching upward the way git does. A dir outside any repository yields an
// empty map and no error, so sites need not live in git.
func Vars(dir string) (map[string]string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		// A repository with no commits has no HEAD to describe.
		return map[string]string{}, nil
	}

	hash := head.Hash().String()
	vars := map[string]string{
		VarCommit:      hash,
		VarCommitShort: hash[:shortLen],
	}
	if head.Name().IsBranch() {
		vars[VarBranch] = head.Name().Short()
	}
	if commit, err := repo.CommitObject(head.Hash()); err == nil {
		vars[VarCommitTime] = commit.Committer.When.UTC().Format(time.RFC3339)
	}
	return vars, nil
}
