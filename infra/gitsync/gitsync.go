// Package gitsync mirrors the versioned price dataset, which is published as
// a git repository, into a local directory.
package gitsync

import (
	"context"
	"errors"

	git "github.com/go-git/go-git/v5"
)

// Git implements prices.Syncer using go-git, so no git binary is required.
type Git struct{}

// Clone fetches a fresh copy of the repository into dir.
func (Git) Clone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: url})
	return err
}

// Pull refreshes an existing local copy. Being already up to date is not an
// error.
func (Git) Pull(ctx context.Context, dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	err = wt.PullContext(ctx, &git.PullOptions{})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}
