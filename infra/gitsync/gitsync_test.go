package gitsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func initSourceRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "day.json"), []byte(`{"data":[]}`), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("day.json")
	require.NoError(t, err)
	_, err = wt.Commit("add day file", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestCloneAndPull(t *testing.T) {
	src := initSourceRepo(t)
	dst := filepath.Join(t.TempDir(), "mirror")
	g := Git{}

	require.NoError(t, g.Clone(context.Background(), src, dst))
	_, err := os.Stat(filepath.Join(dst, "day.json"))
	require.NoError(t, err)

	// Pulling with nothing new must not fail.
	require.NoError(t, g.Pull(context.Background(), dst))
}

func TestPullMissingDirectory(t *testing.T) {
	g := Git{}
	err := g.Pull(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
