package post

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitStore keeps posts in a git worktree and commits every mutation. The
// version tag is the blob hash of the file's bytes, so the versions handed
// out by Read line up with git's own object ids. A store-level mutex makes
// the compare-and-swap atomic; the repository is the shared resource, not
// in-process state.
type GitStore struct {
	repo   *git.Repository
	wt     *git.Worktree
	fs     billy.Filesystem
	author string
	email  string
	mu     sync.Mutex
}

// NewGitStore opens the content repository at repoPath.
func NewGitStore(repoPath, author, email string) (*GitStore, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open content repository: %w", err)
	}
	return NewGitStoreFromRepo(repo, author, email)
}

// NewGitStoreFromRepo wraps an already-open repository. Used directly by
// tests with an in-memory repo.
func NewGitStoreFromRepo(repo *git.Repository, author, email string) (*GitStore, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	return &GitStore{
		repo:   repo,
		wt:     wt,
		fs:     wt.Filesystem,
		author: author,
		email:  email,
	}, nil
}

func (g *GitStore) Read(ctx context.Context, p string) (*Document, string, error) {
	g.mu.Lock()
	raw, err := g.readRaw(p)
	g.mu.Unlock()
	if err != nil {
		return nil, "", err
	}

	doc, err := Parse(raw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", p, err)
	}

	return doc, BlobHash(raw), nil
}

func (g *GitStore) Write(ctx context.Context, p string, doc *Document, expectedVersion string) (string, error) {
	raw, err := doc.Marshal()
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	current, err := g.readRaw(p)
	switch {
	case expectedVersion == "":
		if err == nil {
			return "", ErrExists
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	case errors.Is(err, ErrNotFound):
		return "", ErrVersionConflict
	case err != nil:
		return "", err
	case BlobHash(current) != expectedVersion:
		return "", ErrVersionConflict
	}

	if dir := path.Dir(p); dir != "." {
		if err := g.fs.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := util.WriteFile(g.fs, p, raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}

	if err := g.commit(p, "[micropub] put "+p); err != nil {
		return "", err
	}

	return BlobHash(raw), nil
}

func (g *GitStore) Delete(ctx context.Context, p string, expectedVersion string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, err := g.readRaw(p)
	if err != nil {
		return err
	}
	if BlobHash(current) != expectedVersion {
		return ErrVersionConflict
	}

	// Worktree.Remove deletes the file and stages the removal.
	if _, err := g.wt.Remove(p); err != nil {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}

	return g.commit("", "[micropub] delete "+p)
}

func (g *GitStore) readRaw(p string) ([]byte, error) {
	raw, err := util.ReadFile(g.fs, p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return raw, nil
}

func (g *GitStore) commit(addPath, message string) error {
	if addPath != "" {
		if _, err := g.wt.Add(addPath); err != nil {
			return fmt.Errorf("failed to stage %s: %w", addPath, err)
		}
	}

	_, err := g.wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  g.author,
			Email: g.email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}
