package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

const remoteName = "origin"

type RepoInfo struct {
	Path       string
	Head       string
	Branch     string
	Remote     string
	LastCommit time.Time
}

// Client performs the clone and fetch operations needed to keep a mirror
// current. Depth 0 means full history.
type Client struct {
	Depth int
}

func NewClient() *Client {
	return &Client{Depth: 1}
}

func IsRepo(path string) bool {
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		return false
	}
	_, err := git.PlainOpen(path)
	return err == nil
}

// Clone clones a single branch of url into destPath and returns the checked
// out revision.
func (c *Client) Clone(ctx context.Context, url, destPath, branch string) (string, error) {
	opts := &git.CloneOptions{
		URL:           url,
		RemoteName:    remoteName,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Depth:         c.Depth,
	}

	repo, err := git.PlainCloneContext(ctx, destPath, false, opts)
	if err != nil {
		return "", fmt.Errorf("clone %s: %w", url, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// Update fetches branch from origin and hard-resets the worktree to it when
// the remote moved. It reports the resulting revision and whether it changed.
func (c *Client) Update(ctx context.Context, repoPath, branch string) (string, bool, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", false, fmt.Errorf("open %s: %w", repoPath, err)
	}

	before, err := repo.Head()
	if err != nil {
		return "", false, fmt.Errorf("reading HEAD: %w", err)
	}

	remoteRef := plumbing.NewRemoteReferenceName(remoteName, branch)
	refSpec := config.RefSpec(fmt.Sprintf("+%s:%s", plumbing.NewBranchReferenceName(branch), remoteRef))

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{refSpec},
		Depth:      c.Depth,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", false, fmt.Errorf("fetch %s: %w", branch, err)
	}

	ref, err := repo.Reference(remoteRef, true)
	if err != nil {
		return "", false, fmt.Errorf("resolving %s: %w", remoteRef, err)
	}

	if ref.Hash() == before.Hash() {
		return before.Hash().String(), false, nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", false, fmt.Errorf("worktree: %w", err)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: ref.Hash(), Mode: git.HardReset}); err != nil {
		return "", false, fmt.Errorf("reset to %s: %w", ref.Hash(), err)
	}

	return ref.Hash().String(), true, nil
}

// Head returns the full revision checked out in repoPath.
func (c *Client) Head(repoPath string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", err
	}
	return head.Hash().String(), nil
}

// RemoteHead asks the remote for the current revision of branch without
// touching any local repository.
func (c *Client) RemoteHead(ctx context.Context, url, branch string) (string, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: remoteName,
		URLs: []string{url},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", url, err)
	}

	want := plumbing.NewBranchReferenceName(branch)
	for _, ref := range refs {
		if ref.Name() == want {
			return ref.Hash().String(), nil
		}
	}
	return "", fmt.Errorf("branch %s not found on %s", branch, url)
}

func GetInfo(repoPath string) (*RepoInfo, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, err
	}

	info := &RepoInfo{Path: repoPath}

	head, err := repo.Head()
	if err != nil {
		return nil, err
	}
	info.Head = head.Hash().String()[:7]
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	if remote, err := repo.Remote(remoteName); err == nil && len(remote.Config().URLs) > 0 {
		info.Remote = remote.Config().URLs[0]
	}

	if commit, err := repo.CommitObject(head.Hash()); err == nil {
		info.LastCommit = commit.Committer.When
	}

	return info, nil
}
