// Package repo wraps the version-control operations a lit repository
// needs: initializing and opening the working tree, staging and
// committing generated output, and inspecting history. Every call
// re-opens the repository at dir; no handle is held across calls.
package repo

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Author identifies who made a commit.
type Author struct {
	Name  string
	Email string
	When  time.Time
}

// CommitInfo is one committed revision, with enough metadata for `lit log`
// and generation-record cross-referencing.
type CommitInfo struct {
	Hash      string
	ShortHash string
	Author    Author
	Message   string
	Parents   []string
}

// FileStatus is one path's working-tree state relative to the index and
// HEAD, rendered for human display.
type FileStatus struct {
	Path     string
	Staging  string
	Worktree string
}

// Init creates a new repository at dir, which must already exist.
func Init(dir string) error {
	if _, err := git.PlainInit(dir, false); err != nil {
		return fmt.Errorf("failed to initialize repository at %s: %w", dir, err)
	}
	return nil
}

// Open opens the repository rooted at dir.
func Open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("not a git repository at %s: %w", dir, err)
	}
	return repo, nil
}

// StageAll stages every tracked and untracked change under dir,
// honoring .gitignore.
func StageAll(dir string) error {
	repo, err := Open(dir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree at %s: %w", dir, err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes in %s: %w", dir, err)
	}
	return nil
}

// HasChanges reports whether the working tree at dir has any staged or
// unstaged changes relative to HEAD.
func HasChanges(dir string) (bool, error) {
	repo, err := Open(dir)
	if err != nil {
		return false, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to open worktree at %s: %w", dir, err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("failed to compute status in %s: %w", dir, err)
	}
	return !status.IsClean(), nil
}

// Commit stages nothing itself (call StageAll first); it commits
// whatever is currently in the index under message, authored and
// committed by author, and returns the resulting commit hash.
func Commit(dir, message string, author Author) (string, error) {
	repo, err := Open(dir)
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree at %s: %w", dir, err)
	}
	sig := &object.Signature{Name: author.Name, Email: author.Email, When: author.When}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return "", fmt.Errorf("failed to commit in %s: %w", dir, err)
	}
	return hash.String(), nil
}

// HeadCommit returns the commit at HEAD, or nil if the repository has
// no commits yet.
func HeadCommit(dir string) (*CommitInfo, error) {
	repo, err := Open(dir)
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve HEAD in %s: %w", dir, err)
	}
	obj, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD commit in %s: %w", dir, err)
	}
	return toCommit(obj), nil
}

// Log returns up to maxCount commits reachable from HEAD, most recent
// first. maxCount <= 0 means unbounded.
func Log(dir string, maxCount int) ([]CommitInfo, error) {
	repo, err := Open(dir)
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve HEAD in %s: %w", dir, err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history in %s: %w", dir, err)
	}

	var commits []CommitInfo
	err = iter.ForEach(func(c *object.Commit) error {
		if maxCount > 0 && len(commits) >= maxCount {
			return errStopIteration
		}
		commits = append(commits, *toCommit(c))
		return nil
	})
	if err != nil && err != errStopIteration {
		return nil, fmt.Errorf("failed to iterate history in %s: %w", dir, err)
	}
	return commits, nil
}

// errStopIteration stops an object.CommitIter early once maxCount is
// reached; it never escapes Log.
var errStopIteration = fmt.Errorf("stop iteration")

func toCommit(c *object.Commit) *CommitInfo {
	parents := make([]string, 0, c.NumParents())
	c.Parents().ForEach(func(p *object.Commit) error {
		parents = append(parents, p.Hash.String())
		return nil
	})
	hash := c.Hash.String()
	short := hash
	if len(short) > 8 {
		short = short[:8]
	}
	return &CommitInfo{
		Hash:      hash,
		ShortHash: short,
		Author:    Author{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Message:   strings.TrimRight(c.Message, "\n"),
		Parents:   parents,
	}
}

// Status reports the working-tree state of every path that differs
// from HEAD or the index, sorted by path.
func Status(dir string) ([]FileStatus, error) {
	repo, err := Open(dir)
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree at %s: %w", dir, err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to compute status in %s: %w", dir, err)
	}

	var paths []string
	for p := range status {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]FileStatus, 0, len(paths))
	for _, p := range paths {
		fs := status[p]
		out = append(out, FileStatus{
			Path:     p,
			Staging:  statusCodeString(fs.Staging),
			Worktree: statusCodeString(fs.Worktree),
		})
	}
	return out, nil
}

func statusCodeString(c git.StatusCode) string {
	switch c {
	case git.Unmodified:
		return "unmodified"
	case git.Untracked:
		return "untracked"
	case git.Modified:
		return "modified"
	case git.Added:
		return "added"
	case git.Deleted:
		return "deleted"
	case git.Renamed:
		return "renamed"
	case git.Copied:
		return "copied"
	case git.UpdatedButUnmerged:
		return "conflicted"
	default:
		return "unknown"
	}
}

// Diff renders a unified-style diff between the working tree and HEAD
// for every path that differs from HEAD or the index, untracked files
// included, using diffmatchpatch's line-mode
// diff (the same engine internal/patch uses for reconciliation).
func Diff(dir string) (string, error) {
	repo, err := Open(dir)
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree at %s: %w", dir, err)
	}
	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("failed to compute status in %s: %w", dir, err)
	}

	head, err := repo.Head()
	var tree *object.Tree
	if err == nil {
		commit, cerr := repo.CommitObject(head.Hash())
		if cerr != nil {
			return "", fmt.Errorf("failed to load HEAD commit in %s: %w", dir, cerr)
		}
		tree, err = commit.Tree()
		if err != nil {
			return "", fmt.Errorf("failed to load HEAD tree in %s: %w", dir, err)
		}
	} else if err != plumbing.ErrReferenceNotFound {
		return "", fmt.Errorf("failed to resolve HEAD in %s: %w", dir, err)
	}

	var paths []string
	for p, fs := range status {
		if fs.Worktree == git.Unmodified && fs.Staging == git.Unmodified {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, p := range paths {
		oldContent := ""
		if tree != nil {
			if f, err := tree.File(p); err == nil {
				oldContent, _ = f.Contents()
			}
		}
		newBytes, err := os.ReadFile(filepath.Join(dir, p))
		newContent := ""
		if err == nil {
			newContent = string(newBytes)
		}
		if oldContent == newContent {
			continue
		}
		fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", p, p)
		sb.WriteString(unifiedLineDiff(oldContent, newContent))
	}
	return sb.String(), nil
}

func unifiedLineDiff(old, new string) string {
	dmp := diffmatchpatch.New()
	aChars, bChars, lineArray := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(aChars, bChars, false), lineArray)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			prefix = " "
		}
		text := strings.TrimSuffix(d.Text, "\n")
		if text == "" {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Checkout switches the working tree at dir to ref, which may be a
// branch name or a commit hash.
func Checkout(dir, ref string) error {
	repo, err := Open(dir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree at %s: %w", dir, err)
	}

	opts := &git.CheckoutOptions{}
	if len(ref) == 40 && isHex(ref) {
		opts.Hash = plumbing.NewHash(ref)
	} else {
		opts.Branch = plumbing.NewBranchReferenceName(ref)
	}
	if err := wt.Checkout(opts); err != nil {
		return fmt.Errorf("failed to checkout %s in %s: %w", ref, dir, err)
	}
	return nil
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// WriteGitignore writes or overwrites .gitignore at the root of dir
// with patterns, one per line.
func WriteGitignore(dir string, patterns []string) error {
	dest := filepath.Join(dir, ".gitignore")
	content := strings.Join(patterns, "\n") + "\n"
	if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write .gitignore in %s: %w", dir, err)
	}
	return nil
}

// Push runs `git push` in dir via the host git binary, avoiding a
// from-scratch reimplementation of credential and transport handling.
func Push(dir string, args ...string) error {
	return runGit(dir, append([]string{"push"}, args...)...)
}

// Pull runs `git pull` in dir via the host git binary.
func Pull(dir string, args ...string) error {
	return runGit(dir, append([]string{"pull"}, args...)...)
}

// Clone runs `git clone` via the host git binary.
func Clone(url, dest string, args ...string) error {
	cmdArgs := append([]string{"clone", url, dest}, args...)
	cmd := exec.Command("git", cmdArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git clone failed: %w", err)
	}
	return nil
}

func runGit(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return nil
}
