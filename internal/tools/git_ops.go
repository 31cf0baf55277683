package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/lbaylis/hearth/internal/pathjail"
	"github.com/lbaylis/hearth/internal/registry"
)

const logLimit = 20

// GitRequest performs one operation on a repository inside the workspace.
type GitRequest struct {
	Op string `mapstructure:"op"`
	// Path is the repository directory relative to the workspace root;
	// empty means the root itself.
	Path string `mapstructure:"path"`
	// Message is the commit message for op=commit.
	Message string `mapstructure:"message"`
}

func (r GitRequest) Validate() error {
	switch r.Op {
	case "status", "diff", "log":
	case "commit":
		if strings.TrimSpace(r.Message) == "" {
			return fmt.Errorf("commit requires a message")
		}
	default:
		return fmt.Errorf("op must be one of status, diff, log, commit")
	}
	return nil
}

// NewGitOps returns the git_ops tool. Write tier (commit mutates; the rest
// are reads, but the tool is tiered by its most powerful operation).
func NewGitOps(jail *pathjail.Jail) registry.Tool {
	params := &registry.Schema{
		Type: "object",
		Properties: map[string]*registry.Schema{
			"op":      {Type: "string", Enum: []string{"status", "diff", "log", "commit"}},
			"path":    {Type: "string", Description: "Repository directory relative to the workspace root"},
			"message": {Type: "string", Description: "Commit message, required for op=commit"},
		},
		Required: []string{"op"},
	}
	return NewAdapter("git_ops", "Inspect or commit to a git repository in the workspace",
		params, func(_ context.Context, req GitRequest) (string, error) {
			target := req.Path
			if target == "" {
				target = "."
			}
			abs, _, err := jail.Resolve(target)
			if err != nil {
				return "", err
			}
			repo, err := git.PlainOpen(abs)
			if err != nil {
				return "", fmt.Errorf("open repository %s: %w", target, err)
			}

			switch req.Op {
			case "status":
				return gitStatus(repo)
			case "diff":
				return gitDiff(repo)
			case "log":
				return gitLog(repo)
			case "commit":
				return gitCommit(repo, req.Message)
			}
			return "", fmt.Errorf("unreachable op %q", req.Op)
		})
}

func gitStatus(repo *git.Repository) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		return "clean", nil
	}
	var lines []string
	for path, st := range status {
		lines = append(lines, fmt.Sprintf("%c%c %s", st.Staging, st.Worktree, path))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

// gitDiff renders the patch introduced by HEAD relative to its first parent.
func gitDiff(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", err
	}
	parent, err := commit.Parent(0)
	if errors.Is(err, object.ErrParentNotFound) {
		return "(initial commit, no parent to diff against)", nil
	}
	if err != nil {
		return "", err
	}
	patch, err := parent.Patch(commit)
	if err != nil {
		return "", fmt.Errorf("compute patch: %w", err)
	}
	return patch.String(), nil
}

func gitLog(repo *git.Repository) (string, error) {
	iter, err := repo.Log(&git.LogOptions{})
	if err != nil {
		return "", fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	var lines []string
	for len(lines) < logLimit {
		commit, err := iter.Next()
		if err != nil {
			break
		}
		subject, _, _ := strings.Cut(commit.Message, "\n")
		lines = append(lines, fmt.Sprintf("%s %s (%s)", commit.Hash.String()[:8], subject, commit.Author.Name))
	}
	if len(lines) == 0 {
		return "(no commits)", nil
	}
	return strings.Join(lines, "\n"), nil
}

func gitCommit(repo *git.Repository, message string) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("stage changes: %w", err)
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "hearth-agent",
			Email: "agent@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return "committed " + hash.String()[:8], nil
}
