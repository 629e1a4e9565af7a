package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	relErrors "github.com/relcut/relcut/internal/errors"
	"github.com/relcut/relcut/internal/logger"
)

// Repo drives git operations against one working tree.
// Every mutating method issues exactly one git command through the
// executor; sequencing and failure policy belong to the pipeline.
type Repo struct {
	// path is the filesystem path of the working tree
	path string

	// remote names the remote release branches are pushed to
	remote string

	// logger handles all output messages with appropriate formatting
	logger logger.Logger

	// executor runs git commands and captures their output
	executor CommandExecutor
}

// New creates a Repo with the default executor.
func New(path, remote string, log logger.Logger) *Repo {
	return NewWithExecutor(path, remote, log, NewExecExecutor())
}

// NewWithExecutor creates a Repo with a custom executor, primarily for tests.
func NewWithExecutor(path, remote string, log logger.Logger, executor CommandExecutor) *Repo {
	return &Repo{
		path:     path,
		remote:   remote,
		logger:   log,
		executor: executor,
	}
}

// Path returns the working tree path.
func (r *Repo) Path() string {
	return r.path
}

// Remote returns the configured remote name.
func (r *Repo) Remote() string {
	return r.remote
}

// IsRepository checks if the given path is a git repository.
// Returns true if it is a repository, false otherwise.
// If path is not a repository due to git exit code 128, returns (false, nil).
// For other errors (git not found, permission issues, etc), returns (false, err).
func IsRepository(path string) (bool, error) {
	cmd := exec.Command("git", "-C", path, "rev-parse", "--is-inside-work-tree")
	executor := NewExecExecutor()
	// Use background context since this is a utility function
	if err := executor.Execute(context.Background(), cmd); err != nil {
		// Exit code 128 is git's generic fatal error code - for this command
		// it typically means the directory is not part of a git repository.
		var execErr *ExecError
		if relErrors.As(err, &execErr) && execErr.ExitCode() == 128 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CurrentBranch returns the name of the checked-out branch.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	output, err := r.runGitWithOutput(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// HasUncommittedChanges returns true if the working tree contains tracked
// or untracked changes that have not been committed yet.
func (r *Repo) HasUncommittedChanges(ctx context.Context) (bool, error) {
	output, err := r.runGitWithOutput(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

// StashPush captures all uncommitted changes, including untracked files,
// into a stash entry with the given label.
func (r *Repo) StashPush(ctx context.Context, label string) error {
	return r.runGit(ctx, "stash", "push", "--include-untracked", "-m", label)
}

// StashPop reapplies the most recent stash entry and drops it.
// A conflicting reapplication returns ErrStashConflict; the working tree is
// left with conflict markers for the operator to resolve.
func (r *Repo) StashPop(ctx context.Context) error {
	err := r.runGit(ctx, "stash", "pop")
	if err == nil {
		return nil
	}

	var execErr *ExecError
	if relErrors.As(err, &execErr) && strings.Contains(strings.ToUpper(execErr.Stderr), "CONFLICT") {
		return relErrors.Wrap(relErrors.ErrStashConflict, execErr.Stderr)
	}
	return err
}

// LocalBranchExists checks if a branch with the given name exists locally.
func (r *Repo) LocalBranchExists(ctx context.Context, name string) (bool, error) {
	_, err := r.runGitWithOutput(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	if err != nil {
		// Command returns non-zero if branch doesn't exist
		return false, nil
	}
	return true, nil
}

// RemoteBranchExists checks if a branch with the given name exists on the
// configured remote.
func (r *Repo) RemoteBranchExists(ctx context.Context, name string) (bool, error) {
	_, err := r.runGitWithOutput(ctx, "ls-remote", "--exit-code", "--heads", r.remote, name)
	if err == nil {
		return true, nil
	}

	// Exit code 2 means the ref was not found; anything else is a real error
	var execErr *ExecError
	if relErrors.As(err, &execErr) && execErr.ExitCode() == 2 {
		return false, nil
	}
	return false, err
}

// Fetch updates the remote-tracking ref for one branch.
func (r *Repo) Fetch(ctx context.Context, branch string) error {
	return r.runGit(ctx, "fetch", r.remote, branch)
}

// Checkout switches the working tree to an existing branch.
func (r *Repo) Checkout(ctx context.Context, branch string) error {
	return r.runGit(ctx, "checkout", branch)
}

// CheckoutNew creates a branch at the current position and switches to it.
func (r *Repo) CheckoutNew(ctx context.Context, branch string) error {
	return r.runGit(ctx, "checkout", "-b", branch)
}

// CheckoutTrack creates a local branch tracking the remote branch of the
// same name and switches to it.
func (r *Repo) CheckoutTrack(ctx context.Context, branch string) error {
	return r.runGit(ctx, "checkout", "-b", branch, r.remote+"/"+branch)
}

// Add stages the given paths.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	return r.runGit(ctx, args...)
}

// HasStagedChanges returns true if the index differs from HEAD.
func (r *Repo) HasStagedChanges(ctx context.Context) (bool, error) {
	err := r.runGit(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}

	// diff --quiet exits 1 when differences exist
	var execErr *ExecError
	if relErrors.As(err, &execErr) && execErr.ExitCode() == 1 {
		return true, nil
	}
	return false, err
}

// Commit creates a commit with the given message from the staged changes.
func (r *Repo) Commit(ctx context.Context, message string) error {
	return r.runGit(ctx, "commit", "-m", message)
}

// HasUpstream reports whether the branch has an upstream tracking ref.
func (r *Repo) HasUpstream(ctx context.Context, branch string) (bool, error) {
	_, err := r.runGitWithOutput(ctx, "rev-parse", "--abbrev-ref", branch+"@{upstream}")
	if err != nil {
		// rev-parse fails when no upstream is configured
		return false, nil
	}
	return true, nil
}

// Push pushes the branch to the configured remote.
func (r *Repo) Push(ctx context.Context, branch string) error {
	return r.runGit(ctx, "push", r.remote, branch)
}

// PushSetUpstream pushes the branch and establishes the upstream
// tracking relationship.
func (r *Repo) PushSetUpstream(ctx context.Context, branch string) error {
	return r.runGit(ctx, "push", "-u", r.remote, branch)
}

// Pull integrates remote changes into the current branch.
func (r *Repo) Pull(ctx context.Context) error {
	return r.runGit(ctx, "pull", r.remote)
}

// ResolveTag returns the commit SHA a tag points to.
func (r *Repo) ResolveTag(ctx context.Context, tag string) (string, error) {
	output, err := r.runGitWithOutput(ctx, "rev-list", "-n", "1", tag)
	if err != nil {
		return "", err
	}

	sha := strings.TrimSpace(output)
	if sha == "" {
		return "", relErrors.NewGitError("rev-list", []string{tag},
			relErrors.Wrap(relErrors.ErrGitOperationFailed, fmt.Sprintf("tag %s resolves to no commit", tag)), "")
	}
	return sha, nil
}

// runGit executes a git command in the repository directory with context.
func (r *Repo) runGit(ctx context.Context, args ...string) error {
	allArgs := append([]string{"-C", r.path}, args...)
	if err := r.executor.ExecuteWithContext(ctx, "git", allArgs...); err != nil {
		return r.wrapGitError(args, err)
	}
	return nil
}

// runGitWithOutput executes a git command and returns its output with context.
func (r *Repo) runGitWithOutput(ctx context.Context, args ...string) (string, error) {
	allArgs := append([]string{"-C", r.path}, args...)
	output, err := r.executor.ExecuteWithContextAndOutput(ctx, "git", allArgs...)
	if err != nil {
		return output, r.wrapGitError(args, err)
	}
	return output, nil
}

// wrapGitError converts an executor failure into a GitError keyed by the
// git subcommand, preserving stderr and exit information.
func (r *Repo) wrapGitError(args []string, err error) error {
	operation := ""
	if len(args) > 0 {
		operation = args[0]
	}

	output := ""
	var execErr *ExecError
	if relErrors.As(err, &execErr) {
		output = execErr.Stderr
	}

	// Keep both the sentinel and the ExecError in the chain so callers can
	// match errors.Is(err, ErrGitOperationFailed) and still read exit codes.
	return relErrors.NewGitError(operation, args,
		relErrors.Errorf("%w: %w", relErrors.ErrGitOperationFailed, err), output)
}
