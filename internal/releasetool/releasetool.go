// Package releasetool invokes the external release automation tool that
// generates release pull requests and tagged releases.
//
// The tool is reachable through three equivalent entry points, tried in a
// fixed preference order: a direct binary on PATH, the package manager's
// one-shot runner, and the dependency manager's runner. The first available
// entry point wins; if none is available the pipeline aborts before any
// remote mutation.
package releasetool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	relErrors "github.com/relcut/relcut/internal/errors"
	"github.com/relcut/relcut/internal/git"
	"github.com/relcut/relcut/internal/logger"
)

// Invocation is one way of launching the release tool.
type Invocation struct {
	// Name is the executable looked up on PATH
	Name string

	// Prefix holds arguments inserted before the tool's own subcommand
	Prefix []string
}

// String renders the invocation the way an operator would type it.
func (i Invocation) String() string {
	if len(i.Prefix) == 0 {
		return i.Name
	}
	return fmt.Sprintf("%s %s", i.Name, strings.Join(i.Prefix, " "))
}

// entryPoints is the fixed preference order for reaching the tool:
// direct invocation, package-manager invocation, dependency-manager
// invocation.
var entryPoints = []Invocation{
	{Name: "release-please"},
	{Name: "npx", Prefix: []string{"--yes", "release-please"}},
	{Name: "bunx", Prefix: []string{"release-please"}},
}

// Resolve returns the first available entry point. lookPath is injected so
// tests can control availability; production callers pass exec.LookPath.
func Resolve(lookPath func(string) (string, error)) (Invocation, error) {
	for _, candidate := range entryPoints {
		if _, err := lookPath(candidate.Name); err == nil {
			return candidate, nil
		}
	}

	names := make([]string, len(entryPoints))
	for i, candidate := range entryPoints {
		names[i] = candidate.String()
	}
	return Invocation{}, relErrors.Wrapf(relErrors.ErrToolUnavailable,
		"none of the release tool entry points are installed (tried: %s)", strings.Join(names, ", "))
}

// Tool runs release tool subcommands against one repository.
type Tool struct {
	invocation Invocation
	repoPath   string
	repoURL    string
	token      string
	logger     logger.Logger
	executor   git.CommandExecutor
}

// New creates a Tool bound to a resolved invocation.
func New(invocation Invocation, repoPath, repoURL, token string, log logger.Logger) *Tool {
	return NewWithExecutor(invocation, repoPath, repoURL, token, log, git.NewExecExecutor())
}

// NewWithExecutor creates a Tool with a custom executor, primarily for tests.
func NewWithExecutor(invocation Invocation, repoPath, repoURL, token string, log logger.Logger, executor git.CommandExecutor) *Tool {
	return &Tool{
		invocation: invocation,
		repoPath:   repoPath,
		repoURL:    repoURL,
		token:      token,
		logger:     log,
		executor:   executor,
	}
}

// ReleasePR requests creation of a release pull request targeting branch.
func (t *Tool) ReleasePR(ctx context.Context, branch string) error {
	return t.run(ctx, "release-pr", branch)
}

// GitHubRelease requests creation of the hosted release and tag for branch.
func (t *Tool) GitHubRelease(ctx context.Context, branch string) error {
	return t.run(ctx, "github-release", branch)
}

// run invokes one tool subcommand parameterized by repository URL, access
// token, and target branch.
func (t *Tool) run(ctx context.Context, subcommand, branch string) error {
	args := append([]string{}, t.invocation.Prefix...)
	args = append(args, subcommand,
		"--repo-url", t.repoURL,
		"--token", t.token,
		"--target-branch", branch)

	cmd := exec.CommandContext(ctx, t.invocation.Name, args...)
	cmd.Dir = t.repoPath
	cmd.Env = os.Environ()

	t.logger.Info("invoking %s %s against %s", t.invocation.String(), subcommand, branch)
	if err := t.executor.Execute(ctx, cmd); err != nil {
		output := ""
		var execErr *git.ExecError
		if relErrors.As(err, &execErr) {
			output = execErr.Stderr
		}
		return relErrors.NewHubError(fmt.Sprintf("%s %s", t.invocation.String(), subcommand), args, err, output)
	}
	return nil
}
