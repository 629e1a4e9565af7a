package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	relErrors "github.com/relcut/relcut/internal/errors"
	"github.com/relcut/relcut/internal/git"
	"github.com/relcut/relcut/internal/logger"
)

// cliName is the code-hosting CLI relcut drives for pull-request, release,
// and workflow-run operations.
const cliName = "gh"

// WorkflowRun is one execution instance of the hosting platform's CI
// pipeline, addressable by the commit SHA it was triggered from.
type WorkflowRun struct {
	ID         int64  `json:"databaseId"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	HeadSHA    string `json:"headSha"`
}

// Completed reports whether the run has reached a terminal status.
func (w *WorkflowRun) Completed() bool {
	return w.Status == "completed"
}

// Succeeded reports whether a completed run concluded successfully.
func (w *WorkflowRun) Succeeded() bool {
	return w.Completed() && w.Conclusion == "success"
}

// Hub drives the code-hosting platform through its CLI: pull-request
// lifecycle, release publication, and workflow-run queries.
type Hub struct {
	// repoPath is the working tree the CLI operates from
	repoPath string

	// token authenticates every CLI call; threaded explicitly, never read
	// from ambient environment inside component logic
	token string

	// logger handles all output messages with appropriate formatting
	logger logger.Logger

	// executor runs CLI commands and captures their output
	executor git.CommandExecutor
}

// New creates a Hub with the default executor.
func New(repoPath, token string, log logger.Logger) *Hub {
	return NewWithExecutor(repoPath, token, log, git.NewExecExecutor())
}

// NewWithExecutor creates a Hub with a custom executor, primarily for tests.
func NewWithExecutor(repoPath, token string, log logger.Logger, executor git.CommandExecutor) *Hub {
	return &Hub{
		repoPath: repoPath,
		token:    token,
		logger:   log,
		executor: executor,
	}
}

// Available checks that the code-hosting CLI is installed.
func Available(lookPath func(string) (string, error)) error {
	if _, err := lookPath(cliName); err != nil {
		return relErrors.Wrapf(err, "%s is not found in PATH", cliName)
	}
	return nil
}

// CreatePR opens a pull request from head into base.
// A failure whose output reports an already-existing pull request is
// returned as-is; callers classify it with IsBenign.
func (h *Hub) CreatePR(ctx context.Context, base, head, title, body string) error {
	return h.run(ctx, "pr", "create",
		"--base", base,
		"--head", head,
		"--title", title,
		"--body", body)
}

// MergePR merges the open pull request whose head is the given branch.
func (h *Hub) MergePR(ctx context.Context, branch string) error {
	return h.run(ctx, "pr", "merge", branch, "--merge")
}

// CreateRelease publishes a release and its tag. Prerelease status is
// requested explicitly; notes are generated by the platform.
func (h *Hub) CreateRelease(ctx context.Context, tag, title string, prerelease bool) error {
	args := []string{"release", "create", tag,
		"--title", title,
		"--generate-notes"}
	if prerelease {
		args = append(args, "--prerelease")
	}
	return h.run(ctx, args...)
}

// EditRelease updates the publication flags of the release addressed by its
// exact tag name. The tag is always named explicitly, never inferred from
// "most recent release", so a concurrent release cannot be misclassified.
func (h *Hub) EditRelease(ctx context.Context, tag string, prerelease, latest bool) error {
	args := []string{"release", "edit", tag,
		fmt.Sprintf("--prerelease=%t", prerelease),
		fmt.Sprintf("--latest=%t", latest)}
	return h.run(ctx, args...)
}

// WorkflowRunForCommit returns the workflow run whose head commit equals
// sha, or nil if no such run is visible yet. The list is addressed by the
// SHA on the platform side, so the run is found even on a busy repository.
func (h *Hub) WorkflowRunForCommit(ctx context.Context, sha string) (*WorkflowRun, error) {
	output, err := h.runWithOutput(ctx, "run", "list",
		"--commit", sha,
		"--json", "databaseId,status,conclusion,headSha",
		"--limit", "1")
	if err != nil {
		return nil, err
	}

	var runs []WorkflowRun
	if err := json.Unmarshal([]byte(output), &runs); err != nil {
		return nil, relErrors.Wrap(err, "failed to decode workflow run list")
	}

	for i := range runs {
		if runs[i].HeadSHA == sha {
			return &runs[i], nil
		}
	}
	return nil, nil
}

// WorkflowRun returns the current state of one workflow run by ID.
func (h *Hub) WorkflowRun(ctx context.Context, id int64) (*WorkflowRun, error) {
	output, err := h.runWithOutput(ctx, "run", "view", fmt.Sprintf("%d", id),
		"--json", "databaseId,status,conclusion,headSha")
	if err != nil {
		return nil, err
	}

	var run WorkflowRun
	if err := json.Unmarshal([]byte(output), &run); err != nil {
		return nil, relErrors.Wrap(err, "failed to decode workflow run")
	}
	return &run, nil
}

// benignFailures are the specific failure texts that indicate the platform
// is already in the desired state. Only these are tolerated; everything
// else propagates as fatal.
var benignFailures = []string{
	"already merged",
	"already been merged",
	"no pull requests found",
	"already exists",
}

// IsBenign reports whether err is a known already-in-desired-state failure.
func IsBenign(err error) bool {
	if err == nil {
		return false
	}

	var hubErr *relErrors.HubError
	if !relErrors.As(err, &hubErr) {
		return false
	}

	text := strings.ToLower(hubErr.Output)
	for _, benign := range benignFailures {
		if strings.Contains(text, benign) {
			return true
		}
	}
	return false
}

// run executes one CLI command in the repository directory.
func (h *Hub) run(ctx context.Context, args ...string) error {
	cmd := h.command(ctx, args...)
	if err := h.executor.Execute(ctx, cmd); err != nil {
		return h.wrapError(args, err)
	}
	return nil
}

// runWithOutput executes one CLI command and returns its stdout.
func (h *Hub) runWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := h.command(ctx, args...)
	output, err := h.executor.ExecuteWithOutput(ctx, cmd)
	if err != nil {
		return output, h.wrapError(args, err)
	}
	return output, nil
}

// command builds a CLI invocation with the token injected into its
// environment rather than inherited ambiently.
func (h *Hub) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, cliName, args...)
	cmd.Dir = h.repoPath
	cmd.Env = append(os.Environ(), "GH_TOKEN="+h.token)
	return cmd
}

// wrapError converts an executor failure into a HubError keyed by the
// CLI subcommand, preserving stderr.
func (h *Hub) wrapError(args []string, err error) error {
	command := cliName
	if len(args) > 0 {
		command = fmt.Sprintf("%s %s", cliName, strings.Join(args[:min(2, len(args))], " "))
	}

	output := ""
	var execErr *git.ExecError
	if relErrors.As(err, &execErr) {
		output = execErr.Stderr
	}

	return relErrors.NewHubError(command, args, err, output)
}
