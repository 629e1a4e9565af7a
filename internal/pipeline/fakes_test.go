package pipeline

import (
	"context"
	"fmt"
	"strings"

	relErrors "github.com/relcut/relcut/internal/errors"
)

// fakeGit is a scripted GitClient that records every call in order.
type fakeGit struct {
	calls []string

	currentBranch string
	dirty         bool
	localBranch   bool
	remoteBranch  bool
	staged        bool
	upstream      bool

	stashPopErr error
	pushErr     error
}

func (g *fakeGit) record(format string, args ...any) {
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

func (g *fakeGit) called(prefix string) bool {
	for _, c := range g.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (g *fakeGit) CurrentBranch(ctx context.Context) (string, error) {
	g.record("current-branch")
	if g.currentBranch == "" {
		return "main", nil
	}
	return g.currentBranch, nil
}

func (g *fakeGit) HasUncommittedChanges(ctx context.Context) (bool, error) {
	g.record("has-uncommitted")
	return g.dirty, nil
}

func (g *fakeGit) StashPush(ctx context.Context, label string) error {
	g.record("stash-push %s", label)
	return nil
}

func (g *fakeGit) StashPop(ctx context.Context) error {
	g.record("stash-pop")
	return g.stashPopErr
}

func (g *fakeGit) LocalBranchExists(ctx context.Context, name string) (bool, error) {
	g.record("local-branch-exists %s", name)
	return g.localBranch, nil
}

func (g *fakeGit) RemoteBranchExists(ctx context.Context, name string) (bool, error) {
	g.record("remote-branch-exists %s", name)
	return g.remoteBranch, nil
}

func (g *fakeGit) Fetch(ctx context.Context, branch string) error {
	g.record("fetch %s", branch)
	return nil
}

func (g *fakeGit) Checkout(ctx context.Context, branch string) error {
	g.record("checkout %s", branch)
	return nil
}

func (g *fakeGit) CheckoutNew(ctx context.Context, branch string) error {
	g.record("checkout-new %s", branch)
	return nil
}

func (g *fakeGit) CheckoutTrack(ctx context.Context, branch string) error {
	g.record("checkout-track %s", branch)
	return nil
}

func (g *fakeGit) Add(ctx context.Context, paths ...string) error {
	g.record("add %s", strings.Join(paths, " "))
	return nil
}

func (g *fakeGit) HasStagedChanges(ctx context.Context) (bool, error) {
	g.record("has-staged")
	return g.staged, nil
}

func (g *fakeGit) Commit(ctx context.Context, message string) error {
	g.record("commit %s", message)
	return nil
}

func (g *fakeGit) HasUpstream(ctx context.Context, branch string) (bool, error) {
	g.record("has-upstream %s", branch)
	return g.upstream, nil
}

func (g *fakeGit) Push(ctx context.Context, branch string) error {
	g.record("push %s", branch)
	return g.pushErr
}

func (g *fakeGit) PushSetUpstream(ctx context.Context, branch string) error {
	g.record("push-set-upstream %s", branch)
	return g.pushErr
}

func (g *fakeGit) Pull(ctx context.Context) error {
	g.record("pull")
	return nil
}

// fakeHub is a scripted HubClient.
type fakeHub struct {
	calls []string

	createPRErr      error
	mergePRErrs      []error // consumed per call, last repeats
	mergeCalls       int
	createReleaseErr error
	editReleaseErrs  []error // consumed per call, last repeats
	editCalls        int
}

func (h *fakeHub) called(prefix string) bool {
	for _, c := range h.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (h *fakeHub) CreatePR(ctx context.Context, base, head, title, body string) error {
	h.calls = append(h.calls, fmt.Sprintf("create-pr %s<-%s", base, head))
	return h.createPRErr
}

func (h *fakeHub) MergePR(ctx context.Context, branch string) error {
	h.calls = append(h.calls, "merge-pr "+branch)
	var err error
	if len(h.mergePRErrs) > 0 {
		idx := h.mergeCalls
		if idx >= len(h.mergePRErrs) {
			idx = len(h.mergePRErrs) - 1
		}
		err = h.mergePRErrs[idx]
	}
	h.mergeCalls++
	return err
}

func (h *fakeHub) CreateRelease(ctx context.Context, tag, title string, prerelease bool) error {
	h.calls = append(h.calls, fmt.Sprintf("create-release %s prerelease=%t", tag, prerelease))
	return h.createReleaseErr
}

func (h *fakeHub) EditRelease(ctx context.Context, tag string, prerelease, latest bool) error {
	h.calls = append(h.calls, fmt.Sprintf("edit-release %s prerelease=%t latest=%t", tag, prerelease, latest))
	var err error
	if len(h.editReleaseErrs) > 0 {
		idx := h.editCalls
		if idx >= len(h.editReleaseErrs) {
			idx = len(h.editReleaseErrs) - 1
		}
		err = h.editReleaseErrs[idx]
	}
	h.editCalls++
	return err
}

// fakeTool is a scripted ReleaseTool.
type fakeTool struct {
	calls        []string
	releasePRErr error
	releaseErr   error
}

func (f *fakeTool) ReleasePR(ctx context.Context, branch string) error {
	f.calls = append(f.calls, "release-pr "+branch)
	return f.releasePRErr
}

func (f *fakeTool) GitHubRelease(ctx context.Context, branch string) error {
	f.calls = append(f.calls, "github-release "+branch)
	return f.releaseErr
}

// fakeGate is a scripted CIGate.
type fakeGate struct {
	called bool
	err    error
}

func (f *fakeGate) Wait(ctx context.Context, tag string) error {
	f.called = true
	return f.err
}

// fakeRewriter is a scripted Rewriter.
type fakeRewriter struct {
	applied []string
	changed []string
	err     error
}

func (f *fakeRewriter) Apply(version string) ([]string, error) {
	f.applied = append(f.applied, version)
	return f.changed, f.err
}

func (f *fakeRewriter) Paths() []string {
	return []string{"package.json", "install.sh", "default.nix", "README.md"}
}

// fakeInteractor answers every prompt with a fixed response.
type fakeInteractor struct {
	answer   bool
	prompted int
}

func (f *fakeInteractor) PromptYesNo(question string) bool {
	f.prompted++
	return f.answer
}

func (f *fakeInteractor) PromptString(question string) string {
	return ""
}

// hubError builds a HubError with the given platform output; the output
// text decides whether IsBenign tolerates it.
func hubError(output string) error {
	return relErrors.NewHubError("gh pr merge", nil, relErrors.New("exit status 1"), output)
}
