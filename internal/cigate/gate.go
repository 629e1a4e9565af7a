// Package cigate blocks the release pipeline until the CI workflow run
// triggered by the release tag reaches a terminal state, or a fixed budget
// elapses, whichever comes first.
package cigate

import (
	"context"
	"time"

	relErrors "github.com/relcut/relcut/internal/errors"
	"github.com/relcut/relcut/internal/hub"
	"github.com/relcut/relcut/internal/logger"
)

const (
	// DefaultPollInterval between workflow-run queries
	DefaultPollInterval = 15 * time.Second

	// DefaultTimeout is the gate's whole budget, measured from Wait entry
	// so a slow-to-appear workflow run still counts against it
	DefaultTimeout = 3600 * time.Second
)

// TagResolver resolves a tag to the commit SHA it points to.
type TagResolver interface {
	ResolveTag(ctx context.Context, tag string) (string, error)
}

// RunObserver queries the CI system for workflow runs.
type RunObserver interface {
	WorkflowRunForCommit(ctx context.Context, sha string) (*hub.WorkflowRun, error)
	WorkflowRun(ctx context.Context, id int64) (*hub.WorkflowRun, error)
}

// Gate is a bounded polling loop over the CI system's asynchronous outcome.
// It is parameterized by poll interval, timeout, and the terminal-state
// predicate on WorkflowRun, so a push-based notifier could replace the loop
// without changing the contract: input a tag, output success or an error.
type Gate struct {
	tags   TagResolver
	runs   RunObserver
	logger logger.Logger

	// PollInterval is the sleep between queries
	PollInterval time.Duration

	// Timeout bounds the whole wait, from Wait entry
	Timeout time.Duration
}

// New creates a Gate with the default poll interval and timeout.
func New(tags TagResolver, runs RunObserver, log logger.Logger) *Gate {
	return &Gate{
		tags:         tags,
		runs:         runs,
		logger:       log,
		PollInterval: DefaultPollInterval,
		Timeout:      DefaultTimeout,
	}
}

// Wait blocks until the workflow run for the tag's commit completes.
// It returns nil only for conclusion "success"; any other terminal
// conclusion returns ErrCIFailed and exceeding the budget returns
// ErrCITimeout. Cancellation of ctx terminates the wait immediately;
// the gate itself commits no state.
func (g *Gate) Wait(ctx context.Context, tag string) error {
	sha, err := g.tags.ResolveTag(ctx, tag)
	if err != nil {
		return relErrors.Wrapf(err, "cannot resolve tag %s to a commit", tag)
	}
	g.logger.Info("gating on ci for tag %s (commit %s)", tag, sha)
	g.logger.StatusMessage("⏳ Waiting for CI run on %s (timeout %s)", tag, g.Timeout)

	deadline := time.Now().Add(g.Timeout)

	run, err := g.awaitRunAppearance(ctx, sha, deadline)
	if err != nil {
		return err
	}

	return g.awaitConclusion(ctx, tag, run, deadline)
}

// awaitRunAppearance polls until a workflow run with the given head commit
// becomes visible.
func (g *Gate) awaitRunAppearance(ctx context.Context, sha string, deadline time.Time) (*hub.WorkflowRun, error) {
	for {
		run, err := g.runs.WorkflowRunForCommit(ctx, sha)
		if err != nil {
			return nil, err
		}
		if run != nil {
			g.logger.Info("found workflow run %d for commit %s (status %s)", run.ID, sha, run.Status)
			return run, nil
		}

		if err := g.sleep(ctx, deadline); err != nil {
			return nil, relErrors.Wrapf(err, "no workflow run appeared for commit %s", sha)
		}
	}
}

// awaitConclusion polls one run until it reports completed, then judges
// its conclusion.
func (g *Gate) awaitConclusion(ctx context.Context, tag string, run *hub.WorkflowRun, deadline time.Time) error {
	for {
		if run.Completed() {
			if run.Succeeded() {
				g.logger.Success("CI run %d for %s succeeded", run.ID, tag)
				return nil
			}
			return relErrors.Wrapf(relErrors.ErrCIFailed,
				"workflow run %d for %s concluded %q", run.ID, tag, run.Conclusion)
		}

		if err := g.sleep(ctx, deadline); err != nil {
			return relErrors.Wrapf(err, "workflow run %d for %s never completed", run.ID, tag)
		}

		updated, err := g.runs.WorkflowRun(ctx, run.ID)
		if err != nil {
			return err
		}
		run = updated
	}
}

// sleep waits one poll interval, honoring both cancellation and the
// gate deadline.
func (g *Gate) sleep(ctx context.Context, deadline time.Time) error {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return relErrors.ErrCITimeout
	}

	interval := g.PollInterval
	if interval > remaining {
		interval = remaining
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		if time.Now().After(deadline) {
			return relErrors.ErrCITimeout
		}
		return nil
	}
}
