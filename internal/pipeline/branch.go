package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	relErrors "github.com/relcut/relcut/internal/errors"
)

// branchStage produces a checked-out release branch containing the
// rewritten descriptors committed, without losing any uncommitted local
// modifications that existed before the stage began.
//
// The stage is safe to re-run: an already-correct branch state produces no
// new commits and a no-op push.
func (p *Pipeline) branchStage(ctx context.Context) error {
	if err := p.snapshotWorkingTree(ctx); err != nil {
		return err
	}

	if err := p.resolveAndCheckout(ctx); err != nil {
		return err
	}

	if err := p.restoreSnapshot(ctx); err != nil {
		return err
	}

	if err := p.commitDescriptors(ctx); err != nil {
		return err
	}

	return p.pushBranch(ctx)
}

// snapshotWorkingTree captures uncommitted changes into a labeled,
// timestamped stash entry so the checkout cannot lose them. A clean tree
// skips the snapshot entirely.
func (p *Pipeline) snapshotWorkingTree(ctx context.Context) error {
	dirty, err := p.git.HasUncommittedChanges(ctx)
	if err != nil {
		return err
	}
	if !dirty {
		p.logger.Info("working tree clean, no snapshot needed")
		return nil
	}

	label := fmt.Sprintf("relcut pre-release snapshot %s %s",
		p.run.Version, time.Now().Format("2006-01-02 15:04:05"))
	if err := p.git.StashPush(ctx, label); err != nil {
		return err
	}

	p.run.Stashed = true
	p.logger.Info("captured working tree snapshot: %s", label)
	return nil
}

// resolveAndCheckout switches to the release branch: reuse it if it exists
// locally, fetch and track it if it exists on the remote, otherwise create
// it fresh from the current position. A re-run that is already on the
// release branch stays put.
func (p *Pipeline) resolveAndCheckout(ctx context.Context) error {
	branch := p.run.Branch

	current, err := p.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if current == branch {
		p.logger.StatusMessage("🌿 Already on branch %s", branch)
		return nil
	}

	local, err := p.git.LocalBranchExists(ctx, branch)
	if err != nil {
		return err
	}
	if local {
		p.logger.StatusMessage("🌿 Reusing local branch %s", branch)
		return p.git.Checkout(ctx, branch)
	}

	remote, err := p.git.RemoteBranchExists(ctx, branch)
	if err != nil {
		return err
	}
	if remote {
		p.logger.StatusMessage("🌿 Tracking remote branch %s", branch)
		if err := p.git.Fetch(ctx, branch); err != nil {
			return err
		}
		return p.git.CheckoutTrack(ctx, branch)
	}

	p.logger.StatusMessage("🌿 Creating branch %s", branch)
	return p.git.CheckoutNew(ctx, branch)
}

// restoreSnapshot reapplies the captured snapshot after the branch switch.
// A conflicting reapplication is fatal but operator-recoverable: the
// message names the exact commands that resume the run.
func (p *Pipeline) restoreSnapshot(ctx context.Context) error {
	if !p.run.Stashed {
		return nil
	}

	err := p.git.StashPop(ctx)
	if err == nil {
		p.run.Stashed = false
		p.logger.Info("reapplied working tree snapshot")
		return nil
	}

	if relErrors.Is(err, relErrors.ErrStashConflict) {
		p.logger.Error("Your stashed changes conflict with branch %s.", p.run.Branch)
		p.logger.StatusMessage("Resolve the conflicts in the listed files, then run:")
		p.logger.StatusMessage("  git add %s", strings.Join(p.rewriter.Paths(), " "))
		p.logger.StatusMessage("  git commit -m %q", releaseCommitMessage(p.run.Version))
		p.logger.StatusMessage("and re-run relcut %s to resume.", p.run.Version)
	}
	return err
}

// commitDescriptors stages exactly the rewritten descriptors and commits
// them, skipping the commit when nothing differs from the branch state.
func (p *Pipeline) commitDescriptors(ctx context.Context) error {
	if err := p.git.Add(ctx, p.rewriter.Paths()...); err != nil {
		return err
	}

	staged, err := p.git.HasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if !staged {
		p.logger.InfoToUser("Descriptors already committed on %s, skipping commit", p.run.Branch)
		return nil
	}

	if err := p.git.Commit(ctx, releaseCommitMessage(p.run.Version)); err != nil {
		return err
	}
	p.logger.Success("Committed version bump for %s", p.run.Version)
	return nil
}

// pushBranch pushes the release branch, creating the upstream tracking
// relationship on first push. Dry-run suppresses the push entirely.
func (p *Pipeline) pushBranch(ctx context.Context) error {
	if p.run.DryRun {
		p.logger.StatusMessage("Dry-run: skipping push of %s", p.run.Branch)
		return nil
	}

	tracked, err := p.git.HasUpstream(ctx, p.run.Branch)
	if err != nil {
		return err
	}

	if tracked {
		if err := p.git.Push(ctx, p.run.Branch); err != nil {
			return err
		}
	} else {
		if err := p.git.PushSetUpstream(ctx, p.run.Branch); err != nil {
			return err
		}
	}

	p.logger.Success("Pushed %s", p.run.Branch)
	return nil
}

// releaseCommitMessage is the fixed commit message a release version
// bump is committed under.
func releaseCommitMessage(version string) string {
	return fmt.Sprintf("chore: release %s", version)
}
