package pipeline

import (
	"context"
	"fmt"

	relErrors "github.com/relcut/relcut/internal/errors"
	"github.com/relcut/relcut/internal/hub"
)

// finalizeStage lands the release on the main branch and promotes the
// hosted release out of pre-release. It runs only after the CI gate has
// confirmed the tag, and it asks the operator for confirmation first:
// this is the last point of no return.
func (p *Pipeline) finalizeStage(ctx context.Context) error {
	if p.run.DryRun {
		p.logger.StatusMessage("Dry-run: skipping merge to %s and release promotion", p.cfg.MainBranch)
		return nil
	}

	if !p.confirmFinalize() {
		return relErrors.ErrConfirmationDeclined
	}

	title := fmt.Sprintf("Release %s", p.run.Version)
	body := fmt.Sprintf("Merges release branch %s into %s for release %s.",
		p.run.Branch, p.cfg.MainBranch, p.run.Tag)

	p.logger.InfoToUser("Opening PR %s -> %s", p.run.Branch, p.cfg.MainBranch)
	if err := p.hub.CreatePR(ctx, p.cfg.MainBranch, p.run.Branch, title, body); err != nil {
		if !hub.IsBenign(err) {
			return err
		}
		p.logger.InfoToUser("PR for %s already exists, continuing", p.run.Branch)
	}

	p.logger.InfoToUser("Merging %s into %s", p.run.Branch, p.cfg.MainBranch)
	if err := p.hub.MergePR(ctx, p.run.Branch); err != nil {
		if !hub.IsBenign(err) {
			return err
		}
		p.logger.InfoToUser("Branch %s already merged, continuing", p.run.Branch)
	}

	p.logger.InfoToUser("Promoting %s to latest", p.run.Tag)
	if err := p.hub.EditRelease(ctx, p.run.Tag, false, true); err != nil {
		return err
	}

	if err := p.git.Checkout(ctx, p.cfg.MainBranch); err != nil {
		return err
	}
	if err := p.git.Pull(ctx); err != nil {
		return err
	}

	p.logger.Success("Merged %s into %s", p.run.Branch, p.cfg.MainBranch)
	return nil
}

// confirmFinalize asks the operator to approve the merge and promotion.
// Non-interactive runs proceed automatically; interactivity was opted out
// of deliberately, so the gate result stands in for the human.
func (p *Pipeline) confirmFinalize() bool {
	if p.cfg.NonInteractive {
		p.logger.Info("non-interactive mode, proceeding with finalize")
		return true
	}

	prompt := fmt.Sprintf("CI passed for %s. Merge %s into %s and promote the release to latest?",
		p.run.Tag, p.run.Branch, p.cfg.MainBranch)
	if p.interactor.PromptYesNo(prompt) {
		return true
	}

	p.logger.WarningToUser("Finalize declined; release %s remains a pre-release on %s",
		p.run.Tag, p.run.Branch)
	return false
}
