package pipeline

import (
	"context"

	"github.com/relcut/relcut/internal/hub"
)

// publishStage drives the release tooling: it generates the release pull
// request, merges it into the release branch, then creates the hosted
// release for the tag and parks it as a pre-release until CI confirms it.
//
// Benign tool outcomes (a PR that is already merged, a release that
// already exists) are logged and skipped so a re-run of the same version
// converges instead of failing.
func (p *Pipeline) publishStage(ctx context.Context) error {
	if p.run.DryRun {
		p.logger.StatusMessage("Dry-run: skipping release PR, merge, and release creation for %s", p.run.Tag)
		return nil
	}

	p.logger.InfoToUser("Generating release PR against %s", p.run.Branch)
	if err := p.tool.ReleasePR(ctx, p.run.Branch); err != nil {
		if !hub.IsBenign(err) {
			return err
		}
		p.logger.Warning("release PR generation reported a benign condition: %v", err)
	}

	p.logger.InfoToUser("Merging release PR into %s", p.run.Branch)
	if err := p.hub.MergePR(ctx, p.run.Branch); err != nil {
		if !hub.IsBenign(err) {
			return err
		}
		p.logger.InfoToUser("Release PR already merged, continuing")
	}

	// The merge landed on the remote; sync the local branch before the
	// tool derives the release from it.
	if err := p.git.Pull(ctx); err != nil {
		return err
	}

	p.logger.InfoToUser("Creating hosted release for %s", p.run.Tag)
	if err := p.tool.GitHubRelease(ctx, p.run.Branch); err != nil {
		if !hub.IsBenign(err) {
			return err
		}
		p.logger.InfoToUser("Release %s already exists, continuing", p.run.Tag)
	}

	// Park the release as a pre-release until the CI gate clears it.
	// Failing to park is not fatal: the finalize stage promotion is the
	// state that matters.
	if err := p.parkRelease(ctx); err != nil {
		p.logger.Warning("could not park %s as pre-release: %v", p.run.Tag, err)
		return nil
	}

	p.logger.Success("Release %s created (pre-release, pending CI)", p.run.Tag)
	return nil
}

// parkRelease marks the release as a pre-release by its exact tag. When
// the edit fails, typically because the tool pushed the tag without a
// hosted release attached, the release is created parked directly.
func (p *Pipeline) parkRelease(ctx context.Context) error {
	err := p.hub.EditRelease(ctx, p.run.Tag, true, false)
	if err == nil {
		return nil
	}

	p.logger.Info("pre-release edit of %s failed (%v), creating it directly", p.run.Tag, err)
	return p.hub.CreateRelease(ctx, p.run.Tag, p.run.Tag, true)
}
