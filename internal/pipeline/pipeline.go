package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/relcut/relcut/internal/config"
	"github.com/relcut/relcut/internal/git"
	"github.com/relcut/relcut/internal/logger"
)

// Rewriter updates version strings and the checksum binding across the
// tracked artifact descriptors.
type Rewriter interface {
	// Apply rewrites every descriptor to version and returns the paths
	// whose contents changed
	Apply(version string) ([]string, error)

	// Paths returns all descriptor paths, for staging
	Paths() []string
}

// GitClient is the version-control surface the pipeline drives.
// *git.Repo implements it.
type GitClient interface {
	CurrentBranch(ctx context.Context) (string, error)
	HasUncommittedChanges(ctx context.Context) (bool, error)
	StashPush(ctx context.Context, label string) error
	StashPop(ctx context.Context) error
	LocalBranchExists(ctx context.Context, name string) (bool, error)
	RemoteBranchExists(ctx context.Context, name string) (bool, error)
	Fetch(ctx context.Context, branch string) error
	Checkout(ctx context.Context, branch string) error
	CheckoutNew(ctx context.Context, branch string) error
	CheckoutTrack(ctx context.Context, branch string) error
	Add(ctx context.Context, paths ...string) error
	HasStagedChanges(ctx context.Context) (bool, error)
	Commit(ctx context.Context, message string) error
	HasUpstream(ctx context.Context, branch string) (bool, error)
	Push(ctx context.Context, branch string) error
	PushSetUpstream(ctx context.Context, branch string) error
	Pull(ctx context.Context) error
}

// HubClient is the pull-request and release surface of the code-hosting
// platform. *hub.Hub implements it.
type HubClient interface {
	CreatePR(ctx context.Context, base, head, title, body string) error
	MergePR(ctx context.Context, branch string) error
	CreateRelease(ctx context.Context, tag, title string, prerelease bool) error
	EditRelease(ctx context.Context, tag string, prerelease, latest bool) error
}

// ReleaseTool generates the release pull request and the hosted release.
// *releasetool.Tool implements it.
type ReleaseTool interface {
	ReleasePR(ctx context.Context, branch string) error
	GitHubRelease(ctx context.Context, branch string) error
}

// CIGate blocks until the CI outcome for a tag is known.
// *cigate.Gate implements it.
type CIGate interface {
	Wait(ctx context.Context, tag string) error
}

// Run is the ephemeral, in-process state of one pipeline invocation.
// It is created at invocation start and discarded at process exit;
// resumption after failure is by operator re-invocation, not checkpoints.
type Run struct {
	// Version is the release version, immutable once accepted
	Version string

	// Branch is the computed release branch name
	Branch string

	// Tag is the computed release tag name
	Tag string

	// DryRun suppresses every remote-mutating call when set
	DryRun bool

	// Stashed marks that a working-tree snapshot was captured and
	// must be reapplied after the branch switch
	Stashed bool

	// StagesDone lists the stages that completed, for the summary
	StagesDone []string
}

// ReleaseBranch returns the branch name owned by a release version.
func ReleaseBranch(version string) string {
	return "release-" + version
}

// ReleaseTag returns the tag name a release version publishes under.
func ReleaseTag(version string) string {
	return "v" + version
}

// Pipeline sequences the release stages and owns fail-fast propagation:
// no stage begins before the previous one completed successfully, and no
// stage suppresses another stage's fatal error.
type Pipeline struct {
	cfg        *config.Config
	run        *Run
	git        GitClient
	hub        HubClient
	tool       ReleaseTool
	gate       CIGate
	rewriter   Rewriter
	interactor git.UserInteractor
	logger     logger.Logger
	startTime  time.Time
}

// Options bundles the collaborators a Pipeline needs.
type Options struct {
	Config     *config.Config
	Git        GitClient
	Hub        HubClient
	Tool       ReleaseTool
	Gate       CIGate
	Rewriter   Rewriter
	Interactor git.UserInteractor
	Logger     logger.Logger
}

// New creates a Pipeline for one release version.
func New(opts Options) *Pipeline {
	return &Pipeline{
		cfg: opts.Config,
		run: &Run{
			Version: opts.Config.Version,
			Branch:  ReleaseBranch(opts.Config.Version),
			Tag:     ReleaseTag(opts.Config.Version),
			DryRun:  opts.Config.DryRun,
		},
		git:        opts.Git,
		hub:        opts.Hub,
		tool:       opts.Tool,
		gate:       opts.Gate,
		rewriter:   opts.Rewriter,
		interactor: opts.Interactor,
		logger:     opts.Logger,
	}
}

// stage pairs a name with its implementation for the fail-fast loop.
type stage struct {
	name string
	fn   func(context.Context) error
}

// Execute runs the pipeline stages strictly in sequence.
// Any fatal condition halts the whole pipeline immediately.
func (p *Pipeline) Execute(ctx context.Context) error {
	p.startTime = time.Now()
	p.displayStartupInfo()

	stages := []stage{
		{"rewrite", p.rewriteStage},
		{"branch", p.branchStage},
		{"publish", p.publishStage},
		{"ci-gate", p.gateStage},
		{"finalize", p.finalizeStage},
	}

	for _, s := range stages {
		p.logger.StatusMessage("")
		p.logger.StatusMessage("▶ Stage: %s", s.name)

		if err := s.fn(ctx); err != nil {
			p.logger.Error("Stage %s failed: %v", s.name, err)
			return fmt.Errorf("stage %s: %w", s.name, err)
		}

		p.run.StagesDone = append(p.run.StagesDone, s.name)
	}

	p.logger.Success("Release %s published and promoted to latest", p.run.Tag)
	return nil
}

// displayStartupInfo outputs the active configuration to the user
func (p *Pipeline) displayStartupInfo() {
	p.logger.StatusMessage("🚀 relcut release %s", p.run.Version)
	p.logger.StatusMessage("📂 Repository: %s", p.cfg.RepoPath)
	p.logger.StatusMessage("🌿 Release branch: %s", p.run.Branch)
	p.logger.StatusMessage("🏷️  Release tag: %s", p.run.Tag)
	if p.run.DryRun {
		p.logger.StatusMessage("🔒 Dry-run: remote-mutating calls are suppressed")
	}
}

// rewriteStage updates every artifact descriptor, then the checksum binding.
func (p *Pipeline) rewriteStage(ctx context.Context) error {
	changed, err := p.rewriter.Apply(p.run.Version)
	if err != nil {
		return err
	}

	if len(changed) == 0 {
		p.logger.InfoToUser("All descriptors already at %s", p.run.Version)
		return nil
	}

	for _, path := range changed {
		p.logger.InfoToUser("Updated %s", path)
	}
	return nil
}

// gateStage blocks on the CI outcome for the release tag.
func (p *Pipeline) gateStage(ctx context.Context) error {
	if p.run.DryRun {
		p.logger.StatusMessage("Dry-run: no tag was created, skipping CI gate")
		return nil
	}
	return p.gate.Wait(ctx, p.run.Tag)
}

// PrintSummary prints a summary of the pipeline run
func (p *Pipeline) PrintSummary() {
	duration := time.Since(p.startTime).Round(time.Second)

	p.logger.StatusMessage("")
	p.logger.StatusMessage("---------------------------------------------")
	p.logger.StatusMessage("📊 relcut Release Summary")
	p.logger.StatusMessage("---------------------------------------------")
	p.logger.StatusMessage("🏷️  Version: %s (branch %s, tag %s)", p.run.Version, p.run.Branch, p.run.Tag)
	p.logger.StatusMessage("⏱️  Duration: %s", duration)

	if len(p.run.StagesDone) == 0 {
		p.logger.StatusMessage("❌ No stage completed")
	} else {
		for _, name := range p.run.StagesDone {
			p.logger.StatusMessage("✅ %s", name)
		}
	}

	if p.run.DryRun {
		p.logger.StatusMessage("")
		p.logger.StatusMessage("Dry-run: re-run without RELCUT_DRY_RUN/--dry-run to publish")
	}
	p.logger.StatusMessage("---------------------------------------------")
}
