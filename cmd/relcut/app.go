package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/relcut/relcut/internal/cigate"
	"github.com/relcut/relcut/internal/config"
	relErrors "github.com/relcut/relcut/internal/errors"
	"github.com/relcut/relcut/internal/git"
	"github.com/relcut/relcut/internal/hub"
	"github.com/relcut/relcut/internal/lock"
	"github.com/relcut/relcut/internal/logger"
	"github.com/relcut/relcut/internal/pipeline"
	"github.com/relcut/relcut/internal/releasetool"
	"github.com/relcut/relcut/internal/rewrite"
)

// Releaser runs the release pipeline
type Releaser interface {
	Execute(ctx context.Context) error
	PrintSummary()
}

// Locker manages file locking
type Locker interface {
	Acquire() error
	Release() error
}

// AppOptions contains app configuration and dependencies
type AppOptions struct {
	// Required
	Config *config.Config

	// Optional components
	Logger     logger.Logger
	Locker     Locker
	Pipeline   Releaser
	Interactor git.UserInteractor

	// I/O dependencies
	Stdout io.Writer
	Stderr io.Writer

	// System dependencies
	Exit         func(code int)
	ExecLookPath func(file string) (string, error)
	IsRepository func(string) (bool, error)
}

// App is the main relcut application
type App struct {
	Config     *config.Config
	Logger     logger.Logger
	Locker     Locker
	Pipeline   Releaser
	Interactor git.UserInteractor

	// I/O streams
	Stdout io.Writer
	Stderr io.Writer

	// System dependencies
	exit         func(code int)
	execLookPath func(file string) (string, error)
	isRepository func(string) (bool, error)
}

// NewDefaultApp creates an App with standard dependencies
func NewDefaultApp(versionInfo config.VersionInfo) *App {
	cfg := config.New()
	cfg.VersionInfo = versionInfo

	opts := AppOptions{
		Config:       cfg,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Exit:         os.Exit,
		ExecLookPath: exec.LookPath,
		IsRepository: git.IsRepository,
	}

	return NewApp(opts)
}

// NewApp creates an App with custom dependencies
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		panic("Config is required in AppOptions")
	}

	app := &App{
		Config:     opts.Config,
		Logger:     opts.Logger,
		Locker:     opts.Locker,
		Pipeline:   opts.Pipeline,
		Interactor: opts.Interactor,
		Stdout:     opts.Stdout,
		Stderr:     opts.Stderr,

		exit:         opts.Exit,
		execLookPath: opts.ExecLookPath,
		isRepository: opts.IsRepository,
	}

	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.exit == nil {
		app.exit = os.Exit
	}
	if app.execLookPath == nil {
		app.execLookPath = exec.LookPath
	}
	if app.isRepository == nil {
		app.isRepository = git.IsRepository
	}

	return app
}

// Initialize sets up components not provided during construction
func (a *App) Initialize() error {
	if err := a.Config.Finalize(); err != nil {
		if relErrors.Is(err, relErrors.ErrInvalidConfiguration) {
			return err
		}
		return relErrors.Wrap(relErrors.ErrInvalidConfiguration, err.Error())
	}

	if a.Logger == nil {
		log := logger.New(a.Config.Debug, a.Config.LogFile, a.Config.Verbose)
		if dl, ok := log.(*logger.DefaultLogger); ok {
			dl.SetStdout(a.Stdout)
			dl.SetStderr(a.Stderr)
		}
		a.Logger = log
	}

	if a.Locker == nil {
		locker, err := lock.New(a.Config.RepoPath)
		if err != nil {
			return relErrors.Wrap(err, "failed to initialize lock")
		}
		a.Locker = locker
	}

	if a.Interactor == nil {
		if a.Config.NonInteractive {
			a.Interactor = git.NewNonInteractiveInteractor()
		} else {
			a.Interactor = git.NewDefaultInteractor(a.Logger)
		}
	}

	return nil
}

// Run verifies the preconditions, wires the release collaborators, and
// executes the pipeline with the given context.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(); err != nil {
		return err
	}

	if err := a.resolveVersion(); err != nil {
		return err
	}

	defer func() {
		if err := a.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", err)
		}
	}()

	if err := a.checkRequiredCommands(); err != nil {
		return err
	}

	isRepo, err := a.isRepository(a.Config.RepoPath)
	if err != nil {
		a.Logger.Warning("Failed to check if path is a git repository: %v", err)
		return relErrors.Wrap(relErrors.ErrGitOperationFailed, err.Error())
	}
	if !isRepo {
		return relErrors.ErrNotGitRepository
	}
	a.Logger.Info("Git repository verified")

	if err := a.Locker.Acquire(); err != nil {
		if relErrors.Is(err, relErrors.ErrAlreadyRunning) {
			return err
		}
		return relErrors.Wrap(relErrors.ErrLockAcquisitionFailure, err.Error())
	}

	if a.Pipeline == nil {
		p, err := a.buildPipeline()
		if err != nil {
			return err
		}
		a.Pipeline = p
	}

	err = a.Pipeline.Execute(ctx)
	a.Pipeline.PrintSummary()
	return err
}

// resolveVersion fills in the release version when it was not given on
// the command line: interactively by prompting, otherwise fatally.
func (a *App) resolveVersion() error {
	if a.Config.Version == "" {
		if a.Config.NonInteractive {
			return relErrors.Wrap(relErrors.ErrInvalidConfiguration,
				"release version is required (pass it as the VERSION argument)")
		}
		a.Config.Version = a.Interactor.PromptString("Release version (e.g. 1.4.2)")
	}

	if !rewrite.ValidVersion(a.Config.Version) {
		return relErrors.Wrap(relErrors.ErrInvalidConfiguration,
			fmt.Sprintf("invalid release version %q (want MAJOR.MINOR.PATCH with optional pre-release suffix)", a.Config.Version))
	}
	return nil
}

// buildPipeline assembles the release collaborators around the finalized
// configuration.
func (a *App) buildPipeline() (*pipeline.Pipeline, error) {
	repo := git.New(a.Config.RepoPath, a.Config.Remote, a.Logger)
	hubClient := hub.New(a.Config.RepoPath, a.Config.Token, a.Logger)

	tool, err := a.resolveReleaseTool()
	if err != nil {
		return nil, err
	}

	gate := cigate.New(repo, hubClient, a.Logger)
	gate.PollInterval = a.Config.PollInterval
	gate.Timeout = a.Config.PollTimeout

	descriptors := make([]rewrite.Descriptor, 0, len(a.Config.Descriptors))
	for _, path := range a.Config.Descriptors {
		descriptors = append(descriptors, rewrite.Descriptor{Path: path})
	}
	binding := rewrite.ChecksumBinding{
		Source: a.Config.ChecksumSource,
		Target: a.Config.ChecksumTarget,
	}
	rewriter := rewrite.New(a.Config.RepoPath, descriptors, binding, a.Logger)

	return pipeline.New(pipeline.Options{
		Config:     a.Config,
		Git:        repo,
		Hub:        hubClient,
		Tool:       tool,
		Gate:       gate,
		Rewriter:   rewriter,
		Interactor: a.Interactor,
		Logger:     a.Logger,
	}), nil
}

// resolveReleaseTool locates a release-please entry point. A missing tool
// is fatal for a real run but only a warning under dry-run, where it is
// never invoked.
func (a *App) resolveReleaseTool() (pipeline.ReleaseTool, error) {
	invocation, err := releasetool.Resolve(a.execLookPath)
	if err != nil {
		if a.Config.DryRun {
			a.Logger.WarningToUser("No release tool found; a real run would fail: %v", err)
			invocation = releasetool.Invocation{Name: "release-please"}
		} else {
			return nil, err
		}
	} else {
		a.Logger.Info("release tool resolved: %s", invocation)
	}

	return releasetool.New(invocation, a.Config.RepoPath, a.Config.RepoURL, a.Config.Token, a.Logger), nil
}

// checkRequiredCommands verifies the external tools and credentials a run
// depends on. Dry-run relaxes the remote-facing requirements since the
// corresponding calls are suppressed.
func (a *App) checkRequiredCommands() error {
	var missing []string
	if _, err := a.execLookPath("git"); err != nil {
		missing = append(missing, "git")
	}
	if _, err := a.execLookPath("gh"); err != nil {
		if a.Config.DryRun {
			a.Logger.WarningToUser("gh is not found in PATH; a real run would fail")
		} else {
			missing = append(missing, "gh")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s not found in PATH", strings.Join(missing, ", "))
	}

	if a.Config.Token == "" {
		return relErrors.Wrap(relErrors.ErrMissingToken,
			"set RELCUT_TOKEN or GITHUB_TOKEN")
	}

	// The release tool needs the repository URL; catch its absence here,
	// before any branch is pushed.
	if a.Config.RepoURL == "" {
		if a.Config.DryRun {
			a.Logger.WarningToUser("no repository URL configured; a real run would fail")
		} else {
			return relErrors.Wrap(relErrors.ErrInvalidConfiguration,
				"repository URL is required (pass --repo-url or set repo_url in .relcut.yml)")
		}
	}

	return nil
}

// ShowVersion displays version information
func (a *App) ShowVersion() {
	_, _ = fmt.Fprintf(a.Stdout, "relcut %s (%s) built on %s\n",
		a.Config.VersionInfo.Version,
		a.Config.VersionInfo.Commit,
		a.Config.VersionInfo.Date)
}

// Close releases resources held by the App
func (a *App) Close() error {
	var errs []error

	if a.Locker != nil {
		if err := a.Locker.Release(); err != nil {
			if a.Logger != nil {
				a.Logger.Error("Failed to release lock during cleanup: %v", err)
			} else {
				_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to release lock during cleanup: %v\n", err)
			}
			errs = append(errs, err)
		}
	}

	if a.Logger != nil {
		if l, ok := a.Logger.(*logger.DefaultLogger); ok && l != nil {
			if err := l.Close(); err != nil {
				_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to close logger: %v\n", err)
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
