package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/relcut/relcut/internal/config"
	relErrors "github.com/relcut/relcut/internal/errors"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitSuccess          = 0
	exitFailure          = 1
	exitCIGateFailure    = 2
	exitFinalizeDeclined = 3
)

func main() {
	versionInfo := config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	app := NewDefaultApp(versionInfo)

	cliApp := &cli.App{
		Name:           "relcut",
		Usage:          "Cut, verify, and promote a versioned release",
		ArgsUsage:      "[VERSION]",
		Version:        fmt.Sprintf("%s (commit: %s)", version, commit),
		ExitErrHandler: exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "repo",
				Usage: "Path to the git repository (default: current directory)",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the config file (default: .relcut.yml in the repository)",
			},
			&cli.StringFlag{
				Name:  "remote",
				Usage: "Git remote to push to",
			},
			&cli.StringFlag{
				Name:  "main-branch",
				Usage: "Branch the release is finally merged into",
			},
			&cli.StringFlag{
				Name:  "repo-url",
				Usage: "Repository URL passed to the release tool",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Run all local steps but suppress every remote-mutating call",
			},
			&cli.BoolFlag{
				Name:  "non-interactive",
				Usage: "Never prompt; proceed with defaults",
			},
			&cli.DurationFlag{
				Name:  "poll-interval",
				Usage: "CI gate polling interval",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "CI gate budget, measured from gate entry",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress informational output",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging to the log file",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Path to the debug log file",
			},
		},
		Action: func(c *cli.Context) error {
			if err := applyInputs(app.Config, c); err != nil {
				return cli.Exit(fmt.Sprintf("❌ Error: %v", err), exitFailure)
			}
			return run(c.Context, app)
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-sigs
		fmt.Printf("\nReceived signal %v, stopping relcut...\n", sig)
		cancel()

		// Give in-flight subprocesses a moment to observe cancellation,
		// then force the exit.
		time.Sleep(5 * time.Second)
		_ = app.Close()
		app.exit(exitFailure)
	}()

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		// ExitErrHandler already exited for cli.ExitCoder errors; anything
		// reaching this point is unexpected.
		app.exit(exitFailure)
	}
}

// applyInputs layers the configuration sources in precedence order:
// defaults, config file, environment, command-line flags.
func applyInputs(cfg *config.Config, c *cli.Context) error {
	// The repository path anchors the default config-file location, so
	// settle it before reading the file.
	cfg.LoadFromEnvironment()
	if c.IsSet("repo") {
		cfg.RepoPath = c.String("repo")
	}

	configPath := c.String("config")
	explicit := configPath != ""
	if !explicit {
		root := cfg.RepoPath
		if root == "" {
			root = "."
		}
		configPath = filepath.Join(root, config.DefaultConfigFile)
	}
	if err := cfg.LoadFile(configPath, explicit); err != nil {
		return err
	}

	// Environment overrides file values.
	cfg.LoadFromEnvironment()

	if c.IsSet("remote") {
		cfg.Remote = c.String("remote")
	}
	if c.IsSet("main-branch") {
		cfg.MainBranch = c.String("main-branch")
	}
	if c.IsSet("repo-url") {
		cfg.RepoURL = c.String("repo-url")
	}
	if c.IsSet("dry-run") {
		cfg.DryRun = c.Bool("dry-run")
	}
	if c.IsSet("non-interactive") {
		cfg.NonInteractive = c.Bool("non-interactive")
	}
	if c.IsSet("poll-interval") {
		cfg.PollInterval = c.Duration("poll-interval")
	}
	if c.IsSet("timeout") {
		cfg.PollTimeout = c.Duration("timeout")
	}
	if c.IsSet("quiet") {
		cfg.Verbose = !c.Bool("quiet")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}

	if c.NArg() > 1 {
		return fmt.Errorf("expected at most one VERSION argument, got %d", c.NArg())
	}
	if c.NArg() == 1 {
		cfg.Version = c.Args().First()
	}

	return nil
}

// run executes the app and translates pipeline outcomes to exit codes.
func run(ctx context.Context, app *App) error {
	err := app.Run(ctx)
	if err == nil {
		return nil
	}

	// Cancellation is the normal signal shutdown path, not an error.
	if errors.Is(err, context.Canceled) {
		return nil
	}

	switch {
	case relErrors.Is(err, relErrors.ErrCIFailed), relErrors.Is(err, relErrors.ErrCITimeout):
		return cli.Exit(fmt.Sprintf("❌ Error: %v", err), exitCIGateFailure)
	case relErrors.Is(err, relErrors.ErrConfirmationDeclined):
		return cli.Exit(fmt.Sprintf("❌ Error: %v", err), exitFinalizeDeclined)
	default:
		return cli.Exit(fmt.Sprintf("❌ Error: %v", err), exitFailure)
	}
}

// exitErrHandler preserves exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitCoder.Error(); msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitFailure)
}
