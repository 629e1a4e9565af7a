package main

import (
	"context"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/relcut/relcut/internal/config"
	relErrors "github.com/relcut/relcut/internal/errors"
	"github.com/relcut/relcut/internal/git"
	"github.com/relcut/relcut/internal/logger"
)

// stubReleaser records whether the pipeline ran.
type stubReleaser struct {
	executed  bool
	summaries int
	err       error
}

func (s *stubReleaser) Execute(ctx context.Context) error {
	s.executed = true
	return s.err
}

func (s *stubReleaser) PrintSummary() {
	s.summaries++
}

// stubLocker records acquire/release calls.
type stubLocker struct {
	acquired   bool
	released   bool
	acquireErr error
}

func (s *stubLocker) Acquire() error {
	s.acquired = true
	return s.acquireErr
}

func (s *stubLocker) Release() error {
	s.released = true
	return nil
}

func testLogger() logger.Logger {
	return logger.NewWithOutput(false, "", false, &strings.Builder{}, &strings.Builder{})
}

// newTestApp builds an App whose system dependencies all succeed.
func newTestApp(mutate func(opts *AppOptions)) (*App, *stubReleaser, *stubLocker) {
	cfg := config.New()
	cfg.Version = "1.2.3"
	cfg.RepoPath = "/repo"
	cfg.Token = "secret"
	cfg.RepoURL = "https://github.com/acme/widget"

	releaser := &stubReleaser{}
	locker := &stubLocker{}

	opts := AppOptions{
		Config:       cfg,
		Logger:       testLogger(),
		Locker:       locker,
		Pipeline:     releaser,
		Interactor:   git.NewNonInteractiveInteractor(),
		Stdout:       &strings.Builder{},
		Stderr:       &strings.Builder{},
		Exit:         func(code int) {},
		ExecLookPath: func(file string) (string, error) { return "/usr/bin/" + file, nil },
		IsRepository: func(string) (bool, error) { return true, nil },
	}
	if mutate != nil {
		mutate(&opts)
	}

	return NewApp(opts), releaser, locker
}

func TestAppRunHappyPath(t *testing.T) {
	t.Parallel()

	app, releaser, locker := newTestApp(nil)

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !releaser.executed {
		t.Error("expected the pipeline to execute")
	}
	if releaser.summaries != 1 {
		t.Errorf("expected one summary, got %d", releaser.summaries)
	}
	if !locker.acquired || !locker.released {
		t.Errorf("expected the lock acquired and released, got acquired=%v released=%v",
			locker.acquired, locker.released)
	}
}

func TestAppRunFailures(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate      func(opts *AppOptions)
		expectedErr error
	}{
		"Not A Repository": {
			mutate: func(opts *AppOptions) {
				opts.IsRepository = func(string) (bool, error) { return false, nil }
			},
			expectedErr: relErrors.ErrNotGitRepository,
		},
		"Missing Token": {
			mutate: func(opts *AppOptions) {
				opts.Config.Token = ""
			},
			expectedErr: relErrors.ErrMissingToken,
		},
		"Missing Repo URL": {
			mutate: func(opts *AppOptions) {
				opts.Config.RepoURL = ""
			},
			expectedErr: relErrors.ErrInvalidConfiguration,
		},
		"Lock Held": {
			mutate: func(opts *AppOptions) {
				opts.Locker = &stubLocker{acquireErr: relErrors.NewLockError("/tmp/x.lock", 99, relErrors.ErrAlreadyRunning)}
			},
			expectedErr: relErrors.ErrAlreadyRunning,
		},
		"Invalid Version": {
			mutate: func(opts *AppOptions) {
				opts.Config.Version = "not-a-version"
			},
			expectedErr: relErrors.ErrInvalidConfiguration,
		},
		"Missing Version Non-Interactive": {
			mutate: func(opts *AppOptions) {
				opts.Config.Version = ""
				opts.Config.NonInteractive = true
			},
			expectedErr: relErrors.ErrInvalidConfiguration,
		},
		"CI Failure Propagates": {
			mutate: func(opts *AppOptions) {
				opts.Pipeline = &stubReleaser{err: relErrors.Wrap(relErrors.ErrCIFailed, "stage ci-gate")}
			},
			expectedErr: relErrors.ErrCIFailed,
		},
	}

	for name, test := range tests {
		test := test
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app, _, _ := newTestApp(test.mutate)

			err := app.Run(context.Background())
			if !relErrors.Is(err, test.expectedErr) {
				t.Fatalf("expected %v, got %v", test.expectedErr, err)
			}
		})
	}
}

func TestAppRunMissingRepoURLFailsBeforePipeline(t *testing.T) {
	t.Parallel()

	app, releaser, _ := newTestApp(func(opts *AppOptions) {
		opts.Config.RepoURL = ""
	})

	err := app.Run(context.Background())
	if !relErrors.Is(err, relErrors.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if releaser.executed {
		t.Error("expected no pipeline execution without a repository URL")
	}
	if !strings.Contains(err.Error(), "repo_url") {
		t.Errorf("expected the remediation to name the config key, got %v", err)
	}
}

func TestCheckRequiredCommands(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		missing     map[string]bool
		dryRun      bool
		token       string
		noRepoURL   bool
		expectError bool
	}{
		"All Present": {
			token: "secret",
		},
		"Git Missing": {
			missing:     map[string]bool{"git": true},
			token:       "secret",
			expectError: true,
		},
		"Gh Missing": {
			missing:     map[string]bool{"gh": true},
			token:       "secret",
			expectError: true,
		},
		"Gh Missing Under Dry-Run": {
			missing: map[string]bool{"gh": true},
			dryRun:  true,
			token:   "secret",
		},
		"Token Missing": {
			expectError: true,
		},
		"Token Missing Under Dry-Run": {
			dryRun:      true,
			expectError: true,
		},
		"Repo URL Missing": {
			token:       "secret",
			noRepoURL:   true,
			expectError: true,
		},
		"Repo URL Missing Under Dry-Run": {
			dryRun:    true,
			token:     "secret",
			noRepoURL: true,
		},
	}

	for name, test := range tests {
		test := test
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app, _, _ := newTestApp(func(opts *AppOptions) {
				opts.Config.DryRun = test.dryRun
				opts.Config.Token = test.token
				if test.noRepoURL {
					opts.Config.RepoURL = ""
				}
				opts.ExecLookPath = func(file string) (string, error) {
					if test.missing[file] {
						return "", relErrors.New("not found")
					}
					return "/usr/bin/" + file, nil
				}
			})

			err := app.checkRequiredCommands()
			if test.expectError && err == nil {
				t.Error("expected an error")
			}
			if !test.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestResolveReleaseTool(t *testing.T) {
	t.Parallel()

	t.Run("Missing Tool Is Fatal", func(t *testing.T) {
		t.Parallel()

		app, _, _ := newTestApp(func(opts *AppOptions) {
			opts.ExecLookPath = func(string) (string, error) { return "", relErrors.New("not found") }
		})

		_, err := app.resolveReleaseTool()
		if !relErrors.Is(err, relErrors.ErrToolUnavailable) {
			t.Errorf("expected ErrToolUnavailable, got %v", err)
		}
	})

	t.Run("Missing Tool Only Warns Under Dry-Run", func(t *testing.T) {
		t.Parallel()

		app, _, _ := newTestApp(func(opts *AppOptions) {
			opts.Config.DryRun = true
			opts.ExecLookPath = func(string) (string, error) { return "", relErrors.New("not found") }
		})

		tool, err := app.resolveReleaseTool()
		if err != nil {
			t.Fatalf("expected dry-run to tolerate a missing tool, got %v", err)
		}
		if tool == nil {
			t.Error("expected a placeholder tool for dry-run")
		}
	})
}

func TestRunMapsExitCodes(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		pipelineErr  error
		expectedCode int
	}{
		"Success": {
			pipelineErr:  nil,
			expectedCode: exitSuccess,
		},
		"CI Failed": {
			pipelineErr:  relErrors.Wrap(relErrors.ErrCIFailed, "stage ci-gate"),
			expectedCode: exitCIGateFailure,
		},
		"CI Timeout": {
			pipelineErr:  relErrors.Wrap(relErrors.ErrCITimeout, "stage ci-gate"),
			expectedCode: exitCIGateFailure,
		},
		"Confirmation Declined": {
			pipelineErr:  relErrors.Wrap(relErrors.ErrConfirmationDeclined, "stage finalize"),
			expectedCode: exitFinalizeDeclined,
		},
		"Other Failure": {
			pipelineErr:  relErrors.New("boom"),
			expectedCode: exitFailure,
		},
		"Cancellation Is Clean": {
			pipelineErr:  context.Canceled,
			expectedCode: exitSuccess,
		},
	}

	for name, test := range tests {
		test := test
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app, _, _ := newTestApp(func(opts *AppOptions) {
				opts.Pipeline = &stubReleaser{err: test.pipelineErr}
			})

			err := run(context.Background(), app)
			if test.expectedCode == exitSuccess {
				if err != nil {
					t.Errorf("expected success, got %v", err)
				}
				return
			}

			var exitCoder cli.ExitCoder
			if !relErrors.As(err, &exitCoder) {
				t.Fatalf("expected a cli.ExitCoder, got %T", err)
			}
			if exitCoder.ExitCode() != test.expectedCode {
				t.Errorf("expected exit code %d, got %d", test.expectedCode, exitCoder.ExitCode())
			}
		})
	}
}

func TestShowVersion(t *testing.T) {
	t.Parallel()

	var stdout strings.Builder
	app, _, _ := newTestApp(func(opts *AppOptions) {
		opts.Stdout = &stdout
		opts.Config.VersionInfo = config.VersionInfo{Version: "9.9.9", Commit: "abc", Date: "today"}
	})

	app.ShowVersion()

	if !strings.Contains(stdout.String(), "relcut 9.9.9 (abc) built on today") {
		t.Errorf("unexpected version output: %q", stdout.String())
	}
}
